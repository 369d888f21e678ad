package api

import (
	"errors"
	"net/http"

	"communitybot/pkg/auth"
	"communitybot/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

var errNoTelegramUser = errors.New("telegram user data not found in context")

func telegramUser(c *gin.Context) (*auth.TelegramUserData, error) {
	userData, exists := c.Get("telegram_user")
	if !exists {
		return nil, errNoTelegramUser
	}

	user, ok := userData.(*auth.TelegramUserData)
	if !ok {
		return nil, errNoTelegramUser
	}
	return user, nil
}

func abortInternal(c *gin.Context, msg string, err error) {
	logger.Logger().Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
