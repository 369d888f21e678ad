package api

import (
	"net/http"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/service"
	"communitybot/pkg/auth"

	"github.com/gin-gonic/gin"
)

type statusRoutes struct {
	users     *service.UserService
	status    *service.StatusService
	referrals *service.ReferralService
	a         *auth.TelegramAuth
}

func NewStatusRoutes(handler *gin.RouterGroup, users *service.UserService, status *service.StatusService, referrals *service.ReferralService, a *auth.TelegramAuth) {
	r := &statusRoutes{users: users, status: status, referrals: referrals, a: a}

	h := handler.Group("/me")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/status", r.GetStatus)
		h.GET("/referrals", r.GetReferrals)
	}
}

func (r *statusRoutes) GetStatus(c *gin.Context) {
	tg, err := telegramUser(c)
	if err != nil {
		abortInternal(c, "telegram user missing", err)
		return
	}

	user, err := r.users.GetUserByTelegramID(c.Request.Context(), tg.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user is not registered"})
		return
	}

	status, err := r.status.Status(c.Request.Context(), user.ID, time.Now().UTC())
	if err != nil {
		abortInternal(c, "failed to build status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"day":          status.DayUTC.Format("2006-01-02"),
		"checkin":      status.Done[model.ActionCheckin],
		"quiz":         status.Done[model.ActionQuiz],
		"screenshot":   status.Done[model.ActionScreenshot],
		"poll_vote":    status.Done[model.ActionPollVote],
		"spin":         status.Done[model.ActionSpin],
		"spin_unlock":  status.SpinsUnlock,
		"week_points":  status.WeekPoints,
		"week_streak":  status.WeekStreak,
	})
}

func (r *statusRoutes) GetReferrals(c *gin.Context) {
	tg, err := telegramUser(c)
	if err != nil {
		abortInternal(c, "telegram user missing", err)
		return
	}

	user, err := r.users.GetUserByTelegramID(c.Request.Context(), tg.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user is not registered"})
		return
	}

	stats, err := r.referrals.Stats(c.Request.Context(), user.ID)
	if err != nil {
		abortInternal(c, "failed to load referral stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     stats.Total,
		"remaining": stats.Remaining,
	})
}
