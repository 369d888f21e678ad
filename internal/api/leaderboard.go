package api

import (
	"net/http"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/service"
	"communitybot/pkg/auth"
	"communitybot/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type leaderboardRoutes struct {
	users   *service.UserService
	lb      *service.LeaderboardService
	winners *service.WinnersService
	a       *auth.TelegramAuth
}

func NewLeaderboardRoutes(handler *gin.RouterGroup, users *service.UserService, lb *service.LeaderboardService, winners *service.WinnersService, a *auth.TelegramAuth) {
	r := &leaderboardRoutes{users: users, lb: lb, winners: winners, a: a}

	h := handler.Group("/leaderboard")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("", r.GetLeaderboard)
		h.GET("/winners", r.GetWinners)
	}
}

type leaderRowOut struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	IsViewer bool   `json:"is_viewer"`
}

type leaderboardOut struct {
	WindowKind  string         `json:"window_kind"`
	WindowStart string         `json:"window_start"`
	WindowEnd   string         `json:"window_end"`
	Top         []leaderRowOut `json:"top"`
	MyRank      *int           `json:"my_rank"`
	MyPoints    int            `json:"my_points"`
}

func (r *leaderboardRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	tg, err := telegramUser(c)
	if err != nil {
		abortInternal(c, "telegram user missing", err)
		return
	}

	user, err := r.users.GetUserByTelegramID(c.Request.Context(), tg.ID)
	if err != nil {
		log.Info("leaderboard requested by unregistered user", zap.Int64("telegram_id", tg.ID))
		c.JSON(http.StatusNotFound, gin.H{"error": "user is not registered"})
		return
	}

	lb, err := r.lb.Get(c.Request.Context(), user.ID, time.Now().UTC())
	if err != nil {
		abortInternal(c, "failed to build leaderboard", err)
		return
	}

	out := leaderboardOut{
		WindowKind:  string(lb.Window.Kind),
		WindowStart: lb.Window.Start.Format("2006-01-02"),
		WindowEnd:   lb.Window.End.Format("2006-01-02"),
		Top:         make([]leaderRowOut, 0, len(lb.Top)),
		MyRank:      lb.MyRank,
		MyPoints:    lb.MyPoints,
	}
	for i, row := range lb.Top {
		u := model.User{Username: row.Username, FirstName: row.FirstName, LastName: row.LastName}
		out.Top = append(out.Top, leaderRowOut{
			Rank:     i + 1,
			Name:     u.DisplayName(),
			Points:   row.Points,
			IsViewer: row.UserID == user.ID,
		})
	}

	c.JSON(http.StatusOK, out)
}

type winnerOut struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// GetWinners serves the frozen snapshot of a finished week. Defaults to
// the week before the current one.
func (r *leaderboardRoutes) GetWinners(c *gin.Context) {
	periodStart := model.WeekStart(time.Now().UTC()).AddDate(0, 0, -7)
	if q := c.Query("period"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "period must be YYYY-MM-DD"})
			return
		}
		periodStart = model.WeekStart(parsed)
	}

	winners, err := r.winners.GetSnapshot(c.Request.Context(), periodStart)
	if err != nil {
		abortInternal(c, "failed to load winners snapshot", err)
		return
	}

	out := make([]winnerOut, 0, len(winners))
	for _, w := range winners {
		u := model.User{Username: w.Username, FirstName: w.FirstName, LastName: w.LastName}
		out = append(out, winnerOut{Rank: w.Rank, Name: u.DisplayName(), Points: w.Points})
	}

	c.JSON(http.StatusOK, gin.H{
		"period_start": periodStart.Format("2006-01-02"),
		"winners":      out,
	})
}
