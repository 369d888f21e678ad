package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"communitybot/internal/api"
	"communitybot/internal/repository"
	"communitybot/internal/scheduler"
	"communitybot/internal/service"
	"communitybot/internal/telegram"
	"communitybot/pkg/auth"
	"communitybot/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	campaignStart, campaignEnd, err := cfg.Campaign.Window()
	if err != nil {
		zapLogger.Fatal("Failed to parse campaign window", zap.Error(err))
	}

	svc := &service.Service{
		UserService:        service.NewUserService(repo),
		CheckinService:     service.NewCheckinService(repo, cfg.Points.Checkin),
		QuizService:        service.NewQuizService(repo),
		PollService:        service.NewPollService(repo, cfg.Points.PollAwardOnVote, cfg.Points.PollCloseAfter),
		ScreenshotService:  service.NewScreenshotService(repo, cfg.Points.Screenshot, cfg.Points.ClaimTTL),
		SpinService:        service.NewSpinService(repo, service.DefaultSpinConfig()),
		ReferralService:    service.NewReferralService(repo, cfg.Points.ReferralCap, cfg.Points.Referral),
		LeaderboardService: service.NewLeaderboardService(repo, campaignStart, campaignEnd, 0),
		WinnersService:     service.NewWinnersService(repo),
		StatusService:      service.NewStatusService(repo, nil),
		AdjustService:      service.NewAdjustService(repo),
	}

	bot, err := telegram.New(telegram.Config{
		Token:           cfg.Telegram.BotToken,
		Debug:           cfg.Telegram.Debug,
		AdminIDs:        cfg.Telegram.AdminIDs,
		CommunityChatID: cfg.Telegram.CommunityChatID,
	}, svc)
	if err != nil {
		zapLogger.Fatal("Failed to initialize bot", zap.Error(err))
	}

	sched := scheduler.New(svc, bot)
	sched.Start()
	defer sched.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go bot.Start(ctx)

	telegramAuth := auth.NewTelegramAuth(cfg.Telegram.BotToken, cfg.Telegram.Debug)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	a := router.Group("/api/v1")
	api.NewLeaderboardRoutes(a, svc.UserService, svc.LeaderboardService, svc.WinnersService, telegramAuth)
	api.NewStatusRoutes(a, svc.UserService, svc.StatusService, svc.ReferralService, telegramAuth)
	api.NewFeedRoutes(a, svc.LeaderboardService)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}
}
