package main

import (
	"context"
	"net/http"
	"time"

	"dosh_badges/internal/api"
	"dosh_badges/internal/middleware"
	"dosh_badges/internal/repository"
	"dosh_badges/internal/rules"
	"dosh_badges/internal/service"
	"dosh_badges/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type app struct {
	router  *gin.Engine
	hub     *service.Hub
	actions *service.ActionService
	limiter *middleware.RateLimiter
}

func serviceOptions(cfg *Config) service.Options {
	opts := service.DefaultOptions()
	opts.Rules = rules.Options{BlockClaimAfterExpiry: cfg.Rules.BlockClaimAfterExpiry}
	if cfg.Rules.ReferralBaseURL != "" {
		opts.ReferralBaseURL = cfg.Rules.ReferralBaseURL
	}
	if cfg.Actions.EvidenceMinLength > 0 {
		opts.EvidenceMinLength = cfg.Actions.EvidenceMinLength
	}
	opts.Delays = service.ActionDelays{
		Code:     cfg.Actions.CodeDelay,
		Evidence: cfg.Actions.EvidenceDelay,
		Tool:     cfg.Actions.ToolDelay,
	}
	return opts
}

func shareSink(cfg ShareConfig) service.ShareSink {
	if cfg.TelegramBotToken == "" {
		return service.LogShareSink{}
	}

	sink, err := service.NewTelegramShareSink(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		logger.Logger().Warn("Telegram share sink unavailable, falling back to log sink", zap.Error(err))
		return service.LogShareSink{}
	}
	return sink
}

func newApp(cfg *Config, reg *prometheus.Registry, clock service.Clock) (*app, error) {
	seed, err := repository.LoadSeed(cfg.Seed.Path)
	if err != nil {
		return nil, errors.Wrap(err, "load seed")
	}
	repo, err := repository.NewSeeded(seed)
	if err != nil {
		return nil, errors.Wrap(err, "initialize repository")
	}

	opts := serviceOptions(cfg)
	hub := service.NewHub()
	metrics := service.NewMetrics(reg)

	badgeService := service.NewBadgeService(repo, repo, hub, metrics, clock, opts)
	actionService := service.NewActionService(repo, hub, metrics, clock, opts)
	referralService := service.NewReferralService(repo, repo, shareSink(cfg.Share), hub, metrics, clock, opts)
	svc := service.NewService(badgeService, actionService, referralService)

	monitoring := middleware.NewMonitoring(reg)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(monitoring.Handler())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	a := router.Group("/api/v1")
	a.Use(limiter.Handler())
	api.NewBadgeRoutes(a, svc.BadgeService)
	api.NewActionRoutes(a, svc.ActionService)
	api.NewReferralRoutes(a, svc.ReferralService)
	api.NewEventRoutes(a, hub)

	return &app{router: router, hub: hub, actions: actionService, limiter: limiter}, nil
}

// shutdown stops accepting work: running actions are canceled and event
// streams are closed.
func (a *app) shutdown(ctx context.Context) error {
	err := a.actions.Shutdown(ctx)
	a.hub.Close()
	return err
}
