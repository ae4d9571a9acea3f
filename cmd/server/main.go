package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/api"
	"github.com/qs3c/inbox_premium_server/internal/api/handler"
	"github.com/qs3c/inbox_premium_server/internal/database"
	"github.com/qs3c/inbox_premium_server/internal/pkg/cron"
	"github.com/qs3c/inbox_premium_server/internal/pkg/encrypt"
	"github.com/qs3c/inbox_premium_server/internal/pkg/lemonsqueezy"
	"github.com/qs3c/inbox_premium_server/internal/pkg/logger"
	"github.com/qs3c/inbox_premium_server/internal/pkg/premium"
	"github.com/qs3c/inbox_premium_server/internal/pkg/pubsub"
	"github.com/qs3c/inbox_premium_server/internal/pkg/queue"
	"github.com/qs3c/inbox_premium_server/internal/pkg/ws"
	"github.com/qs3c/inbox_premium_server/internal/repository"
	"github.com/qs3c/inbox_premium_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load(configPath())
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Log, cfg.Server.Mode)
	if err := logger.InitSentry(cfg.Sentry); err != nil {
		logrus.WithError(err).Warn("sentry disabled")
	}
	defer logger.Flush()

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
	logrus.Info("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logrus.Fatalf("Failed to connect redis: %v", err)
	}
	logrus.Info("Redis connected")

	// API Key 加密，未配置时不允许保存 Key
	var box *encrypt.Box
	if cfg.Security.EncryptionKey != "" {
		box, err = encrypt.NewBox(cfg.Security.EncryptionKey)
		if err != nil {
			logrus.Fatalf("Failed to init encryption: %v", err)
		}
	} else {
		logrus.Warn("encryption key not configured, API keys cannot be saved")
	}

	notifications := queue.NewQueue(rdb, cfg.Queue.NotificationQueue)
	publisher := pubsub.NewPublisher(rdb, cfg.Queue.PremiumChannel)
	catalog := premium.NewCatalog(cfg.Billing)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	premiumRepo := repository.NewPremiumRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)

	// 初始化 Service
	premiumService := service.NewPremiumService(db, userRepo, premiumRepo, catalog).
		WithPublisher(publisher).
		WithNotifications(notifications).
		WithFreeCredits(cfg.Premium.FreeUnsubscribeCredits)
	if cfg.Billing.APIKey != "" {
		premiumService.WithSwitcher(lemonsqueezy.NewClient(cfg.Billing))
	}
	creditService := service.NewCreditService(db, userRepo, premiumRepo, cfg)
	userService := service.NewUserService(userRepo, box, cfg)
	ruleService := service.NewRuleService(ruleRepo)
	webhookService := service.NewWebhookService(eventRepo, userRepo, premiumRepo, premiumService, catalog, cfg.Billing.WebhookSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket Hub 订阅套餐变更
	wsHub := ws.NewHub()
	subscriber := pubsub.NewSubscriber(rdb, cfg.Queue.PremiumChannel)
	go func() {
		if err := subscriber.Subscribe(ctx, wsHub.ForwardPremium); err != nil && ctx.Err() == nil {
			logger.ReportError("premium_subscribe", err, nil)
		}
	}()
	logrus.Info("WebSocket hub started")

	scheduler := cron.NewService(creditService, webhookService)
	scheduler.Start()
	defer scheduler.Stop()

	// 初始化 Handler
	router := api.NewRouter(
		handler.NewPremiumHandler(premiumService, catalog, cfg.Premium.PricingVariant),
		handler.NewBillingHandler(webhookService),
		handler.NewUserHandler(userService),
		handler.NewCreditHandler(creditService),
		handler.NewRuleHandler(ruleService),
		handler.NewModelsHandler(cfg),
		handler.NewWebSocketHandler(wsHub, cfg.CORS.AllowedOrigins),
		premiumService,
		cfg,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.Setup(),
	}

	go func() {
		logrus.Infof("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logrus.Info("Received shutdown signal")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("server shutdown")
	}
	logrus.Info("Server stopped")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}
