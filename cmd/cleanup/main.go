package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/database"
	"github.com/qs3c/inbox_premium_server/internal/pkg/logger"
	"github.com/qs3c/inbox_premium_server/internal/pkg/oss"
	"github.com/qs3c/inbox_premium_server/internal/pkg/premium"
	"github.com/qs3c/inbox_premium_server/internal/repository"
	"github.com/qs3c/inbox_premium_server/internal/service"
)

var (
	dryRun    = flag.Bool("dry-run", true, "Dry run mode, only count events that would be archived")
	days      = flag.Int("days", 0, "Archive processed webhook events older than N days (default: premium.webhook_retention_days)")
	batchSize = flag.Int("batch", 500, "Events per archive object")
)

func main() {
	flag.Parse()

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log, cfg.Server.Mode)

	retention := *days
	if retention <= 0 {
		retention = cfg.Premium.WebhookRetentionDays
	}
	before := time.Now().AddDate(0, 0, -retention)

	logrus.WithFields(logrus.Fields{
		"dry_run": *dryRun,
		"days":    retention,
		"before":  before.Format(time.RFC3339),
	}).Info("Starting webhook archive")

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect database: %v", err)
	}

	var uploader service.ArchiveUploader
	if !*dryRun {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			logrus.Fatalf("Failed to init OSS client: %v", err)
		}
		uploader = ossClient
	}

	premiumRepo := repository.NewPremiumRepository(db)
	userRepo := repository.NewUserRepository(db)
	catalog := premium.NewCatalog(cfg.Billing)
	webhookService := service.NewWebhookService(
		repository.NewWebhookEventRepository(db),
		userRepo,
		premiumRepo,
		service.NewPremiumService(db, userRepo, premiumRepo, catalog),
		catalog,
		cfg.Billing.WebhookSecret,
	)

	n, err := webhookService.ArchiveProcessed(context.Background(), uploader, before, *batchSize, *dryRun)
	if err != nil {
		logrus.WithError(err).WithField("archived", n).Fatal("archive failed")
	}

	if *dryRun {
		logrus.WithField("events", n).Info("DRY RUN: events would be archived, run with -dry-run=false to archive")
		return
	}
	logrus.WithField("events", n).Info("Archive completed")
}
