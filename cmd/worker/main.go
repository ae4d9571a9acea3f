package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/database"
	"github.com/qs3c/inbox_premium_server/internal/pkg/email"
	"github.com/qs3c/inbox_premium_server/internal/pkg/logger"
	"github.com/qs3c/inbox_premium_server/internal/pkg/queue"
	"github.com/qs3c/inbox_premium_server/internal/worker"
)

func main() {
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
	if err := logger.InitSentry(cfg.Sentry); err != nil {
		logrus.WithError(err).Warn("sentry disabled")
	}
	defer logger.Flush()

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logrus.Fatalf("Failed to connect redis: %v", err)
	}
	logrus.Info("Redis connected")

	notifications := queue.NewQueue(rdb, cfg.Queue.NotificationQueue)
	processor := worker.NewProcessor(email.NewService(&cfg.Email), notifications)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logrus.Info("Received shutdown signal")
		cancel()
	}()

	logrus.Infof("Worker started, max workers: %d", cfg.Queue.MaxWorkers)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Queue.MaxWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log := logrus.WithField("worker", workerID)
			for {
				select {
				case <-ctx.Done():
					log.Info("worker shutting down")
					return
				default:
				}

				msg, err := notifications.Pop(ctx, 5*time.Second)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.WithError(err).Warn("failed to pop notification")
					time.Sleep(time.Second)
					continue
				}
				if msg == nil {
					continue // 超时，继续等待
				}

				// 失败已在 processor 中记录
				_ = processor.Process(ctx, msg)
			}
		}(i)
	}

	wg.Wait()
	logrus.Info("Worker shutdown complete")
}
