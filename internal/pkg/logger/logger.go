package logger

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/qs3c/inbox_premium_server/config"
)

// Init 初始化日志，release 模式输出 JSON
func Init(logCfg config.LogConfig, mode string) {
	if mode == "release" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(logCfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// InitSentry dsn 为空时不启用
func InitSentry(cfg config.SentryConfig) error {
	if cfg.DSN == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	})
}

// Flush 退出前上报剩余事件
func Flush() {
	sentry.Flush(2 * time.Second)
}

// ReportError 记录错误日志并上报 Sentry
func ReportError(errorType string, err error, fields logrus.Fields) {
	entry := logrus.WithFields(fields).WithField("error_type", errorType).WithError(err)
	entry.Error("error occurred")

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_type", errorType)
		for k, v := range fields {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Event 记录业务事件，同时作为 Sentry breadcrumb
func Event(eventType string, fields logrus.Fields) {
	logrus.WithFields(fields).WithField("event_type", eventType).Info("event")

	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "info",
		Category:  eventType,
		Data:      fields,
		Timestamp: time.Now(),
	})
}
