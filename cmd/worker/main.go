package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"ats-pipeline/internal/app"
	"ats-pipeline/internal/core/config"
	"ats-pipeline/internal/core/logger"
	"ats-pipeline/internal/core/mq"
	"ats-pipeline/internal/integration/notify"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File,
		cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	if !cfg.RabbitMQ.Enabled {
		log.Fatal("worker needs rabbitmq.enabled=true")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer a.Close()

	mail := notify.MailHandler{Mailer: a.Mailer(), Log: log.Named("mail")}
	analyze := func(ctx context.Context, body []byte) error {
		var job notify.AnalysisJob
		if err := json.Unmarshal(body, &job); err != nil {
			return fmt.Errorf("decode job: %w", err)
		}
		return a.Attachments.ProcessAnalysis(ctx, job.AttachmentID)
	}

	// 两个队列各一个消费者；任一退出（连接断开）整体退出
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.MQ.Consume(gctx, mq.QueueNotifications, cfg.RabbitMQ.Prefetch, mail.Handle)
	})
	g.Go(func() error {
		return a.MQ.Consume(gctx, mq.QueueCVAnalysis, cfg.RabbitMQ.Prefetch, analyze)
	})
	log.Info("worker started", zap.Strings("queues", []string{mq.QueueNotifications, mq.QueueCVAnalysis}))

	if err := g.Wait(); err != nil {
		log.Error("worker stopped", zap.Error(err))
		return
	}
	log.Info("worker stopped gracefully")
}
