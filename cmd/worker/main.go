package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/partnerbooking/config"
	"github.com/Domenick1991/partnerbooking/internal/email"
	"github.com/Domenick1991/partnerbooking/internal/kafka"
	"github.com/Domenick1991/partnerbooking/pkg/logger"
)

const restartDelay = 5 * time.Second

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.NewLogger("info").Fatal("load config", "error", err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sender email.Sender
	if cfg.Gmail.Enabled() {
		gmailSender, err := email.NewGmailSender(ctx, email.GmailConfig{
			ClientID:     cfg.Gmail.ClientID,
			ClientSecret: cfg.Gmail.ClientSecret,
			RefreshToken: cfg.Gmail.RefreshToken,
			From:         cfg.Gmail.From,
		})
		if err != nil {
			log.Fatal("init gmail sender", "error", err)
		}
		sender = gmailSender
	} else {
		log.Warn("gmail is not configured, notification emails will only be logged")
		sender = email.NewLogSender(log)
	}
	handler := email.NewHandler(sender, log)

	log.Info("worker started", "topic", cfg.Kafka.NotificationsTopic, "group", cfg.Kafka.GroupID)

	// A failed delivery leaves the offset uncommitted; a fresh reader resumes from it.
	for {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, log)
		err := consumer.Consume(ctx, handler.Handle)
		if cerr := consumer.Close(); cerr != nil {
			log.Warn("close consumer", "error", cerr)
		}
		if ctx.Err() != nil {
			log.Info("worker stopped")
			return
		}
		log.Error("consumer stopped, restarting", "error", err, "delay", restartDelay.String())

		select {
		case <-ctx.Done():
			log.Info("worker stopped")
			return
		case <-time.After(restartDelay):
		}
	}
}
