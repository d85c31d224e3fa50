// Command notifier consumes booking messages from RabbitMQ and sends the
// confirmation and cancellation emails.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"eventbooking/config"
	"eventbooking/internal/adapters/email"
	"eventbooking/internal/adapters/queue"
	"eventbooking/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if cfg.RabbitMQURL == "" {
		logger.Error("RABBITMQ_URL is required")
		os.Exit(1)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		logger.Error("load email templates", "err", err)
		os.Exit(1)
	}

	notifier := services.NewBookingNotifier(services.NewEmailService(mailer, renderer, logger), logger)
	consumer := queue.NewConsumer(cfg.RabbitMQURL, notifier.Handle, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("notifier started", "queue", queue.BookingQueue, "provider", cfg.Email.Provider)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("notifier stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("notifier stopped")
}
