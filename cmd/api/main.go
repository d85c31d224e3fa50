// @title Event Booking API
// @version 1.0
// @description Event catalogue and ticket booking with an oversell-proof inventory ledger.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventbooking/config"
	_ "eventbooking/docs"
	"eventbooking/internal/adapters/auth"
	"eventbooking/internal/adapters/cache"
	"eventbooking/internal/adapters/queue"
	"eventbooking/internal/bootstrap"
	"eventbooking/internal/clock"
	deliveryhttp "eventbooking/internal/delivery/http"
	"eventbooking/internal/delivery/http/controllers"
	"eventbooking/internal/domain"
	"eventbooking/internal/services"

	"golang.org/x/crypto/bcrypt"
)

const requestTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	storage, err := bootstrap.OpenStorage(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close(context.Background()) }()

	clk := clock.NewSystem()
	ledgerOpts := []services.LedgerOption{services.WithMaxAttempts(cfg.LedgerMaxAttempts)}

	// Only assign eventCache when Redis is up: a nil *EventCache in the interface is not nil.
	var eventCache domain.EventCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, event cache disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer client.Close()
			eventCache = cache.NewEventCache(client, cfg.CacheTTL, logger)
			ledgerOpts = append(ledgerOpts, services.WithEventCache(eventCache))
			logger.Info("event cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		}
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := queue.NewPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable, booking messages disabled", "err", err)
		} else {
			defer publisher.Close()
			ledgerOpts = append(ledgerOpts, services.WithPublisher(publisher, storage.Events, storage.Users))
			logger.Info("booking messages enabled", "queue", queue.BookingQueue)
		}
	}

	jwt := auth.NewJWT(cfg.JWTSecret, cfg.JWTExpiry)
	authSvc := services.NewAuthService(storage.Users, auth.NewBcryptHasher(bcrypt.DefaultCost), jwt, clk, logger)
	eventSvc := services.NewEventService(storage.Events, eventCache, clk, logger, requestTimeout)
	bookingSvc := services.NewBookingService(storage.Bookings, requestTimeout)
	ledger := services.NewLedgerService(storage.Inventory, storage.Bookings, clk, logger, ledgerOpts...)

	handler := deliveryhttp.NewRouter(deliveryhttp.RouterDeps{
		Logger:      logger,
		Verifier:    jwt,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        controllers.NewAuthController(logger, authSvc),
		Events:      controllers.NewEventController(logger, eventSvc),
		Bookings:    controllers.NewBookingController(logger, ledger, bookingSvc),
		Admin:       controllers.NewAdminController(logger, ledger, bookingSvc),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", srv.Addr, "storage", cfg.StorageDriver, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
