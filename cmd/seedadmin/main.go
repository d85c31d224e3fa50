// Command seedadmin creates the admin account from ADMIN_NAME, ADMIN_EMAIL and
// ADMIN_PASSWORD unless a user with that email already exists.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"eventbooking/config"
	"eventbooking/internal/adapters/auth"
	"eventbooking/internal/bootstrap"
	"eventbooking/internal/clock"
	"eventbooking/internal/services"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if cfg.Admin.Password == "" {
		logger.Error("ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	storage, err := bootstrap.OpenStorage(ctx, cfg, logger, true)
	if err != nil {
		logger.Error("open storage", "err", err)
		os.Exit(1)
	}
	defer func() { _ = storage.Close(context.Background()) }()

	authSvc := services.NewAuthService(storage.Users, auth.NewBcryptHasher(bcrypt.DefaultCost),
		auth.NewJWT(cfg.JWTSecret, cfg.JWTExpiry), clock.NewSystem(), logger)

	user, created, err := authSvc.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		logger.Error("seed admin", "err", err)
		os.Exit(1)
	}
	if !created {
		logger.Info("admin already exists", "email", user.Email, "is_admin", user.IsAdmin)
		return
	}
	logger.Info("admin created", "email", user.Email, "user_id", user.ID)
}
