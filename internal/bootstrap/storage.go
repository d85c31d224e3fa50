// Package bootstrap builds the storage backend selected by configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"eventbooking/config"
	"eventbooking/internal/domain"
	"eventbooking/internal/repository/memory"
	"eventbooking/internal/repository/mongodb"
	"eventbooking/internal/repository/postgres"
	"eventbooking/migrations"

	_ "github.com/lib/pq"
)

// Storage is the set of storage ports used by the services.
type Storage struct {
	Events    domain.EventRepository
	Bookings  domain.BookingRepository
	Users     domain.UserRepository
	Inventory domain.InventoryStore

	close func(context.Context) error
}

// Close releases the underlying connections.
func (s *Storage) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStorage connects to the backend named by cfg.StorageDriver. For Postgres
// the embedded migrations are applied when migrate is true.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &Storage{
			Events:    store.Events(),
			Bookings:  store.Bookings(),
			Users:     store.Users(),
			Inventory: store,
		}, nil

	case config.StorageMongo:
		client, err := mongodb.Open(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		if err := mongodb.RequireTransactions(ctx, client); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		store := mongodb.NewStore(db)
		logger.Info("connected to mongodb", "database", cfg.MongoDatabase)
		return &Storage{
			Events:    store.Events(),
			Bookings:  store.Bookings(),
			Users:     store.Users(),
			Inventory: store.Ledger(),
			close:     client.Disconnect,
		}, nil

	case config.StoragePostgres:
		db, err := openPostgres(ctx, cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := migrations.Apply(ctx, db); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		logger.Info("connected to postgres")
		return &Storage{
			Events:    postgres.NewEventRepository(db),
			Bookings:  postgres.NewBookingRepository(db),
			Users:     postgres.NewUserRepository(db),
			Inventory: postgres.NewLedgerStore(db),
			close:     func(context.Context) error { return db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func openPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
