// Package mongodb implements the storage ports on MongoDB. The ledger writes in
// multi-document transactions, so the deployment must be a replica set (a
// single-node one is enough) or a sharded cluster.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventbooking/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	eventsCollection   = "events"
	bookingsCollection = "bookings"
	usersCollection    = "users"
)

// codeWriteConflict is the server error code for a write conflict.
const codeWriteConflict = 112

// Open connects to uri and pings the primary.
func Open(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// RequireTransactions fails unless the server behind client supports
// multi-document transactions.
func RequireTransactions(ctx context.Context, client *mongo.Client) error {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		return fmt.Errorf("mongo hello: %w", err)
	}
	if hello.SetName == "" && hello.Msg != "isdbgrid" {
		return errors.New("mongo ledger needs a replica set or sharded cluster for transactions")
	}
	return nil
}

// EnsureIndexes creates the indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_email_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	_, err = db.Collection(eventsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("events_date"),
		},
	})
	if err != nil {
		return fmt.Errorf("events indexes: %w", err)
	}

	_, err = db.Collection(bookingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "booking_date", Value: -1}},
			Options: options.Index().SetName("bookings_user_date"),
		},
		{
			Keys:    bson.D{{Key: "booking_date", Value: -1}},
			Options: options.Index().SetName("bookings_date"),
		},
	})
	if err != nil {
		return fmt.Errorf("bookings indexes: %w", err)
	}
	return nil
}

// Store bundles the repositories and the ledger store over one database.
type Store struct {
	db *mongo.Database
}

// NewStore returns a Store over db.
func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Events returns the event repository.
func (s *Store) Events() domain.EventRepository {
	return &eventRepository{col: s.db.Collection(eventsCollection)}
}

// Bookings returns the booking repository.
func (s *Store) Bookings() domain.BookingRepository {
	return &bookingRepository{
		bookings: s.db.Collection(bookingsCollection),
		events:   s.db.Collection(eventsCollection),
		users:    s.db.Collection(usersCollection),
	}
}

// Users returns the user repository.
func (s *Store) Users() domain.UserRepository {
	return &userRepository{col: s.db.Collection(usersCollection)}
}

// Ledger returns the inventory store.
func (s *Store) Ledger() *LedgerStore {
	return NewLedgerStore(s.db)
}

// objectID parses a hex id. Anything that is not an ObjectID cannot exist.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

// translateErr maps driver errors onto domain sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", domain.ErrRetryable, err)
	}
	return err
}

func isTransient(err error) bool {
	if mongo.IsNetworkError(err) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorCode(codeWriteConflict) || se.HasErrorLabel("TransientTransactionError")
	}
	return false
}

func findOptions(params domain.PaginationParams, sort bson.D) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if limit := params.Limit(); limit > 0 {
		opts.SetSkip(int64(params.Offset())).SetLimit(int64(limit))
	}
	return opts
}
