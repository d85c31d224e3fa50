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
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	maxCommitTime = 5 * time.Second

	labelUnknownCommitResult = "UnknownTransactionCommitResult"
)

// LedgerStore implements domain.InventoryStore. Every operation runs as one
// multi-document transaction: the conditional update of the event's
// ticket_availability and the booking insert or delete commit together or not
// at all. The driver retries transient aborts and ambiguous commits itself.
type LedgerStore struct {
	client   *mongo.Client
	events   *mongo.Collection
	bookings *mongo.Collection
	now      func() time.Time
}

// NewLedgerStore returns a LedgerStore over db. db must live on a replica set or
// sharded cluster.
func NewLedgerStore(db *mongo.Database) *LedgerStore {
	return &LedgerStore{
		client:   db.Client(),
		events:   db.Collection(eventsCollection),
		bookings: db.Collection(bookingsCollection),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ domain.InventoryStore = (*LedgerStore)(nil)

func (s *LedgerStore) ReserveTickets(ctx context.Context, b *domain.Booking) error {
	eventID, err := objectID(b.EventID)
	if err != nil {
		return err
	}
	userID, err := objectID(b.UserID)
	if err != nil {
		return err
	}

	var bookingID primitive.ObjectID
	err = s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		filter := bson.M{"_id": eventID, "ticket_availability": bson.M{"$gte": b.TicketsBooked}}
		update := bson.M{
			"$inc": bson.M{"ticket_availability": -b.TicketsBooked},
			"$set": bson.M{"updated_at": s.now()},
		}
		res, err := s.events.UpdateOne(sc, filter, update)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return s.missingOrShort(sc, eventID)
		}

		doc := bookingDocument{
			ID:            primitive.NewObjectID(),
			EventID:       eventID,
			UserID:        userID,
			TicketsBooked: b.TicketsBooked,
			BookingDate:   b.BookingDate,
			CreatedAt:     b.CreatedAt,
			UpdatedAt:     b.UpdatedAt,
		}
		if _, err := s.bookings.InsertOne(sc, doc); err != nil {
			return err
		}
		bookingID = doc.ID
		return nil
	})
	if err != nil {
		return txnErr("reserve tickets", err)
	}
	b.ID = bookingID.Hex()
	return nil
}

func (s *LedgerStore) ReleaseBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	oid, err := objectID(bookingID)
	if err != nil {
		return nil, err
	}
	var doc bookingDocument
	err = s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := s.bookings.FindOneAndDelete(sc, bson.M{"_id": oid}).Decode(&doc); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.ErrNotFound
			}
			return err
		}
		// A deleted event matches nothing; the booking still goes.
		update := bson.M{
			"$inc": bson.M{"ticket_availability": doc.TicketsBooked},
			"$set": bson.M{"updated_at": s.now()},
		}
		_, err := s.events.UpdateOne(sc, bson.M{"_id": doc.EventID}, update)
		return err
	})
	if err != nil {
		return nil, txnErr("release booking", err)
	}
	return doc.toDomain(), nil
}

func (s *LedgerStore) AdjustTickets(ctx context.Context, eventID string, delta int) (*domain.Event, error) {
	oid, err := objectID(eventID)
	if err != nil {
		return nil, err
	}
	var doc eventDocument
	err = s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		filter := bson.M{"_id": oid, "ticket_availability": bson.M{"$gte": -delta}}
		update := bson.M{
			"$inc": bson.M{"ticket_availability": delta},
			"$set": bson.M{"updated_at": s.now()},
		}
		err := s.events.FindOneAndUpdate(sc, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return s.missingOrShort(sc, oid)
		}
		return err
	})
	if err != nil {
		return nil, txnErr("adjust tickets", err)
	}
	return doc.toDomain(), nil
}

// inTransaction runs fn in a majority-committed snapshot transaction. fn may run
// more than once; only the last run can commit. fn returns driver errors
// unwrapped so their transaction labels stay visible.
func (s *LedgerStore) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	commitTime := maxCommitTime
	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority()).
		SetMaxCommitTime(&commitTime)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	return err
}

// missingOrShort tells apart the two reasons a conditional update matched nothing.
func (s *LedgerStore) missingOrShort(ctx context.Context, eventID primitive.ObjectID) error {
	n, err := s.events.CountDocuments(ctx, bson.M{"_id": eventID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientCapacity
}

// txnErr maps the error of a finished transaction. An aborted transaction left
// nothing behind, so its transient errors are safe to retry. A commit whose
// outcome is unknown may have applied and is never reported as retryable.
func txnErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInsufficientCapacity) {
		return err
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorLabel(labelUnknownCommitResult) {
		return fmt.Errorf("%s: commit outcome unknown: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, translateErr(err))
}
