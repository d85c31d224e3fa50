package mongodb

import (
	"context"
	"fmt"
	"time"

	"eventbooking/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookingDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	EventID       primitive.ObjectID `bson:"event_id"`
	UserID        primitive.ObjectID `bson:"user_id"`
	TicketsBooked int                `bson:"tickets_booked"`
	BookingDate   time.Time          `bson:"booking_date"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func (d *bookingDocument) toDomain() *domain.Booking {
	return &domain.Booking{
		ID:            d.ID.Hex(),
		EventID:       d.EventID.Hex(),
		UserID:        d.UserID.Hex(),
		TicketsBooked: d.TicketsBooked,
		BookingDate:   d.BookingDate.UTC(),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

var newestFirst = bson.D{{Key: "booking_date", Value: -1}, {Key: "_id", Value: -1}}

type bookingRepository struct {
	bookings *mongo.Collection
	events   *mongo.Collection
	users    *mongo.Collection
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc bookingDocument
	if err := r.bookings.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateErr(err)
	}
	return doc.toDomain(), nil
}

// ListByUserID returns the user's bookings newest first. Event is nil for deleted events.
func (r *bookingRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.BookingWithEvent, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []*domain.BookingWithEvent{}, nil
	}
	docs, err := r.find(ctx, bson.M{"user_id": oid}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	events, err := r.loadEvents(ctx, docs)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.BookingWithEvent, 0, len(docs))
	for i := range docs {
		item := &domain.BookingWithEvent{Booking: docs[i].toDomain()}
		if e, ok := events[docs[i].EventID]; ok {
			item.Event = e.toDomain()
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *bookingRepository) ListAll(ctx context.Context, params domain.PaginationParams) ([]*domain.BookingDetail, int, error) {
	total, err := r.bookings.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", translateErr(err))
	}
	docs, err := r.find(ctx, bson.D{}, findOptions(params, newestFirst))
	if err != nil {
		return nil, 0, err
	}
	events, err := r.loadEvents(ctx, docs)
	if err != nil {
		return nil, 0, err
	}
	users, err := r.loadUsers(ctx, docs)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*domain.BookingDetail, 0, len(docs))
	for i := range docs {
		d := &domain.BookingDetail{Booking: docs[i].toDomain()}
		if u, ok := users[docs[i].UserID]; ok {
			d.User = &domain.BookingUserSummary{ID: u.ID.Hex(), Name: u.Name, Email: u.Email}
		}
		if e, ok := events[docs[i].EventID]; ok {
			d.Event = &domain.BookingEventSummary{ID: e.ID.Hex(), Title: e.Title, Date: e.Date.UTC(), Location: e.Location}
		}
		out = append(out, d)
	}
	return out, int(total), nil
}

func (r *bookingRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]bookingDocument, error) {
	cur, err := r.bookings.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", translateErr(err))
	}
	docs := make([]bookingDocument, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", translateErr(err))
	}
	return docs, nil
}

func (r *bookingRepository) loadEvents(ctx context.Context, docs []bookingDocument) (map[primitive.ObjectID]eventDocument, error) {
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.EventID)
	}
	out := make(map[primitive.ObjectID]eventDocument, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.events.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("load events: %w", translateErr(err))
	}
	var events []eventDocument
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", translateErr(err))
	}
	for _, e := range events {
		out[e.ID] = e
	}
	return out, nil
}

func (r *bookingRepository) loadUsers(ctx context.Context, docs []bookingDocument) (map[primitive.ObjectID]userDocument, error) {
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.UserID)
	}
	out := make(map[primitive.ObjectID]userDocument, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("load users: %w", translateErr(err))
	}
	var users []userDocument
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", translateErr(err))
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
