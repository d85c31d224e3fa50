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

type eventDocument struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Title              string             `bson:"title"`
	Date               time.Time          `bson:"date"`
	Location           string             `bson:"location"`
	TicketAvailability int                `bson:"ticket_availability"`
	TicketPrice        float64            `bson:"ticket_price"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

func (d *eventDocument) toDomain() *domain.Event {
	return &domain.Event{
		ID:                 d.ID.Hex(),
		Title:              d.Title,
		Date:               d.Date.UTC(),
		Location:           d.Location,
		TicketAvailability: d.TicketAvailability,
		TicketPrice:        d.TicketPrice,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}
}

type eventRepository struct {
	col *mongo.Collection
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	doc := eventDocument{
		Title:              e.Title,
		Date:               e.Date,
		Location:           e.Location,
		TicketAvailability: e.TicketAvailability,
		TicketPrice:        e.TicketPrice,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert event: %w", translateErr(err))
	}
	e.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc eventDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateErr(err)
	}
	return doc.toDomain(), nil
}

func (r *eventRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	total, err := r.col.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("count events: %w", translateErr(err))
	}
	cur, err := r.col.Find(ctx, bson.D{}, findOptions(params, bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", translateErr(err))
	}
	defer cur.Close(ctx)

	events := make([]*domain.Event, 0)
	for cur.Next(ctx) {
		var doc eventDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("list events cursor: %w", translateErr(err))
	}
	return events, int(total), nil
}

func (r *eventRepository) Update(ctx context.Context, id string, update domain.EventUpdate, updatedAt time.Time) (*domain.Event, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"updated_at": updatedAt}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Date != nil {
		set["date"] = *update.Date
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.TicketPrice != nil {
		set["ticket_price"] = *update.TicketPrice
	}

	var doc eventDocument
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return nil, translateErr(err)
	}
	return doc.toDomain(), nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete event: %w", translateErr(err))
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
