package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/venue-commerce-admin/internal/domain/history"
)

const (
	// OrderHistoryCollectionName is the name of the order history collection in MongoDB
	OrderHistoryCollectionName = "order_history"
)

// OrderHistoryRepository implements history.Repository for MongoDB
type OrderHistoryRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

var _ history.Repository = (*OrderHistoryRepository)(nil)

// NewOrderHistoryRepository creates a new MongoDB order history repository
func NewOrderHistoryRepository(logger *slog.Logger, db *mongo.Database) *OrderHistoryRepository {
	return &OrderHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes makes event ids unique and keeps per-order reads indexed
func (r *OrderHistoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(OrderHistoryCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create order history indexes: %w", err)
	}
	return nil
}

// Create stores an event after checking for duplicates. The outbox may deliver
// an event twice, so ErrDuplicateEvent is expected and safe to ignore.
func (r *OrderHistoryRepository) Create(ctx context.Context, event *history.Event) error {
	existing, err := r.GetByEventID(ctx, event.EventID)
	if err != nil && !errors.Is(err, history.ErrEventNotFound{}) {
		r.logger.Error("Failed to check for existing history event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing history event: %w", err)
	}
	if existing != nil {
		return history.ErrDuplicateEvent{EventID: event.EventID}
	}

	recordedAt := time.Now().UTC()
	event.RecordedAt = &recordedAt

	if _, err := r.db.Collection(OrderHistoryCollectionName).InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return history.ErrDuplicateEvent{EventID: event.EventID}
		}
		r.logger.Error("Failed to create history event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to create history event: %w", err)
	}
	return nil
}

func (r *OrderHistoryRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*history.Event, error) {
	var event history.Event
	err := r.db.Collection(OrderHistoryCollectionName).FindOne(ctx, bson.M{"event_id": eventID}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, history.ErrEventNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get history event",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get history event: %w", err)
	}
	return &event, nil
}

// ListByOrderID returns an order's events, newest first
func (r *OrderHistoryRepository) ListByOrderID(ctx context.Context, orderID int64, limit, offset int) ([]*history.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(OrderHistoryCollectionName).Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		r.logger.Error("Failed to list history events",
			"order_id", orderID,
			"error", err)
		return nil, fmt.Errorf("failed to list history events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*history.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode history events",
			"order_id", orderID,
			"error", err)
		return nil, fmt.Errorf("failed to decode history events: %w", err)
	}
	return events, nil
}
