// Package mongo stores the sync run audit log and the order history trail.
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

	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
)

const (
	// SyncRunCollectionName is the name of the sync run collection in MongoDB
	SyncRunCollectionName = "sync_runs"
)

// SyncRunRepository implements the syncrun.Repository interface for MongoDB
type SyncRunRepository struct {
	db     *mongo.Database
	logger *slog.Logger
	now    func() time.Time
}

var _ syncrun.Repository = (*SyncRunRepository)(nil)

// NewSyncRunRepository creates a new MongoDB sync run repository
func NewSyncRunRepository(logger *slog.Logger, db *mongo.Database) *SyncRunRepository {
	return &SyncRunRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the unique run id index and the venue listing index
func (r *SyncRunRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(SyncRunCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "run_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "venue_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create sync run indexes: %w", err)
	}
	return nil
}

// Create records a new run. Returns ErrDuplicateRun if the run id is taken.
func (r *SyncRunRepository) Create(ctx context.Context, run *syncrun.Run) error {
	_, err := r.db.Collection(SyncRunCollectionName).InsertOne(ctx, run)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return syncrun.ErrDuplicateRun{RunID: run.RunID}
		}
		r.logger.Error("Failed to create sync run",
			"run_id", run.RunID.String(),
			"error", err)
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

func (r *SyncRunRepository) GetByRunID(ctx context.Context, runID uuid.UUID) (*syncrun.Run, error) {
	var run syncrun.Run
	err := r.db.Collection(SyncRunCollectionName).FindOne(ctx, bson.M{"run_id": runID}).Decode(&run)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, syncrun.ErrRunNotFound{RunID: runID}
		}
		r.logger.Error("Failed to get sync run",
			"run_id", runID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get sync run: %w", err)
	}
	return &run, nil
}

// MarkRunning moves a pending run to RUNNING. Terminal runs are left alone.
func (r *SyncRunRepository) MarkRunning(ctx context.Context, runID uuid.UUID) error {
	filter := bson.M{
		"run_id": runID,
		"status": bson.M{"$in": bson.A{shared.RunStatusPending, shared.RunStatusRunning}},
	}
	update := bson.M{"$set": bson.M{
		"status":     shared.RunStatusRunning,
		"started_at": r.now(),
	}}
	return r.update(ctx, runID, filter, update, "mark sync run running")
}

// Complete stores the batch result and closes the run
func (r *SyncRunRepository) Complete(ctx context.Context, runID uuid.UUID, result *shared.BatchResult) error {
	update := bson.M{"$set": bson.M{
		"status":       shared.RunStatusCompleted,
		"result":       result,
		"completed_at": r.now(),
	}}
	return r.update(ctx, runID, bson.M{"run_id": runID}, update, "complete sync run")
}

// Fail closes the run with reason
func (r *SyncRunRepository) Fail(ctx context.Context, runID uuid.UUID, reason string) error {
	update := bson.M{"$set": bson.M{
		"status":       shared.RunStatusFailed,
		"error":        reason,
		"completed_at": r.now(),
	}}
	return r.update(ctx, runID, bson.M{"run_id": runID}, update, "fail sync run")
}

// ListByVenue returns the venue's runs, newest first
func (r *SyncRunRepository) ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*syncrun.Run, error) {
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(SyncRunCollectionName).Find(ctx, bson.M{"venue_id": venueID}, opts)
	if err != nil {
		r.logger.Error("Failed to list sync runs",
			"venue_id", venueID,
			"error", err)
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer cursor.Close(ctx)

	runs := []*syncrun.Run{}
	if err := cursor.All(ctx, &runs); err != nil {
		r.logger.Error("Failed to decode sync runs",
			"venue_id", venueID,
			"error", err)
		return nil, fmt.Errorf("failed to decode sync runs: %w", err)
	}
	return runs, nil
}

func (r *SyncRunRepository) update(ctx context.Context, runID uuid.UUID, filter, update bson.M, action string) error {
	result, err := r.db.Collection(SyncRunCollectionName).UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to "+action,
			"run_id", runID.String(),
			"error", err)
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if result.MatchedCount == 0 {
		return syncrun.ErrRunNotFound{RunID: runID}
	}
	return nil
}
