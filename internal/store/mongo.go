package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/conduit/backend/internal/models"
)

// AuditStore appends write events to a MongoDB collection.
type AuditStore struct {
	col *mongo.Collection
}

func NewAuditStore(db *mongo.Database) *AuditStore {
	return &AuditStore{col: db.Collection("audit_events")}
}

// Record stores ev, stamping CreatedAt when it is zero.
func (s *AuditStore) Record(ctx context.Context, ev models.AuditEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if _, err := s.col.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("mongo insert audit event: %w", err)
	}
	return nil
}

// ListByActor returns the newest events of one actor.
func (s *AuditStore) ListByActor(ctx context.Context, actorID string, limit int64) ([]models.AuditEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{"actor_id": actorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.AuditEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
