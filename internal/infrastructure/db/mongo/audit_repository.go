package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

const auditCollection = "workflow_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{db: db}
}

// Insert appends one workflow event to the workflow_events collection.
func (r *AuditRepository) Insert(ctx context.Context, event domain.WorkflowEvent) error {
	doc := bson.M{
		"entity":      event.Entity,
		"entity_id":   event.EntityID,
		"to":          event.To,
		"actor_id":    event.ActorID,
		"actor_role":  string(event.ActorRole),
		"occurred_at": event.OccurredAt.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.From != "" {
		doc["from"] = event.From
	}

	if _, err := r.db.Collection(auditCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert workflow event: %w", err)
	}
	return nil
}
