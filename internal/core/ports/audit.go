package ports

import (
	"context"

	"github.com/pavingco/driveway-api/internal/core/domain"
)

// AuditRepository appends workflow events to the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.WorkflowEvent) error
}

// AuditService records a single workflow event.
type AuditService interface {
	Record(ctx context.Context, event domain.WorkflowEvent) error
}

// EventPublisher hands committed workflow events to the audit pipeline.
// Publish never blocks the caller.
type EventPublisher interface {
	Publish(event domain.WorkflowEvent)
}
