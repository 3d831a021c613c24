package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pavingco/driveway-api/internal/api/metrics"
	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService implementation.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists a single workflow event to the audit trail.
func (s *auditService) Record(ctx context.Context, event domain.WorkflowEvent) error {
	start := time.Now()
	defer func() { metrics.AuditRecordDuration.Observe(time.Since(start).Seconds()) }()

	if event.Entity == "" || event.To == "" {
		metrics.AuditEventsRecordedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("record audit event: %w", domain.NewValidationError("entity and status are required"))
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		metrics.AuditEventsRecordedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("record audit event: %w", err)
	}

	metrics.AuditEventsRecordedTotal.WithLabelValues("ok").Inc()
	s.log.Debug().
		Str("entity", event.Entity).
		Int64("entity_id", event.EntityID).
		Str("from", event.From).
		Str("to", event.To).
		Msg("audit event recorded")
	return nil
}
