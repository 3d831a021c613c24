package service

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/pavingco/driveway-api/internal/api/metrics"
	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

const maxAttachments = 5

// WorkflowService is the quote, order and bill engine. Every call receives
// the acting identity explicitly and runs each multi-row mutation inside a
// single store transaction.
type WorkflowService struct {
	store       ports.WorkflowStore
	attachments ports.AttachmentStore
	events      ports.EventPublisher
	idempotency ports.IdempotencyStore
	logger      zerolog.Logger
	now         func() time.Time
}

// WorkflowOption customises a WorkflowService.
type WorkflowOption func(*WorkflowService)

// WithIdempotency enables Idempotency-Key replay for quote submissions.
func WithIdempotency(store ports.IdempotencyStore) WorkflowOption {
	return func(s *WorkflowService) { s.idempotency = store }
}

// WithClock overrides the time source used for today's date.
func WithClock(now func() time.Time) WorkflowOption {
	return func(s *WorkflowService) { s.now = now }
}

func NewWorkflowService(
	store ports.WorkflowStore,
	attachments ports.AttachmentStore,
	events ports.EventPublisher,
	logger zerolog.Logger,
	opts ...WorkflowOption,
) *WorkflowService {
	if events == nil {
		events = nopPublisher{}
	}
	s := &WorkflowService{
		store:       store,
		attachments: attachments,
		events:      events,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WorkflowService) today() domain.Date {
	return domain.DateOf(s.now())
}

// transition reports a committed state change to metrics and the audit trail.
func (s *WorkflowService) transition(actor domain.Actor, entity string, id int64, from, to string) {
	metrics.WorkflowTransitionsTotal.WithLabelValues(entity, to).Inc()
	s.events.Publish(domain.WorkflowEvent{
		Entity:     entity,
		EntityID:   id,
		From:       from,
		To:         to,
		ActorID:    actor.ClientID,
		ActorRole:  actor.Role,
		OccurredAt: s.now().UTC(),
	})
}

// fail counts err against op and returns it unchanged.
func (s *WorkflowService) fail(op string, err error) error {
	reason := errorReason(err)
	metrics.WorkflowErrorsTotal.WithLabelValues(op, reason).Inc()
	if reason == "internal" {
		s.logger.Error().Err(err).Str("operation", op).Msg("workflow operation failed")
	} else {
		s.logger.Debug().Err(err).Str("operation", op).Msg("workflow operation rejected")
	}
	return err
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrClientNotFound),
		errors.Is(err, domain.ErrQuoteNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrBillNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrOrderExists),
		errors.Is(err, domain.ErrBillExists):
		return "conflict"
	default:
		return "internal"
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.WorkflowEvent) {}
