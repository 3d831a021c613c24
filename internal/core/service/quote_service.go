package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pavingco/driveway-api/internal/api/metrics"
	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

// SubmitQuote stores the photos, then creates the quote and its attachment
// rows in one transaction. When the transaction fails the stored photos are
// removed and no quote is visible.
func (s *WorkflowService) SubmitQuote(ctx context.Context, actor domain.Actor, in ports.SubmitQuoteInput) (*ports.SubmitQuoteResult, error) {
	const op = "submit_quote"
	if err := actor.Require(domain.RoleUser); err != nil {
		return nil, s.fail(op, err)
	}
	if err := validateSubmitQuote(in); err != nil {
		return nil, s.fail(op, err)
	}

	if in.IdempotencyKey != "" {
		if existing := s.replayQuote(ctx, actor, in.IdempotencyKey); existing != nil {
			metrics.QuotesSubmittedTotal.WithLabelValues("replayed").Inc()
			s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Int64("quote_id", existing.ID).Msg("idempotent replay")
			return &ports.SubmitQuoteResult{Quote: existing, Replayed: true}, nil
		}
	}

	refs := make([]string, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		ref, err := s.attachments.Save(ctx, a.Filename, a.ContentType, a.Content)
		if err != nil {
			s.discardAttachments(ctx, refs)
			return nil, s.fail(op, fmt.Errorf("submit quote: store attachment: %w", err))
		}
		refs = append(refs, ref)
	}

	quote := &domain.Quote{
		ClientID:        actor.ClientID,
		PropertyAddress: strings.TrimSpace(in.PropertyAddress),
		AreaSqFt:        in.AreaSqFt,
		ProposedPrice:   in.ProposedPrice,
		Message:         in.Message,
		Status:          domain.QuotePending,
		CreatedAt:       s.now().UTC(),
	}

	err := s.store.WithinTx(ctx, func(repo ports.WorkflowRepository) error {
		if err := repo.Quotes().Create(ctx, quote); err != nil {
			return err
		}
		for _, ref := range refs {
			att := &domain.QuoteAttachment{QuoteID: quote.ID, Ref: ref, CreatedAt: quote.CreatedAt}
			if err := repo.Quotes().AddAttachment(ctx, att); err != nil {
				return err
			}
			quote.Attachments = append(quote.Attachments, *att)
		}
		return nil
	})
	if err != nil {
		s.discardAttachments(context.WithoutCancel(ctx), refs)
		return nil, s.fail(op, fmt.Errorf("submit quote: %w", err))
	}

	if in.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Remember(ctx, actor.ClientID, in.IdempotencyKey, quote.ID); err != nil {
			s.logger.Warn().Err(err).Int64("quote_id", quote.ID).Msg("failed to store idempotency key")
		}
	}

	metrics.QuotesSubmittedTotal.WithLabelValues("created").Inc()
	metrics.AttachmentsStoredTotal.Add(float64(len(refs)))
	s.transition(actor, "quote", quote.ID, "", string(quote.Status))
	s.logger.Info().Int64("quote_id", quote.ID).Int64("client_id", actor.ClientID).Int("attachments", len(refs)).Msg("quote submitted")

	return &ports.SubmitQuoteResult{Quote: quote}, nil
}

func validateSubmitQuote(in ports.SubmitQuoteInput) error {
	switch {
	case strings.TrimSpace(in.PropertyAddress) == "":
		return domain.NewValidationError("address is required")
	case in.AreaSqFt <= 0:
		return domain.NewValidationError("square_feet must be greater than 0")
	case !in.ProposedPrice.IsPositive():
		return domain.NewValidationError("proposed_price must be greater than 0")
	case len(in.Attachments) == 0:
		return domain.NewValidationError("at least one picture is required")
	case len(in.Attachments) > maxAttachments:
		return domain.NewValidationError("at most %d pictures are allowed", maxAttachments)
	}
	for _, a := range in.Attachments {
		if a.Content == nil {
			return domain.NewValidationError("picture %q is empty", a.Filename)
		}
	}
	return nil
}

// replayQuote returns the quote an earlier submission with key created, or
// nil when there is none. Lookup failures fall through to a fresh submission.
func (s *WorkflowService) replayQuote(ctx context.Context, actor domain.Actor, key string) *domain.Quote {
	if s.idempotency == nil {
		return nil
	}
	quoteID, ok, err := s.idempotency.Lookup(ctx, actor.ClientID, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed, processing anyway")
		return nil
	}
	if !ok {
		return nil
	}
	q, err := s.store.Quotes().FindByID(ctx, quoteID)
	if err != nil || !q.OwnedBy(actor.ClientID) {
		return nil
	}
	return q
}

func (s *WorkflowService) discardAttachments(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.attachments.Delete(ctx, ref); err != nil {
			metrics.AttachmentsOrphanedTotal.Inc()
			s.logger.Warn().Err(err).Str("ref", ref).Msg("failed to remove attachment after aborted submission")
		}
	}
}

func (s *WorkflowService) ListQuotesForClient(ctx context.Context, actor domain.Actor) ([]*domain.Quote, error) {
	if err := actor.Require(domain.RoleUser); err != nil {
		return nil, s.fail("list_quotes", err)
	}
	quotes, err := s.store.Quotes().ListByClient(ctx, actor.ClientID)
	if err != nil {
		return nil, s.fail("list_quotes", fmt.Errorf("list quotes: %w", err))
	}
	return quotes, nil
}

func (s *WorkflowService) ListAllQuotesForAdmin(ctx context.Context, actor domain.Actor) ([]*domain.QuoteWithClient, error) {
	if err := actor.Require(domain.RoleAdmin); err != nil {
		return nil, s.fail("manage_quotes", err)
	}
	quotes, err := s.store.Quotes().ListWithClients(ctx)
	if err != nil {
		return nil, s.fail("manage_quotes", fmt.Errorf("list quotes: %w", err))
	}
	return quotes, nil
}

// UpdateQuote applies an admin decision. Agreeing a quote creates its order
// in the same transaction, starting on the first offered date at the
// resulting quote price.
func (s *WorkflowService) UpdateQuote(ctx context.Context, actor domain.Actor, in ports.UpdateQuoteInput) (*ports.UpdateQuoteResult, error) {
	const op = "update_quote"
	if err := actor.Require(domain.RoleAdmin); err != nil {
		return nil, s.fail(op, err)
	}
	switch {
	case in.QuoteID <= 0:
		return nil, s.fail(op, domain.NewValidationError("quote_id is required"))
	case in.Status == "":
		return nil, s.fail(op, domain.NewValidationError("status is required"))
	case !in.Status.Valid():
		return nil, s.fail(op, domain.NewValidationError("unknown status %q", in.Status))
	case in.Offer != nil && !in.Offer.IsPositive():
		return nil, s.fail(op, domain.NewValidationError("offer must be greater than 0"))
	}

	var (
		result ports.UpdateQuoteResult
		from   domain.QuoteStatus
	)
	err := s.store.WithinTx(ctx, func(repo ports.WorkflowRepository) error {
		q, err := repo.Quotes().FindByID(ctx, in.QuoteID)
		if err != nil {
			return err
		}
		from = q.Status
		if err := q.TransitionTo(in.Status); err != nil {
			return err
		}
		if in.Offer != nil {
			q.ProposedPrice = *in.Offer
		}
		if len(in.TimeWindow) > 0 {
			q.TimeWindow = in.TimeWindow
		}
		q.Message = in.Message

		var start domain.Date
		if q.Status == domain.QuoteAgreed {
			first, ok := q.TimeWindow.First()
			if !ok {
				return domain.NewValidationError("time_window is required to agree a quote")
			}
			start = first
		}
		if err := repo.Quotes().Save(ctx, q, from); err != nil {
			return err
		}
		result.Quote = q

		if q.Status == domain.QuoteAgreed {
			order := domain.NewOrderFromQuote(q, start)
			order.CreatedAt = s.now().UTC()
			if err := repo.Orders().Create(ctx, order); err != nil {
				return err
			}
			result.Order = order
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("update quote %d: %w", in.QuoteID, err))
	}

	s.transition(actor, "quote", result.Quote.ID, string(from), string(result.Quote.Status))
	if result.Order != nil {
		s.transition(actor, "order", result.Order.ID, "", string(result.Order.Status))
	}
	return &result, nil
}

// SetCounterOffer answers an admin offer with a new price. Only the quote's
// owner may counter, and only while the quote is waiting for them.
func (s *WorkflowService) SetCounterOffer(ctx context.Context, actor domain.Actor, in ports.CounterOfferInput) (*domain.Quote, error) {
	const op = "counter_quote"
	if err := actor.Require(domain.RoleUser); err != nil {
		return nil, s.fail(op, err)
	}
	if in.QuoteID <= 0 {
		return nil, s.fail(op, domain.NewValidationError("quote_id is required"))
	}

	var quote *domain.Quote
	err := s.store.WithinTx(ctx, func(repo ports.WorkflowRepository) error {
		q, err := ownedQuote(ctx, repo, actor, in.QuoteID)
		if err != nil {
			return err
		}
		if err := q.Counter(in.CounterOffer, in.Message); err != nil {
			return err
		}
		if err := repo.Quotes().Save(ctx, q, domain.QuoteWaitingForClient); err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("counter offer on quote %d: %w", in.QuoteID, err))
	}

	s.transition(actor, "quote", quote.ID, string(domain.QuoteWaitingForClient), string(quote.Status))
	return quote, nil
}

// AcceptOffer agrees to the admin's offer and schedules the work on the
// chosen date at the quote's current price.
func (s *WorkflowService) AcceptOffer(ctx context.Context, actor domain.Actor, in ports.AcceptOfferInput) (*domain.Order, error) {
	const op = "accept_offer"
	if err := actor.Require(domain.RoleUser); err != nil {
		return nil, s.fail(op, err)
	}
	if in.QuoteID <= 0 {
		return nil, s.fail(op, domain.NewValidationError("quote_id is required"))
	}
	if in.ChosenDate.IsZero() {
		return nil, s.fail(op, domain.NewValidationError("date is required"))
	}

	var order *domain.Order
	err := s.store.WithinTx(ctx, func(repo ports.WorkflowRepository) error {
		q, err := ownedQuote(ctx, repo, actor, in.QuoteID)
		if err != nil {
			return err
		}
		if err := q.Accept(); err != nil {
			return err
		}
		if err := repo.Quotes().Save(ctx, q, domain.QuoteWaitingForClient); err != nil {
			return err
		}
		o := domain.NewOrderFromQuote(q, in.ChosenDate)
		o.CreatedAt = s.now().UTC()
		if err := repo.Orders().Create(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("accept offer on quote %d: %w", in.QuoteID, err))
	}

	s.transition(actor, "quote", in.QuoteID, string(domain.QuoteWaitingForClient), string(domain.QuoteAgreed))
	s.transition(actor, "order", order.ID, "", string(order.Status))
	return order, nil
}

// ownedQuote loads a quote for a client-initiated change. An absent quote is
// ErrQuoteNotFound; someone else's quote is ErrForbidden.
func ownedQuote(ctx context.Context, repo ports.WorkflowRepository, actor domain.Actor, id int64) (*domain.Quote, error) {
	q, err := repo.Quotes().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.OwnedBy(actor.ClientID) {
		return nil, domain.ErrForbidden
	}
	return q, nil
}
