package service

import (
	"context"
	"fmt"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

// CompleteOrder finishes the work today and issues the bill for the agreed
// price. Both rows change in one transaction.
func (s *WorkflowService) CompleteOrder(ctx context.Context, actor domain.Actor, orderID int64) (*ports.CompleteOrderResult, error) {
	const op = "complete_order"
	if err := actor.Require(domain.RoleAdmin); err != nil {
		return nil, s.fail(op, err)
	}
	if orderID <= 0 {
		return nil, s.fail(op, domain.NewValidationError("order_id is required"))
	}

	var result ports.CompleteOrderResult
	err := s.store.WithinTx(ctx, func(repo ports.WorkflowRepository) error {
		o, err := repo.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		from := o.Status
		today := s.today()
		if err := o.Complete(today); err != nil {
			return err
		}
		if err := repo.Orders().Save(ctx, o, from); err != nil {
			return err
		}

		b := domain.NewBillForOrder(o, today)
		b.CreatedAt = s.now().UTC()
		if err := repo.Bills().Create(ctx, b); err != nil {
			return err
		}
		q, err := repo.Quotes().FindByID(ctx, o.QuoteID)
		if err != nil {
			return err
		}
		b.ClientID = q.ClientID
		result.Order, result.Bill = o, b
		return nil
	})
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("complete order %d: %w", orderID, err))
	}

	s.transition(actor, "order", result.Order.ID, string(domain.OrderPending), string(result.Order.Status))
	s.transition(actor, "bill", result.Bill.ID, "", string(result.Bill.Status))
	s.logger.Info().Int64("order_id", result.Order.ID).Int64("bill_id", result.Bill.ID).Str("amount_due", result.Bill.AmountDue.StringFixed(2)).Msg("order completed")
	return &result, nil
}

// CreateOrderDirect schedules work for a quote without going through
// acceptance. The quote's status is left as it is.
func (s *WorkflowService) CreateOrderDirect(ctx context.Context, actor domain.Actor, in ports.CreateOrderInput) (*domain.Order, error) {
	const op = "create_order"
	if err := actor.Require(domain.RoleAdmin); err != nil {
		return nil, s.fail(op, err)
	}
	switch {
	case in.QuoteID <= 0:
		return nil, s.fail(op, domain.NewValidationError("quote_id is required"))
	case in.WorkStartDate.IsZero():
		return nil, s.fail(op, domain.NewValidationError("work_start_date is required"))
	case !in.AgreedPrice.IsPositive():
		return nil, s.fail(op, domain.NewValidationError("agreed_price must be greater than 0"))
	}

	order := &domain.Order{
		QuoteID:       in.QuoteID,
		WorkStartDate: in.WorkStartDate,
		AgreedPrice:   in.AgreedPrice,
		Status:        domain.OrderPending,
		CreatedAt:     s.now().UTC(),
	}
	err := s.store.WithinTx(ctx, func(repo ports.WorkflowRepository) error {
		if _, err := repo.Quotes().FindByID(ctx, in.QuoteID); err != nil {
			return err
		}
		return repo.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("create order for quote %d: %w", in.QuoteID, err))
	}

	s.transition(actor, "order", order.ID, "", string(order.Status))
	return order, nil
}

func (s *WorkflowService) ListOrders(ctx context.Context, actor domain.Actor) ([]*domain.Order, error) {
	if err := actor.Require(domain.RoleAdmin); err != nil {
		return nil, s.fail("list_orders", err)
	}
	orders, err := s.store.Orders().List(ctx)
	if err != nil {
		return nil, s.fail("list_orders", fmt.Errorf("list orders: %w", err))
	}
	return orders, nil
}
