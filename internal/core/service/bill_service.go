package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

func (s *WorkflowService) ListBills(ctx context.Context, actor domain.Actor) ([]*domain.Bill, error) {
	if err := actor.Require(domain.RoleAdmin); err != nil {
		return nil, s.fail("list_bills", err)
	}
	bills, err := s.store.Bills().List(ctx)
	if err != nil {
		return nil, s.fail("list_bills", fmt.Errorf("list bills: %w", err))
	}
	return bills, nil
}

func (s *WorkflowService) ListBillsForClient(ctx context.Context, actor domain.Actor) ([]*domain.Bill, error) {
	if err := actor.Require(domain.RoleUser); err != nil {
		return nil, s.fail("view_bills", err)
	}
	bills, err := s.store.Bills().ListByClient(ctx, actor.ClientID)
	if err != nil {
		return nil, s.fail("view_bills", fmt.Errorf("list bills: %w", err))
	}
	return bills, nil
}

// PayBill settles the caller's bill and stores the payment descriptor on
// their account. A bill that is not waiting for the client is rejected and
// neither row changes.
func (s *WorkflowService) PayBill(ctx context.Context, actor domain.Actor, billID int64, paymentDescriptor string) (*domain.Bill, error) {
	paymentDescriptor = strings.TrimSpace(paymentDescriptor)
	if paymentDescriptor == "" {
		return nil, s.fail("pay_bill", domain.NewValidationError("credit_card_info is required"))
	}
	return s.changeBill(ctx, actor, "pay_bill", domain.RoleUser, billID, func(repo ports.WorkflowRepository, b *domain.Bill) error {
		if err := b.Pay(s.today()); err != nil {
			return err
		}
		return repo.Clients().UpdatePaymentDescriptor(ctx, actor.ClientID, paymentDescriptor)
	})
}

// MarkBillPaid records a payment taken outside the API.
func (s *WorkflowService) MarkBillPaid(ctx context.Context, actor domain.Actor, billID int64) (*domain.Bill, error) {
	return s.changeBill(ctx, actor, "mark_bill_paid", domain.RoleAdmin, billID, func(_ ports.WorkflowRepository, b *domain.Bill) error {
		return b.Pay(s.today())
	})
}

// CounterBill disputes the caller's bill with a new amount.
func (s *WorkflowService) CounterBill(ctx context.Context, actor domain.Actor, in ports.BillAmountInput) (*domain.Bill, error) {
	return s.changeBill(ctx, actor, "counter_bill", domain.RoleUser, in.BillID, func(_ ports.WorkflowRepository, b *domain.Bill) error {
		return b.Dispute(in.Amount, in.Message)
	})
}

// AdminCounterBill resets the amount and message and returns the bill to the
// client. A paid bill cannot be reopened.
func (s *WorkflowService) AdminCounterBill(ctx context.Context, actor domain.Actor, in ports.BillAmountInput) (*domain.Bill, error) {
	return s.changeBill(ctx, actor, "admin_counter_bill", domain.RoleAdmin, in.BillID, func(_ ports.WorkflowRepository, b *domain.Bill) error {
		return b.Reoffer(in.Amount, in.Message)
	})
}

// AcceptCounterOffer takes the client's disputed amount and returns the bill
// to them for payment.
func (s *WorkflowService) AcceptCounterOffer(ctx context.Context, actor domain.Actor, billID int64) (*domain.Bill, error) {
	return s.changeBill(ctx, actor, "accept_counter_offer", domain.RoleAdmin, billID, func(_ ports.WorkflowRepository, b *domain.Bill) error {
		return b.AcceptCounter()
	})
}

// changeBill runs apply against a freshly read bill inside a transaction and
// saves it guarded by the status it was read with. Client-initiated changes
// are limited to the caller's own bills.
func (s *WorkflowService) changeBill(
	ctx context.Context,
	actor domain.Actor,
	op string,
	required domain.Role,
	billID int64,
	apply func(repo ports.WorkflowRepository, b *domain.Bill) error,
) (*domain.Bill, error) {
	if err := actor.Require(required); err != nil {
		return nil, s.fail(op, err)
	}
	if billID <= 0 {
		return nil, s.fail(op, domain.NewValidationError("bill_id is required"))
	}

	var (
		bill *domain.Bill
		from domain.BillStatus
	)
	err := s.store.WithinTx(ctx, func(repo ports.WorkflowRepository) error {
		b, err := repo.Bills().FindByID(ctx, billID)
		if err != nil {
			return err
		}
		if required == domain.RoleUser && b.ClientID != actor.ClientID {
			return domain.ErrForbidden
		}
		from = b.Status
		if err := apply(repo, b); err != nil {
			return err
		}
		if err := repo.Bills().Save(ctx, b, from); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("%s bill %d: %w", strings.ReplaceAll(op, "_", " "), billID, err))
	}

	s.transition(actor, "bill", bill.ID, string(from), string(bill.Status))
	return bill, nil
}
