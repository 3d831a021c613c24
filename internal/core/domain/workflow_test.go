package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuoteStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to QuoteStatus
		want     bool
	}{
		{QuotePending, QuoteWaitingForClient, true},
		{QuotePending, QuoteAgreed, true},
		{QuotePending, QuoteDenied, true},
		{QuotePending, QuotePending, false},
		{QuoteWaitingForClient, QuotePending, true},
		{QuoteWaitingForClient, QuoteWaitingForClient, true},
		{QuoteWaitingForClient, QuoteAgreed, true},
		{QuoteAgreed, QuotePending, false},
		{QuoteDenied, QuoteWaitingForClient, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestQuote_CounterAndAccept(t *testing.T) {
	q := &Quote{Status: QuoteWaitingForClient, ProposedPrice: decimal.NewFromInt(450)}
	if err := q.Counter(decimal.NewFromInt(420), "lower please"); err != nil {
		t.Fatalf("Counter: %v", err)
	}
	if q.Status != QuotePending || !q.ProposedPrice.Equal(decimal.NewFromInt(420)) {
		t.Fatalf("unexpected quote %+v", q)
	}
	if err := q.Accept(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("accepting a pending quote: expected ErrInvalidTransition, got %v", err)
	}
	if err := q.Counter(decimal.NewFromInt(400), ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("countering a pending quote: expected ErrInvalidTransition, got %v", err)
	}
}

func TestOrder_Complete(t *testing.T) {
	o := &Order{Status: OrderPending}
	day := Date{Year: 2025, Month: 3, Day: 10}
	if err := o.Complete(day); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if o.WorkEndDate == nil || *o.WorkEndDate != day {
		t.Fatalf("expected end date set")
	}
	if err := o.Complete(day); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second completion: expected ErrInvalidTransition, got %v", err)
	}
}

func TestBill_Lifecycle(t *testing.T) {
	o := &Order{ID: 3, QuoteID: 2, AgreedPrice: decimal.RequireFromString("450.00")}
	day := Date{Year: 2025, Month: 3, Day: 10}
	b := NewBillForOrder(o, day)
	if b.Status != BillWaitingForClient || !b.AmountDue.Equal(o.AgreedPrice) {
		t.Fatalf("unexpected new bill %+v", b)
	}

	if err := b.Dispute(decimal.Zero, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero dispute: expected ErrValidation, got %v", err)
	}
	if err := b.Dispute(decimal.NewFromInt(400), "smaller"); err != nil {
		t.Fatalf("Dispute: %v", err)
	}
	if err := b.Pay(day); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("paying disputed bill: expected ErrInvalidTransition, got %v", err)
	}
	if err := b.AcceptCounter(); err != nil {
		t.Fatalf("AcceptCounter: %v", err)
	}
	if err := b.AcceptCounter(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second AcceptCounter: expected ErrInvalidTransition, got %v", err)
	}
	if err := b.Pay(day); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if !b.Paid || b.PayDate == nil || !b.AmountDue.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected paid bill %+v", b)
	}
	if err := b.Reoffer(decimal.NewFromInt(1), ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reopening paid bill: expected ErrInvalidTransition, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	if !Authorize(RoleAdmin, RoleUser) || !Authorize(RoleAdmin, RoleAdmin) {
		t.Fatalf("admin must satisfy every role")
	}
	if !Authorize(RoleUser, RoleUser) {
		t.Fatalf("user must satisfy user")
	}
	if Authorize(RoleUser, RoleAdmin) || Authorize("", RoleUser) {
		t.Fatalf("unexpected grant")
	}
	if err := (Actor{Role: RoleUser}).Require(RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
