package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillWaitingForClient BillStatus = "waiting for client"
	BillDisputed         BillStatus = "disputed"
	BillPaid             BillStatus = "paid"
)

var billTransitions = map[BillStatus][]BillStatus{
	BillWaitingForClient: {BillDisputed, BillPaid, BillWaitingForClient},
	BillDisputed:         {BillWaitingForClient},
}

func (s BillStatus) CanTransitionTo(next BillStatus) bool {
	for _, allowed := range billTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Bill is the payment obligation created when an order completes.
// ClientID and QuoteID are resolved through the order for reads only.
type Bill struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	QuoteID   int64           `json:"quote_id"`
	ClientID  int64           `json:"client_id"`
	BillDate  Date            `json:"bill_date"`
	AmountDue decimal.Decimal `json:"amount_due"`
	PayDate   *Date           `json:"pay_date"`
	Paid      bool            `json:"paid"`
	Message   string          `json:"message"`
	Status    BillStatus      `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewBillForOrder derives the bill issued on day for a completed order.
func NewBillForOrder(o *Order, day Date) *Bill {
	return &Bill{
		OrderID:   o.ID,
		QuoteID:   o.QuoteID,
		BillDate:  day,
		AmountDue: o.AgreedPrice,
		Status:    BillWaitingForClient,
	}
}

func (b *Bill) transition(next BillStatus) error {
	if !b.Status.CanTransitionTo(next) {
		return transitionError("bill", b.Status, next)
	}
	b.Status = next
	return nil
}

// Pay settles the bill on day. A disputed or already paid bill cannot be paid.
func (b *Bill) Pay(day Date) error {
	if b.Status != BillWaitingForClient {
		return transitionError("bill", b.Status, BillPaid)
	}
	if err := b.transition(BillPaid); err != nil {
		return err
	}
	b.Paid = true
	b.PayDate = &day
	return nil
}

// Dispute records a client counter-offer.
func (b *Bill) Dispute(amount decimal.Decimal, message string) error {
	if b.Status != BillWaitingForClient {
		return transitionError("bill", b.Status, BillDisputed)
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := b.transition(BillDisputed); err != nil {
		return err
	}
	b.AmountDue = amount
	b.Message = message
	return nil
}

// Reoffer is the admin override: new terms, back to the client.
func (b *Bill) Reoffer(amount decimal.Decimal, message string) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := b.transition(BillWaitingForClient); err != nil {
		return err
	}
	b.AmountDue = amount
	b.Message = message
	return nil
}

// AcceptCounter returns a disputed bill to the client at the disputed amount.
func (b *Bill) AcceptCounter() error {
	if b.Status != BillDisputed {
		return transitionError("bill", b.Status, BillWaitingForClient)
	}
	return b.transition(BillWaitingForClient)
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError("amount must be greater than 0")
	}
	return nil
}
