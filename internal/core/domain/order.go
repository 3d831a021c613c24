package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderCompleted},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is confirmed work scheduled from an agreed quote. AgreedPrice is
// fixed at creation.
type Order struct {
	ID            int64           `json:"id"`
	QuoteID       int64           `json:"quote_id"`
	WorkStartDate Date            `json:"work_start_date"`
	WorkEndDate   *Date           `json:"work_end_date"`
	AgreedPrice   decimal.Decimal `json:"agreed_price"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewOrderFromQuote derives the order created when q is agreed.
func NewOrderFromQuote(q *Quote, start Date) *Order {
	return &Order{
		QuoteID:       q.ID,
		WorkStartDate: start,
		AgreedPrice:   q.ProposedPrice,
		Status:        OrderPending,
	}
}

// Complete marks the work finished on day.
func (o *Order) Complete(day Date) error {
	if !o.Status.CanTransitionTo(OrderCompleted) {
		return transitionError("order", o.Status, OrderCompleted)
	}
	o.Status = OrderCompleted
	o.WorkEndDate = &day
	return nil
}
