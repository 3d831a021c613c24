package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteStatus represents the negotiation state of a quote.
type QuoteStatus string

const (
	QuotePending          QuoteStatus = "pending"
	QuoteWaitingForClient QuoteStatus = "waiting for client"
	QuoteAgreed           QuoteStatus = "agreed"
	QuoteDenied           QuoteStatus = "denied"
)

// quoteTransitions lists every edge of the negotiation state machine.
// pending -> agreed is the admin's direct agreement; waiting -> waiting is a
// revised admin offer. agreed and denied are terminal.
var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuotePending:          {QuoteWaitingForClient, QuoteDenied, QuoteAgreed},
	QuoteWaitingForClient: {QuoteWaitingForClient, QuotePending, QuoteAgreed, QuoteDenied},
}

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuotePending, QuoteWaitingForClient, QuoteAgreed, QuoteDenied:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s QuoteStatus) Terminal() bool {
	return s == QuoteAgreed || s == QuoteDenied
}

// Quote is a client's request for paving work under negotiation.
type Quote struct {
	ID              int64             `json:"id"`
	ClientID        int64             `json:"client_id"`
	PropertyAddress string            `json:"property_address"`
	AreaSqFt        int               `json:"area_sq_ft"`
	ProposedPrice   decimal.Decimal   `json:"proposed_price"`
	Message         string            `json:"message"`
	Status          QuoteStatus       `json:"status"`
	TimeWindow      TimeWindow        `json:"time_window"`
	CreatedAt       time.Time         `json:"created_at"`
	Attachments     []QuoteAttachment `json:"attachments,omitempty"`
}

// TransitionTo moves the quote to next or returns ErrInvalidTransition.
func (q *Quote) TransitionTo(next QuoteStatus) error {
	if !q.Status.CanTransitionTo(next) {
		return transitionError("quote", q.Status, next)
	}
	q.Status = next
	return nil
}

// Counter records a client counter-offer against the outstanding admin offer
// and hands the quote back to the admin.
func (q *Quote) Counter(price decimal.Decimal, message string) error {
	if q.Status != QuoteWaitingForClient {
		return transitionError("quote", q.Status, QuotePending)
	}
	if err := validateAmount(price); err != nil {
		return err
	}
	q.Status = QuotePending
	q.ProposedPrice = price
	q.Message = message
	return nil
}

// Accept agrees to the outstanding admin offer at the current price.
func (q *Quote) Accept() error {
	if q.Status != QuoteWaitingForClient {
		return transitionError("quote", q.Status, QuoteAgreed)
	}
	q.Status = QuoteAgreed
	return nil
}

// OwnedBy reports whether clientID created the quote.
func (q *Quote) OwnedBy(clientID int64) bool {
	return q.ClientID == clientID
}

// QuoteWithClient is the admin triage view of a quote.
type QuoteWithClient struct {
	Quote
	ClientFirstName string `json:"first_name"`
	ClientLastName  string `json:"last_name"`
	ClientEmail     string `json:"email"`
}

// QuoteAttachment links a stored image to a quote.
type QuoteAttachment struct {
	ID        int64     `json:"id"`
	QuoteID   int64     `json:"quote_id"`
	Ref       string    `json:"ref"`
	CreatedAt time.Time `json:"created_at"`
}
