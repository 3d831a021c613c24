package ports

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/pavingco/driveway-api/internal/core/domain"
)

// AttachmentInput is one uploaded photo accompanying a quote request.
type AttachmentInput struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

type SubmitQuoteInput struct {
	PropertyAddress string
	AreaSqFt        int
	ProposedPrice   decimal.Decimal
	Message         string
	Attachments     []AttachmentInput
	IdempotencyKey  string
}

// SubmitQuoteResult reports the created quote. Replayed is true when the
// idempotency key matched an earlier submission.
type SubmitQuoteResult struct {
	Quote    *domain.Quote
	Replayed bool
}

type UpdateQuoteInput struct {
	QuoteID    int64
	Status     domain.QuoteStatus
	Offer      *decimal.Decimal
	TimeWindow domain.TimeWindow
	Message    string
}

// UpdateQuoteResult carries the order created when the quote was agreed.
type UpdateQuoteResult struct {
	Quote *domain.Quote
	Order *domain.Order
}

type CounterOfferInput struct {
	QuoteID      int64
	CounterOffer decimal.Decimal
	Message      string
}

type AcceptOfferInput struct {
	QuoteID    int64
	ChosenDate domain.Date
}

type CreateOrderInput struct {
	QuoteID       int64
	WorkStartDate domain.Date
	AgreedPrice   decimal.Decimal
}

type CompleteOrderResult struct {
	Order *domain.Order
	Bill  *domain.Bill
}

type BillAmountInput struct {
	BillID  int64
	Amount  decimal.Decimal
	Message string
}

// QuoteService covers quote submission and negotiation.
type QuoteService interface {
	SubmitQuote(ctx context.Context, actor domain.Actor, in SubmitQuoteInput) (*SubmitQuoteResult, error)
	ListQuotesForClient(ctx context.Context, actor domain.Actor) ([]*domain.Quote, error)
	ListAllQuotesForAdmin(ctx context.Context, actor domain.Actor) ([]*domain.QuoteWithClient, error)
	UpdateQuote(ctx context.Context, actor domain.Actor, in UpdateQuoteInput) (*UpdateQuoteResult, error)
	SetCounterOffer(ctx context.Context, actor domain.Actor, in CounterOfferInput) (*domain.Quote, error)
	AcceptOffer(ctx context.Context, actor domain.Actor, in AcceptOfferInput) (*domain.Order, error)
}

// OrderService covers scheduled work.
type OrderService interface {
	CompleteOrder(ctx context.Context, actor domain.Actor, orderID int64) (*CompleteOrderResult, error)
	CreateOrderDirect(ctx context.Context, actor domain.Actor, in CreateOrderInput) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Actor) ([]*domain.Order, error)
}

// BillService covers payment and bill disputes.
type BillService interface {
	ListBills(ctx context.Context, actor domain.Actor) ([]*domain.Bill, error)
	ListBillsForClient(ctx context.Context, actor domain.Actor) ([]*domain.Bill, error)
	PayBill(ctx context.Context, actor domain.Actor, billID int64, paymentDescriptor string) (*domain.Bill, error)
	MarkBillPaid(ctx context.Context, actor domain.Actor, billID int64) (*domain.Bill, error)
	CounterBill(ctx context.Context, actor domain.Actor, in BillAmountInput) (*domain.Bill, error)
	AdminCounterBill(ctx context.Context, actor domain.Actor, in BillAmountInput) (*domain.Bill, error)
	AcceptCounterOffer(ctx context.Context, actor domain.Actor, billID int64) (*domain.Bill, error)
}

// ClientService covers account reads.
type ClientService interface {
	Profile(ctx context.Context, actor domain.Actor) (*domain.Client, error)
	PaymentDescriptor(ctx context.Context, actor domain.Actor) (string, error)
	ListCustomers(ctx context.Context, actor domain.Actor) ([]*domain.Client, error)
}

// IdempotencyStore remembers which quote a client's submission key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, clientID int64, key string) (int64, bool, error)
	Remember(ctx context.Context, clientID int64, key string, quoteID int64) error
}
