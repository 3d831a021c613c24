package ports

import (
	"context"

	"github.com/pavingco/driveway-api/internal/core/domain"
)

// QuoteRepository persists quotes and their attachment rows.
type QuoteRepository interface {
	Create(ctx context.Context, q *domain.Quote) error
	AddAttachment(ctx context.Context, a *domain.QuoteAttachment) error
	FindByID(ctx context.Context, id int64) (*domain.Quote, error)
	// ListByClient returns the client's quotes with attachments, newest first.
	ListByClient(ctx context.Context, clientID int64) ([]*domain.Quote, error)
	ListWithClients(ctx context.Context) ([]*domain.QuoteWithClient, error)
	// Save writes q only if the stored status still equals from.
	Save(ctx context.Context, q *domain.Quote, from domain.QuoteStatus) error
}

// OrderRepository persists orders. At most one order exists per quote.
type OrderRepository interface {
	// Create returns domain.ErrOrderExists when the quote already has an order.
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	Save(ctx context.Context, o *domain.Order, from domain.OrderStatus) error
}

// BillRepository persists bills. Reads resolve the owning client and quote
// through the order.
type BillRepository interface {
	// Create returns domain.ErrBillExists when the order already has a bill.
	Create(ctx context.Context, b *domain.Bill) error
	FindByID(ctx context.Context, id int64) (*domain.Bill, error)
	List(ctx context.Context) ([]*domain.Bill, error)
	ListByClient(ctx context.Context, clientID int64) ([]*domain.Bill, error)
	Save(ctx context.Context, b *domain.Bill, from domain.BillStatus) error
}

// WorkflowRepository groups the repositories that share a unit of work.
type WorkflowRepository interface {
	Clients() ClientRepository
	Quotes() QuoteRepository
	Orders() OrderRepository
	Bills() BillRepository
}

// WorkflowStore is the explicitly constructed store handle. Calls made on the
// embedded repositories run outside any transaction; WithinTx runs fn against
// repositories bound to a single transaction, committing when fn returns nil
// and rolling back otherwise.
type WorkflowStore interface {
	WorkflowRepository
	WithinTx(ctx context.Context, fn func(repo WorkflowRepository) error) error
	Ping(ctx context.Context) error
}
