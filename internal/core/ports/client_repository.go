package ports

import (
	"context"

	"github.com/pavingco/driveway-api/internal/core/domain"
)

// ClientRepository defines persistence operations for registered clients.
type ClientRepository interface {
	// Create inserts c and assigns its ID. Returns domain.ErrUserExists when the
	// email is already registered.
	Create(ctx context.Context, c *domain.Client) error
	FindByID(ctx context.Context, id int64) (*domain.Client, error)
	FindByEmail(ctx context.Context, email string) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	UpdatePaymentDescriptor(ctx context.Context, id int64, descriptor string) error
}
