package service

import (
	"context"
	"fmt"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

// ClientService serves account reads.
type ClientService struct {
	clients ports.ClientRepository
}

func NewClientService(clients ports.ClientRepository) *ClientService {
	return &ClientService{clients: clients}
}

func (s *ClientService) Profile(ctx context.Context, actor domain.Actor) (*domain.Client, error) {
	if err := actor.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	return s.clients.FindByID(ctx, actor.ClientID)
}

// PaymentDescriptor returns the caller's stored payment descriptor, which is
// empty when none has been saved.
func (s *ClientService) PaymentDescriptor(ctx context.Context, actor domain.Actor) (string, error) {
	client, err := s.Profile(ctx, actor)
	if err != nil {
		return "", err
	}
	return client.PaymentDescriptor, nil
}

func (s *ClientService) ListCustomers(ctx context.Context, actor domain.Actor) ([]*domain.Client, error) {
	if err := actor.Require(domain.RoleAdmin); err != nil {
		return nil, err
	}
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return clients, nil
}
