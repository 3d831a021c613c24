package domain

import "time"

// Client models a registered customer or administrator.
type Client struct {
	ID                int64     `json:"id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Address           string    `json:"address"`
	PaymentDescriptor string    `json:"credit_card_info,omitempty"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	Role              Role      `json:"role"`
	CreatedAt         time.Time `json:"created_at"`
}

func (c *Client) Actor() Actor {
	return Actor{ClientID: c.ID, Role: c.Role}
}
