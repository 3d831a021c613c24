package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pavingco/driveway-api/internal/core/domain"
)

type clientRow struct {
	ID                int64          `db:"id"`
	FirstName         string         `db:"first_name"`
	LastName          string         `db:"last_name"`
	Address           string         `db:"address"`
	PaymentDescriptor sql.NullString `db:"payment_descriptor"`
	Phone             string         `db:"phone"`
	Email             string         `db:"email"`
	PasswordHash      string         `db:"password_hash"`
	Role              string         `db:"role"`
	CreatedAt         time.Time      `db:"created_at"`
}

func (r clientRow) toDomain() *domain.Client {
	return &domain.Client{
		ID:                r.ID,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Address:           r.Address,
		PaymentDescriptor: r.PaymentDescriptor.String,
		Phone:             r.Phone,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		Role:              domain.Role(r.Role),
		CreatedAt:         r.CreatedAt,
	}
}

const clientColumns = `id, first_name, last_name, address, payment_descriptor, phone, email, password_hash, role, created_at`

type clientRepository struct {
	q sqlx.ExtContext
}

func (r *clientRepository) Create(ctx context.Context, c *domain.Client) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	query := `
        INSERT INTO clients
            (first_name, last_name, address, payment_descriptor, phone, email, password_hash, role, created_at)
        VALUES
            (?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id`
	err := r.q.QueryRowxContext(ctx, r.q.Rebind(query),
		c.FirstName, c.LastName, c.Address, nullString(c.PaymentDescriptor),
		c.Phone, c.Email, c.PasswordHash, string(c.Role), c.CreatedAt).
		Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *clientRepository) FindByID(ctx context.Context, id int64) (*domain.Client, error) {
	return r.findOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
}

func (r *clientRepository) FindByEmail(ctx context.Context, email string) (*domain.Client, error) {
	return r.findOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE email = ?`, email)
}

func (r *clientRepository) findOne(ctx context.Context, query string, arg any) (*domain.Client, error) {
	var row clientRow
	if err := sqlx.GetContext(ctx, r.q, &row, r.q.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return row.toDomain(), nil
}

func (r *clientRepository) List(ctx context.Context) ([]*domain.Client, error) {
	var rows []clientRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, `SELECT `+clientColumns+` FROM clients ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]*domain.Client, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *clientRepository) UpdatePaymentDescriptor(ctx context.Context, id int64, descriptor string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`UPDATE clients SET payment_descriptor = ? WHERE id = ?`), nullString(descriptor), id)
	if err != nil {
		return fmt.Errorf("update payment descriptor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment descriptor: %w", err)
	}
	if n == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
