package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/pavingco/driveway-api/internal/core/domain"
)

type orderRow struct {
	ID            int64           `db:"id"`
	QuoteID       int64           `db:"quote_id"`
	WorkStartDate domain.Date     `db:"work_start_date"`
	WorkEndDate   *domain.Date    `db:"work_end_date"`
	AgreedPrice   decimal.Decimal `db:"agreed_price"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r orderRow) toDomain() *domain.Order {
	return &domain.Order{
		ID:            r.ID,
		QuoteID:       r.QuoteID,
		WorkStartDate: r.WorkStartDate,
		WorkEndDate:   r.WorkEndDate,
		AgreedPrice:   r.AgreedPrice,
		Status:        domain.OrderStatus(r.Status),
		CreatedAt:     r.CreatedAt,
	}
}

const orderColumns = `id, quote_id, work_start_date, work_end_date, agreed_price, status, created_at`

type orderRepository struct {
	q sqlx.ExtContext
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	query := `
        INSERT INTO orders
            (quote_id, work_start_date, work_end_date, agreed_price, status, created_at)
        VALUES
            (?, ?, ?, ?, ?, ?)
        RETURNING id`
	err := r.q.QueryRowxContext(ctx, r.q.Rebind(query),
		o.QuoteID, o.WorkStartDate, o.WorkEndDate, o.AgreedPrice, string(o.Status), o.CreatedAt).
		Scan(&o.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrOrderExists
		case isForeignKeyViolation(err):
			return domain.ErrQuoteNotFound
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	var row orderRow
	if err := sqlx.GetContext(ctx, r.q, &row, r.q.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return row.toDomain(), nil
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	var rows []orderRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]*domain.Order, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *orderRepository) Save(ctx context.Context, o *domain.Order, from domain.OrderStatus) error {
	return guardedUpdate(ctx, r.q, "orders", o.ID, domain.ErrOrderNotFound, `
        UPDATE orders
        SET status = ?, work_end_date = ?
        WHERE id = ? AND status = ?`,
		string(o.Status), o.WorkEndDate, o.ID, string(from))
}
