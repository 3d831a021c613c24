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

type billRow struct {
	ID        int64           `db:"id"`
	OrderID   int64           `db:"order_id"`
	QuoteID   int64           `db:"quote_id"`
	ClientID  int64           `db:"client_id"`
	BillDate  domain.Date     `db:"bill_date"`
	AmountDue decimal.Decimal `db:"amount_due"`
	PayDate   *domain.Date    `db:"pay_date"`
	Paid      bool            `db:"paid"`
	Message   string          `db:"message"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r billRow) toDomain() *domain.Bill {
	return &domain.Bill{
		ID:        r.ID,
		OrderID:   r.OrderID,
		QuoteID:   r.QuoteID,
		ClientID:  r.ClientID,
		BillDate:  r.BillDate,
		AmountDue: r.AmountDue,
		PayDate:   r.PayDate,
		Paid:      r.Paid,
		Message:   r.Message,
		Status:    domain.BillStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// billSelect resolves the owning quote and client through the order.
const billSelect = `
        SELECT b.id, b.order_id, o.quote_id, q.client_id, b.bill_date, b.amount_due,
               b.pay_date, b.paid, b.message, b.status, b.created_at
        FROM bills b
        JOIN orders o ON o.id = b.order_id
        JOIN quotes q ON q.id = o.quote_id`

type billRepository struct {
	q sqlx.ExtContext
}

func (r *billRepository) Create(ctx context.Context, b *domain.Bill) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	query := `
        INSERT INTO bills
            (order_id, bill_date, amount_due, pay_date, paid, message, status, created_at)
        VALUES
            (?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id`
	err := r.q.QueryRowxContext(ctx, r.q.Rebind(query),
		b.OrderID, b.BillDate, b.AmountDue, b.PayDate, b.Paid, b.Message, string(b.Status), b.CreatedAt).
		Scan(&b.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrBillExists
		case isForeignKeyViolation(err):
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

func (r *billRepository) FindByID(ctx context.Context, id int64) (*domain.Bill, error) {
	var row billRow
	if err := sqlx.GetContext(ctx, r.q, &row, r.q.Rebind(billSelect+` WHERE b.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBillNotFound
		}
		return nil, fmt.Errorf("find bill: %w", err)
	}
	return row.toDomain(), nil
}

func (r *billRepository) List(ctx context.Context) ([]*domain.Bill, error) {
	return r.list(ctx, billSelect+` ORDER BY b.created_at DESC, b.id DESC`)
}

func (r *billRepository) ListByClient(ctx context.Context, clientID int64) ([]*domain.Bill, error) {
	return r.list(ctx, billSelect+` WHERE q.client_id = ? ORDER BY b.created_at DESC, b.id DESC`, clientID)
}

func (r *billRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Bill, error) {
	var rows []billRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	out := make([]*domain.Bill, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *billRepository) Save(ctx context.Context, b *domain.Bill, from domain.BillStatus) error {
	return guardedUpdate(ctx, r.q, "bills", b.ID, domain.ErrBillNotFound, `
        UPDATE bills
        SET status = ?, amount_due = ?, message = ?, paid = ?, pay_date = ?
        WHERE id = ? AND status = ?`,
		string(b.Status), b.AmountDue, b.Message, b.Paid, b.PayDate, b.ID, string(from))
}
