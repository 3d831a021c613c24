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

type quoteRow struct {
	ID              int64           `db:"id"`
	ClientID        int64           `db:"client_id"`
	PropertyAddress string          `db:"property_address"`
	AreaSqFt        int             `db:"area_sq_ft"`
	ProposedPrice   decimal.Decimal `db:"proposed_price"`
	Message         string          `db:"message"`
	Status          string          `db:"status"`
	TimeWindow      sql.NullString  `db:"time_window"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r quoteRow) toDomain() *domain.Quote {
	return &domain.Quote{
		ID:              r.ID,
		ClientID:        r.ClientID,
		PropertyAddress: r.PropertyAddress,
		AreaSqFt:        r.AreaSqFt,
		ProposedPrice:   r.ProposedPrice,
		Message:         r.Message,
		Status:          domain.QuoteStatus(r.Status),
		TimeWindow:      domain.DecodeTimeWindow(r.TimeWindow.String),
		CreatedAt:       r.CreatedAt,
	}
}

type quoteClientRow struct {
	quoteRow
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Email     string `db:"email"`
}

type attachmentRow struct {
	ID        int64     `db:"id"`
	QuoteID   int64     `db:"quote_id"`
	Ref       string    `db:"ref"`
	CreatedAt time.Time `db:"created_at"`
}

const quoteColumns = `q.id, q.client_id, q.property_address, q.area_sq_ft, q.proposed_price, q.message, q.status, q.time_window, q.created_at`

type quoteRepository struct {
	q sqlx.ExtContext
}

func encodeTimeWindow(tw domain.TimeWindow) sql.NullString {
	s, ok := tw.Encode()
	return sql.NullString{String: s, Valid: ok}
}

func (r *quoteRepository) Create(ctx context.Context, q *domain.Quote) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	query := `
        INSERT INTO quotes
            (client_id, property_address, area_sq_ft, proposed_price, message, status, time_window, created_at)
        VALUES
            (?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id`
	err := r.q.QueryRowxContext(ctx, r.q.Rebind(query),
		q.ClientID, q.PropertyAddress, q.AreaSqFt, q.ProposedPrice, q.Message,
		string(q.Status), encodeTimeWindow(q.TimeWindow), q.CreatedAt).
		Scan(&q.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrClientNotFound
		}
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

func (r *quoteRepository) AddAttachment(ctx context.Context, a *domain.QuoteAttachment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO quote_attachments (quote_id, ref, created_at) VALUES (?, ?, ?) RETURNING id`
	if err := r.q.QueryRowxContext(ctx, r.q.Rebind(query), a.QuoteID, a.Ref, a.CreatedAt).Scan(&a.ID); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrQuoteNotFound
		}
		return fmt.Errorf("insert quote attachment: %w", err)
	}
	return nil
}

func (r *quoteRepository) FindByID(ctx context.Context, id int64) (*domain.Quote, error) {
	var row quoteRow
	err := sqlx.GetContext(ctx, r.q, &row, r.q.Rebind(`SELECT `+quoteColumns+` FROM quotes q WHERE q.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("find quote: %w", err)
	}
	quote := row.toDomain()
	if err := r.attach(ctx, []*domain.Quote{quote}); err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *quoteRepository) ListByClient(ctx context.Context, clientID int64) ([]*domain.Quote, error) {
	var rows []quoteRow
	query := `SELECT ` + quoteColumns + ` FROM quotes q WHERE q.client_id = ? ORDER BY q.created_at DESC, q.id DESC`
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), clientID); err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	quotes := make([]*domain.Quote, len(rows))
	for i, row := range rows {
		quotes[i] = row.toDomain()
	}
	if err := r.attach(ctx, quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *quoteRepository) ListWithClients(ctx context.Context) ([]*domain.QuoteWithClient, error) {
	var rows []quoteClientRow
	query := `
        SELECT ` + quoteColumns + `, c.first_name, c.last_name, c.email
        FROM quotes q
        JOIN clients c ON c.id = q.client_id
        ORDER BY q.created_at DESC, q.id DESC`
	if err := sqlx.SelectContext(ctx, r.q, &rows, query); err != nil {
		return nil, fmt.Errorf("list quotes with clients: %w", err)
	}

	out := make([]*domain.QuoteWithClient, len(rows))
	quotes := make([]*domain.Quote, len(rows))
	for i, row := range rows {
		out[i] = &domain.QuoteWithClient{
			Quote:           *row.quoteRow.toDomain(),
			ClientFirstName: row.FirstName,
			ClientLastName:  row.LastName,
			ClientEmail:     row.Email,
		}
		quotes[i] = &out[i].Quote
	}
	if err := r.attach(ctx, quotes); err != nil {
		return nil, err
	}
	return out, nil
}

// attach loads the attachment rows of every quote in one query.
func (r *quoteRepository) attach(ctx context.Context, quotes []*domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Quote, len(quotes))
	ids := make([]int64, 0, len(quotes))
	for _, q := range quotes {
		byID[q.ID] = q
		ids = append(ids, q.ID)
	}

	query, args, err := sqlx.In(`SELECT id, quote_id, ref, created_at FROM quote_attachments WHERE quote_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("list quote attachments: %w", err)
	}
	var rows []attachmentRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return fmt.Errorf("list quote attachments: %w", err)
	}
	for _, row := range rows {
		q := byID[row.QuoteID]
		q.Attachments = append(q.Attachments, domain.QuoteAttachment{
			ID:        row.ID,
			QuoteID:   row.QuoteID,
			Ref:       row.Ref,
			CreatedAt: row.CreatedAt,
		})
	}
	return nil
}

func (r *quoteRepository) Save(ctx context.Context, q *domain.Quote, from domain.QuoteStatus) error {
	return guardedUpdate(ctx, r.q, "quotes", q.ID, domain.ErrQuoteNotFound, `
        UPDATE quotes
        SET status = ?, proposed_price = ?, time_window = ?, message = ?
        WHERE id = ? AND status = ?`,
		string(q.Status), q.ProposedPrice, encodeTimeWindow(q.TimeWindow), q.Message, q.ID, string(from))
}
