package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request types ---

type updateRequestRequest struct {
	QuoteID    int64            `json:"quote_id"    validate:"required,gt=0"`
	Status     string           `json:"status"      validate:"required"`
	Offer      *decimal.Decimal `json:"offer"`
	TimeWindow []string         `json:"time_window"`
	Message    string           `json:"message"`
}

type counterOfferRequest struct {
	QuoteID      int64           `json:"quote_id"      validate:"required,gt=0"`
	CounterOffer decimal.Decimal `json:"counter_offer"`
	Message      string          `json:"message"`
}

type acceptOfferRequest struct {
	QuoteID int64  `json:"quote_id" validate:"required,gt=0"`
	Date    string `json:"date"     validate:"required"`
}

type orderIDRequest struct {
	OrderID int64 `json:"order_id" validate:"required,gt=0"`
}

type createOrderRequest struct {
	QuoteID       int64           `json:"quote_id"        validate:"required,gt=0"`
	WorkStartDate string          `json:"work_start_date" validate:"required"`
	AgreedPrice   decimal.Decimal `json:"agreed_price"`
}

type billIDRequest struct {
	BillID int64 `json:"bill_id" validate:"required,gt=0"`
}

type payBillRequest struct {
	BillID            int64  `json:"bill_id"          validate:"required,gt=0"`
	PaymentDescriptor string `json:"credit_card_info" validate:"required"`
}

type billAmountRequest struct {
	BillID    int64           `json:"bill_id"    validate:"required,gt=0"`
	AmountDue decimal.Decimal `json:"amount_due"`
	Message   string          `json:"message"`
}

// --- Response types ---
// Kept apart from domain types so the JSON contract does not follow internal changes.

type pictureResponse struct {
	Ref string `json:"ref"`
	URL string `json:"url"`
}

type quoteResponse struct {
	ID              int64             `json:"id"`
	ClientID        int64             `json:"client_id"`
	PropertyAddress string            `json:"property_address"`
	AreaSqFt        int               `json:"area_sq_ft"`
	ProposedPrice   decimal.Decimal   `json:"proposed_price"`
	Message         string            `json:"message"`
	Status          string            `json:"status"`
	TimeWindow      []string          `json:"time_window"`
	CreatedAt       time.Time         `json:"created_at"`
	Pictures        []pictureResponse `json:"pictures"`
}

type clientSummaryResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type managedQuoteResponse struct {
	quoteResponse
	Client clientSummaryResponse `json:"client"`
}

type orderResponse struct {
	ID            int64           `json:"id"`
	QuoteID       int64           `json:"quote_id"`
	WorkStartDate string          `json:"work_start_date"`
	WorkEndDate   *string         `json:"work_end_date"`
	AgreedPrice   decimal.Decimal `json:"agreed_price"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type billResponse struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	QuoteID   int64           `json:"quote_id"`
	ClientID  int64           `json:"client_id"`
	BillDate  string          `json:"bill_date"`
	AmountDue decimal.Decimal `json:"amount_due"`
	PayDate   *string         `json:"pay_date"`
	Paid      bool            `json:"paid"`
	Message   string          `json:"message"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type updateRequestResponse struct {
	Quote quoteResponse  `json:"quote"`
	Order *orderResponse `json:"order,omitempty"`
}

type completeOrderResponse struct {
	Order orderResponse `json:"order"`
	Bill  billResponse  `json:"bill"`
}
