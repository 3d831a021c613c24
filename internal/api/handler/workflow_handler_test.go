package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/pavingco/driveway-api/internal/api/middleware"
	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

func multipartQuoteRequest(t *testing.T, fields map[string]string, pictures map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for name, content := range pictures {
		part, err := w.CreateFormFile("pictures", name)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		_, _ = part.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/request-quote", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestQuoteHandler_RequestQuote_Multipart(t *testing.T) {
	e := newEcho()
	stub := &stubQuoteService{
		submitFn: func(ctx context.Context, actor domain.Actor, in ports.SubmitQuoteInput) (*ports.SubmitQuoteResult, error) {
			if actor != userActor {
				t.Fatalf("unexpected actor %+v", actor)
			}
			if in.PropertyAddress != "1 Elm St" || in.AreaSqFt != 400 || !in.ProposedPrice.Equal(decimal.RequireFromString("2500.75")) {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.IdempotencyKey != "abc-123" {
				t.Fatalf("expected idempotency key, got %q", in.IdempotencyKey)
			}
			if len(in.Attachments) != 1 || in.Attachments[0].Filename != "front.jpg" {
				t.Fatalf("unexpected attachments: %+v", in.Attachments)
			}
			content, _ := io.ReadAll(in.Attachments[0].Content)
			if string(content) != "jpeg-bytes" {
				t.Fatalf("unexpected attachment content %q", content)
			}
			return &ports.SubmitQuoteResult{Quote: &domain.Quote{
				ID:              11,
				ClientID:        actor.ClientID,
				PropertyAddress: in.PropertyAddress,
				AreaSqFt:        in.AreaSqFt,
				ProposedPrice:   in.ProposedPrice,
				Status:          domain.QuotePending,
				Attachments:     []domain.QuoteAttachment{{ID: 1, QuoteID: 11, Ref: "abc"}},
			}}, nil
		},
	}
	handler := NewQuoteHandler(stub)

	req := multipartQuoteRequest(t, map[string]string{
		"address":        "1 Elm St",
		"square_feet":    "400",
		"proposed_price": "2500.75",
		"note":           "cracked slab",
	}, map[string]string{"front.jpg": "jpeg-bytes"})
	req.Header.Set(IdempotencyKeyHeader, "abc-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.SessionKey, &ports.Session{Actor: userActor})

	if err := handler.RequestQuote(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp quoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "pending" || len(resp.Pictures) != 1 || resp.Pictures[0].URL != "/uploads/abc" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestQuoteHandler_RequestQuote_Replayed(t *testing.T) {
	e := newEcho()
	stub := &stubQuoteService{
		submitFn: func(ctx context.Context, actor domain.Actor, in ports.SubmitQuoteInput) (*ports.SubmitQuoteResult, error) {
			return &ports.SubmitQuoteResult{Quote: &domain.Quote{ID: 11, Status: domain.QuotePending}, Replayed: true}, nil
		},
	}
	handler := NewQuoteHandler(stub)

	req := multipartQuoteRequest(t, map[string]string{"address": "1 Elm St", "square_feet": "400", "proposed_price": "10"}, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.SessionKey, &ports.Session{Actor: userActor})

	if err := handler.RequestQuote(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replayed 200, got %d %v", rec.Code, rec.Header())
	}
}

func TestQuoteHandler_RequestQuote_BadNumbers(t *testing.T) {
	e := newEcho()
	stub := &stubQuoteService{
		submitFn: func(ctx context.Context, actor domain.Actor, in ports.SubmitQuoteInput) (*ports.SubmitQuoteResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewQuoteHandler(stub)

	for name, fields := range map[string]map[string]string{
		"area":  {"address": "x", "square_feet": "big", "proposed_price": "10"},
		"price": {"address": "x", "square_feet": "10", "proposed_price": "ten"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(multipartQuoteRequest(t, fields, nil), rec)
			c.Set(middleware.SessionKey, &ports.Session{Actor: userActor})
			if err := handler.RequestQuote(c); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestQuoteHandler_UpdateRequest_AgreedReturnsOrder(t *testing.T) {
	e := newEcho()
	stub := &stubQuoteService{
		updateFn: func(ctx context.Context, actor domain.Actor, in ports.UpdateQuoteInput) (*ports.UpdateQuoteResult, error) {
			if in.Status != domain.QuoteAgreed || in.Offer == nil || !in.Offer.Equal(decimal.NewFromInt(900)) {
				t.Fatalf("unexpected input: %+v", in)
			}
			if got := in.TimeWindow.Strings(); len(got) != 2 || got[0] != "01/15/2025" {
				t.Fatalf("unexpected window: %v", got)
			}
			start := domain.Date{Year: 2025, Month: time.January, Day: 15}
			return &ports.UpdateQuoteResult{
				Quote: &domain.Quote{ID: in.QuoteID, Status: domain.QuoteAgreed, TimeWindow: in.TimeWindow, ProposedPrice: *in.Offer},
				Order: &domain.Order{ID: 3, QuoteID: in.QuoteID, WorkStartDate: start, AgreedPrice: *in.Offer, Status: domain.OrderPending},
			}, nil
		},
	}
	handler := NewQuoteHandler(stub)

	body := `{"quote_id":4,"status":"agreed","offer":900,"time_window":["01/15/2025","2025-01-20"],"message":"ok"}`
	c, rec := jsonContext(e, http.MethodPost, "/update-request", body, &adminActor)

	if err := handler.UpdateRequest(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp updateRequestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Order == nil || resp.Order.WorkStartDate != "2025-01-15" {
		t.Fatalf("expected order in response, got %+v", resp)
	}
	if resp.Quote.TimeWindow[1] != "01/20/2025" {
		t.Fatalf("unexpected window rendering: %v", resp.Quote.TimeWindow)
	}
}

func TestQuoteHandler_UpdateRequest_BadWindow(t *testing.T) {
	e := newEcho()
	handler := NewQuoteHandler(&stubQuoteService{})

	c, _ := jsonContext(e, http.MethodPost, "/update-request", `{"quote_id":4,"status":"waiting for client","time_window":["soon"]}`, &adminActor)
	if err := handler.UpdateRequest(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuoteHandler_AcceptOffer(t *testing.T) {
	e := newEcho()
	stub := &stubQuoteService{
		acceptFn: func(ctx context.Context, actor domain.Actor, in ports.AcceptOfferInput) (*domain.Order, error) {
			if in.QuoteID != 4 || in.ChosenDate.String() != "2025-01-20" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Order{ID: 8, QuoteID: 4, WorkStartDate: in.ChosenDate, Status: domain.OrderPending}, nil
		},
	}
	handler := NewQuoteHandler(stub)

	c, rec := jsonContext(e, http.MethodPost, "/accept-offer", `{"quote_id":4,"date":"01/20/2025"}`, &userActor)
	if err := handler.AcceptOffer(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestQuoteHandler_SetCounterOffer_PropagatesForbidden(t *testing.T) {
	e := newEcho()
	stub := &stubQuoteService{
		counterFn: func(ctx context.Context, actor domain.Actor, in ports.CounterOfferInput) (*domain.Quote, error) {
			return nil, domain.ErrForbidden
		},
	}
	handler := NewQuoteHandler(stub)

	c, _ := jsonContext(e, http.MethodPost, "/set-counter-offer", `{"quote_id":4,"counter_offer":700,"message":"lower"}`, &userActor)
	if err := handler.SetCounterOffer(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestOrderHandler_CompleteOrder(t *testing.T) {
	e := newEcho()
	stub := &stubOrderService{
		completeFn: func(ctx context.Context, actor domain.Actor, orderID int64) (*ports.CompleteOrderResult, error) {
			end := domain.Date{Year: 2025, Month: time.March, Day: 10}
			return &ports.CompleteOrderResult{
				Order: &domain.Order{ID: orderID, Status: domain.OrderCompleted, WorkEndDate: &end},
				Bill:  &domain.Bill{ID: 2, OrderID: orderID, BillDate: end, AmountDue: decimal.NewFromInt(900), Status: domain.BillWaitingForClient},
			}, nil
		},
	}
	handler := NewOrderHandler(stub)

	c, rec := jsonContext(e, http.MethodPost, "/complete-order", `{"order_id":3}`, &adminActor)
	if err := handler.CompleteOrder(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp completeOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Order.WorkEndDate == nil || *resp.Order.WorkEndDate != "2025-03-10" || resp.Bill.Status != "waiting for client" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOrderHandler_CompleteOrder_MissingID(t *testing.T) {
	e := newEcho()
	handler := NewOrderHandler(&stubOrderService{})

	c, _ := jsonContext(e, http.MethodPost, "/complete-order", `{}`, &adminActor)
	if err := handler.CompleteOrder(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	e := newEcho()
	stub := &stubOrderService{
		createFn: func(ctx context.Context, actor domain.Actor, in ports.CreateOrderInput) (*domain.Order, error) {
			if in.WorkStartDate.String() != "2025-04-01" || !in.AgreedPrice.Equal(decimal.RequireFromString("1500.5")) {
				t.Fatalf("unexpected input: %+v", in)
			}
			return nil, domain.ErrOrderExists
		},
	}
	handler := NewOrderHandler(stub)

	c, _ := jsonContext(e, http.MethodPost, "/create-order", `{"quote_id":4,"work_start_date":"2025-04-01","agreed_price":1500.5}`, &adminActor)
	if err := handler.CreateOrder(c); !errors.Is(err, domain.ErrOrderExists) {
		t.Fatalf("expected ErrOrderExists, got %v", err)
	}
}

func TestBillHandler_PayBill(t *testing.T) {
	e := newEcho()
	stub := &stubBillService{
		payFn: func(ctx context.Context, actor domain.Actor, billID int64, descriptor string) (*domain.Bill, error) {
			if billID != 2 || descriptor != "visa-4242" {
				t.Fatalf("unexpected args: %d %q", billID, descriptor)
			}
			pay := domain.Date{Year: 2025, Month: time.March, Day: 11}
			return &domain.Bill{ID: billID, Paid: true, PayDate: &pay, Status: domain.BillPaid}, nil
		},
	}
	handler := NewBillHandler(stub)

	c, rec := jsonContext(e, http.MethodPost, "/pay-bill", `{"bill_id":2,"credit_card_info":"visa-4242"}`, &userActor)
	if err := handler.PayBill(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp billResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Paid || resp.PayDate == nil || *resp.PayDate != "2025-03-11" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestBillHandler_PayBill_RequiresDescriptor(t *testing.T) {
	e := newEcho()
	handler := NewBillHandler(&stubBillService{})

	c, _ := jsonContext(e, http.MethodPost, "/pay-bill", `{"bill_id":2}`, &userActor)
	if err := handler.PayBill(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBillHandler_AmountRoutes(t *testing.T) {
	e := newEcho()
	var calls []string
	record := func(name string) func(ctx context.Context, actor domain.Actor, in ports.BillAmountInput) (*domain.Bill, error) {
		return func(ctx context.Context, actor domain.Actor, in ports.BillAmountInput) (*domain.Bill, error) {
			calls = append(calls, name)
			if !in.Amount.Equal(decimal.NewFromInt(800)) || in.Message != "too high" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Bill{ID: in.BillID, AmountDue: in.Amount, Status: domain.BillDisputed}, nil
		}
	}
	handler := NewBillHandler(&stubBillService{counterFn: record("client"), adminCounterFn: record("admin")})

	body := `{"bill_id":2,"amount_due":800,"message":"too high"}`
	c, _ := jsonContext(e, http.MethodPost, "/counter-bill", body, &userActor)
	if err := handler.CounterBill(c); err != nil {
		t.Fatalf("counter bill: %v", err)
	}
	c, _ = jsonContext(e, http.MethodPost, "/admin/counter-bill", body, &adminActor)
	if err := handler.AdminCounterBill(c); err != nil {
		t.Fatalf("admin counter bill: %v", err)
	}
	if len(calls) != 2 || calls[0] != "client" || calls[1] != "admin" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestBillHandler_UpdateBill(t *testing.T) {
	e := newEcho()
	stub := &stubBillService{
		markPaidFn: func(ctx context.Context, actor domain.Actor, billID int64) (*domain.Bill, error) {
			return nil, domain.ErrInvalidTransition
		},
	}
	handler := NewBillHandler(stub)

	c, _ := jsonContext(e, http.MethodPost, "/update-bill", `{"bill_id":2}`, &adminActor)
	if err := handler.UpdateBill(c); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAttachmentHandler_Download(t *testing.T) {
	e := newEcho()
	handler := NewAttachmentHandler(&stubAttachmentStore{files: map[string]string{"abc": "jpeg-bytes"}})

	req := httptest.NewRequest(http.MethodGet, "/uploads/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("ref")
	c.SetParamValues("abc")

	if err := handler.Download(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Body.String() != "jpeg-bytes" || rec.Header().Get(echo.HeaderContentType) != "image/jpeg" {
		t.Fatalf("unexpected download: %q %v", rec.Body.String(), rec.Header())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/uploads/nope", nil), httptest.NewRecorder())
	c.SetParamNames("ref")
	c.SetParamValues("nope")
	if err := handler.Download(c); !errors.Is(err, domain.ErrAttachmentNotFound) {
		t.Fatalf("expected ErrAttachmentNotFound, got %v", err)
	}
}

func TestQuoteHandler_UserQuotes_TimeWindowNullWhenUnreadable(t *testing.T) {
	e := newEcho()
	handler := NewQuoteHandler(&stubQuoteService{
		listFn: func(ctx context.Context, actor domain.Actor) ([]*domain.Quote, error) {
			return []*domain.Quote{
				{ID: 1, ClientID: actor.ClientID, Status: domain.QuotePending, TimeWindow: domain.DecodeTimeWindow("not json")},
				{ID: 2, ClientID: actor.ClientID, Status: domain.QuoteWaitingForClient, TimeWindow: domain.DecodeTimeWindow(`["2024-06-01"]`)},
			}, nil
		},
	})

	c, rec := jsonContext(e, http.MethodGet, "/user-quotes", "", &userActor)
	if err := handler.UserQuotes(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp []map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(resp))
	}
	if got := string(resp[0]["time_window"]); got != "null" {
		t.Fatalf("expected null time_window, got %s", got)
	}
	if got := string(resp[1]["time_window"]); got != `["06/01/2024"]` {
		t.Fatalf("unexpected time_window: %s", got)
	}
}

func TestHandlers_RejectMissingSession(t *testing.T) {
	e := newEcho()
	handler := NewQuoteHandler(&stubQuoteService{})

	c, _ := jsonContext(e, http.MethodGet, "/user-quotes", "", nil)
	err := handler.UserQuotes(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHealthDependenciesHandler_Readiness(t *testing.T) {
	e := newEcho()
	handler := NewHealthDependenciesHandler(
		DependencyCheck{Name: "sql", Ping: func(context.Context) error { return nil }},
		DependencyCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
	)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := handler.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Dependencies["sql"].Status != "ok" || resp.Dependencies["redis"].Status != "unhealthy" {
		t.Fatalf("unexpected dependencies: %+v", resp.Dependencies)
	}
}
