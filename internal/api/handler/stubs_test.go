package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pavingco/driveway-api/internal/api/middleware"
	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.Client, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.Client, error)
	logoutFn   func(ctx context.Context, session *ports.Session) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Client, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.Client, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*ports.Session, error) {
	return nil, domain.ErrUnauthorized
}

func (s *stubAuthService) Logout(ctx context.Context, session *ports.Session) error {
	return s.logoutFn(ctx, session)
}

type stubQuoteService struct {
	ports.QuoteService
	submitFn  func(ctx context.Context, actor domain.Actor, in ports.SubmitQuoteInput) (*ports.SubmitQuoteResult, error)
	updateFn  func(ctx context.Context, actor domain.Actor, in ports.UpdateQuoteInput) (*ports.UpdateQuoteResult, error)
	counterFn func(ctx context.Context, actor domain.Actor, in ports.CounterOfferInput) (*domain.Quote, error)
	acceptFn  func(ctx context.Context, actor domain.Actor, in ports.AcceptOfferInput) (*domain.Order, error)
	listFn    func(ctx context.Context, actor domain.Actor) ([]*domain.Quote, error)
}

func (s *stubQuoteService) SubmitQuote(ctx context.Context, actor domain.Actor, in ports.SubmitQuoteInput) (*ports.SubmitQuoteResult, error) {
	return s.submitFn(ctx, actor, in)
}

func (s *stubQuoteService) UpdateQuote(ctx context.Context, actor domain.Actor, in ports.UpdateQuoteInput) (*ports.UpdateQuoteResult, error) {
	return s.updateFn(ctx, actor, in)
}

func (s *stubQuoteService) SetCounterOffer(ctx context.Context, actor domain.Actor, in ports.CounterOfferInput) (*domain.Quote, error) {
	return s.counterFn(ctx, actor, in)
}

func (s *stubQuoteService) AcceptOffer(ctx context.Context, actor domain.Actor, in ports.AcceptOfferInput) (*domain.Order, error) {
	return s.acceptFn(ctx, actor, in)
}

func (s *stubQuoteService) ListQuotesForClient(ctx context.Context, actor domain.Actor) ([]*domain.Quote, error) {
	return s.listFn(ctx, actor)
}

type stubOrderService struct {
	ports.OrderService
	completeFn func(ctx context.Context, actor domain.Actor, orderID int64) (*ports.CompleteOrderResult, error)
	createFn   func(ctx context.Context, actor domain.Actor, in ports.CreateOrderInput) (*domain.Order, error)
}

func (s *stubOrderService) CompleteOrder(ctx context.Context, actor domain.Actor, orderID int64) (*ports.CompleteOrderResult, error) {
	return s.completeFn(ctx, actor, orderID)
}

func (s *stubOrderService) CreateOrderDirect(ctx context.Context, actor domain.Actor, in ports.CreateOrderInput) (*domain.Order, error) {
	return s.createFn(ctx, actor, in)
}

type stubBillService struct {
	ports.BillService
	payFn          func(ctx context.Context, actor domain.Actor, billID int64, descriptor string) (*domain.Bill, error)
	counterFn      func(ctx context.Context, actor domain.Actor, in ports.BillAmountInput) (*domain.Bill, error)
	adminCounterFn func(ctx context.Context, actor domain.Actor, in ports.BillAmountInput) (*domain.Bill, error)
	markPaidFn     func(ctx context.Context, actor domain.Actor, billID int64) (*domain.Bill, error)
}

func (s *stubBillService) PayBill(ctx context.Context, actor domain.Actor, billID int64, descriptor string) (*domain.Bill, error) {
	return s.payFn(ctx, actor, billID, descriptor)
}

func (s *stubBillService) CounterBill(ctx context.Context, actor domain.Actor, in ports.BillAmountInput) (*domain.Bill, error) {
	return s.counterFn(ctx, actor, in)
}

func (s *stubBillService) AdminCounterBill(ctx context.Context, actor domain.Actor, in ports.BillAmountInput) (*domain.Bill, error) {
	return s.adminCounterFn(ctx, actor, in)
}

func (s *stubBillService) MarkBillPaid(ctx context.Context, actor domain.Actor, billID int64) (*domain.Bill, error) {
	return s.markPaidFn(ctx, actor, billID)
}

type stubAttachmentStore struct {
	files map[string]string
}

func (s *stubAttachmentStore) Save(context.Context, string, string, io.Reader) (string, error) {
	return "", nil
}

func (s *stubAttachmentStore) Open(_ context.Context, ref string) (io.ReadCloser, *ports.StoredFile, error) {
	body, ok := s.files[ref]
	if !ok {
		return nil, nil, domain.ErrAttachmentNotFound
	}
	return io.NopCloser(strings.NewReader(body)), &ports.StoredFile{
		Ref:         ref,
		Filename:    "drive.jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
	}, nil
}

func (s *stubAttachmentStore) Delete(context.Context, string) error { return nil }

// newEcho returns an echo instance with the validator installed.
func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// jsonContext builds a request context carrying a session for actor.
func jsonContext(e *echo.Echo, method, path, body string, actor *domain.Actor) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		c.Set(middleware.SessionKey, &ports.Session{Actor: *actor, TokenID: "jti-1"})
	}
	return c, rec
}

var (
	userActor  = domain.Actor{ClientID: 1, Role: domain.RoleUser}
	adminActor = domain.Actor{ClientID: 9, Role: domain.RoleAdmin}
)
