package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/pavingco/driveway-api/internal/api/handler"
	"github.com/pavingco/driveway-api/internal/api/middleware"
	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

const uploadBodyLimit = "25M"

// Dependencies are the services the HTTP layer delegates to.
type Dependencies struct {
	Auth        ports.AuthService
	Clients     ports.ClientService
	Quotes      ports.QuoteService
	Orders      ports.OrderService
	Bills       ports.BillService
	Attachments ports.AttachmentStore
	Readiness   []handler.DependencyCheck
	Logger      zerolog.Logger

	// Registry receives the HTTP request metrics. Defaults to the global
	// prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "paving",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	clientHandler := handler.NewClientHandler(deps.Clients)
	quoteHandler := handler.NewQuoteHandler(deps.Quotes)
	orderHandler := handler.NewOrderHandler(deps.Orders)
	billHandler := handler.NewBillHandler(deps.Bills)
	attachmentHandler := handler.NewAttachmentHandler(deps.Attachments)

	authMiddleware := middleware.Auth(deps.Auth)
	anyRole := []echo.MiddlewareFunc{authMiddleware, middleware.RBAC(domain.RoleUser)}
	admin := []echo.MiddlewareFunc{authMiddleware, middleware.RBAC(domain.RoleAdmin)}

	// --- Public routes ---
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.GET("/uploads/:ref", attachmentHandler.Download)

	// --- Client routes (admins pass as well) ---
	e.POST("/logout", authHandler.Logout, anyRole...)
	e.GET("/profile", clientHandler.Profile, anyRole...)
	e.GET("/get-credit-card", clientHandler.PaymentDescriptor, anyRole...)
	e.POST("/request-quote", quoteHandler.RequestQuote, authMiddleware, middleware.RBAC(domain.RoleUser), echomiddleware.BodyLimit(uploadBodyLimit))
	e.GET("/user-quotes", quoteHandler.UserQuotes, anyRole...)
	e.POST("/set-counter-offer", quoteHandler.SetCounterOffer, anyRole...)
	e.POST("/accept-offer", quoteHandler.AcceptOffer, anyRole...)
	e.GET("/view-bills", billHandler.ViewBills, anyRole...)
	e.POST("/pay-bill", billHandler.PayBill, anyRole...)
	e.POST("/counter-bill", billHandler.CounterBill, anyRole...)

	// --- Admin routes ---
	e.GET("/manage-requests", quoteHandler.ManageRequests, admin...)
	e.POST("/update-request", quoteHandler.UpdateRequest, admin...)
	e.GET("/manage-orders", orderHandler.ManageOrders, admin...)
	e.POST("/complete-order", orderHandler.CompleteOrder, admin...)
	e.POST("/create-order", orderHandler.CreateOrder, admin...)
	e.GET("/manage-bills", billHandler.ManageBills, admin...)
	e.POST("/update-bill", billHandler.UpdateBill, admin...)
	e.POST("/admin/counter-bill", billHandler.AdminCounterBill, admin...)
	e.POST("/accept-counter-offer", billHandler.AcceptCounterOffer, admin...)
	e.GET("/admin/customers", clientHandler.ListCustomers, admin...)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
