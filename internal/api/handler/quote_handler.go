package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

const (
	// IdempotencyKeyHeader lets clients retry a quote submission safely.
	IdempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	picturesField        = "pictures"
)

type QuoteHandler struct {
	quotes ports.QuoteService
}

func NewQuoteHandler(quotes ports.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// RequestQuote submits a paving request with optional photos.
//
// @Summary      Request a quote
// @Tags         quotes
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        address          formData  string  true   "Property address"
// @Param        square_feet      formData  int     true   "Driveway area in square feet"
// @Param        proposed_price   formData  number  true   "Proposed price"
// @Param        note             formData  string  false  "Note for the contractor"
// @Param        pictures         formData  file    false  "Up to five photos"
// @Param        Idempotency-Key  header    string  false  "Retry key"
// @Success      201  {object}  quoteResponse
// @Success      200  {object}  quoteResponse  "replayed submission"
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /request-quote [post]
func (h *QuoteHandler) RequestQuote(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	in, closeFiles, err := parseQuoteForm(c)
	defer closeFiles()
	if err != nil {
		return err
	}
	in.IdempotencyKey = strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader))

	res, err := h.quotes.SubmitQuote(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if res.Replayed {
		c.Response().Header().Set(replayedHeader, "true")
		status = http.StatusOK
	}
	return c.JSON(status, toQuoteResponse(res.Quote))
}

// parseQuoteForm reads the quote fields and opens every uploaded picture.
// The returned func closes the opened files and is always safe to call.
func parseQuoteForm(c echo.Context) (ports.SubmitQuoteInput, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	area, err := strconv.Atoi(strings.TrimSpace(c.FormValue("square_feet")))
	if err != nil {
		return ports.SubmitQuoteInput{}, closeAll, domain.NewValidationError("square_feet must be a whole number")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("proposed_price")))
	if err != nil {
		return ports.SubmitQuoteInput{}, closeAll, domain.NewValidationError("proposed_price must be a number")
	}

	in := ports.SubmitQuoteInput{
		PropertyAddress: strings.TrimSpace(c.FormValue("address")),
		AreaSqFt:        area,
		ProposedPrice:   price,
		Message:         c.FormValue("note"),
	}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return in, closeAll, nil
		}
		return in, closeAll, domain.NewValidationError("invalid multipart body")
	}
	for _, fh := range form.File[picturesField] {
		f, err := fh.Open()
		if err != nil {
			return in, closeAll, domain.NewValidationError("unreadable picture %q", fh.Filename)
		}
		opened = append(opened, f)
		in.Attachments = append(in.Attachments, ports.AttachmentInput{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Content:     f,
		})
	}
	return in, closeAll, nil
}

// UserQuotes lists the caller's quotes, newest first.
//
// @Summary      List my quotes
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   quoteResponse
// @Failure      401  {object}  errorResponse
// @Router       /user-quotes [get]
func (h *QuoteHandler) UserQuotes(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	quotes, err := h.quotes.ListQuotesForClient(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toQuoteResponses(quotes))
}

// ManageRequests lists every quote with its client.
//
// @Summary      List all quote requests
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   managedQuoteResponse
// @Failure      403  {object}  errorResponse
// @Router       /manage-requests [get]
func (h *QuoteHandler) ManageRequests(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	quotes, err := h.quotes.ListAllQuotesForAdmin(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toManagedQuoteResponses(quotes))
}

// UpdateRequest lets an admin answer a quote. Agreeing creates the order.
//
// @Summary      Update a quote request
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateRequestRequest  true  "New status, offer and time window"
// @Success      200   {object}  updateRequestResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /update-request [post]
func (h *QuoteHandler) UpdateRequest(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req updateRequestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	window, err := domain.ParseTimeWindow(req.TimeWindow)
	if err != nil {
		return err
	}

	res, err := h.quotes.UpdateQuote(c.Request().Context(), actor, ports.UpdateQuoteInput{
		QuoteID:    req.QuoteID,
		Status:     domain.QuoteStatus(req.Status),
		Offer:      req.Offer,
		TimeWindow: window,
		Message:    req.Message,
	})
	if err != nil {
		return err
	}

	resp := updateRequestResponse{Quote: toQuoteResponse(res.Quote)}
	if res.Order != nil {
		order := toOrderResponse(res.Order)
		resp.Order = &order
	}
	return c.JSON(http.StatusOK, resp)
}

// SetCounterOffer answers an admin offer with a new price.
//
// @Summary      Counter an offer
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      counterOfferRequest  true  "Counter offer"
// @Success      200   {object}  quoteResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /set-counter-offer [post]
func (h *QuoteHandler) SetCounterOffer(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req counterOfferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	quote, err := h.quotes.SetCounterOffer(c.Request().Context(), actor, ports.CounterOfferInput{
		QuoteID:      req.QuoteID,
		CounterOffer: req.CounterOffer,
		Message:      req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// AcceptOffer agrees to the admin offer and schedules the work.
//
// @Summary      Accept an offer
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      acceptOfferRequest  true  "Quote and chosen start date"
// @Success      201   {object}  orderResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /accept-offer [post]
func (h *QuoteHandler) AcceptOffer(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req acceptOfferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	chosen, err := domain.ParseDate(req.Date)
	if err != nil {
		return err
	}

	order, err := h.quotes.AcceptOffer(c.Request().Context(), actor, ports.AcceptOfferInput{
		QuoteID:    req.QuoteID,
		ChosenDate: chosen,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toOrderResponse(order))
}
