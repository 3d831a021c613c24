package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

type BillHandler struct {
	bills ports.BillService
}

func NewBillHandler(bills ports.BillService) *BillHandler {
	return &BillHandler{bills: bills}
}

// ViewBills lists the caller's bills.
//
// @Summary      List my bills
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   billResponse
// @Failure      401  {object}  errorResponse
// @Router       /view-bills [get]
func (h *BillHandler) ViewBills(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	bills, err := h.bills.ListBillsForClient(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBillResponses(bills))
}

// ManageBills lists every bill.
//
// @Summary      List all bills
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   billResponse
// @Failure      403  {object}  errorResponse
// @Router       /manage-bills [get]
func (h *BillHandler) ManageBills(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	bills, err := h.bills.ListBills(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBillResponses(bills))
}

// PayBill settles a bill and stores the payment descriptor.
//
// @Summary      Pay a bill
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      payBillRequest  true  "Bill and payment descriptor"
// @Success      200   {object}  billResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /pay-bill [post]
func (h *BillHandler) PayBill(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req payBillRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	bill, err := h.bills.PayBill(c.Request().Context(), actor, req.BillID, req.PaymentDescriptor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBillResponse(bill))
}

// CounterBill disputes the amount due.
//
// @Summary      Dispute a bill
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      billAmountRequest  true  "Proposed amount"
// @Success      200   {object}  billResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /counter-bill [post]
func (h *BillHandler) CounterBill(c echo.Context) error {
	return h.changeAmount(c, h.bills.CounterBill)
}

// AdminCounterBill re-offers a bill with a new amount.
//
// @Summary      Re-offer a bill
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      billAmountRequest  true  "New amount"
// @Success      200   {object}  billResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /admin/counter-bill [post]
func (h *BillHandler) AdminCounterBill(c echo.Context) error {
	return h.changeAmount(c, h.bills.AdminCounterBill)
}

func (h *BillHandler) changeAmount(c echo.Context, apply func(ctx context.Context, actor domain.Actor, in ports.BillAmountInput) (*domain.Bill, error)) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req billAmountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	bill, err := apply(c.Request().Context(), actor, ports.BillAmountInput{
		BillID:  req.BillID,
		Amount:  req.AmountDue,
		Message: req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBillResponse(bill))
}

// UpdateBill marks a bill paid on the client's behalf.
//
// @Summary      Mark a bill paid
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      billIDRequest  true  "Bill to mark paid"
// @Success      200   {object}  billResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /update-bill [post]
func (h *BillHandler) UpdateBill(c echo.Context) error {
	return h.changeStatus(c, h.bills.MarkBillPaid)
}

// AcceptCounterOffer accepts the client's disputed amount.
//
// @Summary      Accept a bill dispute
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      billIDRequest  true  "Disputed bill"
// @Success      200   {object}  billResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /accept-counter-offer [post]
func (h *BillHandler) AcceptCounterOffer(c echo.Context) error {
	return h.changeStatus(c, h.bills.AcceptCounterOffer)
}

func (h *BillHandler) changeStatus(c echo.Context, apply func(ctx context.Context, actor domain.Actor, billID int64) (*domain.Bill, error)) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req billIDRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	bill, err := apply(c.Request().Context(), actor, req.BillID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBillResponse(bill))
}
