package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

type OrderHandler struct {
	orders ports.OrderService
}

func NewOrderHandler(orders ports.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ManageOrders lists every order.
//
// @Summary      List orders
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   orderResponse
// @Failure      403  {object}  errorResponse
// @Router       /manage-orders [get]
func (h *OrderHandler) ManageOrders(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	orders, err := h.orders.ListOrders(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponses(orders))
}

// CompleteOrder marks the work done and issues the bill.
//
// @Summary      Complete an order
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      orderIDRequest  true  "Order to complete"
// @Success      200   {object}  completeOrderResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /complete-order [post]
func (h *OrderHandler) CompleteOrder(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req orderIDRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.orders.CompleteOrder(c.Request().Context(), actor, req.OrderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, completeOrderResponse{
		Order: toOrderResponse(res.Order),
		Bill:  toBillResponse(res.Bill),
	})
}

// CreateOrder schedules work for a quote without the negotiation steps.
//
// @Summary      Create an order directly
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrderRequest  true  "Quote, start date and price"
// @Success      201   {object}  orderResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /create-order [post]
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	start, err := domain.ParseDate(req.WorkStartDate)
	if err != nil {
		return err
	}

	order, err := h.orders.CreateOrderDirect(c.Request().Context(), actor, ports.CreateOrderInput{
		QuoteID:       req.QuoteID,
		WorkStartDate: start,
		AgreedPrice:   req.AgreedPrice,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toOrderResponse(order))
}
