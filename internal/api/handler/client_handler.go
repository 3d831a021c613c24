package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pavingco/driveway-api/internal/core/ports"
)

type ClientHandler struct {
	clients ports.ClientService
}

func NewClientHandler(clients ports.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

type paymentDescriptorResponse struct {
	PaymentDescriptor string `json:"credit_card_info"`
}

// Profile returns the caller's account.
//
// @Summary      Current client profile
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Client
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /profile [get]
func (h *ClientHandler) Profile(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	client, err := h.clients.Profile(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// PaymentDescriptor returns the stored payment descriptor, empty when unset.
//
// @Summary      Stored payment descriptor
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  paymentDescriptorResponse
// @Failure      401  {object}  errorResponse
// @Router       /get-credit-card [get]
func (h *ClientHandler) PaymentDescriptor(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	descriptor, err := h.clients.PaymentDescriptor(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paymentDescriptorResponse{PaymentDescriptor: descriptor})
}

// ListCustomers returns every registered client.
//
// @Summary      List customers
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Client
// @Failure      403  {object}  errorResponse
// @Router       /admin/customers [get]
func (h *ClientHandler) ListCustomers(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	clients, err := h.clients.ListCustomers(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clients)
}
