package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	FirstName         string `json:"first_name"       validate:"required"`
	LastName          string `json:"last_name"        validate:"required"`
	Address           string `json:"address"`
	Phone             string `json:"phone"`
	Email             string `json:"email"            validate:"required,email"`
	Password          string `json:"password"         validate:"required,min=6"`
	PaymentDescriptor string `json:"credit_card_info"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token  string         `json:"token,omitempty"`
	Client *domain.Client `json:"client,omitempty"`
}

// Register creates a new client account.
//
// @Summary      Register a new client
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Client registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	client, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Address:           req.Address,
		Phone:             req.Phone,
		Email:             req.Email,
		Password:          req.Password,
		PaymentDescriptor: req.PaymentDescriptor,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{Client: client})
}

// Login authenticates a client and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, client, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, Client: client})
}

// Logout revokes the caller's token.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), session); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}
