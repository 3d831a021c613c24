package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pavingco/driveway-api/internal/api/middleware"
	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

// ctxSession extracts the session injected by the Auth middleware. A session
// without a client identity is structurally valid but unusable, so it is
// rejected with 401 before any service call.
func ctxSession(c echo.Context) (*ports.Session, error) {
	session, ok := middleware.SessionFrom(c)
	if !ok || !session.Actor.Role.Valid() {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if session.Actor.ClientID <= 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "token missing client identity")
	}
	return session, nil
}

func ctxActor(c echo.Context) (domain.Actor, error) {
	session, err := ctxSession(c)
	if err != nil {
		return domain.Actor{}, err
	}
	return session.Actor, nil
}

// bindAndValidate decodes the request body and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	return c.Validate(req)
}
