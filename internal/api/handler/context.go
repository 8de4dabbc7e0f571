package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dataflow/console/internal/api/middleware"
	"github.com/dataflow/console/internal/core/domain"
)

// ctxUser returns the user injected by the RequireSession middleware. Its
// absence means the route was registered without the middleware.
func ctxUser(c echo.Context) (domain.User, error) {
	u, ok := c.Get(middleware.UserKey).(domain.User)
	if !ok {
		return domain.User{}, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return u, nil
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
