package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dataflow/console/internal/core/domain"
)

// UserKey is the echo context key holding the signed-in domain.User.
const UserKey = "user"

// SessionReader is what RequireSession needs from the session manager.
type SessionReader interface {
	User() (domain.User, bool)
	EnsureFreshToken(ctx context.Context) (bool, error)
}

// RequireSession rejects requests with 401 unless a user is signed in. A
// token close to expiry is rotated first; if the backend refuses, the
// session is gone and the request is rejected too.
func RequireSession(s SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := s.EnsureFreshToken(c.Request().Context()); err != nil && errors.Is(err, domain.ErrUnauthorized) {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired, please sign in again")
			}

			u, ok := s.User()
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "please sign in to continue")
			}

			c.Set(UserKey, u)
			return next(c)
		}
	}
}
