package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dataflow/console/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Local rule rejections.
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, domain.Message(err)
	case errors.Is(err, domain.ErrNotEntitled):
		return http.StatusForbidden, domain.Message(err)
	case errors.Is(err, domain.ErrInvalidPlan), errors.Is(err, domain.ErrInvalidPlatform):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrScrapeNotFound):
		return http.StatusNotFound, "scrape request not found"
	case errors.Is(err, domain.ErrAlreadyTerminal), errors.Is(err, domain.ErrSubscriptionInFlight):
		return http.StatusConflict, domain.Message(err)
	}

	// Backend responses. Client errors pass through with their detail;
	// server errors surface as a bad gateway.
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode, apiErr.Error()
		}
		log.Warn().
			Err(err).
			Int("backend_status", apiErr.StatusCode).
			Str("path", c.Path()).
			Msg("backend error")
		return http.StatusBadGateway, apiErr.Error()
	}
	var tErr *domain.TransportError
	if errors.As(err, &tErr) {
		log.Warn().Err(err).Str("path", c.Path()).Msg("backend unreachable")
		return http.StatusBadGateway, domain.Message(err)
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
