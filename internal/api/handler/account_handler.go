package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dataflow/console/internal/core/ports"
)

type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Account returns the account profile.
//
// @Summary      Account
// @Tags         account
// @Produce      json
// @Success      200  {object}  domain.Account
// @Failure      401  {object}  errorResponse
// @Router       /account [get]
func (h *AccountHandler) Account(c echo.Context) error {
	acc, err := h.accounts.Account(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acc)
}

// Usage returns the API quota for the current period.
//
// @Summary      API usage
// @Tags         account
// @Produce      json
// @Success      200  {object}  domain.Usage
// @Failure      401  {object}  errorResponse
// @Router       /account/usage [get]
func (h *AccountHandler) Usage(c echo.Context) error {
	u, err := h.accounts.Usage(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// RotateKey regenerates the API key.
//
// @Summary      Regenerate API key
// @Tags         account
// @Produce      json
// @Success      200  {object}  domain.APIKeyRotation
// @Failure      401  {object}  errorResponse
// @Router       /account/api-key [post]
func (h *AccountHandler) RotateKey(c echo.Context) error {
	rot, err := h.accounts.RegenerateAPIKey(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rot)
}
