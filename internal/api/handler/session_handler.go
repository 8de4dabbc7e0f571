package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dataflow/console/internal/core/ports"
)

type SessionHandler struct {
	session ports.SessionService
}

func NewSessionHandler(session ports.SessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

func (h *SessionHandler) view(c echo.Context) sessionResponse {
	resp := sessionResponse{
		State:         string(h.session.State()),
		Authenticated: h.session.IsAuthenticated(),
	}
	if u, ok := h.session.User(); ok {
		resp.User = &u
		resp.CanScrape = u.Plan.CanScrape()
	}
	if exp, ok := h.session.TokenExpiry(c.Request().Context()); ok {
		resp.TokenExpiresAt = &exp
	}
	return resp
}

// Get reports the current session.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.view(c))
}

// SignIn exchanges credentials for a session.
//
// @Summary      Sign in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /session/signin [post]
func (h *SessionHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.session.SignIn(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.view(c))
}

// SignUp registers an account and signs it in.
//
// @Summary      Sign up
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Registration details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /session/signup [post]
func (h *SessionHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.session.SignUp(c.Request().Context(), req.Email, req.Password, req.Name); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, h.view(c))
}

// SignOut ends the session locally.
//
// @Summary      Sign out
// @Tags         session
// @Success      204
// @Router       /session [delete]
func (h *SessionHandler) SignOut(c echo.Context) error {
	if err := h.session.SignOut(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh rotates the access token and reloads the profile.
//
// @Summary      Refresh session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.session.RotateToken(ctx); err != nil {
		return err
	}
	if err := h.session.RefreshUser(ctx); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.view(c))
}
