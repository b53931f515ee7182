package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-auth-service/internal/auth"
)

// The generic reset-request answer. Deliberately identical whether or
// not the email is registered, so responses cannot be used to enumerate
// accounts.
const resetRequestedDetail = "If this email is registered, a reset link has been sent."

// PasswordResetHandler exposes the reset-token lifecycle.
type PasswordResetHandler struct {
	Resets *auth.ResetService
}

func NewPasswordResetHandler(resets *auth.ResetService) *PasswordResetHandler {
	return &PasswordResetHandler{Resets: resets}
}

type resetRequestReq struct {
	Email string `json:"email" validate:"required,email"`
}
type resetVerifyReq struct {
	Token string `json:"token" validate:"required"`
}
type resetApplyReq struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Request issues a reset token and dispatches the notification.
func (h *PasswordResetHandler) Request(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "email is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Resets.Request(ctx, req.Email); err != nil {
		if errors.Is(err, auth.ErrMissingCredentials) {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "email is required"})
		}
		c.Logger().Errorf("reset request failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": resetRequestedDetail})
}

// Verify reports whether a token is still usable without consuming it.
func (h *PasswordResetHandler) Verify(c echo.Context) error {
	var req resetVerifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "token is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	state, err := h.Resets.Verify(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "token is required"})
		case errors.Is(err, auth.ErrInvalidToken):
			return c.JSON(http.StatusBadRequest, echo.Map{"valid": false, "detail": "invalid token"})
		}
		c.Logger().Errorf("reset verify failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, state)
}

// Reset consumes the token and applies the new password.
func (h *PasswordResetHandler) Reset(c echo.Context) error {
	var req resetApplyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "token and new password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Resets.Reset(ctx, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "token and new password are required"})
		case errors.Is(err, auth.ErrTokenUsed):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "this token has already been used"})
		case errors.Is(err, auth.ErrExpiredToken):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "this token has expired"})
		case errors.Is(err, auth.ErrInvalidToken):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid token"})
		case errors.Is(err, auth.ErrWeakPassword):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
		}
		c.Logger().Errorf("reset apply failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "password has been reset"})
}
