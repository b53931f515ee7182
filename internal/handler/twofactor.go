package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-auth-service/internal/auth"
	"github.com/iliyamo/hr-auth-service/internal/model"
)

// TwoFactorHandler exposes 2FA enrollment, verification and backup-code
// management. All routes are protected; the user always operates on
// their own configuration.
type TwoFactorHandler struct {
	TwoFactor *auth.TwoFactorService
}

func NewTwoFactorHandler(tf *auth.TwoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{TwoFactor: tf}
}

type twoFactorSetupReq struct {
	Method string `json:"method" validate:"required,oneof=email sms totp"`
}
type twoFactorVerifyReq struct {
	Code string `json:"code" validate:"required"`
}

// twoFactorResp is the externally visible configuration. The secret,
// pending code and backup-code hashes never leave the server through
// this shape; only the count of remaining backup codes is exposed.
type twoFactorResp struct {
	Method               string     `json:"method"`
	IsEnabled            bool       `json:"is_enabled"`
	Verified             bool       `json:"verified"`
	VerifiedAt           *time.Time `json:"verified_at,omitempty"`
	BackupCodesRemaining int        `json:"backup_codes_remaining"`
}

func toTwoFactorResp(cfg model.TwoFactorAuth) twoFactorResp {
	return twoFactorResp{
		Method:               cfg.Method,
		IsEnabled:            cfg.IsEnabled,
		Verified:             cfg.Verified,
		VerifiedAt:           cfg.VerifiedAt,
		BackupCodesRemaining: len(cfg.BackupCodes),
	}
}

// Config returns the caller's 2FA configuration, 404 if never set up.
func (h *TwoFactorHandler) Config(c echo.Context) error {
	uid := CurrentUserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cfg, err := h.TwoFactor.Config(ctx, uid)
	if err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "two-factor authentication is not configured"})
		}
		c.Logger().Errorf("2fa config failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, toTwoFactorResp(cfg))
}

// Setup configures or resets 2FA for the caller. For TOTP the response
// carries the secret and provisioning URI to feed an authenticator app;
// for email/SMS a first code is dispatched out of band.
func (h *TwoFactorHandler) Setup(c echo.Context) error {
	var req twoFactorSetupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "method must be one of email, sms, totp"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.TwoFactor.Setup(ctx, CurrentUserID(c), req.Method)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidMethod) {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "method must be one of email, sms, totp"})
		}
		c.Logger().Errorf("2fa setup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, res)
}

// Verify checks a code against the current configuration. The first
// success flips the configuration to verified and returns the freshly
// generated backup codes, the only time they are visible.
func (h *TwoFactorHandler) Verify(c echo.Context) error {
	var req twoFactorVerifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "code is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.TwoFactor.Verify(ctx, CurrentUserID(c), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNotConfigured):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "two-factor authentication is not configured"})
		case errors.Is(err, auth.ErrInvalidCode):
			return c.JSON(http.StatusBadRequest, echo.Map{"verified": false, "detail": "invalid code"})
		}
		c.Logger().Errorf("2fa verify failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, res)
}

// Enable turns enforcement on once the configuration is verified.
func (h *TwoFactorHandler) Enable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cfg, err := h.TwoFactor.Enable(ctx, CurrentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNotConfigured):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "two-factor authentication is not configured"})
		case errors.Is(err, auth.ErrNotVerified):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "two-factor authentication must be verified before enabling"})
		}
		c.Logger().Errorf("2fa enable failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, toTwoFactorResp(cfg))
}

// Disable turns enforcement off; verification state is kept.
func (h *TwoFactorHandler) Disable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cfg, err := h.TwoFactor.Disable(ctx, CurrentUserID(c))
	if err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "two-factor authentication is not configured"})
		}
		c.Logger().Errorf("2fa disable failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, toTwoFactorResp(cfg))
}

// RegenerateBackupCodes replaces the stored set and returns the new
// plaintext codes once.
func (h *TwoFactorHandler) RegenerateBackupCodes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	codes, err := h.TwoFactor.RegenerateBackupCodes(ctx, CurrentUserID(c))
	if err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "two-factor authentication is not configured"})
		}
		c.Logger().Errorf("2fa backup codes failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, echo.Map{"backup_codes": codes})
}
