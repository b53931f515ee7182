package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-auth-service/internal/auth"
	"github.com/iliyamo/hr-auth-service/internal/model"
	"github.com/iliyamo/hr-auth-service/internal/repository"
)

// AuthHandler bundles dependencies for the session endpoints.
type AuthHandler struct {
	Sessions  *auth.SessionService
	JWTSecret string
}

func NewAuthHandler(sessions *auth.SessionService, jwtSecret string) *AuthHandler {
	return &AuthHandler{Sessions: sessions, JWTSecret: jwtSecret}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type registerReq struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"omitempty,oneof=ADMIN HR EMPLOYEE admin hr employee"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
type refreshReq struct {
	Refresh string `json:"refresh"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role, FirstName: u.FirstName, LastName: u.LastName}
}

func toAuthResp(s auth.Session) authResp {
	return authResp{
		User:    toUserPart(s.User),
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw goes back to the client
	}
}

// Login verifies credentials and returns a fresh token pair. The error
// body never says whether the identifier exists; only the lockout and
// disabled-account branches are more specific, per the error contract.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Sessions.Login(ctx, auth.Credentials{
		Identifier: req.Username,
		Password:   req.Password,
		Origin:     c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	})
	if err != nil {
		var locked *auth.LockedError
		switch {
		case errors.As(err, &locked):
			secs := int(locked.Remaining.Seconds() + 0.5)
			c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"detail":      "too many failed attempts, try again later",
				"retry_after": secs,
			})
		case errors.Is(err, auth.ErrMissingCredentials):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "username and password are required"})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "invalid credentials"})
		case errors.Is(err, auth.ErrAccountDisabled):
			return c.JSON(http.StatusForbidden, echo.Map{"detail": "account disabled"})
		}
		c.Logger().Errorf("login failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred during login"})
	}
	return c.JSON(http.StatusOK, toAuthResp(sess))
}

// Register creates a user and returns tokens immediately; there is no
// verification step between registration and the first session.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "email, username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Sessions.Register(ctx, auth.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		Role:      req.Role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Origin:    c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
		case errors.Is(err, auth.ErrMissingCredentials):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "email, username and password are required"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "email or username already registered"})
		}
		c.Logger().Errorf("register failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "create user failed"})
	}
	return c.JSON(http.StatusCreated, toAuthResp(sess))
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token is not rotated: it stays valid until revocation or expiry.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Refresh) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "refresh token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	access, err := h.Sessions.Refresh(ctx, req.Refresh)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "refresh token required"})
		case errors.Is(err, auth.ErrRevokedToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "token revoked"})
		case errors.Is(err, auth.ErrExpiredToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "token expired"})
		case errors.Is(err, auth.ErrInvalidToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "invalid token"})
		}
		c.Logger().Errorf("refresh failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes the refresh token from the body, if present, and closes
// the caller's open history row when a valid bearer token accompanies
// the request. Both are optional and the endpoint is idempotent: a
// missing or already-revoked token still yields 200.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req) // invalid JSON just leaves the token empty

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid := h.bearerUserID(c)
	if err := h.Sessions.Logout(ctx, req.Refresh, uid); err != nil {
		c.Logger().Errorf("logout failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "logged out"})
}

// RevokeAll revokes every refresh token of the caller, ending all
// sessions on all devices at once (protected).
func (h *AuthHandler) RevokeAll(c echo.Context) error {
	uid := CurrentUserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.RevokeAll(ctx, uid); err != nil {
		c.Logger().Errorf("revoke all failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "all sessions revoked"})
}

// sessionTokenResp is the externally visible shape of a refresh-token
// grant. The token value only exists as a hash at rest and is never
// echoed back, so the row is identified by ID and timestamps alone.
type sessionTokenResp struct {
	ID        uint64     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	Revoked   bool       `json:"revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Tokens lists the caller's refresh-token grants, newest first, so a
// user can see how many sessions exist before deciding to revoke them
// (protected).
func (h *AuthHandler) Tokens(c echo.Context) error {
	uid := CurrentUserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Sessions.Tokens(ctx, uid)
	if err != nil {
		c.Logger().Errorf("list tokens failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	out := make([]sessionTokenResp, 0, len(rows))
	for _, r := range rows {
		out = append(out, sessionTokenResp{
			ID: r.ID, CreatedAt: r.CreatedAt, ExpiresAt: r.ExpiresAt,
			Revoked: r.Revoked, RevokedAt: r.RevokedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"tokens": out})
}

// Me returns the authenticated user's claims (protected).
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
	})
}

// History returns the caller's recent login records (protected).
func (h *AuthHandler) History(c echo.Context) error {
	uid := CurrentUserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "unauthorized"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Sessions.History(ctx, uid, limit)
	if err != nil {
		c.Logger().Errorf("list history failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "an error occurred"})
	}
	if rows == nil {
		rows = []model.LoginHistory{}
	}
	return c.JSON(http.StatusOK, echo.Map{"history": rows})
}

// bearerUserID parses an optional Authorization header and returns the
// subject claim, or 0 when no valid bearer token is present. Logout is
// reachable without the JWT middleware, so the header is inspected here.
func (h *AuthHandler) bearerUserID(c echo.Context) uint64 {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return 0
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(h.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return 0
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0
	}
	return subjectID(claims["sub"])
}

// CurrentUserID extracts the authenticated user's ID from the context
// values stored by the JWT middleware. Returns 0 when unauthenticated.
func CurrentUserID(c echo.Context) uint64 {
	return subjectID(c.Get("user_id"))
}

func subjectID(v interface{}) uint64 {
	switch sub := v.(type) {
	case float64:
		// JWT numeric claims decode as float64.
		return uint64(sub)
	case string:
		if parsed, err := strconv.ParseUint(sub, 10, 64); err == nil {
			return parsed
		}
	case uint64:
		return sub
	}
	return 0
}
