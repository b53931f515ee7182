// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-auth-service/internal/handler"
	"github.com/iliyamo/hr-auth-service/internal/middleware"
	"github.com/iliyamo/hr-auth-service/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints and their middleware.
// Unauthenticated operations live under /v1/auth, protected endpoints
// under /v1. The rateLimit middleware is applied only to the public
// group: it is the first line of defence in front of the credential
// lockout logic, not a replacement for it.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, r *handler.PasswordResetHandler, tf *handler.TwoFactorHandler, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if rateLimit != nil {
		g.Use(rateLimit)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout does not require JWT authentication: the handler accepts a
	// JSON body with the refresh token and an optional bearer header to
	// close the caller's history row.
	g.POST("/logout", a.Logout)

	// Password-reset lifecycle. Unauthenticated, so the same limiter
	// applies via the group.
	g.POST("/password-reset/request", r.Request)
	g.POST("/password-reset/verify", r.Verify)
	g.POST("/password-reset/reset", r.Reset)

	// Protected endpoints require a valid access token. Every role in
	// the system may inspect its own session, history and 2FA settings.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleHR, model.RoleEmployee))
	auth.GET("/me", a.Me)
	auth.GET("/history", a.History)
	auth.GET("/tokens", a.Tokens)
	auth.POST("/revoke-all", a.RevokeAll)

	auth.GET("/2fa", tf.Config)
	auth.POST("/2fa/setup", tf.Setup)
	auth.POST("/2fa/verify", tf.Verify)
	auth.POST("/2fa/enable", tf.Enable)
	auth.POST("/2fa/disable", tf.Disable)
	auth.POST("/2fa/backup-codes", tf.RegenerateBackupCodes)
}
