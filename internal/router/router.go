// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garbage-collection-service/internal/handler"
	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, while protected
// endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout authenticates via the refresh token in the body (or the
	// bearer header for revoke-all), so it needs no JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(lifecycle.RoleAdmin, lifecycle.RoleWorker, lifecycle.RoleCitizen),
	)
	auth.GET("/me", a.Me)
}

// RegisterRequestDetail registers the shared request detail endpoint.
// All three roles may call it; the handler scopes visibility to the
// caller (citizens their own records, workers their assignments,
// admins everything).
func RegisterRequestDetail(e *echo.Echo, h *handler.RequestHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(lifecycle.RoleAdmin, lifecycle.RoleWorker, lifecycle.RoleCitizen),
	)
	g.GET("/requests/:id", h.Get, cache)
}
