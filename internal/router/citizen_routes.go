package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garbage-collection-service/internal/handler"
	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/middleware"
)

// RegisterCitizen registers citizen-scoped endpoints under /v1. All
// routes require a valid JWT and the CITIZEN role. Citizens can
// schedule pickups, report garbage and list their own records.
func RegisterCitizen(e *echo.Echo, h *handler.RequestHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(lifecycle.RoleCitizen),
	)
	g.POST("/requests", h.CreatePickup)
	g.POST("/reports", h.CreateReport)
	g.GET("/my-requests", h.ListMine, cache)
}
