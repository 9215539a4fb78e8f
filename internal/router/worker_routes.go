package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garbage-collection-service/internal/handler"
	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/middleware"
)

// RegisterWorker registers worker-scoped endpoints under /v1. All
// routes require a valid JWT and the WORKER role. Workers list their
// assignments and move them through start and complete; both
// transitions additionally verify assignment ownership in the handler.
func RegisterWorker(e *echo.Echo, h *handler.RequestHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(lifecycle.RoleWorker),
	)
	g.GET("/assigned", h.ListAssigned, cache)
	g.POST("/requests/:id/start", h.Start)
	g.POST("/requests/:id/complete", h.Complete)
}
