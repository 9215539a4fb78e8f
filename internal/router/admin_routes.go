package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garbage-collection-service/internal/handler"
	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/middleware"
)

// RegisterAdmin registers admin-scoped endpoints under /v1/admin. All
// routes require a valid JWT and the ADMIN role. Admins oversee every
// request, drive the approve/assign/reject transitions and manage
// user accounts.
func RegisterAdmin(e *echo.Echo, rh *handler.RequestHandler, uh *handler.UserAdminHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(lifecycle.RoleAdmin),
	)

	g.GET("/requests", rh.ListAll, cache)
	g.POST("/requests/:id/approve", rh.Approve)
	g.POST("/requests/:id/assign", rh.Assign)
	g.POST("/requests/:id/reject", rh.Reject)
	g.GET("/stats", rh.DashboardStats, cache)
	g.GET("/worker-stats", rh.WorkerStats, cache)

	g.GET("/users", uh.List)
	g.POST("/users", uh.Create)
	g.PUT("/users/:id", uh.Update)
	g.DELETE("/users/:id", uh.Delete)
}
