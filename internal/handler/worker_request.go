package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
)

// ListAssigned handles GET /v1/assigned: every request currently
// assigned to the calling worker, ordered by pickup date.
func (h *RequestHandler) ListAssigned(c echo.Context) error {
	workerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Requests.ListByRole(ctx, lifecycle.RoleWorker, workerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, items)
}

// Start handles POST /v1/requests/:id/start. Only the assigned worker
// may start, and only a report in ASSIGNED has a start edge.
func (h *RequestHandler) Start(c echo.Context) error {
	return h.transition(c, []lifecycle.Event{lifecycle.EventStart}, nil, "")
}

// Complete handles POST /v1/requests/:id/complete. A pickup completes
// to COLLECTED, a report to COMPLETED; either way only the assigned
// worker may finish the job.
func (h *RequestHandler) Complete(c echo.Context) error {
	return h.transition(c, []lifecycle.Event{lifecycle.EventComplete}, nil, "")
}
