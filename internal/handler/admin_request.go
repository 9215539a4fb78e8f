package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
)

// ListAll handles GET /v1/admin/requests: every request across all
// citizens and workers.
func (h *RequestHandler) ListAll(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Requests.ListByRole(ctx, lifecycle.RoleAdmin, adminID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, items)
}

// Approve handles POST /v1/admin/requests/:id/approve. A bare approve
// moves a report REPORTED -> APPROVED. When the body names a
// worker_id, approve and assign run as one atomic move with two
// history entries; a failure anywhere leaves the report in REPORTED.
func (h *RequestHandler) Approve(c echo.Context) error {
	var body transitionReq
	_ = c.Bind(&body)

	events := []lifecycle.Event{lifecycle.EventApprove}
	var workerID *uint64
	if body.WorkerID != 0 {
		w := body.WorkerID
		workerID = &w
		events = append(events, lifecycle.EventAssign)
	}
	return h.transition(c, events, workerID, "")
}

// Assign handles POST /v1/admin/requests/:id/assign. The target must
// be an existing active worker; a pickup assigns from PENDING, a
// report from APPROVED.
func (h *RequestHandler) Assign(c echo.Context) error {
	var body transitionReq
	if err := c.Bind(&body); err != nil || body.WorkerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "worker_id is required", "field": "worker_id"})
	}
	w := body.WorkerID
	return h.transition(c, []lifecycle.Event{lifecycle.EventAssign}, &w, "")
}

// Reject handles POST /v1/admin/requests/:id/reject. The note is
// mandatory and is stored both on the record and in the history entry.
func (h *RequestHandler) Reject(c echo.Context) error {
	var body transitionReq
	_ = c.Bind(&body)
	return h.transition(c, []lifecycle.Event{lifecycle.EventReject}, nil, body.Note)
}

// DashboardStats handles GET /v1/admin/stats.
func (h *RequestHandler) DashboardStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Requests.DashboardStats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, stats)
}

// WorkerStats handles GET /v1/admin/worker-stats: per-worker active
// and completed assignment counts plus a workload percentage derived
// from the configured task capacity.
func (h *RequestHandler) WorkerStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	maxTasks := h.Cfg.MaxWorkerTasks
	if maxTasks <= 0 {
		maxTasks = 10
	}
	stats, err := h.Requests.WorkerStats(ctx, maxTasks)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, stats)
}
