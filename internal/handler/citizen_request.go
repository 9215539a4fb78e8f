package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/model"
	"github.com/iliyamo/garbage-collection-service/internal/queue"
	"github.com/iliyamo/garbage-collection-service/internal/repository"
)

// ----- DTOs -----

type createPickupReq struct {
	Address     string `json:"address"`
	GarbageType string `json:"garbage_type"`
	PickupDate  string `json:"pickup_date"` // "2006-01-02" or RFC3339
}

type createReportReq struct {
	Address     string   `json:"address"`
	GarbageType string   `json:"garbage_type"`
	ImagePath   string   `json:"image_path"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// requestDetail is a request together with its full status history.
type requestDetail struct {
	model.Request
	History []model.StatusHistoryEntry `json:"history"`
}

// parsePickupDate accepts a bare date or a full RFC3339 timestamp.
func parsePickupDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// CreatePickup handles POST /v1/requests. A citizen schedules a
// pickup; the request starts in PENDING with one initial history
// entry.
func (h *RequestHandler) CreatePickup(c echo.Context) error {
	citizenID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body createPickupReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Address = strings.TrimSpace(body.Address)
	if body.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "address is required", "field": "address"})
	}
	gt := normalizeGarbageType(body.GarbageType)
	if gt == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown garbage_type", "field": "garbage_type"})
	}
	when, err := parsePickupDate(body.PickupDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pickup_date", "field": "pickup_date"})
	}

	req := &model.Request{
		Kind:         string(lifecycle.KindPickup),
		TrackingCode: uuid.NewString(),
		CitizenID:    citizenID,
		Status:       lifecycle.Initial(lifecycle.KindPickup),
		Address:      body.Address,
		GarbageType:  gt,
		PickupDate:   &when,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Requests.Create(ctx, req, "pickup requested"); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create request failed"})
	}

	h.publishCreated(req, citizenID)
	return c.JSON(http.StatusCreated, req)
}

// CreateReport handles POST /v1/reports. A citizen reports garbage at
// a location; the report starts in REPORTED.
func (h *RequestHandler) CreateReport(c echo.Context) error {
	citizenID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body createReportReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Address = strings.TrimSpace(body.Address)
	if body.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "address is required", "field": "address"})
	}
	gt := normalizeGarbageType(body.GarbageType)
	if gt == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown garbage_type", "field": "garbage_type"})
	}
	// Coordinates come as a pair or not at all.
	if (body.Latitude == nil) != (body.Longitude == nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "latitude and longitude must be provided together"})
	}

	req := &model.Request{
		Kind:         string(lifecycle.KindReport),
		TrackingCode: uuid.NewString(),
		CitizenID:    citizenID,
		Status:       lifecycle.Initial(lifecycle.KindReport),
		Address:      body.Address,
		GarbageType:  gt,
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
	}
	if p := strings.TrimSpace(body.ImagePath); p != "" {
		req.ImagePath = &p
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Requests.Create(ctx, req, "garbage reported"); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create report failed"})
	}

	h.publishCreated(req, citizenID)
	return c.JSON(http.StatusCreated, req)
}

// ListMine handles GET /v1/my-requests: every request and report owned
// by the calling citizen, ordered by pickup date.
func (h *RequestHandler) ListMine(c echo.Context) error {
	citizenID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Requests.ListByRole(ctx, lifecycle.RoleCitizen, citizenID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /v1/requests/:id for all three roles. Citizens see
// only their own records and workers only their assignments; a scope
// miss answers 403, never 404, so it does not reveal whether the id
// exists.
func (h *RequestHandler) Get(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role := getRole(c)

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	req, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	switch role {
	case lifecycle.RoleAdmin:
		// full visibility
	case lifecycle.RoleWorker:
		if req.WorkerID == nil || *req.WorkerID != callerID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	default:
		if req.CitizenID != callerID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}

	hist, err := h.Requests.History(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, requestDetail{Request: *req, History: hist})
}

// publishCreated emits the creation event for a fresh request.
func (h *RequestHandler) publishCreated(req *model.Request, citizenID uint64) {
	if h.Publish == nil {
		return
	}
	e := queue.RequestLifecycleEvent{
		RequestID:    req.ID,
		TrackingCode: req.TrackingCode,
		Kind:         req.Kind,
		Event:        "create",
		ToStatus:     req.Status,
		ActorID:      citizenID,
		ActorRole:    lifecycle.RoleCitizen,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.Publish(ctx, e)
	}()
}
