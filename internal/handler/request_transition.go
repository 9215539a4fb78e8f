package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garbage-collection-service/internal/config"
	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/model"
	"github.com/iliyamo/garbage-collection-service/internal/queue"
	"github.com/iliyamo/garbage-collection-service/internal/repository"
)

// RequestHandler groups the stores required to create, list and move
// pickup requests and garbage reports. All methods assume that JWT
// authentication and role validation has already been performed by
// middleware; ownership checks still happen here because they depend
// on the loaded record.
type RequestHandler struct {
	Cfg      config.Config
	Requests RequestStore
	Users    UserStore
	// Publish sends a lifecycle event to the broker. May be nil to
	// disable events (tests, memory mode without a broker).
	Publish func(ctx context.Context, ev queue.RequestLifecycleEvent) error
}

// NewRequestHandler constructs a RequestHandler.
func NewRequestHandler(cfg config.Config, requests RequestStore, users UserStore, publish func(ctx context.Context, ev queue.RequestLifecycleEvent) error) *RequestHandler {
	if requests == nil || users == nil {
		panic("nil store passed to NewRequestHandler")
	}
	return &RequestHandler{Cfg: cfg, Requests: requests, Users: users, Publish: publish}
}

// transitionReq is the optional body accepted by transition endpoints.
type transitionReq struct {
	WorkerID uint64 `json:"worker_id"`
	Note     string `json:"note"`
}

// transition runs one or two lifecycle events against a request as a
// single atomic move. Two events occur only for approve-with-worker,
// which approves a report and assigns it in the same transaction with
// two history entries.
//
// Guard order is fixed by the state machine: role, then worker
// ownership, then the note requirement, then the edge lookup. The
// conditional write races are surfaced as 409 with the status read
// back after the failed attempt.
func (h *RequestHandler) transition(c echo.Context, events []lifecycle.Event, workerID *uint64, note string) error {
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

	// Assignment targets must be existing, active workers.
	if workerID != nil {
		w, err := h.Users.GetByID(ctx, *workerID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "worker_id does not reference a worker"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if w.Role != lifecycle.RoleWorker || !w.IsActive {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "worker_id does not reference a worker"})
		}
	}

	up := model.TransitionUpdate{From: req.Status, WorkerID: workerID}
	status := req.Status
	for _, ev := range events {
		next, err := lifecycle.Apply(lifecycle.Attempt{
			Kind:       lifecycle.Kind(req.Kind),
			Status:     status,
			Event:      ev,
			CallerRole: role,
			CallerID:   callerID,
			WorkerID:   req.WorkerID,
			Note:       note,
		})
		if err != nil {
			return h.transitionError(c, err, status, ev)
		}
		up.Steps = append(up.Steps, model.StatusStep{Status: next, Note: stepNote(ev, note)})
		status = next
	}
	up.To = status
	if len(events) == 1 && events[0] == lifecycle.EventReject {
		n := note
		up.AdminNotes = &n
	}

	if err := h.Requests.ApplyTransition(ctx, id, up); err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusChanged):
			// Lost the race; report what the record looks like now.
			current := "unknown"
			if fresh, rerr := h.Requests.GetByID(ctx, id); rerr == nil {
				current = fresh.Status
			}
			return c.JSON(http.StatusConflict, echo.Map{
				"error":          "status changed concurrently",
				"current_status": current,
				"action":         string(events[len(events)-1]),
			})
		case errors.Is(err, repository.ErrRequestNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	updated, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	h.publishEvents(req.Status, updated, events, up.Steps, callerID, role)
	return c.JSON(http.StatusOK, updated)
}

// transitionError maps state machine errors onto HTTP responses.
// Ownership failures answer 403 rather than 404 so they never leak
// whether the record exists.
func (h *RequestHandler) transitionError(c echo.Context, err error, status string, ev lifecycle.Event) error {
	switch {
	case errors.Is(err, lifecycle.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, lifecycle.ErrNoteRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "note is required", "field": "note"})
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":          "invalid transition",
			"current_status": status,
			"action":         string(ev),
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transition failed"})
	}
}

// stepNote composes the history note for one step. Only rejections
// carry the caller's note into history.
func stepNote(ev lifecycle.Event, note string) string {
	if ev == lifecycle.EventReject {
		return note
	}
	return ""
}

// publishEvents emits one broker event per applied step. Publishing is
// fire-and-forget; failures are logged by the publisher and never fail
// the request.
func (h *RequestHandler) publishEvents(fromStatus string, after *model.Request, events []lifecycle.Event, steps []model.StatusStep, actorID uint64, actorRole string) {
	if h.Publish == nil {
		return
	}
	var workerID uint64
	if after.WorkerID != nil {
		workerID = *after.WorkerID
	}
	from := fromStatus
	for i, ev := range events {
		e := queue.RequestLifecycleEvent{
			RequestID:    after.ID,
			TrackingCode: after.TrackingCode,
			Kind:         after.Kind,
			Event:        string(ev),
			FromStatus:   from,
			ToStatus:     steps[i].Status,
			ActorID:      actorID,
			ActorRole:    actorRole,
			WorkerID:     workerID,
			Note:         steps[i].Note,
			OccurredAt:   time.Now().UTC().Format(time.RFC3339),
		}
		go func(e queue.RequestLifecycleEvent) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = h.Publish(ctx, e)
		}(e)
		from = steps[i].Status
	}
}
