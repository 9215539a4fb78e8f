package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/model"
	"github.com/iliyamo/garbage-collection-service/internal/queue"
	"github.com/iliyamo/garbage-collection-service/internal/repository/memory"
)

// testEnv wires the request handlers against a fresh in-memory store
// with one user per role.
type testEnv struct {
	e         *echo.Echo
	store     *memory.Store
	h         *RequestHandler
	citizenID uint64
	workerID  uint64
	adminID   uint64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	users := store.Users()

	citizenID, err := users.Create(ctx, "John Citizen", "citizen@example.com", "pw", lifecycle.RoleCitizen, 4)
	require.NoError(t, err)
	workerID, err := users.Create(ctx, "Garbage Worker", "worker@example.com", "pw", lifecycle.RoleWorker, 4)
	require.NoError(t, err)
	adminID, err := users.Create(ctx, "Admin User", "admin@example.com", "pw", lifecycle.RoleAdmin, 4)
	require.NoError(t, err)

	h := NewRequestHandler(testConfig(), store.Requests(), users, nil)
	return &testEnv{
		e: echo.New(), store: store, h: h,
		citizenID: citizenID, workerID: workerID, adminID: adminID,
	}
}

// call invokes a handler method directly with an authenticated context.
func (env *testEnv) call(t *testing.T, fn echo.HandlerFunc, method, path, body string, uid uint64, role string, id uint64) *httptest.ResponseRecorder {
	t.Helper()
	c, rec := jsonCtx(env.e, method, path, body)
	c.Set("user_id", float64(uid))
	c.Set("role", role)
	if id != 0 {
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprintf("%d", id))
	}
	require.NoError(t, fn(c))
	return rec
}

func (env *testEnv) createPickup(t *testing.T) model.Request {
	t.Helper()
	rec := env.call(t, env.h.CreatePickup, http.MethodPost, "/v1/requests",
		`{"address":"123 Main St","garbage_type":"Dry","pickup_date":"2026-09-15"}`,
		env.citizenID, lifecycle.RoleCitizen, 0)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var req model.Request
	decode(t, rec, &req)
	return req
}

func (env *testEnv) createReport(t *testing.T) model.Request {
	t.Helper()
	rec := env.call(t, env.h.CreateReport, http.MethodPost, "/v1/reports",
		`{"address":"456 Oak Ave","garbage_type":"mixed","image_path":"uploads/r1.jpg","latitude":51.5,"longitude":-0.12}`,
		env.citizenID, lifecycle.RoleCitizen, 0)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var req model.Request
	decode(t, rec, &req)
	return req
}

func TestCreatePickup(t *testing.T) {
	env := newTestEnv(t)
	req := env.createPickup(t)

	assert.Equal(t, string(lifecycle.KindPickup), req.Kind)
	assert.Equal(t, lifecycle.StatusPending, req.Status)
	assert.Equal(t, env.citizenID, req.CitizenID)
	assert.NotEmpty(t, req.TrackingCode)
	require.NotNil(t, req.PickupDate)

	hist, err := env.store.Requests().History(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, lifecycle.StatusPending, hist[0].Status)
}

func TestCreatePickupValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, env.h.CreatePickup, http.MethodPost, "/v1/requests",
		`{"address":"123 Main St","garbage_type":"Plutonium","pickup_date":"2026-09-15"}`,
		env.citizenID, lifecycle.RoleCitizen, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(t, env.h.CreatePickup, http.MethodPost, "/v1/requests",
		`{"address":"","garbage_type":"Dry","pickup_date":"2026-09-15"}`,
		env.citizenID, lifecycle.RoleCitizen, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(t, env.h.CreatePickup, http.MethodPost, "/v1/requests",
		`{"address":"123 Main St","garbage_type":"Dry","pickup_date":"not a date"}`,
		env.citizenID, lifecycle.RoleCitizen, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReport(t *testing.T) {
	env := newTestEnv(t)
	req := env.createReport(t)

	assert.Equal(t, string(lifecycle.KindReport), req.Kind)
	assert.Equal(t, lifecycle.StatusReported, req.Status)
	assert.Equal(t, "Mixed", req.GarbageType) // canonical spelling
	require.NotNil(t, req.Latitude)
	require.NotNil(t, req.ImagePath)
}

func TestCreateReportCoordinatePair(t *testing.T) {
	env := newTestEnv(t)
	rec := env.call(t, env.h.CreateReport, http.MethodPost, "/v1/reports",
		`{"address":"456 Oak Ave","garbage_type":"Wet","latitude":51.5}`,
		env.citizenID, lifecycle.RoleCitizen, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPickupFullLifecycle(t *testing.T) {
	env := newTestEnv(t)
	req := env.createPickup(t)

	rec := env.call(t, env.h.Assign, http.MethodPost, "/assign",
		fmt.Sprintf(`{"worker_id":%d}`, env.workerID),
		env.adminID, lifecycle.RoleAdmin, req.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var assigned model.Request
	decode(t, rec, &assigned)
	assert.Equal(t, lifecycle.StatusAssigned, assigned.Status)
	require.NotNil(t, assigned.WorkerID)
	assert.Equal(t, env.workerID, *assigned.WorkerID)

	rec = env.call(t, env.h.Complete, http.MethodPost, "/complete", "",
		env.workerID, lifecycle.RoleWorker, req.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var done model.Request
	decode(t, rec, &done)
	assert.Equal(t, lifecycle.StatusCollected, done.Status)

	hist, err := env.store.Requests().History(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, lifecycle.StatusCollected, hist[2].Status)
}

func TestAssignRequiresWorkerRole(t *testing.T) {
	env := newTestEnv(t)
	req := env.createPickup(t)

	// assigning to a citizen account is a validation error
	rec := env.call(t, env.h.Assign, http.MethodPost, "/assign",
		fmt.Sprintf(`{"worker_id":%d}`, env.citizenID),
		env.adminID, lifecycle.RoleAdmin, req.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown user id likewise
	rec = env.call(t, env.h.Assign, http.MethodPost, "/assign",
		`{"worker_id":999}`, env.adminID, lifecycle.RoleAdmin, req.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// missing worker_id entirely
	rec = env.call(t, env.h.Assign, http.MethodPost, "/assign", `{}`,
		env.adminID, lifecycle.RoleAdmin, req.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignWrongRoleForbidden(t *testing.T) {
	env := newTestEnv(t)
	req := env.createPickup(t)

	rec := env.call(t, env.h.Assign, http.MethodPost, "/assign",
		fmt.Sprintf(`{"worker_id":%d}`, env.workerID),
		env.workerID, lifecycle.RoleWorker, req.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCompleteByWrongWorkerForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	otherWorker, err := env.store.Users().Create(ctx, "Other", "w2@example.com", "pw", lifecycle.RoleWorker, 4)
	require.NoError(t, err)

	req := env.createPickup(t)
	env.call(t, env.h.Assign, http.MethodPost, "/assign",
		fmt.Sprintf(`{"worker_id":%d}`, env.workerID),
		env.adminID, lifecycle.RoleAdmin, req.ID)

	rec := env.call(t, env.h.Complete, http.MethodPost, "/complete", "",
		otherWorker, lifecycle.RoleWorker, req.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	got, err := env.store.Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusAssigned, got.Status, "failed attempt must not change status")
}

func TestCompleteTerminalConflict(t *testing.T) {
	env := newTestEnv(t)
	req := env.createPickup(t)
	env.call(t, env.h.Assign, http.MethodPost, "/assign",
		fmt.Sprintf(`{"worker_id":%d}`, env.workerID),
		env.adminID, lifecycle.RoleAdmin, req.ID)
	env.call(t, env.h.Complete, http.MethodPost, "/complete", "",
		env.workerID, lifecycle.RoleWorker, req.ID)

	rec := env.call(t, env.h.Complete, http.MethodPost, "/complete", "",
		env.workerID, lifecycle.RoleWorker, req.ID)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), lifecycle.StatusCollected)
}

func TestTransitionNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.call(t, env.h.Complete, http.MethodPost, "/complete", "",
		env.workerID, lifecycle.RoleWorker, 4242)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportApproveThenAssign(t *testing.T) {
	env := newTestEnv(t)
	req := env.createReport(t)

	rec := env.call(t, env.h.Approve, http.MethodPost, "/approve", "",
		env.adminID, lifecycle.RoleAdmin, req.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved model.Request
	decode(t, rec, &approved)
	assert.Equal(t, lifecycle.StatusApproved, approved.Status)

	rec = env.call(t, env.h.Assign, http.MethodPost, "/assign",
		fmt.Sprintf(`{"worker_id":%d}`, env.workerID),
		env.adminID, lifecycle.RoleAdmin, req.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.call(t, env.h.Start, http.MethodPost, "/start", "",
		env.workerID, lifecycle.RoleWorker, req.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var started model.Request
	decode(t, rec, &started)
	assert.Equal(t, lifecycle.StatusInProgress, started.Status)

	rec = env.call(t, env.h.Complete, http.MethodPost, "/complete", "",
		env.workerID, lifecycle.RoleWorker, req.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var done model.Request
	decode(t, rec, &done)
	assert.Equal(t, lifecycle.StatusCompleted, done.Status)
}

func TestReportApproveWithWorkerIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	req := env.createReport(t)

	rec := env.call(t, env.h.Approve, http.MethodPost, "/approve",
		fmt.Sprintf(`{"worker_id":%d}`, env.workerID),
		env.adminID, lifecycle.RoleAdmin, req.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got model.Request
	decode(t, rec, &got)
	assert.Equal(t, lifecycle.StatusAssigned, got.Status)
	require.NotNil(t, got.WorkerID)

	// both steps landed in history in order
	hist, err := env.store.Requests().History(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, lifecycle.StatusReported, hist[0].Status)
	assert.Equal(t, lifecycle.StatusApproved, hist[1].Status)
	assert.Equal(t, lifecycle.StatusAssigned, hist[2].Status)
}

func TestReportApproveWithBadWorkerLeavesReported(t *testing.T) {
	env := newTestEnv(t)
	req := env.createReport(t)

	rec := env.call(t, env.h.Approve, http.MethodPost, "/approve",
		fmt.Sprintf(`{"worker_id":%d}`, env.citizenID),
		env.adminID, lifecycle.RoleAdmin, req.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	got, err := env.store.Requests().GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusReported, got.Status)
}

func TestReportReject(t *testing.T) {
	env := newTestEnv(t)
	req := env.createReport(t)

	rec := env.call(t, env.h.Reject, http.MethodPost, "/reject", `{"note":""}`,
		env.adminID, lifecycle.RoleAdmin, req.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(t, env.h.Reject, http.MethodPost, "/reject", `{"note":"duplicate of #12"}`,
		env.adminID, lifecycle.RoleAdmin, req.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got model.Request
	decode(t, rec, &got)
	assert.Equal(t, lifecycle.StatusRejected, got.Status)
	require.NotNil(t, got.AdminNotes)
	assert.Equal(t, "duplicate of #12", *got.AdminNotes)

	hist, err := env.store.Requests().History(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "duplicate of #12", hist[1].Note)
}

func TestPickupCannotBeRejected(t *testing.T) {
	env := newTestEnv(t)
	req := env.createPickup(t)

	rec := env.call(t, env.h.Reject, http.MethodPost, "/reject", `{"note":"no"}`,
		env.adminID, lifecycle.RoleAdmin, req.ID)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	otherCitizen, err := env.store.Users().Create(ctx, "Other", "c2@example.com", "pw", lifecycle.RoleCitizen, 4)
	require.NoError(t, err)

	mineReq := env.createPickup(t)
	env.createReport(t)
	env.call(t, env.h.Assign, http.MethodPost, "/assign",
		fmt.Sprintf(`{"worker_id":%d}`, env.workerID),
		env.adminID, lifecycle.RoleAdmin, mineReq.ID)

	rec := env.call(t, env.h.ListMine, http.MethodGet, "/v1/my-requests", "",
		env.citizenID, lifecycle.RoleCitizen, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []model.Request
	decode(t, rec, &mine)
	assert.Len(t, mine, 2)

	rec = env.call(t, env.h.ListMine, http.MethodGet, "/v1/my-requests", "",
		otherCitizen, lifecycle.RoleCitizen, 0)
	var othersList []model.Request
	decode(t, rec, &othersList)
	assert.Empty(t, othersList)

	rec = env.call(t, env.h.ListAssigned, http.MethodGet, "/v1/assigned", "",
		env.workerID, lifecycle.RoleWorker, 0)
	var assigned []model.Request
	decode(t, rec, &assigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, mineReq.ID, assigned[0].ID)

	rec = env.call(t, env.h.ListAll, http.MethodGet, "/v1/admin/requests", "",
		env.adminID, lifecycle.RoleAdmin, 0)
	var all []model.Request
	decode(t, rec, &all)
	assert.Len(t, all, 2)
}

func TestGetScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	otherCitizen, err := env.store.Users().Create(ctx, "Other", "c2@example.com", "pw", lifecycle.RoleCitizen, 4)
	require.NoError(t, err)

	req := env.createPickup(t)

	// owner sees the record with its history
	rec := env.call(t, env.h.Get, http.MethodGet, "/v1/requests/1", "",
		env.citizenID, lifecycle.RoleCitizen, req.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail requestDetail
	decode(t, rec, &detail)
	assert.Equal(t, req.ID, detail.ID)
	assert.Len(t, detail.History, 1)

	// another citizen gets 403, not 404
	rec = env.call(t, env.h.Get, http.MethodGet, "/v1/requests/1", "",
		otherCitizen, lifecycle.RoleCitizen, req.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// a worker not assigned to the record gets 403 as well
	rec = env.call(t, env.h.Get, http.MethodGet, "/v1/requests/1", "",
		env.workerID, lifecycle.RoleWorker, req.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// admin sees everything
	rec = env.call(t, env.h.Get, http.MethodGet, "/v1/requests/1", "",
		env.adminID, lifecycle.RoleAdmin, req.ID)
	assert.Equal(t, http.StatusOK, rec.Code)

	// unknown id is a real 404
	rec = env.call(t, env.h.Get, http.MethodGet, "/v1/requests/999", "",
		env.adminID, lifecycle.RoleAdmin, 999)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardAndWorkerStats(t *testing.T) {
	env := newTestEnv(t)
	req := env.createPickup(t)
	env.createReport(t)
	env.call(t, env.h.Assign, http.MethodPost, "/assign",
		fmt.Sprintf(`{"worker_id":%d}`, env.workerID),
		env.adminID, lifecycle.RoleAdmin, req.ID)

	rec := env.call(t, env.h.DashboardStats, http.MethodGet, "/v1/admin/stats", "",
		env.adminID, lifecycle.RoleAdmin, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var ds model.DashboardStats
	decode(t, rec, &ds)
	assert.Equal(t, 2, ds.Total)
	assert.Equal(t, 1, ds.Reported)

	rec = env.call(t, env.h.WorkerStats, http.MethodGet, "/v1/admin/worker-stats", "",
		env.adminID, lifecycle.RoleAdmin, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var ws []model.WorkerStats
	decode(t, rec, &ws)
	require.Len(t, ws, 1)
	assert.Equal(t, env.workerID, ws[0].WorkerID)
	assert.Equal(t, 1, ws[0].ActiveAssignments)
	assert.Equal(t, 10, ws[0].WorkloadPercentage)
}

func TestTransitionPublishesEvents(t *testing.T) {
	env := newTestEnv(t)
	events := make(chan queue.RequestLifecycleEvent, 8)
	env.h.Publish = func(ctx context.Context, ev queue.RequestLifecycleEvent) error {
		events <- ev
		return nil
	}

	req := env.createPickup(t)
	created := <-events
	assert.Equal(t, "create", created.Event)
	assert.Equal(t, lifecycle.StatusPending, created.ToStatus)

	env.call(t, env.h.Assign, http.MethodPost, "/assign",
		fmt.Sprintf(`{"worker_id":%d}`, env.workerID),
		env.adminID, lifecycle.RoleAdmin, req.ID)
	assigned := <-events
	assert.Equal(t, string(lifecycle.EventAssign), assigned.Event)
	assert.Equal(t, lifecycle.StatusPending, assigned.FromStatus)
	assert.Equal(t, lifecycle.StatusAssigned, assigned.ToStatus)
	assert.Equal(t, env.workerID, assigned.WorkerID)
}
