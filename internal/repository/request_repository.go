package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/model"
)

// RequestRepo provides persistence for pickup requests and garbage
// reports plus their append-only status history.  The conditional
// UPDATE in ApplyTransition (matching on the previous status) is the
// mechanism that serializes concurrent transitions on one record: a
// losing writer affects zero rows and gets ErrStatusChanged, never a
// partial write.
type RequestRepo struct{ DB *sql.DB }

func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{DB: db} }

const requestColumns = `id, kind, tracking_code, citizen_id, worker_id, status, address,
	garbage_type, pickup_date, image_path, latitude, longitude, admin_notes, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }, req *model.Request) error {
	var (
		workerID sql.NullInt64
		pickup   sql.NullTime
		img      sql.NullString
		lat, lng sql.NullFloat64
		notes    sql.NullString
	)
	err := row.Scan(&req.ID, &req.Kind, &req.TrackingCode, &req.CitizenID, &workerID,
		&req.Status, &req.Address, &req.GarbageType, &pickup, &img, &lat, &lng,
		&notes, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return err
	}
	if workerID.Valid {
		w := uint64(workerID.Int64)
		req.WorkerID = &w
	}
	if pickup.Valid {
		t := pickup.Time
		req.PickupDate = &t
	}
	if img.Valid {
		s := img.String
		req.ImagePath = &s
	}
	if lat.Valid {
		v := lat.Float64
		req.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		req.Longitude = &v
	}
	if notes.Valid {
		s := notes.String
		req.AdminNotes = &s
	}
	return nil
}

// Create inserts a request and its initial history entry in one
// transaction, then reads the row back to populate timestamps.
func (r *RequestRepo) Create(ctx context.Context, req *model.Request, note string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO requests
		(kind, tracking_code, citizen_id, status, address, garbage_type, pickup_date, image_path, latitude, longitude)
		VALUES (?,?,?,?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, ins, req.Kind, req.TrackingCode, req.CitizenID,
		req.Status, req.Address, req.GarbageType, req.PickupDate, req.ImagePath,
		req.Latitude, req.Longitude)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)

	const hist = `INSERT INTO request_status_history (request_id, status, note) VALUES (?,?,?)`
	if _, err := tx.ExecContext(ctx, hist, req.ID, req.Status, note); err != nil {
		return err
	}

	const sel = `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`
	if err := scanRequest(tx.QueryRowContext(ctx, sel, req.ID), req); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns a single request or ErrRequestNotFound.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (*model.Request, error) {
	const q = `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`
	var req model.Request
	if err := scanRequest(r.DB.QueryRowContext(ctx, q, id), &req); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListByRole returns requests visible to the caller: citizens see their
// own, workers see their assignments, admins see everything.  Ordering
// is ascending by pickup date, falling back to creation time for
// reports without one.
func (r *RequestRepo) ListByRole(ctx context.Context, role string, callerID uint64) ([]model.Request, error) {
	q := `SELECT ` + requestColumns + ` FROM requests`
	args := []any{}
	switch role {
	case lifecycle.RoleCitizen:
		q += ` WHERE citizen_id = ?`
		args = append(args, callerID)
	case lifecycle.RoleWorker:
		q += ` WHERE worker_id = ?`
		args = append(args, callerID)
	}
	q += ` ORDER BY COALESCE(pickup_date, created_at) ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Request, 0)
	for rows.Next() {
		var req model.Request
		if err := scanRequest(rows, &req); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// History returns the status history of a request in insertion order.
func (r *RequestRepo) History(ctx context.Context, requestID uint64) ([]model.StatusHistoryEntry, error) {
	const q = `SELECT id, request_id, status, note, created_at
		FROM request_status_history WHERE request_id = ? ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, q, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.StatusHistoryEntry, 0)
	for rows.Next() {
		var e model.StatusHistoryEntry
		var note sql.NullString
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Status, &note, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Note = note.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// ApplyTransition performs the conditional status update plus history
// appends in one transaction.  The UPDATE matches on the expected
// source status; zero affected rows means either the record vanished
// (ErrRequestNotFound) or a concurrent transition won (ErrStatusChanged).
func (r *RequestRepo) ApplyTransition(ctx context.Context, id uint64, up model.TransitionUpdate) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	q := `UPDATE requests SET status=?, updated_at=NOW()`
	args := []any{up.To}
	if up.WorkerID != nil {
		q += `, worker_id=?`
		args = append(args, *up.WorkerID)
	}
	if up.AdminNotes != nil {
		q += `, admin_notes=?`
		args = append(args, *up.AdminNotes)
	}
	q += ` WHERE id=? AND status=?`
	args = append(args, id, up.From)

	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var cur string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM requests WHERE id=?`, id).Scan(&cur); err != nil {
			if err == sql.ErrNoRows {
				return ErrRequestNotFound
			}
			return err
		}
		return ErrStatusChanged
	}

	const hist = `INSERT INTO request_status_history (request_id, status, note) VALUES (?,?,?)`
	for _, step := range up.Steps {
		if _, err := tx.ExecContext(ctx, hist, id, step.Status, step.Note); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CountActiveByWorker counts a worker's non-terminal assignments.  Used
// as the delete guard for worker accounts.
func (r *RequestRepo) CountActiveByWorker(ctx context.Context, workerID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM requests
		WHERE worker_id = ? AND status NOT IN (?,?,?)`
	var n int
	err := r.DB.QueryRowContext(ctx, q, workerID,
		lifecycle.StatusCollected, lifecycle.StatusCompleted, lifecycle.StatusRejected).Scan(&n)
	return n, err
}

// WorkerStats aggregates per-worker load directly from the requests
// table.  workloadPercentage = round(active / maxTasks * 100).
func (r *RequestRepo) WorkerStats(ctx context.Context, maxTasks int) ([]model.WorkerStats, error) {
	const q = `SELECT u.id, u.name, u.email,
			COALESCE(SUM(CASE WHEN r.status NOT IN (?,?,?) THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN r.status IN (?,?) THEN 1 ELSE 0 END), 0) AS completed
		FROM users u
		LEFT JOIN requests r ON r.worker_id = u.id
		WHERE u.role = ?
		GROUP BY u.id, u.name, u.email
		ORDER BY u.id`
	rows, err := r.DB.QueryContext(ctx, q,
		lifecycle.StatusCollected, lifecycle.StatusCompleted, lifecycle.StatusRejected,
		lifecycle.StatusCollected, lifecycle.StatusCompleted,
		lifecycle.RoleWorker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if maxTasks <= 0 {
		maxTasks = 10
	}
	out := make([]model.WorkerStats, 0)
	for rows.Next() {
		var ws model.WorkerStats
		if err := rows.Scan(&ws.WorkerID, &ws.Name, &ws.Email, &ws.ActiveAssignments, &ws.CompletedAssignments); err != nil {
			return nil, err
		}
		ws.WorkloadPercentage = (ws.ActiveAssignments*100 + maxTasks/2) / maxTasks
		out = append(out, ws)
	}
	return out, rows.Err()
}

// DashboardStats counts requests per status bucket for the admin
// dashboard.
func (r *RequestRepo) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	const q = `SELECT
			COUNT(*),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END)
		FROM requests`
	var s model.DashboardStats
	var pending, collected, reported, inProgress, completed, rejected sql.NullInt64
	err := r.DB.QueryRowContext(ctx, q,
		lifecycle.StatusPending, lifecycle.StatusCollected, lifecycle.StatusReported,
		lifecycle.StatusInProgress, lifecycle.StatusCompleted, lifecycle.StatusRejected).
		Scan(&s.Total, &pending, &collected, &reported, &inProgress, &completed, &rejected)
	if err != nil {
		return model.DashboardStats{}, err
	}
	s.Pending = int(pending.Int64)
	s.Collected = int(collected.Int64)
	s.Reported = int(reported.Int64)
	s.InProgress = int(inProgress.Int64)
	s.Completed = int(completed.Int64)
	s.Rejected = int(rejected.Int64)
	return s, nil
}
