package model

import "time"

// Request is the unit of work tracked through the status lifecycle.
// It covers both variants: a scheduled pickup (Kind PICKUP, with a
// pickup date) and a garbage report (Kind REPORT, with an optional
// photo and coordinates).  Status is mutated only through the
// lifecycle package's transition table.
//
// Fields:
//  ID           – primary key identifier, immutable.
//  Kind         – PICKUP or REPORT; selects the status vocabulary.
//  TrackingCode – public reference handed to the citizen at creation.
//  CitizenID    – owning citizen, set at creation, immutable.
//  WorkerID     – assigned worker; null until an admin assigns one.
//  Status       – current lifecycle status.
//  AdminNotes   – rejection reason; set only when a report is rejected.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Request struct {
	ID           uint64     `json:"id"`
	Kind         string     `json:"kind"`
	TrackingCode string     `json:"tracking_code"`
	CitizenID    uint64     `json:"citizen_id"`
	WorkerID     *uint64    `json:"worker_id,omitempty"`
	Status       string     `json:"status"`
	Address      string     `json:"address"`
	GarbageType  string     `json:"garbage_type"`
	PickupDate   *time.Time `json:"pickup_date,omitempty"`
	ImagePath    *string    `json:"image_path,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	AdminNotes   *string    `json:"admin_notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// StatusHistoryEntry is one append-only row in `request_status_history`.
// Every transition appends exactly one entry; rows are never rewritten
// and are read back in insertion order.
type StatusHistoryEntry struct {
	ID        uint64    `json:"-"`
	RequestID uint64    `json:"-"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

// StatusStep is one history entry produced by a transition.  A combined
// approve-and-assign call yields two steps applied in one transaction.
type StatusStep struct {
	Status string
	Note   string
}

// TransitionUpdate describes an atomic status move for a request.  The
// store must apply it conditionally: the write succeeds only while the
// record still has status From, otherwise the transition raced with a
// concurrent writer and fails without partial effects.
type TransitionUpdate struct {
	From       string
	To         string
	WorkerID   *uint64 // set when non-nil
	AdminNotes *string // set when non-nil (reject only)
	Steps      []StatusStep
}

// WorkerStats is the derived per-worker load view.  It is aggregated
// from the requests table on every read; no counters are stored.
type WorkerStats struct {
	WorkerID             uint64 `json:"worker_id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	ActiveAssignments    int    `json:"active_assignments"`
	CompletedAssignments int    `json:"completed_assignments"`
	WorkloadPercentage   int    `json:"workload_percentage"`
}

// DashboardStats carries the admin dashboard counts for both request
// kinds.
type DashboardStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Collected  int `json:"collected"`
	Reported   int `json:"reported"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Rejected   int `json:"rejected"`
}
