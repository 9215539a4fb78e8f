package lifecycle

import (
	"errors"
	"strings"
)

// Event names an attempted transition.
type Event string

const (
	EventApprove  Event = "approve"  // admin accepts a report
	EventAssign   Event = "assign"   // admin hands the request to a worker
	EventReject   Event = "reject"   // admin rejects with a reason
	EventStart    Event = "start"    // assigned worker begins the job
	EventComplete Event = "complete" // assigned worker finishes the job
)

// Caller roles recognised by the machine.  They mirror the values
// carried in the JWT role claim.
const (
	RoleAdmin   = "ADMIN"
	RoleWorker  = "WORKER"
	RoleCitizen = "CITIZEN"
)

var (
	// ErrForbidden is returned when the caller's role does not allow the
	// event, or when a worker touches a request assigned to someone else.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition is returned when the event has no edge from
	// the current status, including any attempt from a terminal status.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNoteRequired is returned when a reject carries an empty or
	// whitespace-only note.
	ErrNoteRequired = errors.New("rejection note required")
)

// requiredRole maps each event to the role allowed to fire it.
var requiredRole = map[Event]string{
	EventApprove:  RoleAdmin,
	EventAssign:   RoleAdmin,
	EventReject:   RoleAdmin,
	EventStart:    RoleWorker,
	EventComplete: RoleWorker,
}

// transitions is the edge table per kind: from-status -> event -> to-status.
// The pickup vocabulary has no approve, reject or start edges; a missing
// edge fails with ErrInvalidTransition.
var transitions = map[Kind]map[string]map[Event]string{
	KindPickup: {
		StatusPending:  {EventAssign: StatusAssigned},
		StatusAssigned: {EventComplete: StatusCollected},
	},
	KindReport: {
		StatusReported:   {EventApprove: StatusApproved, EventReject: StatusRejected},
		StatusApproved:   {EventAssign: StatusAssigned, EventReject: StatusRejected},
		StatusAssigned:   {EventStart: StatusInProgress, EventComplete: StatusCompleted},
		StatusInProgress: {EventComplete: StatusCompleted},
	},
}

// Attempt describes one attempted transition against a loaded record.
type Attempt struct {
	Kind       Kind
	Status     string  // current status of the record
	Event      Event
	CallerRole string
	CallerID   uint64
	WorkerID   *uint64 // worker currently assigned to the record, if any
	Note       string  // reject reason; ignored for other events
}

// Apply validates the attempt and returns the resulting status.  Guard
// order is fixed: role first, then worker ownership, then the note
// requirement, and only then the edge lookup.  A wrong role or wrong
// worker therefore fails with ErrForbidden even when the transition
// would be illegal anyway, and never leaks whether the edge exists.
func Apply(a Attempt) (string, error) {
	role, ok := requiredRole[a.Event]
	if !ok {
		return "", ErrInvalidTransition
	}
	if a.CallerRole != role {
		return "", ErrForbidden
	}
	if role == RoleWorker {
		if a.WorkerID == nil || *a.WorkerID != a.CallerID {
			return "", ErrForbidden
		}
	}
	if a.Event == EventReject && strings.TrimSpace(a.Note) == "" {
		return "", ErrNoteRequired
	}
	edges, ok := transitions[a.Kind]
	if !ok {
		return "", ErrInvalidTransition
	}
	next, ok := edges[a.Status][a.Event]
	if !ok {
		return "", ErrInvalidTransition
	}
	return next, nil
}
