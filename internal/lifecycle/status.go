// Package lifecycle implements the status state machine for pickup
// requests and garbage reports.  Both request kinds share one
// parameterized transition table: a pickup moves through
// PENDING -> ASSIGNED -> COLLECTED, while a report moves through
// REPORTED -> APPROVED -> ASSIGNED -> IN_PROGRESS -> COMPLETED with
// REJECTED reachable from REPORTED or APPROVED.  The package is pure:
// it validates an attempted transition and reports the resulting
// status without touching storage.
package lifecycle

// Kind selects which status vocabulary a request uses.
type Kind string

const (
	KindPickup Kind = "PICKUP" // citizen scheduled pickup
	KindReport Kind = "REPORT" // citizen garbage report with photo/location
)

// Status values across both vocabularies.
const (
	StatusPending    = "PENDING"
	StatusReported   = "REPORTED"
	StatusApproved   = "APPROVED"
	StatusAssigned   = "ASSIGNED"
	StatusInProgress = "IN_PROGRESS"
	StatusCollected  = "COLLECTED"
	StatusCompleted  = "COMPLETED"
	StatusRejected   = "REJECTED"
)

// Initial returns the status a freshly created request starts in.
func Initial(k Kind) string {
	if k == KindPickup {
		return StatusPending
	}
	return StatusReported
}

// IsTerminal reports whether no further transition is permitted from
// the given status.
func IsTerminal(status string) bool {
	switch status {
	case StatusCollected, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// ValidKind reports whether k is one of the two supported vocabularies.
func ValidKind(k Kind) bool {
	return k == KindPickup || k == KindReport
}
