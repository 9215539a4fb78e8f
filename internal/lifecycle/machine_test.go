package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uptr(v uint64) *uint64 { return &v }

func TestApplyPickupPath(t *testing.T) {
	next, err := Apply(Attempt{
		Kind: KindPickup, Status: StatusPending,
		Event: EventAssign, CallerRole: RoleAdmin, CallerID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, next)

	next, err = Apply(Attempt{
		Kind: KindPickup, Status: StatusAssigned,
		Event: EventComplete, CallerRole: RoleWorker, CallerID: 7, WorkerID: uptr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCollected, next)
}

func TestApplyReportPath(t *testing.T) {
	steps := []struct {
		status string
		event  Event
		role   string
		want   string
	}{
		{StatusReported, EventApprove, RoleAdmin, StatusApproved},
		{StatusApproved, EventAssign, RoleAdmin, StatusAssigned},
		{StatusAssigned, EventStart, RoleWorker, StatusInProgress},
		{StatusInProgress, EventComplete, RoleWorker, StatusCompleted},
	}
	for _, s := range steps {
		a := Attempt{Kind: KindReport, Status: s.status, Event: s.event, CallerRole: s.role, CallerID: 7}
		if s.role == RoleWorker {
			a.WorkerID = uptr(7)
		}
		next, err := Apply(a)
		require.NoError(t, err, "%s via %s", s.status, s.event)
		assert.Equal(t, s.want, next)
	}
}

func TestApplySkipStartCompletesFromAssigned(t *testing.T) {
	next, err := Apply(Attempt{
		Kind: KindReport, Status: StatusAssigned,
		Event: EventComplete, CallerRole: RoleWorker, CallerID: 3, WorkerID: uptr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, next)
}

func TestApplyRejectEdges(t *testing.T) {
	for _, from := range []string{StatusReported, StatusApproved} {
		next, err := Apply(Attempt{
			Kind: KindReport, Status: from,
			Event: EventReject, CallerRole: RoleAdmin, CallerID: 1, Note: "duplicate report",
		})
		require.NoError(t, err, "reject from %s", from)
		assert.Equal(t, StatusRejected, next)
	}

	// once assigned, the reject window is closed
	_, err := Apply(Attempt{
		Kind: KindReport, Status: StatusAssigned,
		Event: EventReject, CallerRole: RoleAdmin, CallerID: 1, Note: "too late",
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplyRejectRequiresNote(t *testing.T) {
	for _, note := range []string{"", "   ", "\t\n"} {
		_, err := Apply(Attempt{
			Kind: KindReport, Status: StatusReported,
			Event: EventReject, CallerRole: RoleAdmin, CallerID: 1, Note: note,
		})
		assert.ErrorIs(t, err, ErrNoteRequired, "note %q", note)
	}
}

func TestApplyPickupHasNoReportEdges(t *testing.T) {
	_, err := Apply(Attempt{
		Kind: KindPickup, Status: StatusPending,
		Event: EventApprove, CallerRole: RoleAdmin, CallerID: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Apply(Attempt{
		Kind: KindPickup, Status: StatusPending,
		Event: EventReject, CallerRole: RoleAdmin, CallerID: 1, Note: "nope",
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Apply(Attempt{
		Kind: KindPickup, Status: StatusAssigned,
		Event: EventStart, CallerRole: RoleWorker, CallerID: 7, WorkerID: uptr(7),
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplyTerminalStatusesAreFrozen(t *testing.T) {
	for _, status := range []string{StatusCollected, StatusCompleted, StatusRejected} {
		require.True(t, IsTerminal(status))
		for _, ev := range []Event{EventApprove, EventAssign, EventReject, EventStart, EventComplete} {
			a := Attempt{Kind: KindReport, Status: status, Event: ev, CallerRole: requiredRole[ev], CallerID: 7, Note: "n"}
			if requiredRole[ev] == RoleWorker {
				a.WorkerID = uptr(7)
			}
			_, err := Apply(a)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s from %s", ev, status)
		}
	}
}

func TestApplyRoleGuardRunsFirst(t *testing.T) {
	// Even an impossible transition answers forbidden when the role is
	// wrong, so callers cannot probe the edge table.
	_, err := Apply(Attempt{
		Kind: KindReport, Status: StatusCompleted,
		Event: EventApprove, CallerRole: RoleCitizen, CallerID: 9,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = Apply(Attempt{
		Kind: KindReport, Status: StatusReported,
		Event: EventStart, CallerRole: RoleAdmin, CallerID: 1,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestApplyWorkerOwnershipGuard(t *testing.T) {
	// wrong worker
	_, err := Apply(Attempt{
		Kind: KindReport, Status: StatusAssigned,
		Event: EventStart, CallerRole: RoleWorker, CallerID: 8, WorkerID: uptr(7),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	// no worker assigned at all
	_, err = Apply(Attempt{
		Kind: KindReport, Status: StatusAssigned,
		Event: EventStart, CallerRole: RoleWorker, CallerID: 8,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestInitial(t *testing.T) {
	assert.Equal(t, StatusPending, Initial(KindPickup))
	assert.Equal(t, StatusReported, Initial(KindReport))
}

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(KindPickup))
	assert.True(t, ValidKind(KindReport))
	assert.False(t, ValidKind(Kind("BULK")))
}
