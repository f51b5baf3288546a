package reservation

import "testing"

// TestCanTransition verifies the status lattice without a database.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// forward transitions
		{StatusUnclaimed, StatusAssigned, true},
		{StatusAssigned, StatusCompleted, true},
		// reassignment self-loop
		{StatusAssigned, StatusAssigned, true},
		// cancel from every non-terminal state
		{StatusUnclaimed, StatusCancelled, true},
		{StatusAssigned, StatusCancelled, true},
		// terminal states have no outgoing transitions
		{StatusCompleted, StatusUnclaimed, false},
		{StatusCompleted, StatusAssigned, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusUnclaimed, false},
		{StatusCancelled, StatusAssigned, false},
		// no skipping or regressing
		{StatusUnclaimed, StatusCompleted, false},
		{StatusAssigned, StatusUnclaimed, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for status, terminal := range map[Status]bool{
		StatusUnclaimed: false,
		StatusAssigned:  false,
		StatusCompleted: true,
		StatusCancelled: true,
	} {
		if got := status.Terminal(); got != terminal {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, terminal)
		}
	}
}
