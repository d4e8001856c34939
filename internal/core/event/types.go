package event

import "github.com/l1jgo/autobuild/internal/automaton"

// OwnerDisconnected is emitted by the session layer when a builder leaves.
// Their running job is canceled.
type OwnerDisconnected struct {
	Owner automaton.OwnerID
}

// OwnerDied is emitted when a builder dies. Their running job is canceled.
type OwnerDied struct {
	Owner automaton.OwnerID
	Cause string
}

// JobFinished is emitted once per job when it reaches a terminal phase.
type JobFinished struct {
	Job    automaton.JobID
	Owner  automaton.OwnerID
	Phase  automaton.Phase
	Placed int
	Err    error
}
