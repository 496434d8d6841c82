package asyncjob

// JobState is the lifecycle state of a remote job as observed by a Poller.
// Pending is the only non-terminal state.
type JobState int

const (
	StatePending JobState = iota
	StateSucceeded
	StateFailedTerminal
	StateFailedUnknown
	StateTimedOut
)

func (s JobState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailedTerminal:
		return "failed_terminal"
	case StateFailedUnknown:
		return "failed_unknown"
	case StateTimedOut:
		return "timed_out"
	default:
		return "invalid"
	}
}

// Terminal reports whether no further transition can leave s.
func (s JobState) Terminal() bool {
	return s != StatePending
}
