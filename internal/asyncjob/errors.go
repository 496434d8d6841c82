package asyncjob

import (
	"errors"
	"fmt"
)

// Sentinel errors for poll outcomes. A *PollError unwraps to exactly one of them.
var (
	ErrFailedTerminal = errors.New("job failed")
	ErrFailedUnknown  = errors.New("job state unknown")
	ErrTimedOut       = errors.New("job timed out")
	ErrNoJobID        = errors.New("no job id returned")
)

// PollError describes a job that reached a terminal state other than success,
// or ran out of attempts.
type PollError struct {
	State    JobState
	Label    string
	JobID    string
	Status   string
	Reason   string
	Attempts int
}

func (e *PollError) Error() string {
	switch e.State {
	case StateFailedTerminal:
		return fmt.Sprintf("%s %s %s", e.Label, e.JobID, e.Reason)
	case StateFailedUnknown:
		return fmt.Sprintf("%s %s returned an unknown or undefined state", e.Label, e.JobID)
	case StateTimedOut:
		return fmt.Sprintf("timed out waiting for %s %s to complete after %d attempts", e.Label, e.JobID, e.Attempts)
	default:
		return fmt.Sprintf("%s %s ended in state %s", e.Label, e.JobID, e.State)
	}
}

func (e *PollError) Unwrap() error {
	switch e.State {
	case StateFailedTerminal:
		return ErrFailedTerminal
	case StateFailedUnknown:
		return ErrFailedUnknown
	case StateTimedOut:
		return ErrTimedOut
	default:
		return nil
	}
}
