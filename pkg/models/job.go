package models

import (
	"time"

	"github.com/google/uuid"
)

// Job run states. They mirror asyncjob.JobState names, plus JobRunErrored for
// runs that ended on a transport or authorization failure.
const (
	JobRunSucceeded      = "succeeded"
	JobRunFailedTerminal = "failed_terminal"
	JobRunFailedUnknown  = "failed_unknown"
	JobRunTimedOut       = "timed_out"
	JobRunErrored        = "errored"
)

// JobRun is the audit record of one remote asynchronous job, written once the
// poller stops watching it.
type JobRun struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	Kind         string    `db:"kind"          json:"kind"`
	RemoteJobID  string    `db:"remote_job_id" json:"remote_job_id"`
	Subject      string    `db:"subject"       json:"subject"`
	State        string    `db:"state"         json:"state"`
	RemoteStatus string    `db:"remote_status" json:"remote_status,omitempty"`
	Attempts     int       `db:"attempts"      json:"attempts"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	SubmittedAt  time.Time `db:"submitted_at"  json:"submitted_at"`
	CompletedAt  time.Time `db:"completed_at"  json:"completed_at"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}
