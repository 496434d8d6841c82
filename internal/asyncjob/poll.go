// Package asyncjob waits for asynchronous jobs on the platform: it submits a
// job, polls its status under a bounded attempt budget, classifies each status
// and hands the successful payload to the caller.
package asyncjob

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/pkg/models"
	"github.com/google/uuid"
)

const (
	DefaultInterval    = 3 * time.Second
	DefaultMaxAttempts = 10
)

// Spec describes one kind of remote job: how to read its status and which
// status values mean success, failure, unknown or still running.
// Status values are compared case-insensitively.
type Spec[S any] struct {
	// Kind identifies the job type in logs and audit records.
	Kind string
	// Label is the noun used in error messages, e.g. "analytics job".
	Label string
	// Status extracts the raw status string from a probe payload.
	Status func(S) string

	Success string
	Unknown string
	Running []string
	// Failures maps each terminal failure status to the phrase completing
	// "<label> <id> ...", e.g. "CANCELLED": "was cancelled".
	Failures map[string]string

	Interval    time.Duration
	MaxAttempts int
}

// Handle identifies a submitted job for the duration of one request.
type Handle struct {
	ID          string
	Subject     string
	SubmittedAt time.Time
}

// Submitter starts a job and returns its platform identifier.
type Submitter func(ctx context.Context) (string, error)

// Prober fetches the current status payload of a job.
type Prober[S any] func(ctx context.Context, jobID string) (S, error)

// Result is the outcome of a successful poll. Payload is the exact probe
// response that reported success.
type Result[S any] struct {
	Payload  S
	Status   string
	Attempts int
}

// Recorder persists job outcomes. Failures to record never fail a poll.
type Recorder interface {
	RecordJobRun(ctx context.Context, run *models.JobRun) error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc, a timer that stops early on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type options struct {
	sleep    SleepFunc
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Poller.
type Option func(*options)

// WithSleep replaces the wait between attempts.
func WithSleep(fn SleepFunc) Option {
	return func(o *options) { o.sleep = fn }
}

// WithRecorder records every terminal outcome.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides time.Now for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Poller runs the poll loop for one job kind. It is safe for concurrent use;
// each Poll call owns its own attempt counter.
type Poller[S any] struct {
	spec     Spec[S]
	running  map[string]bool
	failures map[string]string
	success  string
	unknown  string
	opts     options
}

// NewPoller builds a Poller. Zero Interval and MaxAttempts fall back to
// DefaultInterval and DefaultMaxAttempts.
func NewPoller[S any](spec Spec[S], opts ...Option) *Poller[S] {
	if spec.Interval <= 0 {
		spec.Interval = DefaultInterval
	}
	if spec.MaxAttempts <= 0 {
		spec.MaxAttempts = DefaultMaxAttempts
	}
	if spec.Label == "" {
		spec.Label = spec.Kind
	}

	o := options{sleep: Sleep, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	p := &Poller[S]{
		spec:     spec,
		running:  make(map[string]bool, len(spec.Running)),
		failures: make(map[string]string, len(spec.Failures)),
		success:  canonical(spec.Success),
		unknown:  canonical(spec.Unknown),
		opts:     o,
	}
	for _, s := range spec.Running {
		p.running[canonical(s)] = true
	}
	for s, reason := range spec.Failures {
		p.failures[canonical(s)] = reason
	}
	return p
}

// Spec returns the effective spec, defaults applied.
func (p *Poller[S]) Spec() Spec[S] {
	return p.spec
}

// Classify maps a raw status to a JobState. Absent and unrecognised values are
// FailedUnknown. The returned reason is set for FailedTerminal only.
func (p *Poller[S]) Classify(raw string) (JobState, string) {
	status := canonical(raw)
	switch {
	case status == "":
		return StateFailedUnknown, ""
	case status == p.success:
		return StateSucceeded, ""
	case status == p.unknown:
		return StateFailedUnknown, ""
	}
	if reason, ok := p.failures[status]; ok {
		return StateFailedTerminal, reason
	}
	if p.running[status] {
		return StatePending, ""
	}
	return StateFailedUnknown, ""
}

// Poll probes the job until it reaches a terminal state or MaxAttempts probes
// have all reported it still running. A probe error ends the poll and is
// returned unchanged.
func (p *Poller[S]) Poll(ctx context.Context, h Handle, probe Prober[S]) (Result[S], error) {
	log := p.opts.logger.With("kind", p.spec.Kind, "job_id", h.ID)

	var lastStatus string
	for attempt := 1; attempt <= p.spec.MaxAttempts; attempt++ {
		payload, err := probe(ctx, h.ID)
		if err != nil {
			p.record(ctx, h, models.JobRunErrored, lastStatus, attempt, err)
			return Result[S]{Status: lastStatus, Attempts: attempt}, err
		}

		lastStatus = canonical(p.spec.Status(payload))
		state, reason := p.Classify(lastStatus)
		log.Debug("job status", "attempt", attempt, "status", lastStatus, "state", state.String())

		switch state {
		case StateSucceeded:
			p.record(ctx, h, state.String(), lastStatus, attempt, nil)
			log.Info("job succeeded", "attempts", attempt)
			return Result[S]{Payload: payload, Status: lastStatus, Attempts: attempt}, nil
		case StateFailedTerminal, StateFailedUnknown:
			perr := &PollError{
				State:    state,
				Label:    p.spec.Label,
				JobID:    h.ID,
				Status:   lastStatus,
				Reason:   reason,
				Attempts: attempt,
			}
			p.record(ctx, h, state.String(), lastStatus, attempt, perr)
			log.Warn("job failed", "state", state.String(), "status", lastStatus, "attempts", attempt)
			return Result[S]{Status: lastStatus, Attempts: attempt}, perr
		}

		if attempt == p.spec.MaxAttempts {
			break
		}
		if err := p.opts.sleep(ctx, p.spec.Interval); err != nil {
			err = fmt.Errorf("waiting for %s %s: %w", p.spec.Label, h.ID, err)
			p.record(ctx, h, models.JobRunErrored, lastStatus, attempt, err)
			return Result[S]{Status: lastStatus, Attempts: attempt}, err
		}
	}

	perr := &PollError{
		State:    StateTimedOut,
		Label:    p.spec.Label,
		JobID:    h.ID,
		Status:   lastStatus,
		Attempts: p.spec.MaxAttempts,
	}
	p.record(ctx, h, StateTimedOut.String(), lastStatus, p.spec.MaxAttempts, perr)
	log.Warn("job timed out", "attempts", p.spec.MaxAttempts, "status", lastStatus)
	return Result[S]{Status: lastStatus, Attempts: p.spec.MaxAttempts}, perr
}

func (p *Poller[S]) record(ctx context.Context, h Handle, state, status string, attempts int, cause error) {
	if p.opts.recorder == nil {
		return
	}
	run := &models.JobRun{
		ID:           uuid.New(),
		Kind:         p.spec.Kind,
		RemoteJobID:  h.ID,
		Subject:      h.Subject,
		State:        state,
		RemoteStatus: status,
		Attempts:     attempts,
		SubmittedAt:  h.SubmittedAt,
		CompletedAt:  p.opts.now().UTC(),
	}
	if cause != nil {
		msg := cause.Error()
		run.ErrorMessage = &msg
	}
	// Recorded even when the caller has gone away.
	if err := p.opts.recorder.RecordJobRun(context.WithoutCancel(ctx), run); err != nil {
		p.opts.logger.Warn("recording job run", "kind", p.spec.Kind, "job_id", h.ID, "error", err)
	}
}

func canonical(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}
