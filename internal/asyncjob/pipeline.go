package asyncjob

import "context"

// Fetcher turns the successful status payload into the job's results. Job kinds
// whose status payload already carries the results return it directly.
type Fetcher[S, R any] func(ctx context.Context, jobID string, status S) (R, error)

// Pipeline runs submit, poll and fetch for a single job kind.
type Pipeline[S, R any] struct {
	Poller *Poller[S]
	Submit Submitter
	Probe  Prober[S]
	Fetch  Fetcher[S, R]
}

// Run submits a job about subject and waits for its results. Submit and probe
// errors are returned unchanged; poll outcomes come back as *PollError. An
// empty job id from Submit yields ErrNoJobID.
func (pl Pipeline[S, R]) Run(ctx context.Context, subject string) (R, error) {
	var zero R

	jobID, err := pl.Submit(ctx)
	if err != nil {
		return zero, err
	}
	if jobID == "" {
		return zero, ErrNoJobID
	}

	h := Handle{ID: jobID, Subject: subject, SubmittedAt: pl.Poller.opts.now().UTC()}
	res, err := pl.Poller.Poll(ctx, h, pl.Probe)
	if err != nil {
		return zero, err
	}
	return pl.Fetch(ctx, jobID, res.Payload)
}
