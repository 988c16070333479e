// Package poller drives async provider tasks to a terminal state. The loop
// is scheduler-agnostic: it blocks on a timer between polls and honors
// context cancellation, so the same logic runs identically under tests and
// production handlers.
package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/providers"
)

// Poller repeatedly queries task status at a fixed interval until a terminal
// state or the configured timeout.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// New returns a poller with the given fixed interval and hard timeout.
func New(interval, timeout time.Duration, logger zerolog.Logger) *Poller {
	return &Poller{Interval: interval, Timeout: timeout, Logger: logger}
}

// AwaitCompletion polls status for the handle's task until it terminates.
// The handle's state is updated as the task progresses. The call always
// returns within Timeout plus one poll interval.
func (p *Poller) AwaitCompletion(ctx context.Context, handle *domain.JobHandle, status providers.StatusFunc) (string, error) {
	if handle.State.Terminal() {
		if handle.State == domain.JobStateSucceeded {
			return handle.ResultRef, nil
		}
		return "", handle.Err
	}
	handle.State = domain.JobStatePolling

	deadline := time.Now().Add(p.Timeout)
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		st, err := status(ctx, handle.TaskID)
		if err != nil {
			// Transport hiccups during a poll are not terminal; the
			// deadline bounds how long we keep trying.
			p.Logger.Warn().Err(err).Str("task_id", handle.TaskID).Int("attempt", attempt).
				Msg("poll attempt failed")
		} else {
			if ref, done, terr := p.classify(handle, st); done {
				return ref, terr
			}
		}

		if time.Now().After(deadline) {
			handle.State = domain.JobStateTimedOut
			handle.Err = domain.Errorf(domain.ErrKindPollTimeout,
				"task %s did not complete within %s", handle.TaskID, p.Timeout)
			return "", handle.Err
		}
		select {
		case <-ctx.Done():
			handle.State = domain.JobStateTimedOut
			handle.Err = domain.WrapError(domain.ErrKindPollTimeout, ctx.Err(), "polling canceled")
			return "", handle.Err
		case <-ticker.C:
		}
	}
}

// classify maps one poll response onto the job state machine. It reports
// whether the state is terminal.
func (p *Poller) classify(handle *domain.JobHandle, st providers.TaskStatus) (string, bool, error) {
	switch st.State {
	case providers.TaskSucceeded:
		handle.State = domain.JobStateSucceeded
		handle.ResultRef = st.ResultRef
		return st.ResultRef, true, nil
	case providers.TaskPolicyViolation:
		handle.State = domain.JobStatePolicyViolation
		handle.Err = domain.Errorf(domain.ErrKindContentPolicy,
			"generation rejected by the provider's content policy: %s", st.Message)
		return "", true, handle.Err
	case providers.TaskTransient:
		handle.State = domain.JobStateTransientFailure
		handle.Err = domain.Errorf(domain.ErrKindProviderSubmission,
			"provider reported a retryable failure: %s", st.Message)
		return "", true, handle.Err
	case providers.TaskFailed:
		handle.State = domain.JobStateHardFailure
		handle.Err = domain.Errorf(domain.ErrKindProviderSubmission,
			"generation failed: %s", st.Message)
		return "", true, handle.Err
	default:
		return "", false, nil
	}
}
