package poller

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/providers"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func asyncHandle() *domain.JobHandle {
	return &domain.JobHandle{
		Provider: domain.ProviderAsyncTask,
		TaskID:   "task-1",
		State:    domain.JobStateSubmitted,
	}
}

// statusScript returns each queued status in order, repeating the last one.
func statusScript(states ...providers.TaskStatus) providers.StatusFunc {
	i := 0
	return func(ctx context.Context, taskID string) (providers.TaskStatus, error) {
		st := states[i]
		if i < len(states)-1 {
			i++
		}
		return st, nil
	}
}

func TestAwaitCompletionSucceeds(t *testing.T) {
	p := New(time.Millisecond, time.Second, testLogger())
	handle := asyncHandle()
	ref, err := p.AwaitCompletion(context.Background(), handle, statusScript(
		providers.TaskStatus{State: providers.TaskProcessing},
		providers.TaskStatus{State: providers.TaskProcessing},
		providers.TaskStatus{State: providers.TaskSucceeded, ResultRef: "https://cdn/result.mp4"},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "https://cdn/result.mp4" {
		t.Errorf("result ref = %q", ref)
	}
	if handle.State != domain.JobStateSucceeded {
		t.Errorf("state = %s", handle.State)
	}
}

func TestAwaitCompletionTimesOutWithinBound(t *testing.T) {
	interval := 10 * time.Millisecond
	timeout := 50 * time.Millisecond
	p := New(interval, timeout, testLogger())
	handle := asyncHandle()

	start := time.Now()
	_, err := p.AwaitCompletion(context.Background(), handle, statusScript(
		providers.TaskStatus{State: providers.TaskProcessing},
	))
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if domain.KindOf(err) != domain.ErrKindPollTimeout {
		t.Errorf("kind = %s, want poll_timeout", domain.KindOf(err))
	}
	if handle.State != domain.JobStateTimedOut {
		t.Errorf("state = %s, want timed_out", handle.State)
	}
	// Termination bound: timeout plus one poll interval, with scheduling slack.
	if elapsed > timeout+interval+50*time.Millisecond {
		t.Errorf("poller ran %s, bound is %s", elapsed, timeout+interval)
	}
}

func TestAwaitCompletionPolicyViolationIsDistinct(t *testing.T) {
	p := New(time.Millisecond, time.Second, testLogger())
	handle := asyncHandle()
	_, err := p.AwaitCompletion(context.Background(), handle, statusScript(
		providers.TaskStatus{State: providers.TaskPolicyViolation, Message: "flagged"},
	))
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := domain.KindOf(err); kind != domain.ErrKindContentPolicy {
		t.Errorf("kind = %s, want content_policy_violation", kind)
	}
	if handle.State != domain.JobStatePolicyViolation {
		t.Errorf("state = %s", handle.State)
	}
}

func TestAwaitCompletionHardFailure(t *testing.T) {
	p := New(time.Millisecond, time.Second, testLogger())
	handle := asyncHandle()
	_, err := p.AwaitCompletion(context.Background(), handle, statusScript(
		providers.TaskStatus{State: providers.TaskFailed, Message: "boom"},
	))
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := domain.KindOf(err); kind == domain.ErrKindContentPolicy || kind == domain.ErrKindPollTimeout {
		t.Errorf("hard failure misclassified as %s", kind)
	}
	if handle.State != domain.JobStateHardFailure {
		t.Errorf("state = %s", handle.State)
	}
}

func TestAwaitCompletionToleratesTransportErrors(t *testing.T) {
	p := New(time.Millisecond, time.Second, testLogger())
	handle := asyncHandle()
	calls := 0
	status := func(ctx context.Context, taskID string) (providers.TaskStatus, error) {
		calls++
		if calls < 3 {
			return providers.TaskStatus{}, errors.New("connection reset")
		}
		return providers.TaskStatus{State: providers.TaskSucceeded, ResultRef: "ref"}, nil
	}
	ref, err := p.AwaitCompletion(context.Background(), handle, status)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "ref" || calls != 3 {
		t.Errorf("ref=%q calls=%d", ref, calls)
	}
}

func TestAwaitCompletionHonorsContextCancel(t *testing.T) {
	p := New(50*time.Millisecond, time.Minute, testLogger())
	handle := asyncHandle()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := p.AwaitCompletion(ctx, handle, statusScript(
		providers.TaskStatus{State: providers.TaskProcessing},
	))
	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > time.Second {
		t.Error("cancel did not interrupt the wait")
	}
}

func TestAwaitCompletionTerminalHandleShortCircuits(t *testing.T) {
	p := New(time.Millisecond, time.Second, testLogger())
	handle := &domain.JobHandle{
		Provider:  domain.ProviderSynchronous,
		State:     domain.JobStateSucceeded,
		ResultRef: "already-done",
	}
	ref, err := p.AwaitCompletion(context.Background(), handle, func(context.Context, string) (providers.TaskStatus, error) {
		t.Fatal("status should not be called for a terminal handle")
		return providers.TaskStatus{}, nil
	})
	if err != nil || ref != "already-done" {
		t.Errorf("ref=%q err=%v", ref, err)
	}
}
