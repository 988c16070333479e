// Package providers defines the uniform contract over generation providers.
// Two shapes exist: synchronous providers that block until a result is
// available, and async task providers that hand back a task id for polling.
// Callers only ever see domain.JobHandle; payload shapes stay inside the
// concrete clients.
package providers

import (
	"context"

	"studio/internal/domain"
)

// Options is the small option record submitted alongside a compiled prompt.
type Options struct {
	AspectRatio  string
	OutputFormat string
	Resolution   string
	Quantity     int
	// ImageURLs carries conditioning inputs, e.g. the raw chart and logo
	// signed URLs for an enhancement call.
	ImageURLs []string
}

// Submitter is implemented by every provider adapter.
type Submitter interface {
	Submit(ctx context.Context, prompt string, opts Options) (*domain.JobHandle, error)
}

// TaskState is the provider-reported status tag for an async task.
type TaskState string

const (
	TaskProcessing      TaskState = "processing"
	TaskSucceeded       TaskState = "succeeded"
	TaskFailed          TaskState = "failed"
	TaskTransient       TaskState = "transient_failure"
	TaskPolicyViolation TaskState = "policy_violation"
)

// TaskStatus is one poll response from an async provider.
type TaskStatus struct {
	State     TaskState
	ResultRef string
	Message   string
}

// StatusFunc queries an async provider for the current state of a task.
type StatusFunc func(ctx context.Context, taskID string) (TaskStatus, error)

// Downloader fetches a provider-hosted result as raw bytes.
type Downloader interface {
	Download(ctx context.Context, url string) (data []byte, contentType string, err error)
}
