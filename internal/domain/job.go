package domain

// ProviderKind distinguishes the two provider shapes the adapter hides.
type ProviderKind string

const (
	ProviderSynchronous ProviderKind = "synchronous"
	ProviderAsyncTask   ProviderKind = "async-task"
)

// JobState enumerates the lifecycle of one provider invocation.
type JobState string

const (
	JobStateSubmitted        JobState = "submitted"
	JobStatePolling          JobState = "polling"
	JobStateSucceeded        JobState = "succeeded"
	JobStatePolicyViolation  JobState = "content_policy_violation"
	JobStateTransientFailure JobState = "transient_failure"
	JobStateHardFailure      JobState = "hard_failure"
	JobStateTimedOut         JobState = "timed_out"
)

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateSubmitted, JobStatePolling:
		return false
	}
	return true
}

// JobHandle represents an in-flight or completed provider invocation.
// Synchronous providers return a terminal handle directly; async providers
// return a Submitted handle whose TaskID drives the poller.
type JobHandle struct {
	Provider  ProviderKind
	TaskID    string
	State     JobState
	ResultRef string
	Err       error
}
