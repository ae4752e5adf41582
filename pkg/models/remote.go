package models

import "time"

// RunState is the observed state of a remote CI run.
type RunState string

const (
	// RunQueued indicates the run is waiting to start.
	RunQueued RunState = "queued"
	// RunInProgress indicates the run is executing.
	RunInProgress RunState = "in_progress"
	// RunCompleted indicates the run finished successfully.
	RunCompleted RunState = "completed"
	// RunFailure indicates the run finished unsuccessfully.
	RunFailure RunState = "failure"
)

// Terminal returns true once the state can no longer change.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunFailure
}

// RemoteRunStatus is one observation of a CI run from the listing endpoint.
type RemoteRunStatus struct {
	// ID is the run identifier assigned by the CI system.
	ID int64 `json:"id"`
	// Name is the workflow name of the run.
	Name string `json:"name"`
	// Status is the observed state.
	Status RunState `json:"status"`
	// Conclusion is the terminal verdict, empty until the run settles.
	Conclusion string `json:"conclusion,omitempty"`
	// URL links to the run's log page.
	URL string `json:"url"`
	// CreatedAt is when the CI system created the run.
	CreatedAt time.Time `json:"created_at"`
	// Branch is the head branch the run was triggered for.
	Branch string `json:"branch"`
}

// DeploymentResult aggregates the outcome of watching one CI run.
type DeploymentResult struct {
	// Success reports whether the run concluded successfully.
	Success bool `json:"success"`
	// Merged reports whether the pull request was merged afterwards.
	Merged bool `json:"merged"`
	// Duration is how long the monitor waited for the outcome.
	Duration time.Duration `json:"duration"`
	// PullRequestURL links to the pull request, when one exists.
	PullRequestURL string `json:"pull_request_url,omitempty"`
	// RunURL links to the observed CI run's logs.
	RunURL string `json:"run_url,omitempty"`
	// Conclusion is the run's terminal verdict, if one was observed.
	Conclusion string `json:"conclusion,omitempty"`
	// Error describes a monitor failure such as a timeout.
	Error string `json:"error,omitempty"`
}
