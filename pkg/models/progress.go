package models

// StepWorkflow is the sentinel StepID used for aggregate workflow progress.
const StepWorkflow = "workflow"

// StepStatus represents the state of one step or of the whole workflow.
type StepStatus string

const (
	// StepPending indicates the step has not been dispatched.
	StepPending StepStatus = "pending"
	// StepRunning indicates the step is in flight.
	StepRunning StepStatus = "running"
	// StepCompleted indicates the step finished successfully.
	StepCompleted StepStatus = "completed"
	// StepFailed indicates the step finished with an error.
	StepFailed StepStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s StepStatus) Valid() bool {
	switch s {
	case StepPending, StepRunning, StepCompleted, StepFailed:
		return true
	default:
		return false
	}
}

// WorkflowProgress is one append-only progress event. Events are ordered by
// emission time and never retracted.
type WorkflowProgress struct {
	// WorkflowID ties the event to one workflow invocation.
	WorkflowID string `json:"workflow_id"`
	// StepID is a task or stage identifier, or StepWorkflow for aggregates.
	StepID string `json:"step_id"`
	// AgentID names the agent the event concerns, if any.
	AgentID string `json:"agent_id,omitempty"`
	// Status is the step state the event reports.
	Status StepStatus `json:"status"`
	// Progress is the aggregate completion percentage, 0 to 100.
	Progress int `json:"progress"`
	// Message is an optional human-readable note.
	Message string `json:"message,omitempty"`
	// Result is an optional opaque payload for observers.
	Result any `json:"result,omitempty"`
}
