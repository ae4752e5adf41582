// Package models contains the shared data types for troupe workflows.
package models

// AgentRole identifies the persona an agent assumes for one task.
type AgentRole string

const (
	// RolePlanner breaks a goal into ordered steps.
	RolePlanner AgentRole = "planner"
	// RoleResearcher gathers source material for a topic.
	RoleResearcher AgentRole = "researcher"
	// RoleWriter turns gathered material into prose.
	RoleWriter AgentRole = "writer"
	// RoleTranslator renders text into a target language.
	RoleTranslator AgentRole = "translator"
	// RoleDeveloper produces code changes for a requirement.
	RoleDeveloper AgentRole = "developer"
	// RoleAnalyst reviews requirements or produced work.
	RoleAnalyst AgentRole = "analyst"
)

// Valid returns true if the role is a known value.
func (r AgentRole) Valid() bool {
	switch r {
	case RolePlanner, RoleResearcher, RoleWriter,
		RoleTranslator, RoleDeveloper, RoleAnalyst:
		return true
	default:
		return false
	}
}

// AgentTask is one unit of work in a task graph. Tasks are immutable once
// submitted to the executor.
type AgentTask struct {
	// ID is the task identifier, unique within its graph.
	ID string `json:"id"`
	// AgentID names the agent instance assigned to the task.
	AgentID string `json:"agent_id"`
	// Role selects the persona used for the completion call.
	Role AgentRole `json:"role"`
	// Description is the free-text instruction for the agent.
	Description string `json:"description"`
	// Dependencies lists task IDs that must settle before this task runs.
	Dependencies []string `json:"dependencies,omitempty"`
	// Context is optional free text appended to the prompt.
	Context string `json:"context,omitempty"`
}

// ResultMetadata carries measurement data for one completion call.
type ResultMetadata struct {
	// LatencyMS is the wall-clock duration of the call in milliseconds.
	LatencyMS int64 `json:"latency_ms"`
	// Tokens is the total token count reported for the call.
	Tokens int64 `json:"tokens"`
	// Model is the model identifier that served the call.
	Model string `json:"model"`
}

// TaskResult is the outcome of one task. Exactly one result exists per task
// ID; once stored it is never mutated.
type TaskResult struct {
	// Success reports whether the task produced usable content.
	Success bool `json:"success"`
	// Content is the text payload on success.
	Content string `json:"content,omitempty"`
	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`
	// Metadata holds call measurements when available.
	Metadata *ResultMetadata `json:"metadata,omitempty"`
}
