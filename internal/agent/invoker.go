// Package agent turns tasks into completion-endpoint calls framed by a
// role persona, and provides the deterministic scripted stand-in used by
// workflow fallback paths.
package agent

import (
	"context"

	"github.com/troupelabs/troupe/pkg/models"
)

// Request carries everything needed to invoke one agent once.
type Request struct {
	// Role selects the persona template.
	Role models.AgentRole
	// AgentID names the agent instance, used in logs and events.
	AgentID string
	// Description is the task instruction.
	Description string
	// Context is optional extra text supplied with the task.
	Context string
	// Prior holds the content of already-settled dependency results, in
	// dependency order.
	Prior []string
}

// Invoker executes one request and reports the outcome as data. An Invoker
// never returns an error and never panics across this boundary; transport or
// endpoint failures surface as TaskResult.Success == false.
type Invoker interface {
	Execute(ctx context.Context, req Request) models.TaskResult
}
