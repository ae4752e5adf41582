// Package workflow assembles the named workflows from the executor, the
// agent invoker, the pull-request pipeline, and the scripted fallback.
// Callers always get a structurally complete result: when the live call
// path fails, the same task graph is replayed with the scripted invoker
// and the result is labeled accordingly.
package workflow

import (
	"context"
	"log"
	"strings"

	"github.com/troupelabs/troupe/internal/agent"
	"github.com/troupelabs/troupe/internal/control"
	"github.com/troupelabs/troupe/internal/executor"
	"github.com/troupelabs/troupe/internal/progress"
	"github.com/troupelabs/troupe/internal/pullreq"
	"github.com/troupelabs/troupe/pkg/models"
)

// Pipeline is the slice of the pull-request lifecycle the repository
// workflow drives.
type Pipeline interface {
	Run(ctx context.Context, workflowID, requirements string) (*pullreq.Outcome, error)
}

// Config wires a Service. Invoker may be nil, which forces every workflow
// onto the scripted path.
type Config struct {
	Invoker  agent.Invoker
	Scripted agent.Invoker
	Bus      *progress.Bus
	Signals  *control.Signals
	Pipeline Pipeline
	// Offline skips the live path entirely and runs scripted workflows.
	Offline bool
}

// Service runs the named workflows.
type Service struct {
	live     *executor.Executor
	fallback *executor.Executor
	bus      *progress.Bus
	signals  *control.Signals
	pipeline Pipeline
	offline  bool
}

func NewService(cfg Config) *Service {
	scripted := cfg.Scripted
	if scripted == nil {
		scripted = agent.NewScripted()
	}
	invoker := cfg.Invoker
	offline := cfg.Offline
	if invoker == nil {
		invoker = scripted
		offline = true
	}
	return &Service{
		live:     executor.New(invoker, cfg.Bus, cfg.Signals),
		fallback: executor.New(scripted, cfg.Bus, cfg.Signals),
		bus:      cfg.Bus,
		signals:  cfg.Signals,
		pipeline: cfg.Pipeline,
		offline:  offline,
	}
}

// guidance returns operator guidance text to fold into task context, if a
// control directory is wired and the file has content.
func (s *Service) guidance() string {
	if s.signals == nil {
		return ""
	}
	return strings.TrimSpace(s.signals.Guidance())
}

func (s *Service) halted() bool {
	return s.signals != nil && s.signals.ShouldHalt()
}

// fallbackEvent reports the switch to the scripted path, once per workflow.
func (s *Service) fallbackEvent(workflowID, message string) {
	log.Printf("[workflow] %s: %s", workflowID, message)
	if s.bus == nil {
		return
	}
	s.bus.Publish(models.WorkflowProgress{
		WorkflowID: workflowID,
		StepID:     models.StepWorkflow,
		Status:     models.StepFailed,
		Progress:   100,
		Message:    message,
	})
}
