// Package executor runs task graphs. It resolves dependencies into ready
// batches, invokes every ready task concurrently, and repeats until the
// graph is done or stalled. The executor always returns a result for every
// task; unsatisfiable graphs fail deterministically instead of hanging.
package executor

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/troupelabs/troupe/internal/agent"
	"github.com/troupelabs/troupe/internal/control"
	"github.com/troupelabs/troupe/internal/progress"
	"github.com/troupelabs/troupe/pkg/models"
)

// ErrUnmetDependency is the error recorded on tasks stranded by a missing
// or cyclic dependency.
const ErrUnmetDependency = "dependency unmet or cyclic dependency"

// ErrHalted is the error recorded on tasks abandoned after an operator
// halt signal.
const ErrHalted = "halted by operator signal"

// Executor drives one task graph at a time. Instances are cheap; callers
// construct one per workflow so tests and workflows stay isolated.
type Executor struct {
	invoker agent.Invoker
	bus     *progress.Bus
	signals *control.Signals
}

// New creates an executor. signals may be nil to disable halt checks.
func New(invoker agent.Invoker, bus *progress.Bus, signals *control.Signals) *Executor {
	return &Executor{
		invoker: invoker,
		bus:     bus,
		signals: signals,
	}
}

// settled pairs a task id with its stored result.
type settled struct {
	id     string
	result models.TaskResult
}

// Run executes the graph and returns a result for every task id. Tasks in
// one ready batch run concurrently; batches run in dependency order. A failed
// task settles like a completed one, so its dependents still run and see no
// content from it. If an iteration settles nothing while tasks remain, the
// remainder is failed with ErrUnmetDependency. Run never returns an error.
func (e *Executor) Run(ctx context.Context, workflowID string, tasks []models.AgentTask) map[string]models.TaskResult {
	results := make(map[string]models.TaskResult, len(tasks))
	pending := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		pending[t.ID] = true
	}
	total := len(tasks)

	log.Printf("[executor] %s: starting graph with %d tasks", workflowID, total)

	for len(pending) > 0 {
		if e.signals != nil && e.signals.ShouldHalt() {
			e.failRemaining(workflowID, tasks, pending, results, ErrHalted)
			return results
		}

		ready := readyBatch(tasks, pending, results)
		before := len(results)

		ch := make(chan settled, len(ready))
		var wg sync.WaitGroup
		for _, task := range ready {
			delete(pending, task.ID)
			e.publish(models.WorkflowProgress{
				WorkflowID: workflowID,
				StepID:     task.ID,
				AgentID:    task.AgentID,
				Status:     models.StepRunning,
				Progress:   0,
				Message:    task.Description,
			})

			req := agent.Request{
				Role:        task.Role,
				AgentID:     task.AgentID,
				Description: task.Description,
				Context:     task.Context,
				Prior:       priorContents(task, results),
			}
			wg.Add(1)
			go func(task models.AgentTask, req agent.Request) {
				defer wg.Done()
				result := e.invoker.Execute(ctx, req)
				e.publishSettled(workflowID, task, result)
				ch <- settled{id: task.ID, result: result}
			}(task, req)
		}
		wg.Wait()
		close(ch)
		for s := range ch {
			results[s.id] = s.result
		}

		if len(results) == before && len(pending) > 0 {
			log.Printf("[executor] %s: stalled with %d tasks unresolved", workflowID, len(pending))
			e.failRemaining(workflowID, tasks, pending, results, ErrUnmetDependency)
			return results
		}

		status := models.StepRunning
		if len(pending) == 0 {
			status = models.StepCompleted
		}
		e.publish(models.WorkflowProgress{
			WorkflowID: workflowID,
			StepID:     models.StepWorkflow,
			Status:     status,
			Progress:   pct(len(results), total),
			Message:    fmt.Sprintf("%d/%d tasks settled", len(results), total),
		})
	}

	if total == 0 {
		e.publish(models.WorkflowProgress{
			WorkflowID: workflowID,
			StepID:     models.StepWorkflow,
			Status:     models.StepCompleted,
			Progress:   100,
			Message:    "0/0 tasks settled",
		})
	}

	log.Printf("[executor] %s: graph finished, %d results", workflowID, len(results))
	return results
}

// publishSettled emits a task's terminal event the moment it settles, so
// observers see batch members in completion order.
func (e *Executor) publishSettled(workflowID string, task models.AgentTask, result models.TaskResult) {
	if result.Success {
		e.publish(models.WorkflowProgress{
			WorkflowID: workflowID,
			StepID:     task.ID,
			AgentID:    task.AgentID,
			Status:     models.StepCompleted,
			Progress:   100,
			Result:     result,
		})
		return
	}
	e.publish(models.WorkflowProgress{
		WorkflowID: workflowID,
		StepID:     task.ID,
		AgentID:    task.AgentID,
		Status:     models.StepFailed,
		Progress:   100,
		Message:    result.Error,
	})
}

// failRemaining settles every still-pending task with the given error and
// closes the workflow with a failed aggregate event.
func (e *Executor) failRemaining(workflowID string, tasks []models.AgentTask, pending map[string]bool, results map[string]models.TaskResult, reason string) {
	for _, task := range tasks {
		if !pending[task.ID] {
			continue
		}
		delete(pending, task.ID)
		results[task.ID] = models.TaskResult{Success: false, Error: reason}
		e.publish(models.WorkflowProgress{
			WorkflowID: workflowID,
			StepID:     task.ID,
			AgentID:    task.AgentID,
			Status:     models.StepFailed,
			Progress:   100,
			Message:    reason,
		})
	}
	e.publish(models.WorkflowProgress{
		WorkflowID: workflowID,
		StepID:     models.StepWorkflow,
		Status:     models.StepFailed,
		Progress:   100,
		Message:    reason,
	})
}

func (e *Executor) publish(p models.WorkflowProgress) {
	if e.bus != nil {
		e.bus.Publish(p)
	}
}
