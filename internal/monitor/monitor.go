// Package monitor watches remote CI runs for a branch until one settles or
// a wall-clock timeout expires.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/troupelabs/troupe/internal/progress"
	"github.com/troupelabs/troupe/pkg/models"
)

const (
	// StepID labels the monitor's progress events.
	StepID = "deploy-monitor"

	// DefaultInterval is the fixed delay between polls.
	DefaultInterval = 15 * time.Second
	// DefaultTimeout bounds how long a watch may run.
	DefaultTimeout = 10 * time.Minute
)

// ErrTimeout is returned when no matching run settles before the deadline.
var ErrTimeout = errors.New("deployment monitor timed out")

// RunLister is the slice of the source-hosting client the monitor needs.
type RunLister interface {
	ListWorkflowRuns(ctx context.Context, branch string, since time.Time) ([]models.RemoteRunStatus, error)
	GetWorkflowRun(ctx context.Context, id int64) (*models.RemoteRunStatus, error)
}

// Outcome is the terminal observation of a watched run.
type Outcome struct {
	Run     models.RemoteRunStatus
	Success bool
	Elapsed time.Duration
}

// Monitor polls a RunLister at a fixed interval.
type Monitor struct {
	lister   RunLister
	bus      *progress.Bus
	interval time.Duration
	timeout  time.Duration
}

// New builds a monitor. Non-positive interval or timeout fall back to the
// defaults.
func New(lister RunLister, bus *progress.Bus, interval, timeout time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Monitor{lister: lister, bus: bus, interval: interval, timeout: timeout}
}

// Await blocks until a run on branch created at or after since, whose name
// contains nameFilter, reaches a terminal state. The deadline is fixed when
// the watch starts. Each new (id, status, conclusion) observation emits one
// progress event carrying the run URL; poll errors are logged and the watch
// continues. Once a matching run is found it is tracked by id.
func (m *Monitor) Await(ctx context.Context, workflowID, branch, nameFilter string, since time.Time) (*Outcome, error) {
	start := time.Now()
	deadline := start.Add(m.timeout)
	seen := make(map[string]bool)
	var trackedID int64

	log.Printf("[monitor] watching runs on %s (interval %s, timeout %s)", branch, m.interval, m.timeout)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		runs, err := m.poll(ctx, branch, since, trackedID)
		if err != nil {
			log.Printf("[monitor] poll failed: %v", err)
		}

		for _, run := range runs {
			if !matches(run, branch, nameFilter, since) {
				continue
			}
			if trackedID == 0 {
				trackedID = run.ID
				log.Printf("[monitor] tracking run %d (%s)", run.ID, run.Name)
			}

			key := fmt.Sprintf("%d:%s:%s", run.ID, run.Status, run.Conclusion)
			if !seen[key] {
				seen[key] = true
				m.publish(workflowID, run)
			}

			if run.ID == trackedID && run.Status.Terminal() {
				return &Outcome{
					Run:     run,
					Success: run.Status == models.RunCompleted,
					Elapsed: time.Since(start),
				}, nil
			}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("branch %s: %w", branch, ErrTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.interval):
		}
	}
}

// poll lists candidate runs. Before a run is tracked it scans the branch
// listing; afterwards it fetches the tracked run directly.
func (m *Monitor) poll(ctx context.Context, branch string, since time.Time, trackedID int64) ([]models.RemoteRunStatus, error) {
	if trackedID != 0 {
		run, err := m.lister.GetWorkflowRun(ctx, trackedID)
		if err != nil {
			return nil, err
		}
		return []models.RemoteRunStatus{*run}, nil
	}
	return m.lister.ListWorkflowRuns(ctx, branch, since)
}

func matches(run models.RemoteRunStatus, branch, nameFilter string, since time.Time) bool {
	if run.Branch != "" && run.Branch != branch {
		return false
	}
	if nameFilter != "" && !strings.Contains(strings.ToLower(run.Name), strings.ToLower(nameFilter)) {
		return false
	}
	if !since.IsZero() && !run.CreatedAt.IsZero() && run.CreatedAt.Before(since) {
		return false
	}
	return true
}

func (m *Monitor) publish(workflowID string, run models.RemoteRunStatus) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(models.WorkflowProgress{
		WorkflowID: workflowID,
		StepID:     StepID,
		Status:     stepStatus(run.Status),
		Progress:   stepProgress(run.Status),
		Message:    fmt.Sprintf("run %s is %s: %s", run.Name, string(run.Status), run.URL),
		Result:     run,
	})
}

func stepStatus(state models.RunState) models.StepStatus {
	switch state {
	case models.RunCompleted:
		return models.StepCompleted
	case models.RunFailure:
		return models.StepFailed
	default:
		return models.StepRunning
	}
}

func stepProgress(state models.RunState) int {
	switch state {
	case models.RunQueued:
		return 10
	case models.RunInProgress:
		return 50
	default:
		return 100
	}
}
