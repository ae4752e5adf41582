package executor

import "github.com/troupelabs/troupe/pkg/models"

// readyBatch returns the pending tasks whose dependencies have all settled,
// in input order. Tasks naming unknown dependency ids never become ready and
// are collected by the stall path.
func readyBatch(tasks []models.AgentTask, pending map[string]bool, results map[string]models.TaskResult) []models.AgentTask {
	var ready []models.AgentTask
	for _, task := range tasks {
		if !pending[task.ID] {
			continue
		}
		if depsSettled(task, results) {
			ready = append(ready, task)
		}
	}
	return ready
}

// depsSettled reports whether every dependency of the task has a result.
func depsSettled(task models.AgentTask, results map[string]models.TaskResult) bool {
	for _, dep := range task.Dependencies {
		if _, ok := results[dep]; !ok {
			return false
		}
	}
	return true
}

// priorContents collects the non-empty content of a task's dependency
// results, in dependency order. Failed dependencies contribute nothing.
func priorContents(task models.AgentTask, results map[string]models.TaskResult) []string {
	var prior []string
	for _, dep := range task.Dependencies {
		if r, ok := results[dep]; ok && r.Content != "" {
			prior = append(prior, r.Content)
		}
	}
	return prior
}

// pct converts a settled count into a whole percentage.
func pct(settled, total int) int {
	if total == 0 {
		return 100
	}
	return settled * 100 / total
}
