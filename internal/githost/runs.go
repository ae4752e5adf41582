package githost

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/troupelabs/troupe/pkg/models"
)

type workflowRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
	HeadBranch string    `json:"head_branch"`
}

func (r workflowRun) toStatus() models.RemoteRunStatus {
	return models.RemoteRunStatus{
		ID:         r.ID,
		Name:       r.Name,
		Status:     runState(r.Status, r.Conclusion),
		Conclusion: r.Conclusion,
		URL:        r.HTMLURL,
		CreatedAt:  r.CreatedAt,
		Branch:     r.HeadBranch,
	}
}

// runState folds the API's status/conclusion pair into one state. A
// completed run with any conclusion other than "success" counts as a
// failure.
func runState(status, conclusion string) models.RunState {
	switch status {
	case "completed":
		if conclusion == "success" {
			return models.RunCompleted
		}
		return models.RunFailure
	case "in_progress":
		return models.RunInProgress
	default:
		return models.RunQueued
	}
}

// ListWorkflowRuns lists Actions runs for a branch created at or after
// since, newest first.
func (c *Client) ListWorkflowRuns(ctx context.Context, branch string, since time.Time) ([]models.RemoteRunStatus, error) {
	query := url.Values{}
	query.Set("branch", branch)
	query.Set("per_page", "50")
	if !since.IsZero() {
		query.Set("created", ">="+since.UTC().Format(time.RFC3339))
	}

	path := c.repoPath("actions", "runs") + "?" + query.Encode()
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var payload struct {
		WorkflowRuns []workflowRun `json:"workflow_runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	statuses := make([]models.RemoteRunStatus, 0, len(payload.WorkflowRuns))
	for _, run := range payload.WorkflowRuns {
		statuses = append(statuses, run.toStatus())
	}
	return statuses, nil
}

// GetWorkflowRun fetches one Actions run by id.
func (c *Client) GetWorkflowRun(ctx context.Context, id int64) (*models.RemoteRunStatus, error) {
	path := c.repoPath("actions", "runs", strconv.FormatInt(id, 10))
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var run workflowRun
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, err
	}
	status := run.toStatus()
	return &status, nil
}
