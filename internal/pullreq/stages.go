package pullreq

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/troupelabs/troupe/internal/githost"
	"github.com/troupelabs/troupe/internal/parse"
	"github.com/troupelabs/troupe/pkg/models"
)

const (
	maxContextFiles    = 100
	readmeExcerptLen   = 1500
	analysisExcerptLen = 600
	titleLimit         = 72
)

// fetchContext lists repository files and reads the README so later stages
// can see what already exists. Best-effort: on error the pipeline continues
// with an empty context.
func (p *Pipeline) fetchContext(ctx context.Context, workflowID string) (string, string) {
	p.stageEvent(workflowID, StageFetchContext, models.StepRunning, 0, "listing repository files")

	defaultBranch, err := p.host.DefaultBranch(ctx)
	if err != nil {
		log.Printf("[pullreq] workflow %s: default branch lookup failed: %v", workflowID, err)
		p.stageEvent(workflowID, StageFetchContext, models.StepCompleted, 100, "context unavailable")
		return "", ""
	}

	files, err := p.host.ListFiles(ctx, defaultBranch)
	if err != nil {
		log.Printf("[pullreq] workflow %s: file listing failed: %v", workflowID, err)
		p.stageEvent(workflowID, StageFetchContext, models.StepCompleted, 100, "context unavailable")
		return "", defaultBranch
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s (default branch %s)\n", p.host.Repo(), defaultBranch)
	b.WriteString("Existing files:\n")
	for i, f := range files {
		if i == maxContextFiles {
			fmt.Fprintf(&b, "... and %d more\n", len(files)-maxContextFiles)
			break
		}
		b.WriteString(f + "\n")
	}
	if readme := p.readmeExcerpt(ctx, files, defaultBranch); readme != "" {
		b.WriteString("\nREADME excerpt:\n" + readme + "\n")
	}

	p.stageEvent(workflowID, StageFetchContext, models.StepCompleted, 100,
		fmt.Sprintf("%d files in context", len(files)))
	return b.String(), defaultBranch
}

func (p *Pipeline) readmeExcerpt(ctx context.Context, files []string, ref string) string {
	for _, f := range files {
		if !strings.EqualFold(f, "README.md") {
			continue
		}
		file, err := p.host.GetFile(ctx, f, ref)
		if err != nil {
			return ""
		}
		return clip(file.Content, readmeExcerptLen)
	}
	return ""
}

// TaskGraph is the analyze -> develop -> review graph the pipeline runs.
// The scripted fallback replays the same graph shape.
func TaskGraph(requirements, repoContext string) []models.AgentTask {
	return []models.AgentTask{
		{
			ID:          "analyze",
			AgentID:     "analyst-1",
			Role:        models.RoleAnalyst,
			Description: "Analyze this change request and describe which files need to change and how:\n\n" + requirements,
			Context:     repoContext,
		},
		{
			ID:           "develop",
			AgentID:      "developer-1",
			Role:         models.RoleDeveloper,
			Description:  "Implement the change request below. Give the full new content of every file you touch:\n\n" + requirements,
			Dependencies: []string{"analyze"},
			Context:      repoContext,
		},
		{
			ID:           "review",
			AgentID:      "analyst-2",
			Role:         models.RoleAnalyst,
			Description:  "Review the proposed file changes for correctness and completeness. Note any problems.",
			Dependencies: []string{"develop"},
		},
	}
}

// runTaskGraph runs the task graph through the executor and parses the
// develop payload into file changes.
func (p *Pipeline) runTaskGraph(ctx context.Context, workflowID, requirements, repoContext string) (string, string, []models.CodeChange, error) {
	p.stageEvent(workflowID, StageTasks, models.StepRunning, 0, "running analyze, develop, review")

	results := p.runner.Run(ctx, workflowID, TaskGraph(requirements, repoContext))
	for _, id := range []string{"analyze", "develop", "review"} {
		result, ok := results[id]
		if !ok {
			err := fmt.Errorf("task %s produced no result", id)
			p.stageFailed(workflowID, StageTasks, err)
			return "", "", nil, err
		}
		if !result.Success {
			err := fmt.Errorf("task %s failed: %s", id, result.Error)
			p.stageFailed(workflowID, StageTasks, err)
			return "", "", nil, err
		}
	}

	changes := parse.CodeChanges(results["develop"].Content)
	if len(changes) == 0 {
		err := errors.New("no file changes parsed from develop output")
		p.stageFailed(workflowID, StageTasks, err)
		return "", "", nil, err
	}

	p.stageEvent(workflowID, StageTasks, models.StepCompleted, 100,
		fmt.Sprintf("%d file changes proposed", len(changes)))
	return results["analyze"].Content, results["review"].Content, changes, nil
}

type branchInfo struct {
	name string
	base string
}

func (p *Pipeline) createBranch(ctx context.Context, workflowID, defaultBranch string) (branchInfo, error) {
	p.stageEvent(workflowID, StageBranch, models.StepRunning, 0, "creating work branch")

	base := defaultBranch
	if base == "" {
		resolved, err := p.host.DefaultBranch(ctx)
		if err != nil {
			err = fmt.Errorf("resolve default branch: %w", err)
			p.stageFailed(workflowID, StageBranch, err)
			return branchInfo{}, err
		}
		base = resolved
	}

	sha, err := p.host.BranchSHA(ctx, base)
	if err != nil {
		err = fmt.Errorf("resolve %s: %w", base, err)
		p.stageFailed(workflowID, StageBranch, err)
		return branchInfo{}, err
	}

	name := fmt.Sprintf("troupe/%d-%s", time.Now().Unix(), uuid.New().String()[:8])
	if err := p.host.CreateBranch(ctx, name, sha); err != nil {
		err = fmt.Errorf("create branch %s: %w", name, err)
		p.stageFailed(workflowID, StageBranch, err)
		return branchInfo{}, err
	}

	p.stageEvent(workflowID, StageBranch, models.StepCompleted, 100, "created "+name)
	return branchInfo{name: name, base: base}, nil
}

// commitChanges applies every change in list order. Writes are sequential:
// each one must observe the blob SHA left by the previous commit.
func (p *Pipeline) commitChanges(ctx context.Context, workflowID, branch string, changes []models.CodeChange) ([]string, error) {
	shas := make([]string, 0, len(changes))
	for i, change := range changes {
		p.stageEvent(workflowID, StageCommit, models.StepRunning, i*100/len(changes),
			fmt.Sprintf("committing %s (%d/%d)", change.Path, i+1, len(changes)))

		var (
			sha string
			err error
		)
		if change.Action == models.ActionDelete {
			sha, err = p.host.DeleteFile(ctx, branch, change.Path, commitMessage(change))
		} else {
			sha, err = p.host.CommitFile(ctx, branch, change.Path, commitMessage(change), change.Content)
		}
		if err != nil {
			// Files committed before the failure stay on the branch.
			err = fmt.Errorf("commit %s: %w", change.Path, err)
			p.stageFailed(workflowID, StageCommit, err)
			return nil, err
		}
		shas = append(shas, sha)
	}

	p.stageEvent(workflowID, StageCommit, models.StepCompleted, 100,
		fmt.Sprintf("%d commits on %s", len(shas), branch))
	return shas, nil
}

func commitMessage(change models.CodeChange) string {
	switch change.Action {
	case models.ActionCreate:
		return "Add " + change.Path
	case models.ActionDelete:
		return "Remove " + change.Path
	default:
		return "Update " + change.Path
	}
}

func (p *Pipeline) openPullRequest(ctx context.Context, workflowID string, branch branchInfo, requirements, analysis string, changes []models.CodeChange) (*githost.PullRequest, error) {
	p.stageEvent(workflowID, StagePullRequest, models.StepRunning, 0, "opening pull request")

	pr, err := p.host.CreatePullRequest(ctx, pullTitle(requirements),
		pullBody(requirements, analysis, changes), branch.name, branch.base)
	if err != nil {
		err = fmt.Errorf("create pull request: %w", err)
		p.stageFailed(workflowID, StagePullRequest, err)
		return nil, err
	}

	p.stageEvent(workflowID, StagePullRequest, models.StepCompleted, 100, pr.URL)
	return pr, nil
}

func pullTitle(requirements string) string {
	title := strings.TrimSpace(requirements)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	if title == "" {
		title = "Automated change"
	}
	if len(title) > titleLimit {
		title = strings.TrimSpace(title[:titleLimit-3]) + "..."
	}
	return title
}

func pullBody(requirements, analysis string, changes []models.CodeChange) string {
	var b strings.Builder
	b.WriteString("## Request\n\n")
	b.WriteString(strings.TrimSpace(requirements))
	b.WriteString("\n\n## Files\n\n")
	for _, change := range changes {
		fmt.Fprintf(&b, "- `%s` (%s)\n", change.Path, change.Action)
	}
	if excerpt := clip(analysis, analysisExcerptLen); excerpt != "" {
		b.WriteString("\n## Analysis\n\n")
		b.WriteString(excerpt)
		b.WriteString("\n")
	}
	return b.String()
}

func clip(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

// watchDeploy waits for the branch's CI run. A failed or timed-out watch is
// an outcome, not a pipeline error; the pull request stays open unmerged.
func (p *Pipeline) watchDeploy(ctx context.Context, workflowID, branch, prURL string, since time.Time) *models.DeploymentResult {
	p.stageEvent(workflowID, StageDeploy, models.StepRunning, 0, "watching deploy on "+branch)
	start := time.Now()

	watch, err := p.deploy.Await(ctx, workflowID, branch, p.cfg.RunNameFilter, since)
	if err != nil {
		p.stageFailed(workflowID, StageDeploy, err)
		return &models.DeploymentResult{
			Success:        false,
			Duration:       time.Since(start),
			PullRequestURL: prURL,
			Error:          err.Error(),
		}
	}

	result := &models.DeploymentResult{
		Success:        watch.Success,
		Duration:       watch.Elapsed,
		PullRequestURL: prURL,
		RunURL:         watch.Run.URL,
		Conclusion:     watch.Run.Conclusion,
	}
	if watch.Success {
		p.stageEvent(workflowID, StageDeploy, models.StepCompleted, 100, "deploy succeeded: "+watch.Run.URL)
	} else {
		result.Error = fmt.Sprintf("run concluded %s", watch.Run.Conclusion)
		p.stageEvent(workflowID, StageDeploy, models.StepFailed, 100,
			fmt.Sprintf("deploy concluded %s: %s", watch.Run.Conclusion, watch.Run.URL))
	}
	return result
}

// mergePullRequest merges after a successful deploy. A refused merge is
// recorded on the outcome; the deployment verdict stands.
func (p *Pipeline) mergePullRequest(ctx context.Context, workflowID string, pr *githost.PullRequest, outcome *Outcome) {
	p.stageEvent(workflowID, StageMerge, models.StepRunning, 0,
		fmt.Sprintf("merging pull request #%d", pr.Number))

	if err := p.host.MergePullRequest(ctx, pr.Number, p.cfg.MergeMethod); err != nil {
		outcome.MergeError = err.Error()
		if outcome.Deployment != nil {
			outcome.Deployment.Merged = false
		}
		p.stageFailed(workflowID, StageMerge, err)
		return
	}

	outcome.Merged = true
	if outcome.Deployment != nil {
		outcome.Deployment.Merged = true
	}
	p.stageEvent(workflowID, StageMerge, models.StepCompleted, 100,
		fmt.Sprintf("merged pull request #%d", pr.Number))
}
