// Package pullreq drives a change request from task graph to merged pull
// request: fetch context, run the analyze/develop/review graph, branch,
// commit, open the PR, watch the deploy run, merge.
package pullreq

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/troupelabs/troupe/internal/githost"
	"github.com/troupelabs/troupe/internal/monitor"
	"github.com/troupelabs/troupe/internal/progress"
	"github.com/troupelabs/troupe/pkg/models"
)

// Stage identifiers used in progress events and stage errors.
const (
	StageFetchContext = "fetch-context"
	StageTasks        = "tasks"
	StageBranch       = "branch"
	StageCommit       = "commit"
	StagePullRequest  = "pull-request"
	StageDeploy       = monitor.StepID
	StageMerge        = "merge"
)

// Host is the slice of the source-hosting client the pipeline needs.
type Host interface {
	Repo() string
	DefaultBranch(ctx context.Context) (string, error)
	BranchSHA(ctx context.Context, branch string) (string, error)
	CreateBranch(ctx context.Context, name, fromSHA string) error
	ListFiles(ctx context.Context, ref string) ([]string, error)
	GetFile(ctx context.Context, path, ref string) (*githost.RepoFile, error)
	CommitFile(ctx context.Context, branch, path, message, content string) (string, error)
	DeleteFile(ctx context.Context, branch, path, message string) (string, error)
	CreatePullRequest(ctx context.Context, title, body, head, base string) (*githost.PullRequest, error)
	MergePullRequest(ctx context.Context, number int, method string) error
}

// GraphRunner executes a task graph and returns a result per task id.
type GraphRunner interface {
	Run(ctx context.Context, workflowID string, tasks []models.AgentTask) map[string]models.TaskResult
}

// Deployer watches a branch's CI run until it settles or times out.
type Deployer interface {
	Await(ctx context.Context, workflowID, branch, nameFilter string, since time.Time) (*monitor.Outcome, error)
}

// StageError tags a failure with the stage it happened in. Stages after it
// never start.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Outcome is the pipeline's final report. Once a pull request exists, deploy
// or merge trouble is reported here rather than as an error.
type Outcome struct {
	Success        bool
	Branch         string
	CommitSHAs     []string
	PullRequestURL string
	PullNumber     int
	Analysis       string
	Review         string
	Changes        []models.CodeChange
	Deployment     *models.DeploymentResult
	Merged         bool
	MergeError     string
}

// Config tunes pipeline behavior.
type Config struct {
	// RunNameFilter narrows which CI workflow the deploy stage watches.
	RunNameFilter string
	// MergeMethod is passed to the merge call; empty means squash.
	MergeMethod string
}

// Pipeline is the seven-stage pull-request lifecycle. Stages are fail-fast
// and nothing is rolled back: a branch, commits, or PR created before a
// failure stay in place.
type Pipeline struct {
	host   Host
	runner GraphRunner
	deploy Deployer
	bus    *progress.Bus
	cfg    Config
}

func New(host Host, runner GraphRunner, deploy Deployer, bus *progress.Bus, cfg Config) *Pipeline {
	return &Pipeline{host: host, runner: runner, deploy: deploy, bus: bus, cfg: cfg}
}

// Run executes the lifecycle for one change request. Errors from the graph,
// branch, commit, and pull-request stages return a *StageError; deploy
// failures and timeouts instead produce an Outcome with Success=false and
// the pull request URL populated, and no merge is attempted.
func (p *Pipeline) Run(ctx context.Context, workflowID, requirements string) (*Outcome, error) {
	log.Printf("[pullreq] workflow %s: starting pipeline against %s", workflowID, p.host.Repo())
	// Allow some clock skew between this host and the CI system when
	// filtering runs by creation time.
	since := time.Now().UTC().Add(-time.Minute)

	repoContext, defaultBranch := p.fetchContext(ctx, workflowID)

	analysis, review, changes, err := p.runTaskGraph(ctx, workflowID, requirements, repoContext)
	if err != nil {
		return nil, &StageError{Stage: StageTasks, Err: err}
	}
	outcome := &Outcome{Analysis: analysis, Review: review, Changes: changes}

	branch, err := p.createBranch(ctx, workflowID, defaultBranch)
	if err != nil {
		return nil, &StageError{Stage: StageBranch, Err: err}
	}
	outcome.Branch = branch.name

	shas, err := p.commitChanges(ctx, workflowID, branch.name, changes)
	if err != nil {
		return nil, &StageError{Stage: StageCommit, Err: err}
	}
	outcome.CommitSHAs = shas

	pr, err := p.openPullRequest(ctx, workflowID, branch, requirements, analysis, changes)
	if err != nil {
		return nil, &StageError{Stage: StagePullRequest, Err: err}
	}
	outcome.PullRequestURL = pr.URL
	outcome.PullNumber = pr.Number

	deployment := p.watchDeploy(ctx, workflowID, branch.name, pr.URL, since)
	outcome.Deployment = deployment
	if !deployment.Success {
		log.Printf("[pullreq] workflow %s: deploy did not succeed, leaving %s unmerged", workflowID, pr.URL)
		outcome.Success = false
		return outcome, nil
	}

	p.mergePullRequest(ctx, workflowID, pr, outcome)
	outcome.Success = true
	log.Printf("[pullreq] workflow %s: pipeline finished (merged=%v)", workflowID, outcome.Merged)
	return outcome, nil
}

func (p *Pipeline) stageEvent(workflowID, stage string, status models.StepStatus, pct int, message string) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(models.WorkflowProgress{
		WorkflowID: workflowID,
		StepID:     stage,
		Status:     status,
		Progress:   pct,
		Message:    message,
	})
}

func (p *Pipeline) stageFailed(workflowID, stage string, err error) {
	p.stageEvent(workflowID, stage, models.StepFailed, 100, err.Error())
	log.Printf("[pullreq] workflow %s: stage %s failed: %v", workflowID, stage, err)
}
