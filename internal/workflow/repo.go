package workflow

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/troupelabs/troupe/internal/parse"
	"github.com/troupelabs/troupe/internal/pullreq"
	"github.com/troupelabs/troupe/pkg/models"
)

// scriptedPullURL is the synthetic pull request URL stamped on scripted
// repository results.
const scriptedPullURL = "https://github.com/example/demo/pull/1"

// RunRepo executes the modify-repository workflow: the pull-request
// lifecycle end to end. Stage failures before the pull request exists drop
// to the scripted fallback; deploy or merge trouble after that point is a
// real outcome and is returned as-is.
func (s *Service) RunRepo(ctx context.Context, requirements string) *models.RepoResult {
	workflowID := uuid.New().String()[:8]

	if s.offline || s.pipeline == nil {
		log.Printf("[workflow] %s: modify-repository (offline)", workflowID)
		return s.scriptedRepoResult(ctx, workflowID, requirements)
	}

	log.Printf("[workflow] %s: modify-repository", workflowID)
	outcome, err := s.pipeline.Run(ctx, workflowID, s.withGuidance(requirements))
	if err == nil {
		return liveRepoResult(workflowID, requirements, outcome)
	}
	if s.halted() {
		log.Printf("[workflow] %s: halted, not falling back", workflowID)
		return &models.RepoResult{
			WorkflowID:   workflowID,
			Success:      false,
			Requirements: requirements,
			Source:       models.SourceLive,
		}
	}

	s.fallbackEvent(workflowID, "pipeline failed ("+err.Error()+"), switching to scripted fallback")
	return s.scriptedRepoResult(ctx, workflowID, requirements)
}

// withGuidance appends operator guidance to the change request so the
// pipeline's task graph sees it.
func (s *Service) withGuidance(requirements string) string {
	guidance := s.guidance()
	if guidance == "" {
		return requirements
	}
	return requirements + "\n\nOperator guidance:\n" + guidance
}

func liveRepoResult(workflowID, requirements string, outcome *pullreq.Outcome) *models.RepoResult {
	return &models.RepoResult{
		WorkflowID:     workflowID,
		Success:        outcome.Success,
		Requirements:   requirements,
		Analysis:       outcome.Analysis,
		Review:         outcome.Review,
		Changes:        outcome.Changes,
		PullRequestURL: outcome.PullRequestURL,
		Deployment:     outcome.Deployment,
		Source:         models.SourceLive,
	}
}

// scriptedRepoResult replays the pipeline's task graph with the scripted
// invoker, so observers see the usual event stream, and fills the rest of
// the result with synthetic but well-formed values.
func (s *Service) scriptedRepoResult(ctx context.Context, workflowID, requirements string) *models.RepoResult {
	results := s.fallback.Run(ctx, workflowID, pullreq.TaskGraph(requirements, ""))
	changes := parse.CodeChanges(results["develop"].Content)

	return &models.RepoResult{
		WorkflowID:     workflowID,
		Success:        false,
		Requirements:   requirements,
		Analysis:       results["analyze"].Content,
		Review:         results["review"].Content,
		Changes:        changes,
		PullRequestURL: scriptedPullURL,
		Deployment: &models.DeploymentResult{
			Success:        false,
			PullRequestURL: scriptedPullURL,
			Error:          "scripted fallback: no live deployment",
		},
		Source: models.SourceScripted,
	}
}
