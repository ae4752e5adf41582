package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/troupelabs/troupe/internal/parse"
	"github.com/troupelabs/troupe/pkg/models"
)

// RunNews executes the collect-and-translate workflow: a researcher gathers
// items on the topic, a writer turns them into a digest, a translator
// renders the digest in the target language. The digest is also parsed into
// individual articles.
func (s *Service) RunNews(ctx context.Context, topic, targetLanguage string) *models.NewsResult {
	workflowID := uuid.New().String()[:8]
	tasks := s.newsTasks(topic, targetLanguage)

	if s.offline {
		log.Printf("[workflow] %s: collect-and-translate %q (offline)", workflowID, topic)
		results := s.fallback.Run(ctx, workflowID, tasks)
		return newsResult(workflowID, topic, targetLanguage, results, models.SourceScripted)
	}

	log.Printf("[workflow] %s: collect-and-translate %q into %s", workflowID, topic, targetLanguage)
	results := s.live.Run(ctx, workflowID, tasks)
	if !newsPathFailed(results) {
		return newsResult(workflowID, topic, targetLanguage, results, models.SourceLive)
	}
	if s.halted() {
		// Operator stop, not an endpoint failure; report what there is.
		return newsResult(workflowID, topic, targetLanguage, results, models.SourceLive)
	}

	s.fallbackEvent(workflowID, "completion path failed, switching to scripted fallback")
	results = s.fallback.Run(ctx, workflowID, tasks)
	return newsResult(workflowID, topic, targetLanguage, results, models.SourceScripted)
}

func (s *Service) newsTasks(topic, targetLanguage string) []models.AgentTask {
	taskContext := s.guidance()
	return []models.AgentTask{
		{
			ID:      "collect",
			AgentID: "researcher-1",
			Role:    models.RoleResearcher,
			Description: fmt.Sprintf("Collect the most important recent news about %s. "+
				"List each item on its own numbered line with a short summary and a source URL.", topic),
			Context: taskContext,
		},
		{
			ID:      "digest",
			AgentID: "writer-1",
			Role:    models.RoleWriter,
			Description: "Write a concise digest of the collected news items, keeping the " +
				"numbered list form with titles, summaries, and URLs.",
			Dependencies: []string{"collect"},
			Context:      taskContext,
		},
		{
			ID:      "translate",
			AgentID: "translator-1",
			Role:    models.RoleTranslator,
			Description: fmt.Sprintf("Translate the digest into %s, preserving the list "+
				"structure and the URLs.", targetLanguage),
			Dependencies: []string{"digest"},
			Context:      taskContext,
		},
	}
}

// newsPathFailed reports whether any step of the critical path failed.
func newsPathFailed(results map[string]models.TaskResult) bool {
	for _, id := range []string{"collect", "digest", "translate"} {
		if !results[id].Success {
			return true
		}
	}
	return false
}

func newsResult(workflowID, topic, targetLanguage string, results map[string]models.TaskResult, source models.ResultSource) *models.NewsResult {
	digest := results["digest"].Content
	return &models.NewsResult{
		WorkflowID:     workflowID,
		Topic:          topic,
		TargetLanguage: targetLanguage,
		Digest:         digest,
		Translated:     results["translate"].Content,
		Articles:       parse.NewsArticles(digest),
		Source:         source,
	}
}
