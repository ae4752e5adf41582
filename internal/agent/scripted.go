package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/troupelabs/troupe/pkg/models"
)

// scriptedModel is the model label stamped on scripted results.
const scriptedModel = "scripted"

// Scripted is a deterministic Invoker used when the real endpoint is
// unavailable. Output depends only on the request, performs no I/O, and is
// shaped so the downstream parsers still find records in it.
type Scripted struct{}

// NewScripted creates the deterministic invoker.
func NewScripted() *Scripted {
	return &Scripted{}
}

// Execute produces canned role-shaped content for the request.
func (s *Scripted) Execute(_ context.Context, req Request) models.TaskResult {
	content := scriptedContent(req)
	return models.TaskResult{
		Success: true,
		Content: content,
		Metadata: &models.ResultMetadata{
			LatencyMS: 0,
			Tokens:    int64(CountTokens(content)),
			Model:     scriptedModel,
		},
	}
}

func scriptedContent(req Request) string {
	subject := excerpt(req.Description, 80)
	prior := strings.Join(req.Prior, "\n\n")

	switch req.Role {
	case models.RolePlanner:
		return fmt.Sprintf("1. Clarify the goal: %s\n"+
			"2. Gather the inputs each step needs\n"+
			"3. Execute the steps in dependency order\n"+
			"4. Review the combined outcome", subject)

	case models.RoleResearcher:
		return fmt.Sprintf("1. **Overview of %[1]s** - A broad look at the current "+
			"state of the topic. https://example.com/overview\n"+
			"2. **Recent developments in %[1]s** - Notable changes reported in the "+
			"last cycle. https://example.com/developments\n"+
			"3. **Outlook for %[1]s** - What observers expect to happen next. "+
			"https://example.com/outlook", subject)

	case models.RoleWriter:
		if prior != "" {
			return fmt.Sprintf("Digest of the collected material on %s.\n\n%s", subject, prior)
		}
		return fmt.Sprintf("Digest of the collected material on %s.\n\n"+
			"1. **%s** - No live material was gathered; this entry summarizes the "+
			"request itself.", subject, subject)

	case models.RoleTranslator:
		if prior != "" {
			return fmt.Sprintf("Translated text:\n\n%s", prior)
		}
		return fmt.Sprintf("Translated text:\n\n%s", subject)

	case models.RoleDeveloper:
		return fmt.Sprintf("The requested change could not be implemented against "+
			"the live endpoint, so the plan is recorded as a document.\n\n"+
			"Create File: docs/proposed-change.md\n"+
			"```markdown\n"+
			"# Proposed change\n\n"+
			"%s\n\n"+
			"This file was generated by the offline path; re-run the workflow with "+
			"the endpoint available to produce the real implementation.\n"+
			"```", req.Description)

	case models.RoleAnalyst:
		return fmt.Sprintf("Findings: the request (%s) was processed offline, so "+
			"no live analysis was possible.\n"+
			"Risks: the produced artifacts are placeholders.\n"+
			"Recommendation: re-run the workflow once the completion endpoint is "+
			"reachable.", subject)

	default:
		return fmt.Sprintf("Completed offline: %s", subject)
	}
}

// excerpt returns the first line of s, cut to at most n runes.
func excerpt(s string, n int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
