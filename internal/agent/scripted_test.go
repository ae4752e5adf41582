package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/troupelabs/troupe/pkg/models"
)

func TestScriptedAlwaysSucceeds(t *testing.T) {
	scripted := NewScripted()

	roles := []models.AgentRole{
		models.RolePlanner, models.RoleResearcher, models.RoleWriter,
		models.RoleTranslator, models.RoleDeveloper, models.RoleAnalyst,
		models.AgentRole("juggler"),
	}
	for _, role := range roles {
		result := scripted.Execute(context.Background(), Request{
			Role:        role,
			AgentID:     "agent-1",
			Description: "Summarize quantum computing news.",
		})
		if !result.Success {
			t.Errorf("role %s: expected success, got error %q", role, result.Error)
		}
		if result.Content == "" {
			t.Errorf("role %s: expected content", role)
		}
		if result.Metadata == nil || result.Metadata.Model != scriptedModel {
			t.Errorf("role %s: expected scripted model metadata", role)
		}
	}
}

func TestScriptedIsDeterministic(t *testing.T) {
	scripted := NewScripted()
	req := Request{Role: models.RoleResearcher, Description: "space telescopes"}

	first := scripted.Execute(context.Background(), req)
	second := scripted.Execute(context.Background(), req)

	if first.Content != second.Content {
		t.Error("scripted output should be identical across calls")
	}
}

func TestScriptedDeveloperOutputHasFencedFile(t *testing.T) {
	scripted := NewScripted()
	result := scripted.Execute(context.Background(), Request{
		Role:        models.RoleDeveloper,
		Description: "Add a health endpoint.",
	})

	if !strings.Contains(result.Content, "File: ") {
		t.Error("developer output missing a file path hint")
	}
	if strings.Count(result.Content, "```") < 2 {
		t.Error("developer output missing a fenced block")
	}
}

func TestScriptedTranslatorUsesPriorText(t *testing.T) {
	scripted := NewScripted()
	result := scripted.Execute(context.Background(), Request{
		Role:        models.RoleTranslator,
		Description: "Translate into Spanish.",
		Prior:       []string{"1. **Headline** - Summary."},
	})

	if !strings.Contains(result.Content, "Headline") {
		t.Error("translator output should carry the prior text through")
	}
}
