package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/troupelabs/troupe/pkg/models"
)

func TestDefaultPersonasCoverEveryRole(t *testing.T) {
	personas := DefaultPersonas()

	roles := []models.AgentRole{
		models.RolePlanner, models.RoleResearcher, models.RoleWriter,
		models.RoleTranslator, models.RoleDeveloper, models.RoleAnalyst,
	}
	for _, role := range roles {
		if personas.Persona(role) == "" {
			t.Errorf("role %s has no persona", role)
		}
	}
}

func TestPersonaFallbackForUnknownRole(t *testing.T) {
	personas := DefaultPersonas()

	got := personas.Persona(models.AgentRole("juggler"))
	if got == "" {
		t.Fatal("expected fallback persona for unknown role")
	}
	if got == personas.Persona(models.RoleWriter) {
		t.Error("fallback persona should not match a role persona")
	}
}

func TestLoadPersonaOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")

	content := "personas:\n" +
		"  writer: \"Custom writer instructions.\"\n" +
		"  juggler: \"Unknown roles are ignored.\"\n" +
		"  analyst: \"\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write overrides: %v", err)
	}

	personas, err := LoadPersonaOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := personas.Persona(models.RoleWriter); got != "Custom writer instructions." {
		t.Errorf("writer persona not overridden, got %q", got)
	}
	if got := personas.Persona(models.RoleAnalyst); got == "" {
		t.Error("blank override should keep the default persona")
	}
	if len(personas) != len(DefaultPersonas()) {
		t.Errorf("unknown role leaked into personas: %d entries", len(personas))
	}
}

func TestLoadPersonaOverridesMissingFile(t *testing.T) {
	personas, err := LoadPersonaOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(personas) != len(DefaultPersonas()) {
		t.Errorf("expected defaults, got %d entries", len(personas))
	}
}

func TestBuildUserPromptSections(t *testing.T) {
	req := Request{
		Role:        models.RoleWriter,
		Description: "Write the digest.",
		Context:     "Audience: engineers.",
		Prior:       []string{"item one", "item two"},
	}

	prompt := buildUserPrompt(req, 0)

	if !strings.HasPrefix(prompt, "Write the digest.") {
		t.Errorf("prompt should start with the description, got %q", prompt)
	}
	if !strings.Contains(prompt, "Audience: engineers.") {
		t.Error("prompt missing task context")
	}
	if !strings.Contains(prompt, "item one") || !strings.Contains(prompt, "item two") {
		t.Error("prompt missing prior results")
	}
	if strings.Index(prompt, "item one") > strings.Index(prompt, "item two") {
		t.Error("prior results out of order")
	}
}

func TestBuildUserPromptTruncatesPrior(t *testing.T) {
	long := strings.Repeat("alpha beta gamma delta ", 400)
	req := Request{
		Role:        models.RoleTranslator,
		Description: "Translate.",
		Prior:       []string{long},
	}

	prompt := buildUserPrompt(req, 50)

	if len(prompt) >= len(long) {
		t.Errorf("expected truncation, prompt length %d", len(prompt))
	}
	if !strings.Contains(prompt, "...") {
		t.Error("truncated prior should end with an ellipsis")
	}
}
