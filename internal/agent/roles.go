package agent

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/troupelabs/troupe/pkg/models"
)

// Personas maps each role to its system-prompt template.
type Personas map[models.AgentRole]string

// DefaultPersonas returns the built-in persona template for every role.
func DefaultPersonas() Personas {
	return Personas{
		models.RolePlanner: "You are a planning agent. Break the goal into a short, " +
			"ordered list of concrete steps. Number each step and keep every step " +
			"independently actionable.",
		models.RoleResearcher: "You are a research agent. Gather the most relevant " +
			"recent items on the topic. Present each item as a numbered entry with a " +
			"bolded headline, a one-or-two sentence summary, and a source URL when " +
			"you know one.",
		models.RoleWriter: "You are a writing agent. Turn the provided research into " +
			"a clear digest. Keep the numbered item structure, tighten the prose, and " +
			"open with a one-paragraph overview.",
		models.RoleTranslator: "You are a translation agent. Translate the provided " +
			"text faithfully into the requested language. Preserve list structure, " +
			"numbers, names, and URLs exactly.",
		models.RoleDeveloper: "You are a software developer agent. Implement the " +
			"requested changes as complete files. For every file, write a line " +
			"'File: <path>' followed by a fenced code block containing the full file " +
			"content. Prefix the File line with 'Create', 'Update', or 'Delete' when " +
			"the action is not an update.",
		models.RoleAnalyst: "You are an analysis agent. Examine the provided " +
			"material carefully and report your findings, risks, and concrete " +
			"recommendations in plain prose.",
	}
}

// Persona returns the template for a role, falling back to a generic
// assistant instruction for unknown roles.
func (p Personas) Persona(role models.AgentRole) string {
	if t, ok := p[role]; ok {
		return t
	}
	return "You are a helpful agent. Complete the task precisely and concisely."
}

// personaFile is the on-disk shape of a persona overrides file.
type personaFile struct {
	Personas map[string]string `yaml:"personas"`
}

// LoadPersonaOverrides reads a YAML overrides file and returns the defaults
// with the listed roles replaced. A missing file is not an error; the
// defaults are returned unchanged.
func LoadPersonaOverrides(path string) (Personas, error) {
	personas := DefaultPersonas()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return personas, nil
		}
		return nil, fmt.Errorf("read persona overrides: %w", err)
	}

	var file personaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse persona overrides: %w", err)
	}

	for name, text := range file.Personas {
		role := models.AgentRole(name)
		if !role.Valid() || strings.TrimSpace(text) == "" {
			continue
		}
		personas[role] = text
	}
	return personas, nil
}

// buildUserPrompt assembles the user-turn text for one request. Prior result
// content is appended as a continuation and truncated to priorBudget tokens
// so wide graphs cannot balloon the prompt.
func buildUserPrompt(req Request, priorBudget int) string {
	var b strings.Builder
	b.WriteString(req.Description)

	if req.Context != "" {
		b.WriteString("\n\nContext:\n")
		b.WriteString(req.Context)
	}

	if len(req.Prior) > 0 {
		prior := strings.Join(req.Prior, "\n\n---\n\n")
		if priorBudget > 0 {
			prior = Truncate(prior, priorBudget)
		}
		b.WriteString("\n\nResults from earlier steps:\n")
		b.WriteString(prior)
	}

	return b.String()
}
