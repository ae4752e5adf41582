// Package parse extracts structured records from free-form agent output.
// Both parsers are lenient by contract: malformed input yields fewer
// records, never an error.
package parse

import (
	"regexp"
	"strings"

	"github.com/troupelabs/troupe/pkg/models"
)

var (
	backtickPattern = regexp.MustCompile("`([^`\n]+)`")
	pathPattern     = regexp.MustCompile(`[A-Za-z0-9_][A-Za-z0-9_.\-/]*\.[A-Za-z0-9]+`)
)

// hintPrefixes mark lines that name a file even without a slash in the path.
var hintPrefixes = []string{"file:", "path:", "create", "update", "delete", "add", "modify", "new file"}

// CodeChanges scans text for fenced code blocks, each paired with the
// closest preceding file-path hint line. Blocks without a hint, and blocks
// whose fence never closes, are dropped.
func CodeChanges(text string) []models.CodeChange {
	var changes []models.CodeChange

	var hintPath string
	var hintAction models.ChangeAction
	var block []string
	inFence := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if !inFence {
				inFence = true
				block = block[:0]
				continue
			}
			inFence = false
			if hintPath != "" {
				changes = append(changes, models.CodeChange{
					Path:    hintPath,
					Content: strings.TrimSpace(strings.Join(block, "\n")),
					Action:  hintAction,
				})
				hintPath = ""
			}
			continue
		}

		if inFence {
			block = append(block, line)
			continue
		}

		if path := extractPathHint(trimmed); path != "" {
			hintPath = path
			hintAction = inferAction(trimmed)
		}
	}

	return changes
}

// extractPathHint returns the file path named by a line, or empty when the
// line is not a path hint.
func extractPathHint(line string) string {
	if line == "" || len(line) > 200 {
		return ""
	}

	if m := backtickPattern.FindStringSubmatch(line); m != nil {
		if candidate := pathPattern.FindString(m[1]); candidate == strings.TrimSpace(m[1]) && candidate != "" {
			return cleanPath(candidate)
		}
	}

	candidate := pathPattern.FindString(line)
	if candidate == "" {
		return ""
	}

	// A bare extension match needs supporting context; a slashed path is
	// convincing on its own.
	if strings.Contains(candidate, "/") {
		return cleanPath(candidate)
	}
	stripped := strings.ToLower(strings.TrimLeft(line, "#*->1234567890. \t"))
	for _, prefix := range hintPrefixes {
		if strings.HasPrefix(stripped, prefix) {
			return cleanPath(candidate)
		}
	}
	return ""
}

// inferAction reads the operation out of the hint line; update is the
// default.
func inferAction(line string) models.ChangeAction {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "delete") || strings.Contains(lower, "remove"):
		return models.ActionDelete
	case strings.Contains(lower, "create") || strings.Contains(lower, "new file") || strings.Contains(lower, "add "):
		return models.ActionCreate
	default:
		return models.ActionUpdate
	}
}

func cleanPath(path string) string {
	return strings.Trim(path, "`'\":,. ")
}
