package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/troupelabs/troupe/internal/agent"
	"github.com/troupelabs/troupe/internal/progress"
	"github.com/troupelabs/troupe/pkg/models"
)

// progressPrinter returns a bus handler that prints one status line per
// progress event.
func progressPrinter() progress.Handler {
	return func(p models.WorkflowProgress) {
		glyph, attr := statusGlyph(p.Status)
		line := fmt.Sprintf("[%3d%%] %s %s", p.Progress, color.New(attr).Sprint(glyph), p.StepID)
		if p.AgentID != "" {
			line += fmt.Sprintf(" (%s)", p.AgentID)
		}
		if p.Message != "" {
			line += ": " + p.Message
		}
		fmt.Println(line)
	}
}

func statusGlyph(s models.StepStatus) (string, color.Attribute) {
	switch s {
	case models.StepCompleted:
		return "✓", color.FgGreen
	case models.StepFailed:
		return "✗", color.FgRed
	case models.StepRunning:
		return "→", color.FgYellow
	default:
		return "·", color.FgWhite
	}
}

func sourceLabel(s models.ResultSource) string {
	if s == models.SourceLive {
		return color.GreenString("live")
	}
	return color.YellowString("scripted")
}

// renderNewsResult prints the digest, its translation, and the parsed
// source links.
func renderNewsResult(res *models.NewsResult) {
	fmt.Println()
	fmt.Printf("News digest: %s\n", res.Topic)
	fmt.Printf("  Workflow: %s\n", res.WorkflowID)
	fmt.Printf("  Source: %s\n", sourceLabel(res.Source))

	if res.Digest != "" {
		fmt.Println()
		fmt.Println("Digest:")
		fmt.Println(indent(res.Digest, "  "))
	}
	if res.Translated != "" {
		fmt.Println()
		fmt.Printf("Translated (%s):\n", res.TargetLanguage)
		fmt.Println(indent(res.Translated, "  "))
	}

	var links []string
	for _, a := range res.Articles {
		if a.URL != "" {
			links = append(links, fmt.Sprintf("  %s\n    %s", a.Title, a.URL))
		}
	}
	if len(links) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, l := range links {
			fmt.Println(l)
		}
	}
}

// renderRepoResult prints the outcome of the modify workflow.
func renderRepoResult(res *models.RepoResult) {
	fmt.Println()
	if res.Success {
		fmt.Printf("%s Change shipped\n", color.GreenString("✓"))
	} else {
		fmt.Printf("%s Change did not ship\n", color.RedString("✗"))
	}
	fmt.Printf("  Workflow: %s\n", res.WorkflowID)
	fmt.Printf("  Source: %s\n", sourceLabel(res.Source))
	if res.PullRequestURL != "" {
		fmt.Printf("  Pull request: %s\n", res.PullRequestURL)
	}

	if len(res.Changes) > 0 {
		fmt.Printf("  Files (%d):\n", len(res.Changes))
		for _, c := range res.Changes {
			fmt.Printf("    %-6s %s\n", c.Action, c.Path)
		}
	}

	if d := res.Deployment; d != nil {
		fmt.Println("  Deployment:")
		if d.RunURL != "" {
			fmt.Printf("    Run: %s\n", d.RunURL)
		}
		if d.Conclusion != "" {
			fmt.Printf("    Conclusion: %s\n", d.Conclusion)
		}
		if d.Duration > 0 {
			fmt.Printf("    Watched for: %s\n", formatDuration(d.Duration))
		}
		if d.Error != "" {
			fmt.Printf("    %s\n", color.RedString(d.Error))
		}
		fmt.Printf("    Merged: %t\n", d.Merged)
	}
}

// printUsage reports token consumption for the live client, if any calls
// were made.
func printUsage(client *agent.Client) {
	if client == nil {
		return
	}
	tracker := client.Tracker()
	in, out := tracker.Total()
	if in+out == 0 {
		return
	}
	fmt.Printf("\nTokens: %s in / %s out over %d calls (est. $%.4f)\n",
		formatNumber(int(in)), formatNumber(int(out)), tracker.Calls(), tracker.Cost())
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// truncate shortens s to max runes for one-line listings.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}

// formatNumber formats a number with commas.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	offset := len(s) % 3
	if offset > 0 {
		result.WriteString(s[:offset])
		if len(s) > offset {
			result.WriteString(",")
		}
	}
	for i := offset; i < len(s); i += 3 {
		result.WriteString(s[i : i+3])
		if i+3 < len(s) {
			result.WriteString(",")
		}
	}
	return result.String()
}
