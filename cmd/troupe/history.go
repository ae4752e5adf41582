package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/troupelabs/troupe/internal/config"
	"github.com/troupelabs/troupe/internal/state"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [workflow-id]",
	Short: "Show recent workflow runs",
	Long: `List recent workflow invocations from the run history.

With a workflow id, shows the stored progress events for that run
instead.

History is stored at ~/.local/share/troupe/troupe.db and can be
disabled with history.enabled in the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := historyPath(cfg)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No run history yet. Run 'troupe news' or 'troupe modify' first.")
		return nil
	}

	db, err := state.Open(path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}

	if len(args) == 1 {
		return showWorkflow(db, args[0])
	}
	return listWorkflows(db)
}

func listWorkflows(db *state.DB) error {
	records, err := db.ListRecent(historyLimit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No run history yet. Run 'troupe news' or 'troupe modify' first.")
		return nil
	}

	for _, rec := range records {
		glyph := color.RedString("✗")
		if rec.Success {
			glyph = color.GreenString("✓")
		}

		fmt.Printf("%s %s  %-6s %-8s  %s ago  %s\n",
			glyph, rec.ID, rec.Kind, rec.Source,
			formatDuration(time.Since(rec.StartedAt)),
			truncate(rec.Subject, 60))
		if rec.PullRequestURL != "" {
			fmt.Printf("    %s\n", rec.PullRequestURL)
		}
	}
	return nil
}

func showWorkflow(db *state.DB, id string) error {
	rec, err := db.GetWorkflow(id)
	if err != nil {
		return fmt.Errorf("get workflow: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no workflow %q in history", id)
	}

	fmt.Printf("Workflow %s (%s, %s)\n", rec.ID, rec.Kind, rec.Source)
	fmt.Printf("  Subject: %s\n", rec.Subject)
	fmt.Printf("  Started: %s\n", rec.StartedAt.Local().Format(time.RFC822))
	if rec.FinishedAt != nil {
		fmt.Printf("  Duration: %s\n", formatDuration(rec.FinishedAt.Sub(rec.StartedAt)))
	}
	if rec.PullRequestURL != "" {
		fmt.Printf("  Pull request: %s\n", rec.PullRequestURL)
	}

	events, err := db.Events(id)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println("Events:")
	for _, ev := range events {
		line := fmt.Sprintf("  [%3d%%] %-10s %s", ev.Progress, ev.Status, ev.StepID)
		if ev.AgentID != "" {
			line += fmt.Sprintf(" (%s)", ev.AgentID)
		}
		if ev.Message != "" {
			line += ": " + truncate(ev.Message, 80)
		}
		fmt.Println(line)
	}
	return nil
}
