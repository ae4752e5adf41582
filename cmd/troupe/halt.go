package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/troupelabs/troupe/internal/config"
	"github.com/troupelabs/troupe/internal/control"
)

var haltCmd = &cobra.Command{
	Use:   "halt",
	Short: "Stop a running workflow between task batches",
	Long: `Write the halt signal into the control directory. A workflow running in
another terminal stops dispatching new task batches once it sees the
signal; tasks already in flight finish first.

The signal stays in place until 'troupe resume' removes it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, err := openSignals()
		if err != nil {
			return err
		}
		defer signals.Close()

		if err := signals.Halt(); err != nil {
			return fmt.Errorf("write halt signal: %w", err)
		}
		fmt.Printf("Halt signal written to %s. Running workflows stop at the next batch boundary.\n", signals.Dir())
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Remove the halt signal",
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, err := openSignals()
		if err != nil {
			return err
		}
		defer signals.Close()

		signals.Clear()
		fmt.Println("Halt signal removed.")
		return nil
	},
}

var guideCmd = &cobra.Command{
	Use:   "guide [text]",
	Short: "Set guidance text folded into future agent tasks",
	Long: `Store operator guidance in the control directory. Workflows started
afterwards fold the text into every agent task's context.

Without arguments, shows the current guidance. 'troupe guide --clear'
removes it.`,
	RunE: runGuide,
}

var guideClear bool

func init() {
	guideCmd.Flags().BoolVar(&guideClear, "clear", false, "Remove the stored guidance")
}

func runGuide(cmd *cobra.Command, args []string) error {
	signals, err := openSignals()
	if err != nil {
		return err
	}
	defer signals.Close()

	if guideClear {
		if err := signals.SetGuidance(""); err != nil {
			return fmt.Errorf("clear guidance: %w", err)
		}
		fmt.Println("Guidance cleared.")
		return nil
	}

	if len(args) == 0 {
		current := strings.TrimSpace(signals.Guidance())
		if current == "" {
			fmt.Println("No guidance set.")
			return nil
		}
		fmt.Println(current)
		return nil
	}

	text := strings.Join(args, " ")
	if err := signals.SetGuidance(text + "\n"); err != nil {
		return fmt.Errorf("write guidance: %w", err)
	}
	fmt.Println("Guidance stored. New workflows fold it into every task.")
	return nil
}

// openSignals opens the control directory configured for this project.
func openSignals() (*control.Signals, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	signals, err := control.Open(cfg.Workflow.ControlDir)
	if err != nil {
		return nil, fmt.Errorf("open control directory: %w", err)
	}
	return signals, nil
}
