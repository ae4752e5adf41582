package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/troupelabs/troupe/internal/config"
)

var (
	newsLanguage string
	newsOffline  bool
	newsQuiet    bool
)

var newsCmd = &cobra.Command{
	Use:   "news <topic>",
	Short: "Collect news on a topic and translate the digest",
	Long: `Run the news workflow: a researcher agent collects recent items on the
topic, a writer condenses them into a digest, and a translator renders the
digest in the target language. The three tasks run as a dependency-ordered
graph and report progress as they settle.

If the completion endpoint is unreachable the same graph is replayed with
scripted agents, so the command always produces a digest; the result is
labeled 'scripted' in that case.

Examples:
  troupe news "open source licensing"
  troupe news --language German "supply chain security"
  troupe news --offline "anything"   # deterministic demo run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNews,
}

func init() {
	newsCmd.Flags().StringVarP(&newsLanguage, "language", "l", "", "Target language for the digest (default from config)")
	newsCmd.Flags().BoolVar(&newsOffline, "offline", false, "Run scripted agents only, no external calls")
	newsCmd.Flags().BoolVarP(&newsQuiet, "quiet", "q", false, "Suppress live progress output")
}

func runNews(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	language := newsLanguage
	if language == "" {
		language = cfg.Workflow.TargetLanguage
	}

	env, err := newWorkflowEnv(cfg, newsOffline, newsQuiet)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := env.newService(nil)

	started := time.Now()
	result := service.RunNews(ctx, topic, language)
	env.recordNews(result, started)

	renderNewsResult(result)
	printUsage(env.client)
	return nil
}
