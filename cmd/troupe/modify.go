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
	"github.com/troupelabs/troupe/internal/executor"
	"github.com/troupelabs/troupe/internal/monitor"
	"github.com/troupelabs/troupe/internal/pullreq"
	"github.com/troupelabs/troupe/internal/workflow"
)

var (
	modifyOwner       string
	modifyRepo        string
	modifyMergeMethod string
	modifyRunFilter   string
	modifyOffline     bool
	modifyQuiet       bool
)

var modifyCmd = &cobra.Command{
	Use:   "modify <requirements>",
	Short: "Turn a change request into a merged pull request",
	Long: `Run the modify workflow against a GitHub repository. An analyst agent
studies the repository, a developer proposes file changes, and a reviewer
checks them. The changes are committed to a fresh branch, opened as a pull
request, and the CI run for the branch is watched until it settles. A green
run merges the pull request; a red or timed-out run leaves it open for a
human and the command reports the failure.

Nothing is rolled back on failure: a branch, commits, or pull request
created before the failing step stay in place.

The repository comes from github.owner and github.repo in the config, or
from --owner and --repo. Authentication uses GITHUB_TOKEN or github.token.

Examples:
  troupe modify "add a /healthz endpoint returning build info"
  troupe modify --owner octo --repo widgets "rename Widget.Flags to Options"
  troupe modify --offline "demo change"   # scripted run, no GitHub calls`,
	Args: cobra.MinimumNArgs(1),
	RunE: runModify,
}

func init() {
	modifyCmd.Flags().StringVar(&modifyOwner, "owner", "", "Repository owner (default from config)")
	modifyCmd.Flags().StringVar(&modifyRepo, "repo", "", "Repository name (default from config)")
	modifyCmd.Flags().StringVar(&modifyMergeMethod, "merge-method", "", "Merge method: squash, merge, or rebase (default from config)")
	modifyCmd.Flags().StringVar(&modifyRunFilter, "run-filter", "", "Only watch CI runs whose name contains this (default from config)")
	modifyCmd.Flags().BoolVar(&modifyOffline, "offline", false, "Run scripted agents only, no external calls")
	modifyCmd.Flags().BoolVarP(&modifyQuiet, "quiet", "q", false, "Suppress live progress output")
}

func runModify(cmd *cobra.Command, args []string) error {
	requirements := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	env, err := newWorkflowEnv(cfg, modifyOffline, modifyQuiet)
	if err != nil {
		return err
	}
	defer env.Close()

	var pipeline workflow.Pipeline
	if !env.offline {
		pipeline, err = buildPipeline(env)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := env.newService(pipeline)

	started := time.Now()
	result := service.RunRepo(ctx, requirements)
	env.recordRepo(result, started)

	renderRepoResult(result)
	printUsage(env.client)
	return nil
}

// buildPipeline wires the pull-request lifecycle over the environment's
// bus and signals: host client, task-graph runner, and CI monitor.
func buildPipeline(env *workflowEnv) (*pullreq.Pipeline, error) {
	host, err := buildHost(env.cfg, modifyOwner, modifyRepo)
	if err != nil {
		return nil, err
	}

	runner := executor.New(env.client, env.bus, env.signals)
	watcher := monitor.New(host, env.bus, env.cfg.Monitor.Interval, env.cfg.Monitor.Timeout)

	mergeMethod := modifyMergeMethod
	if mergeMethod == "" {
		mergeMethod = env.cfg.GitHub.MergeMethod
	}
	runFilter := modifyRunFilter
	if runFilter == "" {
		runFilter = env.cfg.Monitor.RunNameFilter
	}

	return pullreq.New(host, runner, watcher, env.bus, pullreq.Config{
		RunNameFilter: runFilter,
		MergeMethod:   mergeMethod,
	}), nil
}
