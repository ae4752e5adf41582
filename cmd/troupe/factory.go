package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/troupelabs/troupe/internal/agent"
	"github.com/troupelabs/troupe/internal/config"
	"github.com/troupelabs/troupe/internal/control"
	"github.com/troupelabs/troupe/internal/githost"
	"github.com/troupelabs/troupe/internal/progress"
	"github.com/troupelabs/troupe/internal/state"
	"github.com/troupelabs/troupe/internal/workflow"
	"github.com/troupelabs/troupe/pkg/models"
)

// workflowEnv bundles the shared pieces a workflow command needs: the
// progress bus with its observers, the control signals, the history
// database, and the completion client.
type workflowEnv struct {
	cfg     *config.Config
	bus     *progress.Bus
	signals *control.Signals
	client  *agent.Client
	db      *state.DB
	offline bool

	cleanups []func()
}

// newWorkflowEnv assembles the shared runtime for one command invocation.
// Offline mode skips the completion client entirely; a missing API key
// demotes the run to offline with a warning instead of failing, so the
// scripted path stays usable out of the box.
func newWorkflowEnv(cfg *config.Config, offline, quiet bool) (*workflowEnv, error) {
	env := &workflowEnv{
		cfg:     cfg,
		bus:     progress.NewBus(),
		offline: offline || cfg.Workflow.Offline,
	}

	if !quiet {
		env.bus.Subscribe(progressPrinter())
	}

	signals, err := control.Open(cfg.Workflow.ControlDir)
	if err != nil {
		log.Printf("[cli] control directory unavailable: %v", err)
	} else {
		env.signals = signals
		env.cleanups = append(env.cleanups, signals.Close)
	}

	if cfg.History.Enabled {
		env.openHistory()
	}

	if !env.offline {
		client, err := agent.NewClient(agent.ClientConfig{
			Model:      cfg.Anthropic.Model,
			APIKey:     cfg.Anthropic.APIKey,
			UseBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:  cfg.Anthropic.AWSRegion,
			AWSProfile: cfg.Anthropic.AWSProfile,
			MaxTokens:  cfg.Anthropic.MaxTokens,
			Personas:   loadPersonas(),
		})
		if err != nil {
			fmt.Printf("No completion client available (%v); running scripted agents.\n", err)
			env.offline = true
		} else {
			env.client = client
		}
	}

	return env, nil
}

// openHistory opens the run history database and attaches the event
// recorder. History trouble is reported but never blocks a workflow.
func (e *workflowEnv) openHistory() {
	db, err := state.Open(historyPath(e.cfg))
	if err != nil {
		log.Printf("[cli] history unavailable: %v", err)
		return
	}
	if err := db.Migrate(); err != nil {
		log.Printf("[cli] history migration failed: %v", err)
		db.Close()
		return
	}

	e.db = db
	e.cleanups = append(e.cleanups, state.NewRecorder(db).Attach(e.bus))
	e.cleanups = append(e.cleanups, func() { db.Close() })

	if days := e.cfg.History.RetentionDays; days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		if n, err := db.Prune(cutoff); err != nil {
			log.Printf("[cli] history prune failed: %v", err)
		} else if n > 0 {
			log.Printf("[cli] pruned %d workflow(s) older than %d days", n, days)
		}
	}
}

// newService builds the workflow service over this environment.
func (e *workflowEnv) newService(pipeline workflow.Pipeline) *workflow.Service {
	var invoker agent.Invoker
	if e.client != nil {
		invoker = e.client
	}
	return workflow.NewService(workflow.Config{
		Invoker:  invoker,
		Bus:      e.bus,
		Signals:  e.signals,
		Pipeline: pipeline,
		Offline:  e.offline,
	})
}

// recordNews stores a finished news run, when history is enabled.
func (e *workflowEnv) recordNews(res *models.NewsResult, started time.Time) {
	if e.db == nil {
		return
	}
	if err := e.db.RecordNews(res, started, time.Now()); err != nil {
		log.Printf("[cli] record news run: %v", err)
	}
}

// recordRepo stores a finished repository run, when history is enabled.
func (e *workflowEnv) recordRepo(res *models.RepoResult, started time.Time) {
	if e.db == nil {
		return
	}
	if err := e.db.RecordRepo(res, started, time.Now()); err != nil {
		log.Printf("[cli] record repo run: %v", err)
	}
}

// Close releases every resource the environment acquired, newest first.
func (e *workflowEnv) Close() {
	for i := len(e.cleanups) - 1; i >= 0; i-- {
		e.cleanups[i]()
	}
}

// buildHost creates the GitHub client from configuration and flags.
func buildHost(cfg *config.Config, owner, repo string) (*githost.Client, error) {
	if owner == "" {
		owner = cfg.GitHub.Owner
	}
	if repo == "" {
		repo = cfg.GitHub.Repo
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("repository not configured: set github.owner and github.repo, or pass --owner and --repo")
	}

	var opts []githost.Option
	if cfg.GitHub.BaseURL != "" {
		opts = append(opts, githost.WithBaseURL(cfg.GitHub.BaseURL))
	}
	if token, err := config.GetGitHubToken(cfg); err == nil {
		opts = append(opts, githost.WithToken(token))
	}

	return githost.NewClient(owner, repo, opts...), nil
}

// historyPath returns the configured history database path.
func historyPath(cfg *config.Config) string {
	if cfg.History.Path != "" {
		return cfg.History.Path
	}
	return state.DefaultPath()
}

// loadPersonas returns the persona templates with any roles.yaml overrides
// from the user config directory applied. A broken overrides file is
// reported and the defaults are used.
func loadPersonas() agent.Personas {
	path := filepath.Join(filepath.Dir(config.GetUserConfigPath()), "roles.yaml")
	personas, err := agent.LoadPersonaOverrides(path)
	if err != nil {
		log.Printf("[cli] persona overrides ignored: %v", err)
		return agent.DefaultPersonas()
	}
	return personas
}
