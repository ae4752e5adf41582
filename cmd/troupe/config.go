package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/troupelabs/troupe/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify troupe configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/troupe/config.yaml
Project-specific overrides can be placed in .troupe.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("# user config: %s\n", config.GetUserConfigPath())
	if project := config.GetProjectConfigPath(); project != "" {
		fmt.Printf("# project overrides: %s\n", project)
	}
	fmt.Printf("anthropic.api_key: %s\n", config.MaskKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", orDefault(cfg.Anthropic.Model))
	fmt.Printf("anthropic.max_tokens: %s\n", orDefaultInt(int(cfg.Anthropic.MaxTokens)))
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", orDefault(cfg.Anthropic.AWSRegion))
	fmt.Printf("anthropic.aws_profile: %s\n", orDefault(cfg.Anthropic.AWSProfile))
	fmt.Printf("github.token: %s\n", config.MaskKey(cfg.GitHub.Token))
	fmt.Printf("github.owner: %s\n", orDefault(cfg.GitHub.Owner))
	fmt.Printf("github.repo: %s\n", orDefault(cfg.GitHub.Repo))
	fmt.Printf("github.base_url: %s\n", orDefault(cfg.GitHub.BaseURL))
	fmt.Printf("github.merge_method: %s\n", cfg.GitHub.MergeMethod)
	fmt.Printf("monitor.interval: %s\n", cfg.Monitor.Interval)
	fmt.Printf("monitor.timeout: %s\n", cfg.Monitor.Timeout)
	fmt.Printf("monitor.run_name_filter: %s\n", orDefault(cfg.Monitor.RunNameFilter))
	fmt.Printf("workflow.offline: %t\n", cfg.Workflow.Offline)
	fmt.Printf("workflow.target_language: %s\n", cfg.Workflow.TargetLanguage)
	fmt.Printf("workflow.control_dir: %s\n", cfg.Workflow.ControlDir)
	fmt.Printf("history.enabled: %t\n", cfg.History.Enabled)
	fmt.Printf("history.path: %s\n", orDefault(cfg.History.Path))
	fmt.Printf("history.retention_days: %d\n", cfg.History.RetentionDays)
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func orDefaultInt(n int) string {
	if n == 0 {
		return "(default)"
	}
	return strconv.Itoa(n)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return orDefault(cfg.Anthropic.Model), nil
	case "anthropic.max_tokens":
		return orDefaultInt(int(cfg.Anthropic.MaxTokens)), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "github.token":
		return config.MaskKey(cfg.GitHub.Token), nil
	case "github.owner":
		return cfg.GitHub.Owner, nil
	case "github.repo":
		return cfg.GitHub.Repo, nil
	case "github.base_url":
		return cfg.GitHub.BaseURL, nil
	case "github.merge_method":
		return cfg.GitHub.MergeMethod, nil
	case "monitor.interval":
		return cfg.Monitor.Interval.String(), nil
	case "monitor.timeout":
		return cfg.Monitor.Timeout.String(), nil
	case "monitor.run_name_filter":
		return cfg.Monitor.RunNameFilter, nil
	case "workflow.offline":
		return strconv.FormatBool(cfg.Workflow.Offline), nil
	case "workflow.target_language":
		return cfg.Workflow.TargetLanguage, nil
	case "workflow.control_dir":
		return cfg.Workflow.ControlDir, nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	case "history.path":
		return cfg.History.Path, nil
	case "history.retention_days":
		return strconv.Itoa(cfg.History.RetentionDays), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue updates a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.max_tokens":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid max_tokens %q: %w", value, err)
		}
		cfg.Anthropic.MaxTokens = n
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "github.token":
		cfg.GitHub.Token = value
	case "github.owner":
		cfg.GitHub.Owner = value
	case "github.repo":
		cfg.GitHub.Repo = value
	case "github.base_url":
		cfg.GitHub.BaseURL = value
	case "github.merge_method":
		switch value {
		case "squash", "merge", "rebase":
			cfg.GitHub.MergeMethod = value
		default:
			return fmt.Errorf("invalid merge method %q: want squash, merge, or rebase", value)
		}
	case "monitor.interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		cfg.Monitor.Interval = d
	case "monitor.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		cfg.Monitor.Timeout = d
	case "monitor.run_name_filter":
		cfg.Monitor.RunNameFilter = value
	case "workflow.offline":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		cfg.Workflow.Offline = b
	case "workflow.target_language":
		cfg.Workflow.TargetLanguage = value
	case "workflow.control_dir":
		cfg.Workflow.ControlDir = value
	case "history.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		cfg.History.Enabled = b
	case "history.path":
		cfg.History.Path = value
	case "history.retention_days":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retention %q: %w", value, err)
		}
		cfg.History.RetentionDays = n
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
