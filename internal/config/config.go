// Package config handles configuration loading and management for troupe.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for troupe.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	History   HistoryConfig   `mapstructure:"history"`
}

// AnthropicConfig holds completion endpoint settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Model selects the completion model. Empty uses the client default.
	Model string `mapstructure:"model"`
	// MaxTokens caps response length. Zero uses the client default.
	MaxTokens int64 `mapstructure:"max_tokens"`
	// UseBedrock routes completion calls through AWS Bedrock.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// GitHubConfig holds repository host settings for the modify workflow.
type GitHubConfig struct {
	Token string `mapstructure:"token"`
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`
	// BaseURL overrides the API endpoint, for GitHub Enterprise.
	BaseURL     string `mapstructure:"base_url"`
	MergeMethod string `mapstructure:"merge_method"`
}

// MonitorConfig holds CI run watch settings.
type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// RunNameFilter restricts the watch to runs whose name contains it.
	RunNameFilter string `mapstructure:"run_name_filter"`
}

// WorkflowConfig holds workflow execution settings.
type WorkflowConfig struct {
	// Offline forces the scripted path, never calling external services.
	Offline bool `mapstructure:"offline"`
	// TargetLanguage is the default translation language for news digests.
	TargetLanguage string `mapstructure:"target_language"`
	// ControlDir is the directory the .troupe control directory is created
	// under. Halt signals and guidance are read from there.
	ControlDir string `mapstructure:"control_dir"`
}

// HistoryConfig holds run history storage settings.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path overrides the history database location. Empty uses the default.
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, GITHUB_TOKEN)
// 2. Project config (.troupe.yaml in current directory or parent)
// 3. User config (~/.config/troupe/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Project config takes precedence over the user config.
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("workflow.offline", "TROUPE_OFFLINE")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.GitHub.Token = expandEnv(cfg.GitHub.Token)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.GitHub.Token = expandEnv(cfg.GitHub.Token)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("github.token", cfg.GitHub.Token)
	v.Set("github.owner", cfg.GitHub.Owner)
	v.Set("github.repo", cfg.GitHub.Repo)
	v.Set("github.base_url", cfg.GitHub.BaseURL)
	v.Set("github.merge_method", cfg.GitHub.MergeMethod)
	v.Set("monitor.interval", cfg.Monitor.Interval.String())
	v.Set("monitor.timeout", cfg.Monitor.Timeout.String())
	v.Set("monitor.run_name_filter", cfg.Monitor.RunNameFilter)
	v.Set("workflow.offline", cfg.Workflow.Offline)
	v.Set("workflow.target_language", cfg.Workflow.TargetLanguage)
	v.Set("workflow.control_dir", cfg.Workflow.ControlDir)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.path", cfg.History.Path)
	v.Set("history.retention_days", cfg.History.RetentionDays)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.max_tokens", 0)
	v.SetDefault("anthropic.use_bedrock", false)

	v.SetDefault("github.token", "")
	v.SetDefault("github.owner", "")
	v.SetDefault("github.repo", "")
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.merge_method", "squash")

	v.SetDefault("monitor.interval", "15s")
	v.SetDefault("monitor.timeout", "10m")
	v.SetDefault("monitor.run_name_filter", "")

	v.SetDefault("workflow.offline", false)
	v.SetDefault("workflow.target_language", "Spanish")
	v.SetDefault("workflow.control_dir", ".")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", 30)
}

// getUserConfigDir returns the XDG config directory for troupe.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "troupe")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "troupe")
	}
	return filepath.Join(home, ".config", "troupe")
}

// findProjectConfig searches for .troupe.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".troupe.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			MergeMethod: "squash",
		},
		Monitor: MonitorConfig{
			Interval: 15 * time.Second,
			Timeout:  10 * time.Minute,
		},
		Workflow: WorkflowConfig{
			TargetLanguage: "Spanish",
			ControlDir:     ".",
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
	}
}
