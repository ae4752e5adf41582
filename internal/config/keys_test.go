package config

import (
	"os"
	"testing"
)

func TestGetAPIKey(t *testing.T) {
	originalKey := os.Getenv("ANTHROPIC_API_KEY")
	defer os.Setenv("ANTHROPIC_API_KEY", originalKey)

	t.Run("from environment variable", func(t *testing.T) {
		os.Setenv("ANTHROPIC_API_KEY", "sk-ant-test-key")

		cfg := &Config{}
		key, err := GetAPIKey(cfg)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-ant-test-key" {
			t.Errorf("expected 'sk-ant-test-key', got %q", key)
		}

		os.Unsetenv("ANTHROPIC_API_KEY")
	})

	t.Run("from config", func(t *testing.T) {
		os.Unsetenv("ANTHROPIC_API_KEY")

		cfg := &Config{
			Anthropic: AnthropicConfig{
				APIKey: "sk-ant-config-key",
			},
		}
		key, err := GetAPIKey(cfg)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-ant-config-key" {
			t.Errorf("expected 'sk-ant-config-key', got %q", key)
		}
	})

	t.Run("no key configured", func(t *testing.T) {
		os.Unsetenv("ANTHROPIC_API_KEY")

		cfg := &Config{}
		_, err := GetAPIKey(cfg)
		if err != ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})
}

func TestGetGitHubToken(t *testing.T) {
	originalToken := os.Getenv("GITHUB_TOKEN")
	defer os.Setenv("GITHUB_TOKEN", originalToken)

	t.Run("from environment variable", func(t *testing.T) {
		os.Setenv("GITHUB_TOKEN", "ghp_envtoken")

		cfg := &Config{}
		token, err := GetGitHubToken(cfg)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if token != "ghp_envtoken" {
			t.Errorf("expected 'ghp_envtoken', got %q", token)
		}

		os.Unsetenv("GITHUB_TOKEN")
	})

	t.Run("from config", func(t *testing.T) {
		os.Unsetenv("GITHUB_TOKEN")

		cfg := &Config{
			GitHub: GitHubConfig{
				Token: "ghp_configtoken",
			},
		}
		token, err := GetGitHubToken(cfg)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if token != "ghp_configtoken" {
			t.Errorf("expected 'ghp_configtoken', got %q", token)
		}
	})

	t.Run("no token configured", func(t *testing.T) {
		os.Unsetenv("GITHUB_TOKEN")

		cfg := &Config{}
		_, err := GetGitHubToken(cfg)
		if err != ErrNoGitHubToken {
			t.Errorf("expected ErrNoGitHubToken, got %v", err)
		}
	})
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "sk-ant-REDACTED", false},
		{"empty key", "", true},
		{"wrong prefix", "sk-openai-12345678901234567890", true},
		{"too short", "sk-ant-abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"empty key", "", "(not set)"},
		{"short key", "sk-ant-abc", "***"},
		{"full key", "sk-ant-REDACTED", "sk-ant-...1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskKey(tt.key)
			if got != tt.expected {
				t.Errorf("MaskKey(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestGetAPIKeySource(t *testing.T) {
	originalKey := os.Getenv("ANTHROPIC_API_KEY")
	defer os.Setenv("ANTHROPIC_API_KEY", originalKey)

	os.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	if src := GetAPIKeySource(nil); src != KeySourceEnv {
		t.Errorf("expected %q, got %q", KeySourceEnv, src)
	}

	os.Unsetenv("ANTHROPIC_API_KEY")
	cfg := &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-cfg"}}
	if src := GetAPIKeySource(cfg); src != KeySourceConfig {
		t.Errorf("expected %q, got %q", KeySourceConfig, src)
	}

	if src := GetAPIKeySource(&Config{}); src != KeySourceNone {
		t.Errorf("expected %q, got %q", KeySourceNone, src)
	}
}
