package agent

import (
	"context"
	"testing"

	"github.com/troupelabs/troupe/pkg/models"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("expected error without an API key")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Model() == "" {
		t.Error("expected a default model")
	}
	if client.Tracker() == nil {
		t.Error("expected a token tracker")
	}
}

func TestExecuteFailureIsDataNotError(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A canceled context makes the call fail before any network traffic.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := client.Execute(ctx, Request{
		Role:        models.RoleWriter,
		AgentID:     "agent-1",
		Description: "Write something.",
	})

	if result.Success {
		t.Fatal("expected failure for canceled context")
	}
	if result.Error == "" {
		t.Error("expected an error message in the result")
	}
}
