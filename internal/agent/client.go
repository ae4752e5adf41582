package agent

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/troupelabs/troupe/pkg/models"
)

// defaultMaxTokens bounds the length of one completion response.
const defaultMaxTokens = 4096

// defaultPriorBudget bounds the tokens of prior-result context per prompt.
const defaultPriorBudget = 2000

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	// Model is the Claude model to use. Empty selects the default.
	Model string
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseBedrock routes calls through AWS Bedrock instead of the direct API.
	UseBedrock bool
	// AWSRegion is the AWS region for Bedrock.
	AWSRegion string
	// AWSProfile is the optional AWS profile name.
	AWSProfile string
	// MaxTokens caps the response length. Zero selects the default.
	MaxTokens int64
	// PriorBudget caps prior-result context tokens. Zero selects the default.
	PriorBudget int
	// Personas overrides the role templates. Nil selects the defaults.
	Personas Personas
}

// Client invokes agents through the Anthropic Messages API. It implements
// Invoker: every Execute issues exactly one completion call and reports the
// outcome, success or failure, as a TaskResult.
type Client struct {
	inner       anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	priorBudget int
	personas    Personas
	tracker     *TokenTracker
}

// NewClient creates a completion client from the given configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseBedrock {
		model = translateModelForBedrock(model)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	priorBudget := cfg.PriorBudget
	if priorBudget == 0 {
		priorBudget = defaultPriorBudget
	}
	personas := cfg.Personas
	if personas == nil {
		personas = DefaultPersonas()
	}

	return &Client{
		inner:       anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		priorBudget: priorBudget,
		personas:    personas,
		tracker:     NewTokenTracker(string(model)),
	}, nil
}

// translateModelForBedrock converts standard Anthropic model names to the
// cross-region Bedrock inference profile format.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:  "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219: "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:  "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}
	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}

// Tracker returns the token tracker for this client.
func (c *Client) Tracker() *TokenTracker {
	return c.tracker
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return string(c.model)
}

// Execute issues one completion call for the request. Failures are returned
// as data; Execute never returns an error to callers.
func (c *Client) Execute(ctx context.Context, req Request) models.TaskResult {
	start := time.Now()

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: c.personas.Persona(req.Role)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(req, c.priorBudget))),
		},
	})
	if err != nil {
		log.Printf("[agent] %s (%s) call failed: %v", req.AgentID, req.Role, err)
		return models.TaskResult{
			Success: false,
			Error:   fmt.Sprintf("completion call failed: %v", err),
		}
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var content string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += variant.Text
		}
	}

	return models.TaskResult{
		Success: true,
		Content: content,
		Metadata: &models.ResultMetadata{
			LatencyMS: time.Since(start).Milliseconds(),
			Tokens:    resp.Usage.InputTokens + resp.Usage.OutputTokens,
			Model:     string(c.model),
		},
	}
}
