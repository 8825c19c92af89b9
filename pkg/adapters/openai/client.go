// Package openai implements the decision oracle, scenario generator and
// ending narrator on any OpenAI-compatible chat completion API. The default
// base URL targets OpenRouter.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"
	api "github.com/sashabaranov/go-openai"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/domain"
)

// Defaults for Config.
const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultModel       = "openai/gpt-4o-mini"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.9
)

// Per-call token budgets, capped (or, for scenarios, raised) by Config.MaxTokens.
const (
	decisionTokens = 256
	endingTokens   = 512
	scenarioTokens = 4096
)

// ErrEmptyCompletion is returned when the model answers with nothing.
var ErrEmptyCompletion = errors.New("empty completion")

// Config selects the endpoint and sampling.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Client talks to the chat completion endpoint.
type Client struct {
	api    *api.Client
	cfg    Config
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client. Zero fields of cfg take the package defaults.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}

	apiCfg := api.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	c := &Client{
		api:    api.NewClientWithConfig(apiCfg),
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model.
func (c *Client) Model() string { return c.cfg.Model }

func (c *Client) complete(ctx context.Context, messages []api.ChatCompletionMessage, maxTokens int, temperature float32) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if temperature <= 0 {
		temperature = c.cfg.Temperature
	}

	resp, err := c.api.CreateChatCompletion(ctx, api.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create chat completion: %w", domain.ErrOracleFailure, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", domain.ErrOracleFailure, ErrEmptyCompletion)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrOracleFailure, ErrEmptyCompletion)
	}

	c.logger.DebugContext(ctx, "chat completion",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return content, nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	if i := strings.Index(content, "\n"); i >= 0 {
		content = content[i+1:]
	} else {
		content = strings.TrimPrefix(content, "```")
	}
	if i := strings.LastIndex(content, "```"); i >= 0 {
		content = content[:i]
	}
	return strings.TrimSpace(content)
}

// parseObject extracts the JSON object of a model answer.
func parseObject(content string) (map[string]any, error) {
	content = stripFences(content)
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		content = content[start : end+1]
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: model returned invalid JSON: %w", domain.ErrOracleFailure, err)
	}
	return raw, nil
}

// decode fills out from a loosely typed model answer.
func decode(raw map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func system(content string) api.ChatCompletionMessage {
	return api.ChatCompletionMessage{Role: api.ChatMessageRoleSystem, Content: content}
}

func user(content string) api.ChatCompletionMessage {
	return api.ChatCompletionMessage{Role: api.ChatMessageRoleUser, Content: content}
}
