package openai

import (
	"context"
	"fmt"
	"strings"

	api "github.com/sashabaranov/go-openai"

	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/ports"
	"github.com/aretw0/whodunit/pkg/scenario"
)

// Decide asks the model for an agent's action.
func (c *Client) Decide(ctx context.Context, req ports.DecisionRequest) (ports.Decision, error) {
	messages := []api.ChatCompletionMessage{
		system(decisionPrompt(req)),
		user(fmt.Sprintf("What does %s do this turn? Respond with JSON.", req.Character.Name)),
	}
	content, err := c.complete(ctx, messages, min(decisionTokens, c.cfg.MaxTokens), 0.8)
	if err != nil {
		return ports.Decision{}, err
	}

	raw, err := parseObject(content)
	if err != nil {
		return ports.Decision{}, err
	}
	var d ports.Decision
	if err := decode(raw, &d); err != nil {
		return ports.Decision{}, fmt.Errorf("%w: decode decision: %w", domain.ErrOracleFailure, err)
	}
	action, err := domain.ParseActionType(string(d.Action))
	if err != nil {
		return ports.Decision{}, fmt.Errorf("%w: %w", domain.ErrOracleFailure, err)
	}
	d.Action = action
	d.Target = strings.TrimSpace(d.Target)
	d.Dialogue = strings.TrimSpace(d.Dialogue)
	return d, nil
}

// Converse asks the model for an NPC's reply to the player.
func (c *Client) Converse(ctx context.Context, req ports.DialogueRequest) (string, error) {
	messages := make([]api.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, system(dialoguePrompt(req)))
	for _, e := range req.History {
		role := api.ChatMessageRoleUser
		if e.Role == ports.RoleNPC {
			role = api.ChatMessageRoleAssistant
		}
		messages = append(messages, api.ChatCompletionMessage{Role: role, Content: e.Content})
	}
	messages = append(messages, user(req.Message))
	return c.complete(ctx, messages, 0, 0)
}

// Generate asks the model for a scenario and validates it.
func (c *Client) Generate(ctx context.Context, req ports.GenerationRequest) (*scenario.Scenario, error) {
	messages := []api.ChatCompletionMessage{
		system(scenarioSystem),
		user(scenarioPrompt(req)),
	}
	content, err := c.complete(ctx, messages, max(scenarioTokens, c.cfg.MaxTokens), 0)
	if err != nil {
		return nil, err
	}

	raw, err := parseObject(content)
	if err != nil {
		return nil, err
	}
	sc, err := scenario.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "scenario generated", "title", sc.Title, "locations", len(sc.Locations), "clues", len(sc.Clues))
	return sc, nil
}

// NarrateEnding asks the model for the closing narration.
func (c *Client) NarrateEnding(ctx context.Context, req ports.EndingRequest) (string, error) {
	messages := []api.ChatCompletionMessage{
		system(endingSystem),
		user(endingPrompt(req)),
	}
	return c.complete(ctx, messages, min(endingTokens, c.cfg.MaxTokens), 0.9)
}
