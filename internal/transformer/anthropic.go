// Anthropic-style adapter: github.com/anthropics/anthropic-sdk-go.
//
// Uses the SDK's standard client construction (option.WithAPIKey/
// option.WithBaseURL) and MessageNewParams shape, hoisting a leading
// system-role message out of Messages and into params.System the way
// Anthropic's API requires. One non-streaming call per Send.
package transformer

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lspai/lsp-ai/internal/backoff"
	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/prompt"
)

type anthropicAdapter struct{}

func newAnthropicAdapter() *anthropicAdapter { return &anthropicAdapter{} }

func (a *anthropicAdapter) Send(ctx context.Context, payload prompt.Payload, entry *models.Entry, maxTokens int) (Outcome, error) {
	cred, err := entry.Auth.Resolve()
	if err != nil {
		return Outcome{}, &ProviderError{Model: entry.Name, Reason: ReasonAuth, Message: err.Error(), Cause: err}
	}
	opts := []option.RequestOption{option.WithAPIKey(cred)}
	if entry.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(entry.Endpoint))
	}
	client := anthropic.NewClient(opts...)

	system, messages := splitAnthropicSystem(payload)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(entry.Name),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if entry.Sampling.Temperature != nil {
		params.Temperature = anthropic.Float(*entry.Sampling.Temperature)
	}
	if entry.Sampling.TopP != nil {
		params.TopP = anthropic.Float(*entry.Sampling.TopP)
	}

	shouldRetry := func(err error) bool {
		var pe *ProviderError
		return errors.As(err, &pe) && pe.Reason.Retryable()
	}

	msg, err := backoff.Retry(ctx, backoff.DefaultPolicy(), 3, shouldRetry, func(int) (*anthropic.Message, error) {
		m, err := client.Messages.New(ctx, params)
		if err != nil {
			return nil, classifyAnthropicError(ctx, entry.Name, err)
		}
		return m, nil
	})
	if err != nil {
		return Outcome{}, err
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return Outcome{
		Text:         text,
		FinishReason: string(msg.StopReason),
		Usage:        Usage{PromptTokens: int(msg.Usage.InputTokens), CompletionTokens: int(msg.Usage.OutputTokens)},
	}, nil
}

// splitAnthropicSystem pulls a leading system-role message out of the chat
// payload, since Anthropic's API takes the system prompt as a separate
// top-level field rather than a message with role "system". Non-chat
// payloads are sent as a single user turn.
func splitAnthropicSystem(payload prompt.Payload) (string, []anthropic.MessageParam) {
	if payload.Kind != prompt.KindChat {
		return "", []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(payload.Text))}
	}
	var system string
	messages := make([]anthropic.MessageParam, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	return system, messages
}

func classifyAnthropicError(ctx context.Context, model string, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return newError(model, apiErr.StatusCode, err)
	}
	return newNetworkError(ctx, model, err)
}
