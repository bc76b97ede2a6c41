// OpenAI-style adapter: github.com/sashabaranov/go-openai against either
// the legacy completions_endpoint (raw/FIM payloads) or chat_endpoint
// (chat payloads) — self-hosted OpenAI-compatible servers may serve the
// two at different base URLs, so they are tracked independently rather
// than always sharing one host. One non-streaming completion call per
// Send.
package transformer

import (
	"context"
	"errors"

	"github.com/lspai/lsp-ai/internal/backoff"
	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/prompt"
	openai "github.com/sashabaranov/go-openai"
)

type openaiAdapter struct{}

func newOpenAIAdapter() *openaiAdapter { return &openaiAdapter{} }

func (a *openaiAdapter) Send(ctx context.Context, payload prompt.Payload, entry *models.Entry, maxTokens int) (Outcome, error) {
	cred, err := entry.Auth.Resolve()
	if err != nil {
		return Outcome{}, &ProviderError{Model: entry.Name, Reason: ReasonAuth, Message: err.Error(), Cause: err}
	}

	shouldRetry := func(err error) bool {
		var pe *ProviderError
		return errors.As(err, &pe) && pe.Reason.Retryable()
	}

	if payload.Kind == prompt.KindChat {
		cfg := openai.DefaultConfig(cred)
		cfg.BaseURL = entry.ResolvedChatEndpoint()
		client := openai.NewClientWithConfig(cfg)

		req := openai.ChatCompletionRequest{
			Model:       entry.Name,
			Messages:    convertOpenAIMessages(payload),
			MaxTokens:   maxTokens,
			Temperature: float32(floatOr(entry.Sampling.Temperature, 1)),
		}
		if entry.Sampling.TopP != nil {
			req.TopP = float32(*entry.Sampling.TopP)
		}
		if entry.Sampling.FrequencyPenalty != nil {
			req.FrequencyPenalty = float32(*entry.Sampling.FrequencyPenalty)
		}
		if entry.Sampling.PresencePenalty != nil {
			req.PresencePenalty = float32(*entry.Sampling.PresencePenalty)
		}

		resp, err := backoff.Retry(ctx, backoff.DefaultPolicy(), 3, shouldRetry, func(int) (openai.ChatCompletionResponse, error) {
			r, err := client.CreateChatCompletion(ctx, req)
			if err != nil {
				return r, classifyOpenAIError(ctx, entry.Name, err)
			}
			return r, nil
		})
		if err != nil {
			return Outcome{}, err
		}
		if len(resp.Choices) == 0 {
			return Outcome{}, &ProviderError{Model: entry.Name, Reason: ReasonUnknown, Message: "empty choices"}
		}
		choice := resp.Choices[0]
		return Outcome{
			Text:         choice.Message.Content,
			FinishReason: string(choice.FinishReason),
			Usage:        Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens},
		}, nil
	}

	cfg := openai.DefaultConfig(cred)
	cfg.BaseURL = entry.ResolvedCompletionsEndpoint()
	client := openai.NewClientWithConfig(cfg)

	req := openai.CompletionRequest{
		Model:       entry.Name,
		Prompt:      payload.Text,
		MaxTokens:   maxTokens,
		Temperature: float32(floatOr(entry.Sampling.Temperature, 1)),
	}
	if entry.Sampling.TopP != nil {
		req.TopP = float32(*entry.Sampling.TopP)
	}
	if entry.Sampling.FrequencyPenalty != nil {
		req.FrequencyPenalty = float32(*entry.Sampling.FrequencyPenalty)
	}
	if entry.Sampling.PresencePenalty != nil {
		req.PresencePenalty = float32(*entry.Sampling.PresencePenalty)
	}

	resp, err := backoff.Retry(ctx, backoff.DefaultPolicy(), 3, shouldRetry, func(int) (openai.CompletionResponse, error) {
		r, err := client.CreateCompletion(ctx, req)
		if err != nil {
			return r, classifyOpenAIError(ctx, entry.Name, err)
		}
		return r, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	if len(resp.Choices) == 0 {
		return Outcome{}, &ProviderError{Model: entry.Name, Reason: ReasonUnknown, Message: "empty choices"}
	}
	choice := resp.Choices[0]
	return Outcome{
		Text:         choice.Text,
		FinishReason: choice.FinishReason,
		Usage:        Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens},
	}, nil
}

func convertOpenAIMessages(payload prompt.Payload) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return msgs
}

func classifyOpenAIError(ctx context.Context, model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newError(model, apiErr.HTTPStatusCode, err)
	}
	return newNetworkError(ctx, model, err)
}
