// Ollama adapter: plain net/http against /api/chat, no SDK.
//
// Requests stream:false rather than accumulating NDJSON lines across a
// channel, since a single Outcome is all the Adapter contract needs and
// Ollama returns one complete JSON object in that mode rather than a
// line per token.
package transformer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lspai/lsp-ai/internal/backoff"
	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/prompt"
)

type ollamaAdapter struct {
	client *http.Client
}

func newOllamaAdapter() *ollamaAdapter {
	return &ollamaAdapter{client: &http.Client{Timeout: 2 * time.Minute}}
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         *ollamaChatMessage `json:"message"`
	Done            bool               `json:"done"`
	Error           string             `json:"error"`
	EvalCount       int                `json:"eval_count"`
	PromptEvalCount int                `json:"prompt_eval_count"`
}

func (a *ollamaAdapter) Send(ctx context.Context, payload prompt.Payload, entry *models.Entry, maxTokens int) (Outcome, error) {
	req := ollamaChatRequest{
		Model:    entry.Name,
		Stream:   false,
		Messages: ollamaMessages(payload),
	}
	if maxTokens > 0 {
		req.Options = map[string]any{"num_predict": maxTokens}
	}
	if entry.Sampling.Temperature != nil {
		if req.Options == nil {
			req.Options = map[string]any{}
		}
		req.Options["temperature"] = *entry.Sampling.Temperature
	}

	baseURL := strings.TrimRight(entry.Endpoint, "/")

	shouldRetry := func(err error) bool {
		var pe *ProviderError
		return errors.As(err, &pe) && pe.Reason.Retryable()
	}

	return backoff.Retry(ctx, backoff.DefaultPolicy(), 3, shouldRetry, func(int) (Outcome, error) {
		return a.call(ctx, baseURL, entry.Name, req)
	})
}

func (a *ollamaAdapter) call(ctx context.Context, baseURL, model string, req ollamaChatRequest) (Outcome, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Outcome{}, &ProviderError{Model: model, Reason: ReasonInvalidRequest, Message: err.Error(), Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return Outcome{}, &ProviderError{Model: model, Reason: ReasonInvalidRequest, Message: err.Error(), Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return Outcome{}, newNetworkError(ctx, model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return Outcome{}, newError(model, resp.StatusCode, fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody))))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return Outcome{}, &ProviderError{Model: model, Reason: ReasonUnknown, Message: "decode response: " + err.Error(), Cause: err}
	}
	if chatResp.Error != "" {
		return Outcome{}, &ProviderError{Model: model, Reason: ReasonUnknown, Message: chatResp.Error}
	}

	var text string
	if chatResp.Message != nil {
		text = chatResp.Message.Content
	}
	return Outcome{
		Text:  text,
		Usage: Usage{PromptTokens: chatResp.PromptEvalCount, CompletionTokens: chatResp.EvalCount},
	}, nil
}

func ollamaMessages(payload prompt.Payload) []ollamaChatMessage {
	if payload.Kind != prompt.KindChat {
		return []ollamaChatMessage{{Role: "user", Content: payload.Text}}
	}
	msgs := make([]ollamaChatMessage, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		msgs = append(msgs, ollamaChatMessage{Role: m.Role, Content: m.Content})
	}
	return msgs
}
