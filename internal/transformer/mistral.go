// Mistral FIM adapter: plain net/http against a fill-in-the-middle
// completion endpoint ({prompt, suffix} in, choices[0].message.content
// out).
//
// Mistral's FIM endpoint has no published Go SDK, so this follows the
// same shape as the Ollama adapter in this package: a plain *http.Client
// posting a small JSON struct and decoding a small JSON response.
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

type mistralAdapter struct {
	client *http.Client
}

func newMistralAdapter() *mistralAdapter {
	return &mistralAdapter{client: &http.Client{Timeout: 2 * time.Minute}}
}

type mistralFIMRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Suffix      string  `json:"suffix,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type mistralFIMResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (a *mistralAdapter) Send(ctx context.Context, payload prompt.Payload, entry *models.Entry, maxTokens int) (Outcome, error) {
	cred, err := entry.Auth.Resolve()
	if err != nil {
		return Outcome{}, &ProviderError{Model: entry.Name, Reason: ReasonAuth, Message: err.Error(), Cause: err}
	}

	// Mistral's FIM endpoint wants prefix and suffix as separate fields
	// rather than concatenated into one prompt string, so this adapter
	// reads the builder's unconcatenated halves instead of payload.Text.
	fimReq := mistralFIMRequest{
		Model:       entry.Name,
		Prompt:      payload.Prefix,
		Suffix:      payload.Suffix,
		MaxTokens:   maxTokens,
		Temperature: floatOr(entry.Sampling.Temperature, 0),
	}

	shouldRetry := func(err error) bool {
		var pe *ProviderError
		return errors.As(err, &pe) && pe.Reason.Retryable()
	}

	return backoff.Retry(ctx, backoff.DefaultPolicy(), 3, shouldRetry, func(int) (Outcome, error) {
		return a.call(ctx, entry.Endpoint, entry.Name, cred, fimReq)
	})
}

func (a *mistralAdapter) call(ctx context.Context, endpoint, model, cred string, req mistralFIMRequest) (Outcome, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Outcome{}, &ProviderError{Model: model, Reason: ReasonInvalidRequest, Message: err.Error(), Cause: err}
	}

	url := strings.TrimRight(endpoint, "/") + "/v1/fim/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, &ProviderError{Model: model, Reason: ReasonInvalidRequest, Message: err.Error(), Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if cred != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cred)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return Outcome{}, newNetworkError(ctx, model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return Outcome{}, newError(model, resp.StatusCode, fmt.Errorf("mistral fim status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody))))
	}

	var fimResp mistralFIMResponse
	if err := json.NewDecoder(resp.Body).Decode(&fimResp); err != nil {
		return Outcome{}, &ProviderError{Model: model, Reason: ReasonUnknown, Message: "decode response: " + err.Error(), Cause: err}
	}
	if len(fimResp.Choices) == 0 {
		return Outcome{}, &ProviderError{Model: model, Reason: ReasonUnknown, Message: "empty choices"}
	}
	return Outcome{
		Text:         fimResp.Choices[0].Message.Content,
		FinishReason: fimResp.Choices[0].FinishReason,
		Usage:        Usage{PromptTokens: fimResp.Usage.PromptTokens, CompletionTokens: fimResp.Usage.CompletionTokens},
	}, nil
}
