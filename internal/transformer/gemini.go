// Gemini adapter: google.golang.org/genai.
//
// Uses genai.NewClient(BackendGeminiAPI), maps assistant/user roles onto
// Gemini's model/user roles, and hoists a leading system-role message into
// GenerateContentConfig.SystemInstruction. One non-streaming
// GenerateContent call per Send.
package transformer

import (
	"context"
	"errors"

	"github.com/lspai/lsp-ai/internal/backoff"
	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/prompt"
	"google.golang.org/genai"
)

type geminiAdapter struct{}

func newGeminiAdapter() *geminiAdapter { return &geminiAdapter{} }

func (a *geminiAdapter) Send(ctx context.Context, payload prompt.Payload, entry *models.Entry, maxTokens int) (Outcome, error) {
	cred, err := entry.Auth.Resolve()
	if err != nil {
		return Outcome{}, &ProviderError{Model: entry.Name, Reason: ReasonAuth, Message: err.Error(), Cause: err}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cred, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return Outcome{}, newNetworkError(ctx, entry.Name, err)
	}

	system, contents := splitGeminiSystem(payload)
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	if entry.Sampling.Temperature != nil {
		t := float32(*entry.Sampling.Temperature)
		cfg.Temperature = &t
	}
	if entry.Sampling.TopP != nil {
		p := float32(*entry.Sampling.TopP)
		cfg.TopP = &p
	}

	shouldRetry := func(err error) bool {
		var pe *ProviderError
		return errors.As(err, &pe) && pe.Reason.Retryable()
	}

	resp, err := backoff.Retry(ctx, backoff.DefaultPolicy(), 3, shouldRetry, func(int) (*genai.GenerateContentResponse, error) {
		r, err := client.Models.GenerateContent(ctx, entry.Name, contents, cfg)
		if err != nil {
			return nil, newNetworkError(ctx, entry.Name, err)
		}
		return r, nil
	})
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Text: resp.Text()}, nil
}

// splitGeminiSystem pulls a leading system-role message out into Gemini's
// separate SystemInstruction slot and maps assistant/user roles to
// Gemini's model/user roles.
func splitGeminiSystem(payload prompt.Payload) (string, []*genai.Content) {
	if payload.Kind != prompt.KindChat {
		return "", []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: payload.Text}}}}
	}
	var system string
	contents := make([]*genai.Content, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	return system, contents
}
