package transformer

import (
	"context"

	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/prompt"
)

// Outcome is what every adapter returns on success: the raw completion
// text (before C7 post-processing) plus whatever the backend reported
// about how generation ended and what it cost.
type Outcome struct {
	Text         string
	FinishReason string
	Usage        Usage
}

// Usage carries whichever token counts the backend reports; adapters that
// don't get usage back from their wire format leave these at zero.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Adapter is the uniform contract every model kind implements. maxTokens
// is whichever of entry.TokenBudgets.Completion/Generation applies to the
// calling action — completion and generation share this one contract and
// differ only in which budget field the action engine (C8) passes in.
type Adapter interface {
	Send(ctx context.Context, payload prompt.Payload, entry *models.Entry, maxTokens int) (Outcome, error)
}

// Bindable is implemented by adapters that need external resources wired
// in before they can serve requests. Only the local adapter currently
// needs this: a caller must Bind a WeightFetcher and Engine once, after
// construction, before routing any requests to it.
type Bindable interface {
	Bind(fetcher WeightFetcher, engine Engine)
}

// New constructs the adapter for entry.Kind. The returned Adapter is safe
// for concurrent use by multiple in-flight requests against the same
// entry; the local adapter serializes requests to one model through its
// own per-model queue.
func New(entry *models.Entry) (Adapter, error) {
	switch entry.Kind {
	case models.KindOpenAI:
		return newOpenAIAdapter(), nil
	case models.KindAnthropic:
		return newAnthropicAdapter(), nil
	case models.KindGemini:
		return newGeminiAdapter(), nil
	case models.KindOllama:
		return newOllamaAdapter(), nil
	case models.KindMistralFIM:
		return newMistralAdapter(), nil
	case models.KindLocal:
		return newLocalAdapter(), nil
	default:
		return nil, &ProviderError{Model: entry.Name, Reason: ReasonInvalidRequest, Message: "unknown model kind"}
	}
}

// floatOr returns *p, or fallback when the optional sampling knob p is
// unset.
func floatOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
