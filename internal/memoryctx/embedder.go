package memoryctx

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lspai/lsp-ai/internal/models"
)

// OpenAIEmbedder implements Embedder against an OpenAI-compatible
// embeddings endpoint, using the model entry's own endpoint and
// credential rather than a second, separately-configured API key.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder builds an embedder from a model registry entry. The
// entry's Auth and Endpoint are resolved the same way the chat/completions
// adapter resolves them; entry.Name is sent as the embeddings request's
// model field.
func NewOpenAIEmbedder(entry *models.Entry) (*OpenAIEmbedder, error) {
	cred, err := entry.Auth.Resolve()
	if err != nil {
		return nil, fmt.Errorf("memoryctx: embedding model %q: %w", entry.Name, err)
	}
	cfg := openai.DefaultConfig(cred)
	if ep := entry.ResolvedCompletionsEndpoint(); ep != "" {
		cfg.BaseURL = ep
	}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(cfg), model: entry.Name}, nil
}

// Embed satisfies Embedder by issuing a single-input embeddings request.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("memoryctx: embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("memoryctx: embed: empty response")
	}
	return resp.Data[0].Embedding, nil
}
