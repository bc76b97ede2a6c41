package memoryctx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lspai/lsp-ai/internal/models"
)

func TestNewOpenAIEmbedderRejectsUnresolvableAuth(t *testing.T) {
	entry := &models.Entry{
		Name: "embed",
		Auth: models.Auth{Type: models.AuthEnvVar, Value: "LSP_AI_TEST_UNSET_EMBED_KEY"},
	}
	if _, err := NewOpenAIEmbedder(entry); err == nil {
		t.Fatal("expected error when the auth env var is unset")
	}
}

func TestOpenAIEmbedderEmbedPostsQueryAndParsesVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Input) != 1 || req.Input[0] != "query text" {
			t.Fatalf("got input %+v", req.Input)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}, "index": 0},
			},
			"model": req.Model,
			"usage": map[string]int{"prompt_tokens": 2, "total_tokens": 2},
		})
	}))
	defer srv.Close()

	entry := &models.Entry{
		Name:     "embed",
		Endpoint: srv.URL,
		Auth:     models.Auth{Type: models.AuthLiteral, Value: "sk-test"},
	}
	embedder, err := NewOpenAIEmbedder(entry)
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}

	vec, err := embedder.Embed(context.Background(), "query text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Fatalf("got vector %+v", vec)
	}
}
