package transformer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/prompt"
)

func TestMistralAdapterSendPostsFIMPromptAndParsesChoice(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/fim/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var req mistralFIMRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Prompt != "prefix" {
			t.Fatalf("got prompt %q, want %q", req.Prompt, "prefix")
		}
		if req.Suffix != "suffix" {
			t.Fatalf("got suffix %q, want %q", req.Suffix, "suffix")
		}
		resp := mistralFIMResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}{})
		resp.Choices[0].Message.Content = "completed code"
		resp.Choices[0].FinishReason = "stop"
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	entry := &models.Entry{
		Name:     "codestral",
		Kind:     models.KindMistralFIM,
		Endpoint: srv.URL,
		Auth:     models.Auth{Type: models.AuthLiteral, Value: "secret-token"},
	}
	a := newMistralAdapter()
	out, err := a.Send(t.Context(), prompt.Payload{Kind: prompt.KindFIM, Text: "prefix<FILL>suffix", Prefix: "prefix", Suffix: "suffix"}, entry, 64)
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "completed code" {
		t.Fatalf("got %q", out.Text)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("got auth header %q", gotAuth)
	}
}

func TestMistralAdapterAuthResolutionFailure(t *testing.T) {
	entry := &models.Entry{
		Name: "codestral",
		Kind: models.KindMistralFIM,
		Auth: models.Auth{Type: models.AuthEnvVar, Value: "LSPAI_TEST_UNSET_MISTRAL_KEY"},
	}
	a := newMistralAdapter()
	_, err := a.Send(t.Context(), prompt.Payload{Kind: prompt.KindFIM, Text: "x"}, entry, 10)
	if err == nil {
		t.Fatal("expected error")
	}
}
