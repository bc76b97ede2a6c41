package transformer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/prompt"
)

func TestAnthropicAdapterSendHoistsSystemAndParsesText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if _, ok := body["system"]; !ok {
			t.Fatal("expected system field to be hoisted out of messages")
		}
		msgs, _ := body["messages"].([]any)
		if len(msgs) != 1 {
			t.Fatalf("expected one non-system message, got %d", len(msgs))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"content": [{"type": "text", "text": "generated text"}],
			"model": "claude-3",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 7, "output_tokens": 3}
		}`))
	}))
	defer srv.Close()

	entry := &models.Entry{
		Name:     "claude-3",
		Kind:     models.KindAnthropic,
		Endpoint: srv.URL,
		Auth:     models.Auth{Type: models.AuthLiteral, Value: "sk-ant-test"},
	}
	payload := prompt.Payload{Kind: prompt.KindChat, Messages: []prompt.ChatMessage{
		{Role: "system", Content: "you are helpful"},
		{Role: "user", Content: "hello"},
	}}
	a := newAnthropicAdapter()
	out, err := a.Send(t.Context(), payload, entry, 128)
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "generated text" {
		t.Fatalf("got %q", out.Text)
	}
	if out.Usage.PromptTokens != 7 || out.Usage.CompletionTokens != 3 {
		t.Fatalf("got usage %+v", out.Usage)
	}
}

func TestSplitAnthropicSystemSeparatesSystemRole(t *testing.T) {
	payload := prompt.Payload{Kind: prompt.KindChat, Messages: []prompt.ChatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}}
	system, messages := splitAnthropicSystem(payload)
	if system != "sys" {
		t.Fatalf("got system %q", system)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 non-system messages, got %d", len(messages))
	}
}
