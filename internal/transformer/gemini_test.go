package transformer

import (
	"testing"

	"github.com/lspai/lsp-ai/internal/prompt"
	"google.golang.org/genai"
)

func TestSplitGeminiSystemMapsRolesAndHoistsSystem(t *testing.T) {
	payload := prompt.Payload{Kind: prompt.KindChat, Messages: []prompt.ChatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}}
	system, contents := splitGeminiSystem(payload)
	if system != "sys" {
		t.Fatalf("got system %q", system)
	}
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != genai.RoleUser || contents[1].Role != genai.RoleModel {
		t.Fatalf("unexpected roles: %q %q", contents[0].Role, contents[1].Role)
	}
}

func TestSplitGeminiSystemNonChatPayload(t *testing.T) {
	_, contents := splitGeminiSystem(prompt.Payload{Kind: prompt.KindRaw, Text: "raw"})
	if len(contents) != 1 || contents[0].Parts[0].Text != "raw" {
		t.Fatalf("unexpected contents: %+v", contents)
	}
}
