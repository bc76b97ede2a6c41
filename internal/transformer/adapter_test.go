package transformer

import (
	"testing"

	"github.com/lspai/lsp-ai/internal/models"
)

func TestNewDispatchesOnKind(t *testing.T) {
	cases := []struct {
		kind models.Kind
		want any
	}{
		{models.KindOpenAI, &openaiAdapter{}},
		{models.KindAnthropic, &anthropicAdapter{}},
		{models.KindGemini, &geminiAdapter{}},
		{models.KindOllama, &ollamaAdapter{}},
		{models.KindMistralFIM, &mistralAdapter{}},
		{models.KindLocal, &localAdapter{}},
	}
	for _, c := range cases {
		a, err := New(&models.Entry{Name: "m", Kind: c.kind})
		if err != nil {
			t.Fatalf("%v: %v", c.kind, err)
		}
		if a == nil {
			t.Fatalf("%v: nil adapter", c.kind)
		}
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New(&models.Entry{Name: "m", Kind: models.Kind("bogus")})
	if err == nil {
		t.Fatal("expected error")
	}
}
