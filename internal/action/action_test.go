package action

import (
	"testing"

	"github.com/lspai/lsp-ai/internal/models"
)

func validRegistry(t *testing.T) *models.Registry {
	t.Helper()
	reg, err := models.Load([]models.Entry{{
		Name:         "gpt",
		Kind:         models.KindOllama,
		Endpoint:     "http://localhost:11434",
		Auth:         models.Auth{Type: models.AuthNone},
		TokenBudgets: models.TokenBudgets{Completion: 64, Generation: 128},
		Template:     models.Template{Kind: models.TemplateRaw},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestLoadRejectsUnresolvedModelRef(t *testing.T) {
	reg := validRegistry(t)
	if _, err := Load([]Action{{Trigger: "", ModelRef: "missing"}}, reg); err == nil {
		t.Fatal("expected error for unresolved model_ref")
	}
}

func TestSetDefaultReturnsEmptyTriggerAction(t *testing.T) {
	reg := validRegistry(t)
	set, err := Load([]Action{
		{Trigger: "//gen", ModelRef: "gpt"},
		{Trigger: "", ModelRef: "gpt", DisplayName: "default completion"},
	}, reg)
	if err != nil {
		t.Fatal(err)
	}
	a, ok := set.Default()
	if !ok || a.DisplayName != "default completion" {
		t.Fatalf("got %+v, %v", a, ok)
	}
}

func TestSetDefaultAbsentWhenNoEmptyTrigger(t *testing.T) {
	reg := validRegistry(t)
	set, err := Load([]Action{{Trigger: "//gen", ModelRef: "gpt"}}, reg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := set.Default(); ok {
		t.Fatal("expected no default action")
	}
}

func TestSetNamedLooksUpByDisplayNameOrTrigger(t *testing.T) {
	reg := validRegistry(t)
	set, err := Load([]Action{{Trigger: "//explain", DisplayName: "Explain", ModelRef: "gpt"}}, reg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := set.Named("Explain"); !ok {
		t.Fatal("want match by display name")
	}
	if _, ok := set.Named("//explain"); !ok {
		t.Fatal("want match by trigger")
	}
	if _, ok := set.Named("nope"); ok {
		t.Fatal("want no match")
	}
}

func TestSetAtCursorMatchesTriggerSuffix(t *testing.T) {
	reg := validRegistry(t)
	set, err := Load([]Action{
		{Trigger: "//explain", ModelRef: "gpt"},
		{Trigger: "", ModelRef: "gpt"},
	}, reg)
	if err != nil {
		t.Fatal(err)
	}

	hits := set.AtCursor("foo //explain")
	if len(hits) != 1 || hits[0].Trigger != "//explain" {
		t.Fatalf("got %+v", hits)
	}

	if hits := set.AtCursor("foo bar"); len(hits) != 0 {
		t.Fatalf("got %+v, want none", hits)
	}
}
