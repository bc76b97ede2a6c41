package models

import "testing"

func TestLoadAndGet(t *testing.T) {
	entries := []Entry{validEntry(KindOpenAI), validEntry(KindOllama)}
	entries[0].Name = "gpt"
	entries[1].Name = "local-ollama"

	reg, err := Load(entries)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 {
		t.Fatalf("got %d entries", reg.Len())
	}
	e, ok := reg.Get("gpt")
	if !ok || e.Kind != KindOpenAI {
		t.Fatalf("got %+v, %v", e, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Fatal("expected missing model to not be found")
	}
}

func TestLoadRejectsDuplicateNames(t *testing.T) {
	entries := []Entry{validEntry(KindOpenAI), validEntry(KindOpenAI)}
	entries[0].Name = "dup"
	entries[1].Name = "dup"
	if _, err := Load(entries); err == nil {
		t.Fatal("expected error for duplicate model name")
	}
}

func TestLoadPropagatesValidationError(t *testing.T) {
	entries := []Entry{validEntry(KindOpenAI)}
	entries[0].Endpoint = ""
	if _, err := Load(entries); err == nil {
		t.Fatal("expected error from invalid entry")
	}
}

func TestAdapterForCachesAndReusesInstance(t *testing.T) {
	entries := []Entry{validEntry(KindOpenAI)}
	entries[0].Name = "gpt"
	reg, err := Load(entries)
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	factory := func(e *Entry) (any, error) {
		calls++
		return &struct{ n string }{n: e.Name}, nil
	}

	first, err := reg.AdapterFor("gpt", factory)
	if err != nil {
		t.Fatal(err)
	}
	second, err := reg.AdapterFor("gpt", factory)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("expected the same cached instance on the second call")
	}
	if calls != 1 {
		t.Fatalf("factory called %d times, want 1", calls)
	}
}

func TestAdapterForUnknownNameErrors(t *testing.T) {
	reg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.AdapterFor("missing", func(e *Entry) (any, error) { return nil, nil }); err == nil {
		t.Fatal("expected error for unknown model name")
	}
}

func TestNamesReturnsLoadOrder(t *testing.T) {
	entries := []Entry{validEntry(KindOpenAI), validEntry(KindAnthropic)}
	entries[0].Name = "a"
	entries[1].Name = "b"
	reg, err := Load(entries)
	if err != nil {
		t.Fatal(err)
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("got %v", names)
	}
}
