package template

import "testing"

func TestRenderPlainSubstitution(t *testing.T) {
	out, err := Render("hello {{name}}!", map[string]any{"name": "world"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello world!" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderUndefinedVariableIsHardError(t *testing.T) {
	_, err := Render("hello {{missing}}", map[string]any{})
	if err == nil {
		t.Fatal("expected error for undefined variable")
	}
}

func TestRenderDefaultFilterRescuesUndefined(t *testing.T) {
	out, err := Render("hello {{name | default(\"stranger\")}}", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello stranger" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderDefaultFilterIsNoopWhenDefined(t *testing.T) {
	out, err := Render("hello {{name | default(\"stranger\")}}", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello ada" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderTrimFilter(t *testing.T) {
	out, err := Render("[{{name | trim}}]", map[string]any{"name": "  ada  "})
	if err != nil {
		t.Fatal(err)
	}
	if out != "[ada]" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderTrimMarkers(t *testing.T) {
	src := "a\n{%- if x -%}\nb\n{%- endif -%}\nc"
	out, err := Render(src, map[string]any{"x": true})
	if err != nil {
		t.Fatal(err)
	}
	if out != "abc" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderIfElse(t *testing.T) {
	src := "{% if flag %}yes{% else %}no{% endif %}"
	out, err := Render(src, map[string]any{"flag": true})
	if err != nil {
		t.Fatal(err)
	}
	if out != "yes" {
		t.Fatalf("got %q", out)
	}
	out, err = Render(src, map[string]any{"flag": false})
	if err != nil {
		t.Fatal(err)
	}
	if out != "no" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderNestedFieldAccess(t *testing.T) {
	out, err := Render("{{user.name}}", map[string]any{
		"user": map[string]any{"name": "grace"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "grace" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderForLoopOverMessages(t *testing.T) {
	src := "{% for m in messages %}[{{m.role}}:{{m.content}}]{% endfor %}"
	vars := map[string]any{
		"messages": []any{
			map[string]any{"role": "system", "content": "be terse"},
			map[string]any{"role": "user", "content": "hi"},
		},
	}
	out, err := Render(src, vars)
	if err != nil {
		t.Fatal(err)
	}
	want := "[system:be terse][user:hi]"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRenderEqualityComparison(t *testing.T) {
	src := "{% if kind == \"chat\" %}C{% else %}F{% endif %}"
	out, err := Render(src, map[string]any{"kind": "chat"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "C" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderAndOrNot(t *testing.T) {
	src := "{% if not a and b %}yes{% else %}no{% endif %}"
	out, err := Render(src, map[string]any{"a": false, "b": true})
	if err != nil {
		t.Fatal(err)
	}
	if out != "yes" {
		t.Fatalf("got %q", out)
	}
}

func TestParseReuse(t *testing.T) {
	tmpl, err := Parse("{{x}}-{{x}}")
	if err != nil {
		t.Fatal(err)
	}
	out1, err := tmpl.Render(map[string]any{"x": "a"})
	if err != nil {
		t.Fatal(err)
	}
	out2, err := tmpl.Render(map[string]any{"x": "b"})
	if err != nil {
		t.Fatal(err)
	}
	if out1 != "a-a" || out2 != "b-b" {
		t.Fatalf("got %q, %q", out1, out2)
	}
}

func TestUnterminatedTagIsSyntaxError(t *testing.T) {
	if _, err := Parse("{% if x %}no close"); err == nil {
		t.Fatal("expected unterminated-tag error")
	}
}

func TestMismatchedEndIsSyntaxError(t *testing.T) {
	if _, err := Parse("{% for x in xs %}body{% endif %}"); err == nil {
		t.Fatal("expected mismatched-tag error")
	}
}
