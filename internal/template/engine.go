package template

import "strings"

// Template is a parsed, reusable template. Parsing is separated from
// rendering so a model's configured template can be checked for syntax
// errors at registry load time, before any completion request renders it.
type Template struct {
	nodes []node
}

// Parse compiles src into a reusable Template.
func Parse(src string) (*Template, error) {
	segs, err := lex(src)
	if err != nil {
		return nil, err
	}
	nodes, err := parse(segs)
	if err != nil {
		return nil, err
	}
	return &Template{nodes: nodes}, nil
}

// Render executes t against vars. Rendering is pure: the same src and vars
// always produce the same output or the same error, with no observable side
// effects.
func (t *Template) Render(vars map[string]any) (string, error) {
	var out strings.Builder
	scope := NewScope(vars)
	if err := renderNodes(t.nodes, scope, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

// Render is a convenience wrapper that parses src and renders it in one
// call. Callers rendering the same template repeatedly should use Parse
// once and reuse the Template instead.
func Render(src string, vars map[string]any) (string, error) {
	t, err := Parse(src)
	if err != nil {
		return "", err
	}
	return t.Render(vars)
}
