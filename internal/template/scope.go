package template

// Scope is the variable environment a template renders against. Values may
// be strings, numbers, bools, nested map[string]any objects, or []any for
// {% for %} iteration.
type Scope struct {
	vars map[string]any
}

// NewScope wraps vars as a render-time scope. vars is not copied.
func NewScope(vars map[string]any) *Scope {
	return &Scope{vars: vars}
}

func (s *Scope) lookup(path []string) (any, bool, error) {
	var cur any = s.vars
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		v, ok := m[key]
		if !ok {
			return nil, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

// child returns a new Scope for loop bodies: name resolves to value, and
// every other lookup falls back to the parent.
func (s *Scope) child(name string, value any) *Scope {
	merged := make(map[string]any, len(s.vars)+1)
	for k, v := range s.vars {
		merged[k] = v
	}
	merged[name] = value
	return &Scope{vars: merged}
}
