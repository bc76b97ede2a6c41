// Package action implements the action engine (C8): named trigger→model→
// post-process configurations, and the three RPC shapes served on top of
// them (inline completion, generation, and code-action enumeration).
package action

import (
	"fmt"
	"strings"

	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/postprocess"
)

// Action is one configured trigger→model→post-process mapping. An Action
// with an empty Trigger is the implicit completion action offered to
// textDocument/completion when no other default is configured.
type Action struct {
	Trigger     string           `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	DisplayName string           `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	ModelRef    string           `json:"model_ref" yaml:"model_ref"`
	Parameters  map[string]any   `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	PostProcess postprocess.Rule `json:"post_process,omitempty" yaml:"post_process,omitempty"`
}

// Set is the validated collection of configured actions.
type Set struct {
	actions []Action
}

// Load validates that every action's ModelRef resolves in registry and
// returns the loaded Set. An unresolved ModelRef is a fatal configuration
// error — there is no such thing as a partially-usable action.
func Load(actions []Action, registry *models.Registry) (*Set, error) {
	for _, a := range actions {
		if _, ok := registry.Get(a.ModelRef); !ok {
			return nil, fmt.Errorf("action %q: model_ref %q is not a configured model", actionLabel(a), a.ModelRef)
		}
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return &Set{actions: out}, nil
}

func actionLabel(a Action) string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if a.Trigger != "" {
		return a.Trigger
	}
	return "(default)"
}

// Default returns the action textDocument/completion falls back to: the
// first action whose Trigger is empty. ok is false when no action
// configures one, meaning the caller has no completion action at all.
func (s *Set) Default() (Action, bool) {
	for _, a := range s.actions {
		if a.Trigger == "" {
			return a, true
		}
	}
	return Action{}, false
}

// Named returns the action whose DisplayName or Trigger equals name, for
// resolving textDocument/generation requests that name an action
// explicitly rather than supplying an ad-hoc one.
func (s *Set) Named(name string) (Action, bool) {
	for _, a := range s.actions {
		if a.DisplayName == name || a.Trigger == name {
			return a, true
		}
	}
	return Action{}, false
}

// AtCursor returns every action whose trigger string appears immediately
// before the cursor on linePrefix (the current line's text up to the
// cursor column), for textDocument/codeAction enumeration. Actions with
// an empty trigger never match here — they only serve as the completion
// default.
func (s *Set) AtCursor(linePrefix string) []Action {
	var hits []Action
	for _, a := range s.actions {
		if a.Trigger == "" {
			continue
		}
		if strings.HasSuffix(linePrefix, a.Trigger) {
			hits = append(hits, a)
		}
	}
	return hits
}
