// Package models implements the model registry: parsing, validating, and
// exposing the named model entries actions refer to by string name.
//
// Entries carry the adapter-facing fields every backend needs (model
// name, sampling knobs, token budgets) as an arbitrary named set loaded
// from the initialization payload, rather than a fixed provider list.
package models

import (
	"fmt"
	"os"

	"github.com/lspai/lsp-ai/internal/template"
)

// Kind names an adapter variant (C5). Validate rejects any value outside
// this set.
type Kind string

const (
	KindLocal      Kind = "local"
	KindOpenAI     Kind = "openai"
	KindAnthropic  Kind = "anthropic"
	KindMistralFIM Kind = "mistral_fim"
	KindGemini     Kind = "gemini"
	KindOllama     Kind = "ollama"
)

func (k Kind) valid() bool {
	switch k {
	case KindLocal, KindOpenAI, KindAnthropic, KindMistralFIM, KindGemini, KindOllama:
		return true
	}
	return false
}

// AuthType selects how an Entry's credential is obtained.
type AuthType string

const (
	AuthEnvVar  AuthType = "env_var"
	AuthLiteral AuthType = "literal"
	AuthNone    AuthType = "none"
)

// Auth is the `auth: variant {env_var | literal | none}` field.
type Auth struct {
	Type  AuthType `json:"type" yaml:"type"`
	Value string   `json:"value,omitempty" yaml:"value,omitempty"`
}

// Resolve returns the credential string, reading the environment when
// Type is AuthEnvVar. An AuthEnvVar naming an unset or empty variable is an
// error — the caller asked for a credential that isn't there.
func (a Auth) Resolve() (string, error) {
	switch a.Type {
	case AuthEnvVar:
		v := os.Getenv(a.Value)
		if v == "" {
			return "", fmt.Errorf("environment variable %q is unset", a.Value)
		}
		return v, nil
	case AuthLiteral:
		return a.Value, nil
	case AuthNone, "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown auth type %q", a.Type)
	}
}

func (a Auth) requiresCredential() bool {
	return a.Type == AuthEnvVar || a.Type == AuthLiteral
}

// TokenBudgets bounds prompt/response sizing per request.
type TokenBudgets struct {
	Completion int `json:"completion" yaml:"completion"`
	Generation int `json:"generation" yaml:"generation"`
	MaxContext int `json:"max_context" yaml:"max_context"`
}

// Sampling carries the provider-agnostic generation knobs; adapters
// pass through whichever of these their wire format accepts.
type Sampling struct {
	Temperature      *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty" yaml:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty" yaml:"presence_penalty,omitempty"`
}

// Rate is the per-model rate limit configuration consumed by C6.
type Rate struct {
	MaxRequestsPerSecond *float64 `json:"max_requests_per_second,omitempty" yaml:"max_requests_per_second,omitempty"`
}

// TemplateKind selects which variant of Template is populated.
type TemplateKind string

const (
	TemplateChat TemplateKind = "chat"
	TemplateFIM  TemplateKind = "fim"
	TemplateRaw  TemplateKind = "raw"
)

// MessageTemplate is one chat-mode message; Content is a template source
// string rendered by the template engine against the prompt's variables.
type MessageTemplate struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Template is the `template: variant {chat(messages[]) | fim(start,middle,end)
// | raw}` field. Exactly one variant applies, selected by Kind.
type Template struct {
	Kind     TemplateKind      `json:"kind" yaml:"kind"`
	Messages []MessageTemplate `json:"messages,omitempty" yaml:"messages,omitempty"`
	Start    string            `json:"start,omitempty" yaml:"start,omitempty"`
	Middle   string            `json:"middle,omitempty" yaml:"middle,omitempty"`
	End      string            `json:"end,omitempty" yaml:"end,omitempty"`
}

// LocalConfig is populated when Kind == KindLocal: the weight fetcher needs
// a repository+name pair to resolve and cache the model file.
type LocalConfig struct {
	Repository string `json:"repository" yaml:"repository"`
	Name       string `json:"name" yaml:"name"`
	NCtx       int    `json:"n_ctx,omitempty" yaml:"n_ctx,omitempty"`
	NGPULayers int    `json:"n_gpu_layers,omitempty" yaml:"n_gpu_layers,omitempty"`
}

// Entry is one named model configuration (C4's ModelEntry).
type Entry struct {
	Name                string       `json:"name" yaml:"name"`
	Kind                Kind         `json:"kind" yaml:"kind"`
	Endpoint            string       `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	ChatEndpoint        string       `json:"chat_endpoint,omitempty" yaml:"chat_endpoint,omitempty"`
	CompletionsEndpoint string       `json:"completions_endpoint,omitempty" yaml:"completions_endpoint,omitempty"`
	Auth                Auth         `json:"auth" yaml:"auth"`
	TokenBudgets        TokenBudgets `json:"token_budgets" yaml:"token_budgets"`
	Sampling            Sampling     `json:"sampling,omitempty" yaml:"sampling,omitempty"`
	Rate                Rate         `json:"rate,omitempty" yaml:"rate,omitempty"`
	Template            Template     `json:"template" yaml:"template"`
	Local               *LocalConfig `json:"local,omitempty" yaml:"local,omitempty"`
}

// requiresEndpoint reports whether Validate demands an endpoint for k.
// Local models are located through LocalConfig instead, and the anthropic
// adapter falls back to its SDK's default base URL when none is set.
// requiresAuth reports whether k needs a credential; local and ollama run
// without an API key.
func (k Kind) requiresEndpoint() bool {
	switch k {
	case KindOpenAI, KindMistralFIM, KindGemini, KindOllama:
		return true
	default:
		return false
	}
}

func (k Kind) requiresAuth() bool {
	switch k {
	case KindOpenAI, KindAnthropic, KindMistralFIM, KindGemini:
		return true
	default:
		return false
	}
}

// Validate checks that e is well-formed: resolvable kind, endpoint and
// credentials present where the adapter needs them, non-negative rate
// limit, and a template variant consistent with Kind whose chat message
// templates parse. It does not contact
// the network or resolve env vars beyond a presence check.
func (e *Entry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("model entry missing name")
	}
	if !e.Kind.valid() {
		return fmt.Errorf("model %q: unknown kind %q", e.Name, e.Kind)
	}
	if e.Kind == KindLocal {
		if e.Local == nil || e.Local.Repository == "" || e.Local.Name == "" {
			return fmt.Errorf("model %q: kind local requires local.repository and local.name", e.Name)
		}
	} else if e.Kind.requiresEndpoint() && e.Endpoint == "" {
		return fmt.Errorf("model %q: kind %q requires an endpoint", e.Name, e.Kind)
	}
	if e.Kind.requiresAuth() && !e.Auth.requiresCredential() {
		return fmt.Errorf("model %q: kind %q requires auth.type env_var or literal", e.Name, e.Kind)
	}
	if e.Auth.Type == AuthEnvVar && e.Auth.Value == "" {
		return fmt.Errorf("model %q: auth.type env_var requires auth.value", e.Name)
	}
	if e.Rate.MaxRequestsPerSecond != nil && *e.Rate.MaxRequestsPerSecond < 0 {
		return fmt.Errorf("model %q: rate.max_requests_per_second must be >= 0", e.Name)
	}
	switch e.Template.Kind {
	case TemplateChat:
		if len(e.Template.Messages) == 0 {
			return fmt.Errorf("model %q: template kind chat requires at least one message", e.Name)
		}
		for i, m := range e.Template.Messages {
			if _, err := template.Parse(m.Content); err != nil {
				return fmt.Errorf("model %q: template message %d: %w", e.Name, i, err)
			}
		}
	case TemplateFIM:
		if e.Kind == KindAnthropic || e.Kind == KindGemini || e.Kind == KindOllama {
			return fmt.Errorf("model %q: kind %q does not support FIM templates", e.Name, e.Kind)
		}
	case TemplateRaw:
		// no further constraints
	default:
		return fmt.Errorf("model %q: unknown template kind %q", e.Name, e.Template.Kind)
	}
	return nil
}

// IsChat reports whether the model's prompt is built from rendered chat
// messages. Chat dominates FIM when a model entry (structurally) could be
// read either way, so callers check IsChat before IsFIM.
func (e *Entry) IsChat() bool { return e.Template.Kind == TemplateChat }

// IsFIM reports whether the model expects start+prefix+middle+suffix+end
// framing rather than chat messages.
func (e *Entry) IsFIM() bool { return e.Template.Kind == TemplateFIM }

// ResolvedChatEndpoint returns ChatEndpoint when set, falling back to the
// shared Endpoint field for configs that don't distinguish the two.
func (e *Entry) ResolvedChatEndpoint() string {
	if e.ChatEndpoint != "" {
		return e.ChatEndpoint
	}
	return e.Endpoint
}

// ResolvedCompletionsEndpoint returns CompletionsEndpoint when set, falling
// back to the shared Endpoint field for configs that don't distinguish the
// two.
func (e *Entry) ResolvedCompletionsEndpoint() string {
	if e.CompletionsEndpoint != "" {
		return e.CompletionsEndpoint
	}
	return e.Endpoint
}
