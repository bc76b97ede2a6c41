// Package prompt assembles the transformer-ready payload (C2) from a
// document slice (C1) and a model's template configuration (C4), rendering
// chat-mode message templates through the restricted Jinja engine (C3).
//
// Builds a Messages slice from a system prompt plus conversation turns
// before handing off to an adapter, generalized to per-model templated
// messages instead of a fixed conversation shape.
package prompt

import (
	"strings"

	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/rope"
	"github.com/lspai/lsp-ai/internal/template"
)

// Kind selects which field of Payload is populated.
type Kind string

const (
	KindFIM  Kind = "fim"
	KindChat Kind = "chat"
	KindRaw  Kind = "raw"
)

// ChatMessage is one rendered chat turn.
type ChatMessage struct {
	Role    string
	Content string
}

// Payload is the adapter-ready prompt; Kind selects which fields are
// meaningful: Text for KindRaw, Messages for KindChat, and both Text and
// Prefix/Suffix for KindFIM. For KindFIM, Text carries
// the fully concatenated start+prefix+middle+suffix+end string for adapters
// that want one prompt string, while Prefix/Suffix carry the unconcatenated
// halves (with entry.Template.Start/Middle/End stripped) for adapters whose
// wire format wants the split kept apart.
type Payload struct {
	Kind     Kind
	Text     string
	Prefix   string
	Suffix   string
	Messages []ChatMessage
}

// Builder assembles Payloads. It is stateless; a single Builder is shared
// across concurrent requests.
type Builder struct{}

// NewBuilder returns a ready-to-use Builder.
func NewBuilder() *Builder { return &Builder{} }

// Build frames the document around pos per entry's template kind. context
// is the caller-supplied retrieval context string (the memory backend's
// output, or "" when none); vars carries any additional template variables
// an action configures beyond code/context.
//
// <CURSOR> appears in the rendered chat payload only when the template
// explicitly requests the framed code via {CODE} — never in FIM mode,
// where the cursor position is implicit in the prefix/middle/suffix split.
func (b *Builder) Build(snap rope.Snapshot, pos rope.Position, budgetChars int, entry *models.Entry, context string, vars map[string]any) (Payload, error) {
	switch {
	case entry.IsChat():
		return b.buildChat(snap, pos, budgetChars, entry, context, vars)
	case entry.IsFIM():
		return b.buildFIM(snap, pos, budgetChars, entry)
	default:
		return b.buildRaw(snap, pos, budgetChars)
	}
}

func (b *Builder) buildFIM(snap rope.Snapshot, pos rope.Position, budgetChars int, entry *models.Entry) (Payload, error) {
	sl, err := snap.Slice(pos, budgetChars, rope.ModeFIM)
	if err != nil {
		return Payload{}, err
	}
	t := entry.Template
	text := t.Start + sl.Prefix + t.Middle + sl.Suffix + t.End
	return Payload{Kind: KindFIM, Text: text, Prefix: sl.Prefix, Suffix: sl.Suffix}, nil
}

func (b *Builder) buildRaw(snap rope.Snapshot, pos rope.Position, budgetChars int) (Payload, error) {
	sl, err := snap.Slice(pos, budgetChars, rope.ModePrefixOnly)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Kind: KindRaw, Text: sl.Prefix}, nil
}

func (b *Builder) buildChat(snap rope.Snapshot, pos rope.Position, budgetChars int, entry *models.Entry, context string, vars map[string]any) (Payload, error) {
	sl, err := snap.Slice(pos, budgetChars, rope.ModeChat)
	if err != nil {
		return Payload{}, err
	}
	code := sl.Chat()

	scope := make(map[string]any, len(vars)+2)
	for k, v := range vars {
		scope[k] = v
	}
	scope["code"] = code
	scope["context"] = context

	messages := make([]ChatMessage, 0, len(entry.Template.Messages))
	for _, mt := range entry.Template.Messages {
		pre := SubstitutePlaceholders(mt.Content, code, context)
		rendered, err := template.Render(pre, scope)
		if err != nil {
			return Payload{}, err
		}
		messages = append(messages, ChatMessage{Role: mt.Role, Content: rendered})
	}
	return Payload{Kind: KindChat, Messages: messages}, nil
}

// SubstitutePlaceholders performs C8's pre-template literal replacement:
// {CODE} becomes the framed code slice, {CONTEXT} becomes the retrieval
// context, and <CURSOR> is left untouched since it is already the literal
// sentinel the template author wants passed through.
func SubstitutePlaceholders(src, code, context string) string {
	replacer := strings.NewReplacer("{CODE}", code, "{CONTEXT}", context)
	return replacer.Replace(src)
}
