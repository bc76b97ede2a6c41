package lspserver

import "github.com/lspai/lsp-ai/internal/rope"

// toRopePosition narrows LSP's UTF-16 line/character pair (carried as
// uint32 over the wire) to the rope package's int-based Position.
func toRopePosition(line, character uint32) rope.Position {
	return rope.Position{Line: int(line), Character: int(character)}
}

// contentChangeToEdit converts one didChange content-change entry into a
// rope.Edit. hasRange distinguishes a ranged incremental edit from a
// whole-document replacement (LSP represents the latter as a change with
// no range), matching rope.Edit's own nil-Range convention.
func contentChangeToEdit(hasRange bool, start, end rope.Position, text string) rope.Edit {
	if !hasRange {
		return rope.Edit{Text: text}
	}
	return rope.Edit{Range: &rope.Range{Start: start, End: end}, Text: text}
}
