package lspserver

import (
	"testing"

	"github.com/lspai/lsp-ai/internal/rope"
)

func TestToRopePositionNarrowsUTF16Pair(t *testing.T) {
	got := toRopePosition(3, 12)
	want := rope.Position{Line: 3, Character: 12}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestContentChangeToEditWholeDocumentHasNilRange(t *testing.T) {
	edit := contentChangeToEdit(false, rope.Position{}, rope.Position{}, "replacement")
	if edit.Range != nil {
		t.Fatalf("got non-nil range %+v for a whole-document replacement", edit.Range)
	}
	if edit.Text != "replacement" {
		t.Fatalf("got text %q", edit.Text)
	}
}

func TestContentChangeToEditRangedEditCarriesRange(t *testing.T) {
	start := rope.Position{Line: 1, Character: 0}
	end := rope.Position{Line: 1, Character: 4}
	edit := contentChangeToEdit(true, start, end, "abcd")
	if edit.Range == nil || edit.Range.Start != start || edit.Range.End != end {
		t.Fatalf("got %+v", edit.Range)
	}
}
