package rope

import "testing"

// TestDidChangeIdempotence checks that re-sending an identical change at the
// same version does not apply twice or regress the document.
func TestDidChangeIdempotence(t *testing.T) {
	table := NewTable()
	table.Open("file:///a.go", "abc", 1, "go")

	change := func() error {
		return table.Change("file:///a.go", 2, []Edit{{Range: nil, Text: "abcd"}})
	}

	if err := change(); err != nil {
		t.Fatalf("first change: %v", err)
	}
	snap, err := table.Snapshot("file:///a.go")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Text() != "abcd" || snap.Version != 2 {
		t.Fatalf("after first change: text=%q version=%d", snap.Text(), snap.Version)
	}

	// Re-send the identical change at the same version: must be a no-op.
	if err := change(); err != nil {
		t.Fatalf("replayed change: %v", err)
	}
	snap, _ = table.Snapshot("file:///a.go")
	if snap.Text() != "abcd" || snap.Version != 2 {
		t.Fatalf("after replay: text=%q version=%d, want unchanged", snap.Text(), snap.Version)
	}
}

func TestChangeVersionRegressionDropped(t *testing.T) {
	table := NewTable()
	table.Open("file:///a.go", "abc", 5, "go")
	if err := table.Change("file:///a.go", 3, []Edit{{Range: nil, Text: "zzz"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, _ := table.Snapshot("file:///a.go")
	if snap.Text() != "abc" || snap.Version != 5 {
		t.Fatalf("stale change must be dropped: got text=%q version=%d", snap.Text(), snap.Version)
	}
}

func TestChangeIncrementalEdit(t *testing.T) {
	table := NewTable()
	table.Open("file:///a.go", "hello world", 1, "go")
	err := table.Change("file:///a.go", 2, []Edit{
		{Range: &Range{Start: Position{0, 6}, End: Position{0, 11}}, Text: "there"},
	})
	if err != nil {
		t.Fatal(err)
	}
	snap, _ := table.Snapshot("file:///a.go")
	if snap.Text() != "hello there" {
		t.Fatalf("got %q", snap.Text())
	}
}

func TestChangeOverlappingEditsRejected(t *testing.T) {
	table := NewTable()
	table.Open("file:///a.go", "abcdef", 1, "go")
	err := table.Change("file:///a.go", 2, []Edit{
		{Range: &Range{Start: Position{0, 0}, End: Position{0, 3}}, Text: "X"},
		{Range: &Range{Start: Position{0, 2}, End: Position{0, 5}}, Text: "Y"},
	})
	if err != ErrInvalidState {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
	// Nothing from the rejected change should have applied.
	snap, _ := table.Snapshot("file:///a.go")
	if snap.Text() != "abcdef" || snap.Version != 1 {
		t.Fatalf("overlapping change must leave doc untouched: text=%q version=%d", snap.Text(), snap.Version)
	}
}

func TestChangeOutOfBoundsRejected(t *testing.T) {
	table := NewTable()
	table.Open("file:///a.go", "abc", 1, "go")
	err := table.Change("file:///a.go", 2, []Edit{
		{Range: &Range{Start: Position{0, 0}, End: Position{5, 0}}, Text: "X"},
	})
	if err != ErrInvalidState {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}

func TestSnapshotUnaffectedByLaterChange(t *testing.T) {
	table := NewTable()
	table.Open("file:///a.go", "version one", 1, "go")
	snap, err := table.Snapshot("file:///a.go")
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Change("file:///a.go", 2, []Edit{{Range: nil, Text: "version two"}}); err != nil {
		t.Fatal(err)
	}
	// The snapshot taken before the change must still read the old text —
	// copy-on-write isolation.
	if snap.Text() != "version one" {
		t.Fatalf("snapshot mutated: got %q", snap.Text())
	}
	newSnap, _ := table.Snapshot("file:///a.go")
	if newSnap.Text() != "version two" {
		t.Fatalf("new snapshot not updated: got %q", newSnap.Text())
	}
}

func TestSnapshotUnknownURI(t *testing.T) {
	table := NewTable()
	if _, err := table.Snapshot("file:///missing.go"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCloseThenSnapshot(t *testing.T) {
	table := NewTable()
	table.Open("file:///a.go", "abc", 1, "go")
	table.Close("file:///a.go")
	if _, err := table.Snapshot("file:///a.go"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound after close", err)
	}
	// Closing again (or an unknown URI) is a no-op, not an error.
	table.Close("file:///a.go")
	table.Close("file:///never-opened.go")
}
