// Package rope also defines the document table that mirrors editor buffers:
// open/change/close lifecycle, version tracking, and the prefix/suffix
// slicing queries the prompt builder consumes.
//
// Snapshots are immutable and passed by value, the same copy-on-write
// discipline applied here to a rope-backed buffer instead of chat-message
// history.
package rope

import (
	"sort"
	"sync"
)

// Edit is one LSP-style content change. A nil Range denotes a whole-document
// replacement.
type Edit struct {
	Range *Range
	Text  string
}

// Document is a table entry: identity plus current rope state and version.
// Change builds a new *Node and then updates the entry's root and Version in
// place under the table's write lock; a Snapshot copies those fields out, so
// it never changes after it is taken.
type Document struct {
	URI      string
	Language string
	Version  int
	root     *Node
}

// Snapshot is an immutable view of a document at a specific version. Cheap
// to obtain because the underlying rope is structurally shared — taking
// a Snapshot never blocks a concurrent writer for longer than a pointer read.
type Snapshot struct {
	URI      string
	Language string
	Version  int
	root     *Node
}

// Text returns the full document text. O(n) — use Slice for prefix/suffix
// queries, which only touches the rope nodes covering the requested range.
func (s Snapshot) Text() string {
	return s.root.String()
}

// Len returns the document's byte length.
func (s Snapshot) Len() int {
	return s.root.Len()
}

// Table is the concurrent mirror of all open editor buffers, keyed by URI.
// A single exclusive writer mutates the map and rope roots; readers
// (Snapshot) only need a brief RLock to copy out a root pointer.
type Table struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewTable creates an empty document table.
func NewTable() *Table {
	return &Table{docs: make(map[string]*Document)}
}

// Open creates (or replaces) a document.
func (t *Table) Open(uri, text string, version int, language string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.docs[uri] = &Document{
		URI:      uri,
		Language: language,
		Version:  version,
		root:     New(text),
	}
}

// Close removes a document from the table. Closing an unknown URI is a
// no-op, matching editors that may send redundant didClose notifications.
func (t *Table) Close(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.docs, uri)
}

// Change applies a batch of edits as a single atomic commit.
//
// Edit ranges are interpreted against the document state as it was *before*
// this change (not against each other sequentially) — the required coherence
// check (no two ranges overlap, all ranges in bounds) only makes sense in a
// single shared coordinate space. If the check fails, ErrInvalidState is
// returned and nothing from this change is applied — buffering happens by
// construction since we never mutate the stored rope until every edit has
// been validated and composed into one replacement.
//
// Per the idempotent-replay invariant, a change whose version is <= the
// currently stored version is silently dropped (returns nil, no-op).
func (t *Table) Change(uri string, version int, edits []Edit) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc, ok := t.docs[uri]
	if !ok {
		return ErrNotFound
	}
	if version <= doc.Version {
		return nil
	}

	newRoot, err := applyEdits(doc.root, edits)
	if err != nil {
		return err
	}

	doc.root = newRoot
	doc.Version = version
	return nil
}

// applyEdits validates and composes a batch of edits against root, returning
// the resulting rope without mutating root.
func applyEdits(root *Node, edits []Edit) (*Node, error) {
	if len(edits) == 0 {
		return root, nil
	}

	// A nil Range (whole-document replace) must be the sole edit: mixing it
	// with ranged edits against the same coordinate space is incoherent.
	for _, e := range edits {
		if e.Range == nil {
			if len(edits) != 1 {
				return nil, ErrInvalidState
			}
			return New(e.Text), nil
		}
	}

	text := root.String()
	type span struct {
		start, end int
		newText    string
	}
	spans := make([]span, 0, len(edits))
	for _, e := range edits {
		if !ValidPosition(text, e.Range.Start) || !ValidPosition(text, e.Range.End) {
			return nil, ErrInvalidState
		}
		start := ByteOffset(text, e.Range.Start)
		end := ByteOffset(text, e.Range.End)
		if start > end {
			return nil, ErrInvalidState
		}
		spans = append(spans, span{start: start, end: end, newText: e.Text})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return nil, ErrInvalidState
		}
	}

	// Apply from the rightmost span backward so earlier byte offsets stay
	// valid across the loop.
	result := root
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		result = result.Delete(s.start, s.end)
		result = result.Insert(s.start, s.newText)
	}
	return result, nil
}

// Snapshot returns an immutable view of the named document. ErrNotFound if
// the URI is unknown.
func (t *Table) Snapshot(uri string) (Snapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	doc, ok := t.docs[uri]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{URI: doc.URI, Language: doc.Language, Version: doc.Version, root: doc.root}, nil
}
