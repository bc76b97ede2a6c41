// Package rope implements an immutable, structurally-shared text rope used to
// mirror editor buffers.
//
// The tree is a classic concat rope: leaves hold runs of UTF-8 bytes and
// interior nodes hold a left/right pair plus the byte-length of the left
// subtree ("weight"). Every mutating operation (Insert, Delete) returns a new
// *Node built by splitting and re-concatenating existing subtrees, so an
// older Node value remains valid and readable after a newer one is built —
// this is what makes document.Snapshot's copy-on-write semantics
// free: cloning a rope is just keeping a pointer to its root.
package rope

import "strings"

// leafTarget is the approximate byte size leaves are split/merged around.
// Keeping leaves in this range bounds tree depth without a full rebalance
// pass on every edit.
const leafTarget = 512

// Node is one node of the rope tree. A Node with Left == nil && Right == nil
// is a leaf and Text holds its bytes; otherwise Text is empty and Weight is
// the byte length of the left subtree.
type Node struct {
	Left, Right *Node
	Weight      int
	Text        string
}

// New builds a rope from a flat string, chunking it into leaves of roughly
// leafTarget bytes so very large documents don't start as one giant leaf.
func New(s string) *Node {
	if len(s) == 0 {
		return &Node{}
	}
	if len(s) <= leafTarget {
		return &Node{Text: s}
	}
	mid := len(s) / 2
	// Don't split a UTF-8 sequence in half.
	for mid < len(s) && isUTF8Continuation(s[mid]) {
		mid++
	}
	left := New(s[:mid])
	right := New(s[mid:])
	return concatNodes(left, right)
}

func isUTF8Continuation(b byte) bool {
	return b&0xC0 == 0x80
}

// Len returns the total byte length of the rope.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	if n.Left == nil && n.Right == nil {
		return len(n.Text)
	}
	return n.Weight + n.Right.Len()
}

// String flattens the rope to a single string.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	b.Grow(n.Len())
	n.writeTo(&b)
	return b.String()
}

func (n *Node) writeTo(b *strings.Builder) {
	if n == nil {
		return
	}
	if n.Left == nil && n.Right == nil {
		b.WriteString(n.Text)
		return
	}
	n.Left.writeTo(b)
	n.Right.writeTo(b)
}

// Slice returns the bytes in [start, end) as a string. Out-of-range bounds
// are clamped rather than faulting; callers that need strict validation
// (document.Table) check bounds themselves first.
func (n *Node) Slice(start, end int) string {
	total := n.Len()
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if start >= end {
		return ""
	}
	var b strings.Builder
	b.Grow(end - start)
	n.sliceTo(&b, start, end)
	return b.String()
}

func (n *Node) sliceTo(b *strings.Builder, start, end int) {
	if n == nil || start >= end {
		return
	}
	if n.Left == nil && n.Right == nil {
		if start < 0 {
			start = 0
		}
		if end > len(n.Text) {
			end = len(n.Text)
		}
		if start < end {
			b.WriteString(n.Text[start:end])
		}
		return
	}
	if start < n.Weight {
		n.Left.sliceTo(b, start, min(end, n.Weight))
	}
	if end > n.Weight {
		n.Right.sliceTo(b, max(start-n.Weight, 0), end-n.Weight)
	}
}

// Insert returns a new rope with s inserted at byte offset at.
func (n *Node) Insert(at int, s string) *Node {
	if s == "" {
		return n
	}
	if at <= 0 {
		return concatNodes(New(s), n)
	}
	if at >= n.Len() {
		return concatNodes(n, New(s))
	}
	left, right := n.split(at)
	return concatNodes(concatNodes(left, New(s)), right)
}

// Delete returns a new rope with the bytes in [start, end) removed.
func (n *Node) Delete(start, end int) *Node {
	total := n.Len()
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if start >= end {
		return n
	}
	left, _ := n.split(start)
	_, right := n.split(end)
	return concatNodes(left, right)
}

// split divides the rope into [0,at) and [at,len) as two new ropes sharing
// structure with the original wherever a subtree falls entirely on one side.
func (n *Node) split(at int) (*Node, *Node) {
	if n == nil || n.Left == nil && n.Right == nil {
		if n == nil {
			return &Node{}, &Node{}
		}
		if at <= 0 {
			return &Node{}, n
		}
		if at >= len(n.Text) {
			return n, &Node{}
		}
		return &Node{Text: n.Text[:at]}, &Node{Text: n.Text[at:]}
	}
	if at <= n.Weight {
		l, r := n.Left.split(at)
		return l, concatNodes(r, n.Right)
	}
	l, r := n.Right.split(at - n.Weight)
	return concatNodes(n.Left, l), r
}

// concatNodes joins two ropes, dropping empty sides and merging small
// adjacent leaves so depth doesn't grow unboundedly under many small edits.
func concatNodes(a, b *Node) *Node {
	if a.Len() == 0 {
		return b
	}
	if b.Len() == 0 {
		return a
	}
	if a.Left == nil && a.Right == nil && b.Left == nil && b.Right == nil &&
		len(a.Text)+len(b.Text) <= leafTarget {
		return &Node{Text: a.Text + b.Text}
	}
	return &Node{Left: a, Right: b, Weight: a.Len()}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
