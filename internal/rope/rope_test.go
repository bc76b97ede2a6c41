package rope

import "testing"

func TestNewAndString(t *testing.T) {
	cases := []string{"", "hello", "line1\nline2\nline3", bigText(2000)}
	for _, c := range cases {
		n := New(c)
		if got := n.String(); got != c {
			t.Fatalf("String() mismatch: got %d bytes, want %d bytes", len(got), len(c))
		}
		if n.Len() != len(c) {
			t.Fatalf("Len() = %d, want %d", n.Len(), len(c))
		}
	}
}

func bigText(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + i%26)
		if i%50 == 49 {
			b[i] = '\n'
		}
	}
	return string(b)
}

func TestSlice(t *testing.T) {
	n := New("abcdefghij")
	tests := []struct {
		start, end int
		want       string
	}{
		{0, 10, "abcdefghij"},
		{0, 0, ""},
		{3, 7, "defg"},
		{-5, 3, "abc"},
		{8, 100, "ij"},
	}
	for _, tt := range tests {
		if got := n.Slice(tt.start, tt.end); got != tt.want {
			t.Errorf("Slice(%d,%d) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestInsertDelete(t *testing.T) {
	n := New("hello world")
	n2 := n.Insert(5, ",")
	if got := n2.String(); got != "hello, world" {
		t.Fatalf("Insert: got %q", got)
	}
	// original unmutated (structural sharing / immutability).
	if got := n.String(); got != "hello world" {
		t.Fatalf("original mutated: got %q", got)
	}

	n3 := n2.Delete(5, 6)
	if got := n3.String(); got != "hello world" {
		t.Fatalf("Delete: got %q", got)
	}
}

func TestInsertDeleteAgainstLargeRope(t *testing.T) {
	base := bigText(5000)
	n := New(base)
	// naive reference: apply the same edit to the plain string.
	at := 2500
	ins := "INSERTED-TEXT"
	n = n.Insert(at, ins)
	want := base[:at] + ins + base[at:]
	if got := n.String(); got != want {
		t.Fatalf("large insert mismatch at byte 100: got[...]=%q want[...]=%q",
			got[at-5:at+20], want[at-5:at+20])
	}

	n = n.Delete(at, at+len(ins))
	if got := n.String(); got != base {
		t.Fatalf("large delete did not round-trip")
	}
}

func TestConcatMergesSmallLeaves(t *testing.T) {
	a := New("ab")
	b := New("cd")
	c := concatNodes(a, b)
	if c.Left != nil || c.Right != nil {
		t.Fatalf("expected small leaves to merge into a single leaf")
	}
	if c.Text != "abcd" {
		t.Fatalf("merged text = %q", c.Text)
	}
}
