package rope

import "errors"

// ErrNotFound is returned by Table.Snapshot/Table.Change for an unknown
// URI.
var ErrNotFound = errors.New("document not found")

// ErrRange is returned when a requested position falls outside the current
// document bounds. This is treated as an editor race, never a fault, so
// callers should degrade gracefully (empty result) rather than surface it
// as a hard error.
var ErrRange = errors.New("position out of range")

// ErrInvalidState is returned when a change's edits overlap or fall outside
// current document bounds. No edit from the offending change is
// applied.
var ErrInvalidState = errors.New("invalid change: overlapping or out-of-bounds edits")
