package lspserver

import (
	"sync"
	"time"
)

// CompletionDebouncer coalesces inline-completion requests arriving
// within one debounce interval of the previous accepted one: only the
// most recent request in a burst proceeds, every earlier one in that
// burst is told to resolve empty instead.
//
// Adapted from the accumulate-then-batch-flush debounce shape used
// elsewhere for message batching, but tracking a single "latest sequence
// number" per session rather than an accumulating slice — a superseded
// completion reply is worthless once a newer request exists, nothing to
// merge it with.
type CompletionDebouncer struct {
	interval time.Duration

	mu    sync.Mutex
	state map[string]*sessionState
	seq   int64
}

type sessionState struct {
	lastAccepted time.Time
	latest       int64
}

// NewCompletionDebouncer returns a debouncer enforcing interval between
// accepted requests per session. interval <= 0 disables debouncing —
// every request is admitted immediately.
func NewCompletionDebouncer(interval time.Duration) *CompletionDebouncer {
	return &CompletionDebouncer{interval: interval, state: make(map[string]*sessionState)}
}

// Admit registers a completion request for session and reports whether
// it should proceed. A request outside the cooldown window proceeds
// immediately. One arriving inside the window waits out the remainder of
// the window and then proceeds only if no later request has arrived for
// the same session in the meantime; otherwise it returns false without
// waiting further, since it is already known to be superseded.
func (d *CompletionDebouncer) Admit(session string) bool {
	if d.interval <= 0 {
		return true
	}

	d.mu.Lock()
	d.seq++
	mySeq := d.seq
	st, ok := d.state[session]
	if !ok {
		st = &sessionState{}
		d.state[session] = st
	}
	st.latest = mySeq
	wait := d.interval - time.Since(st.lastAccepted)
	d.mu.Unlock()

	if wait <= 0 {
		d.mu.Lock()
		accept := st.latest == mySeq
		if accept {
			st.lastAccepted = time.Now()
		}
		d.mu.Unlock()
		return accept
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	<-timer.C

	d.mu.Lock()
	defer d.mu.Unlock()
	if st.latest != mySeq {
		return false
	}
	st.lastAccepted = time.Now()
	return true
}
