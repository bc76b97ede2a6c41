package action

// State names a point in a request's lifecycle, logged at Debug as the
// engine moves through it. Replied and the Cancelled sink are terminal;
// Cancelled is reachable from any non-terminal state but the engine never
// logs it, since cancellation is routine editor behavior rather than
// something worth tracing.
type State string

const (
	StateQueued        State = "queued"
	StateRateLimited   State = "rate_limited"
	StatePrompting     State = "prompting"
	StateCalling       State = "calling"
	StatePostProcess   State = "post_processing"
	StateReplied       State = "replied"
	StateCancelledSink State = "cancelled"
)
