package store

import "time"

// ServerInfo is the storage representation of the upstream payload.
type ServerInfo struct {
	// Uptime is the upstream uptime in milliseconds.
	Uptime float64 `json:"uptime"`

	// Count is the upstream counter.
	Count int64 `json:"count"`
}

// Outcome describes one completed poll.
type Outcome struct {
	// Seq is the issue order of the request.
	Seq uint64 `json:"seq"`

	// OK reports whether the poll produced a usable payload.
	OK bool `json:"ok"`

	// ErrorKind classifies a failed poll (e.g. "network", "decode").
	// Empty for successful polls.
	ErrorKind string `json:"error_kind,omitempty"`

	// Error contains the error message if the poll failed.
	Error *string `json:"error"`

	// StatusCode is the HTTP status code, zero if no response arrived.
	StatusCode int `json:"status_code"`

	// ResponseTimeMs is the request latency in milliseconds.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// CheckedAt is the completion time of the poll.
	CheckedAt time.Time `json:"checked_at"`
}

// Update is a poll outcome to be applied to the store.
type Update struct {
	Outcome

	// Info is the decoded payload. nil for failed polls, which leave the
	// stored info untouched.
	Info *ServerInfo
}

// Snapshot is a consistent copy of the whole view state.
type Snapshot struct {
	// Instance identifies the running board; it changes on restart, which
	// is when the click counter resets.
	Instance string `json:"instance"`

	// Clicks is the local click counter.
	Clicks int64 `json:"clicks"`

	// Info is the last known-good server info, or the zero placeholder.
	Info ServerInfo `json:"info"`

	// Last is the most recently applied poll outcome. nil until a poll has
	// been applied.
	Last *Outcome `json:"last"`

	// AppliedSeq is the sequence number of Last, zero if none.
	AppliedSeq uint64 `json:"applied_seq"`

	// Failures counts applied failed polls.
	Failures int64 `json:"failures"`

	// UpdatedAt is the time of the last state change.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the interface for mutating and subscribing to view state.
//
// Store implementations must be safe for concurrent access. Every mutation
// publishes the resulting [Snapshot] to subscribers.
type Store interface {
	// Increment adds one to the click counter and returns the new state.
	Increment() Snapshot

	// Apply records a poll outcome. It returns false if the outcome was
	// rejected as stale and left the state unchanged.
	Apply(u Update) (Snapshot, bool)

	// Snapshot returns the current state.
	Snapshot() Snapshot

	// Subscribe returns a channel that receives a snapshot after every change.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Snapshot

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Snapshot)
}
