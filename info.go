package infopulse

import (
	"errors"
	"fmt"
	"time"
)

// ServerInfo is the payload of the info endpoint.
//
// It maps to the JSON body {"uptime": <milliseconds>, "count": <integer>}.
// The zero value is the placeholder shown before the first successful poll.
type ServerInfo struct {
	// UptimeMs is the upstream uptime in milliseconds. Never negative.
	UptimeMs float64

	// Count is the upstream counter. Never negative.
	Count int64
}

// UptimeSeconds returns the uptime in seconds, unrounded.
func (i ServerInfo) UptimeSeconds() float64 {
	return i.UptimeMs / 1000
}

// Uptime returns the uptime as a [time.Duration], truncated to nanoseconds.
func (i ServerInfo) Uptime() time.Duration {
	return time.Duration(i.UptimeMs * float64(time.Millisecond))
}

// ErrorKind classifies why a poll failed.
//
// ErrorKind is a string type so it serializes readably in logs and JSON.
type ErrorKind string

const (
	// KindNone marks a successful poll.
	KindNone ErrorKind = ""

	// KindNetwork indicates the request could not complete: connection
	// refused, DNS failure, timeout or cancellation.
	KindNetwork ErrorKind = "network"

	// KindStatus indicates a response with a non-2xx status code.
	KindStatus ErrorKind = "status"

	// KindDecode indicates the body was not valid JSON.
	KindDecode ErrorKind = "decode"

	// KindShape indicates valid JSON that does not have the expected fields,
	// types or ranges.
	KindShape ErrorKind = "shape"

	// KindCanceled indicates a request cancelled because a newer tick
	// superseded it. Such results are never applied.
	KindCanceled ErrorKind = "canceled"
)

// String returns the string representation of the kind.
// This implements the fmt.Stringer interface.
func (k ErrorKind) String() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}

// Sentinel errors wrapped by every failed [Result]. Use [errors.Is] to test
// for a kind, or [KindOf] to classify an error.
var (
	ErrNetwork  = errors.New("network error")
	ErrStatus   = errors.New("unexpected HTTP status")
	ErrDecode   = errors.New("invalid JSON")
	ErrShape    = errors.New("unexpected payload shape")
	ErrCanceled = errors.New("request superseded")
)

var kindErrors = map[ErrorKind]error{
	KindNetwork:  ErrNetwork,
	KindStatus:   ErrStatus,
	KindDecode:   ErrDecode,
	KindShape:    ErrShape,
	KindCanceled: ErrCanceled,
}

// KindOf returns the [ErrorKind] of err. nil yields [KindNone]; errors that
// wrap none of the sentinels are treated as [KindNetwork].
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for kind, sentinel := range kindErrors {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindNetwork
}

// kindError restores a failure whose message was stored as text, keeping
// errors.Is working against the sentinel of its kind.
type kindError struct {
	kind ErrorKind
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return kindErrors[e.kind] }

// Result is the outcome of one poll: either a success carrying a
// [ServerInfo] or a failure carrying an [ErrorKind] and error.
//
// Result is immutable after creation.
type Result struct {
	// Seq is the issue order of the request, starting at 1.
	Seq uint64

	// Info is the decoded payload. Only meaningful when OK reports true.
	Info ServerInfo

	// Kind classifies the failure. [KindNone] for successes.
	Kind ErrorKind

	// Err is the failure cause, wrapping the sentinel for Kind.
	// nil for successes.
	Err error

	// StatusCode is the HTTP status code. Zero if no response arrived.
	StatusCode int

	// Latency is the time taken to complete the HTTP request.
	Latency time.Duration

	// CheckedAt is the completion time of the request.
	CheckedAt time.Time
}

// Success returns a successful [Result] carrying info.
func Success(info ServerInfo) Result {
	return Result{Info: info}
}

// Failure returns a failed [Result]. If err does not already wrap the
// sentinel for kind, it is wrapped.
func Failure(kind ErrorKind, err error) Result {
	sentinel, known := kindErrors[kind]
	if !known {
		kind, sentinel = KindNetwork, ErrNetwork
	}
	if err == nil {
		err = sentinel
	} else if !errors.Is(err, sentinel) {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return Result{Kind: kind, Err: err}
}

// OK reports whether the poll succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// State is a snapshot of the view state.
//
// State is a value; mutating it does not affect the [Board].
type State struct {
	// Instance identifies the board. A new instance starts with zero clicks.
	Instance string

	// Clicks is the local click counter.
	Clicks int64

	// Info is the last known-good server info, or the zero placeholder.
	// It may be stale indefinitely while the endpoint is unreachable.
	Info ServerInfo

	// Last is the most recently applied poll result, nil before any.
	// A failed Last with an older Info means the view shows stale data.
	Last *Result

	// Applied is the sequence number of Last, zero before any poll.
	Applied uint64

	// Failures counts applied failed polls.
	Failures int64

	// UpdatedAt is the time of the last state change.
	UpdatedAt time.Time
}

// Stale reports whether the last applied poll failed, so Info is not current.
func (s State) Stale() bool {
	return s.Last != nil && !s.Last.OK()
}
