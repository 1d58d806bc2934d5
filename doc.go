// Package infopulse polls a server's info endpoint on a fixed interval and
// renders what it reports next to a local click counter.
//
// InfoPulse is SDK-first: the [Board] type owns the timer, the state and an
// optional live web view, and the infopulse command wraps it for the
// terminal. State changes only through exactly two events: a click, and the
// arrival of a successfully decoded poll response.
//
// # Quick Start
//
// Create a board and start it with graceful shutdown:
//
//	board, _ := infopulse.New("http://localhost:3000")
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	board.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// InfoPulse uses the functional options pattern for configuration:
//
//	board, err := infopulse.New("http://localhost:3000",
//	    infopulse.WithInterval(2 * time.Second),
//	    infopulse.WithTimeout(time.Second),
//	    infopulse.WithOverlap(infopulse.OverlapCancel),
//	    infopulse.WithPort(8080),
//	)
//
// # Overlapping Requests
//
// A tick may fire while the previous request is still outstanding. The
// [Overlap] policy decides what happens:
//
//   - [OverlapSkip]: the tick is skipped (default)
//   - [OverlapCancel]: the outstanding request is cancelled
//   - [OverlapAllow]: both run and responses apply in completion order
//
// Under skip and cancel a slow response never overwrites a fresher one.
//
// # Failures
//
// A failed poll never changes the displayed info. The failure is logged at
// WARN, counted, and exposed as [State.Last] with an [ErrorKind] so callers
// can tell stale data from fresh. [DecodeInfo] documents the checks applied
// to each response.
//
// # Architecture
//
// InfoPulse consists of several internal packages (under internal/):
//
//   - internal/poller: Lifecycle-owned timer and HTTP client
//   - internal/store: In-memory state with pub/sub and a sequence guard
//   - internal/view: Pure text rendering
//   - internal/server: Web view with REST API and Server-Sent Events
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package infopulse
