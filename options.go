package infopulse

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Overlap decides what a tick does while an earlier request is in flight.
type Overlap string

const (
	// OverlapSkip skips a tick while a request is outstanding. The view
	// always reflects the most recently issued request that completed.
	OverlapSkip Overlap = "skip"

	// OverlapAllow issues a request on every tick without waiting and
	// applies responses in completion order. A slow stale response may
	// overwrite a fresher one.
	OverlapAllow Overlap = "allow"

	// OverlapCancel cancels the outstanding request on every tick. Stale
	// responses are never applied.
	OverlapCancel Overlap = "cancel"
)

// String returns the string representation of the overlap policy.
func (o Overlap) String() string {
	return string(o)
}

// Valid reports whether o is a known policy.
func (o Overlap) Valid() bool {
	switch o {
	case OverlapSkip, OverlapAllow, OverlapCancel:
		return true
	}
	return false
}

// ordered reports whether stale responses are discarded.
func (o Overlap) ordered() bool {
	return o != OverlapAllow
}

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	interval    time.Duration
	timeout     time.Duration
	overlap     Overlap
	pollOnStart bool
	path        string
	port        int
	title       string
	logger      *slog.Logger
	callbacks   []func(State)
}

// Option is a function that configures a [Board] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*boardConfig) error

// WithInterval sets the time between ticks.
//
// Defaults to 5 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithTimeout sets a per-request timeout.
//
// By default requests have no timeout: a hung request stalls only its own
// cycle. Zero restores that behaviour.
//
// Returns an error if the duration is negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < 0 {
			return errors.New("timeout cannot be negative")
		}
		cfg.timeout = d
		return nil
	}
}

// WithOverlap sets the overlap policy. Defaults to [OverlapSkip].
//
// Example (reproduce unordered polling exactly):
//
//	board, err := infopulse.New("http://localhost:3000",
//	    infopulse.WithOverlap(infopulse.OverlapAllow),
//	)
//
// Returns an error for an unknown policy.
func WithOverlap(o Overlap) Option {
	return func(cfg *boardConfig) error {
		if !o.Valid() {
			return fmt.Errorf("unknown overlap policy %q (expected skip, allow or cancel)", o)
		}
		cfg.overlap = o
		return nil
	}
}

// WithPollOnStart issues one request immediately on [Board.Start] instead of
// waiting for the first tick.
func WithPollOnStart(enabled bool) Option {
	return func(cfg *boardConfig) error {
		cfg.pollOnStart = enabled
		return nil
	}
}

// WithInfoPath sets the path polled relative to the base URL.
// Defaults to "/api/info".
//
// Returns an error if the path does not start with "/".
func WithInfoPath(path string) Option {
	return func(cfg *boardConfig) error {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("info path must start with \"/\", got %q", path)
		}
		cfg.path = path
		return nil
	}
}

// WithPort enables the local web view on the given port.
//
// The view and its API will be available at http://localhost:<port>.
// Without this option [Board.Start] serves nothing.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the title of the web view. Defaults to "InfoPulse".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithUpdateCallback registers a function called after every state change:
// each applied poll result and each click.
//
// Multiple callbacks execute in registration order. Callbacks are serialized
// but run on the goroutine that caused the change, so they must be
// non-blocking. Panics within callbacks are recovered and logged.
//
// Example:
//
//	board, err := infopulse.New(baseURL,
//	    infopulse.WithUpdateCallback(func(s infopulse.State) {
//	        fmt.Print(infopulse.Render(s))
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithUpdateCallback(cb func(State)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}
