package infopulse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/infopulse/dashboard"
	"github.com/jpalmerr/infopulse/internal/poller"
	"github.com/jpalmerr/infopulse/internal/server"
	"github.com/jpalmerr/infopulse/internal/store"
	"github.com/jpalmerr/infopulse/internal/view"
)

const (
	defaultInterval = 5 * time.Second
	defaultInfoPath = "/api/info"
	stateBuffer     = 16
)

// Board polls the info endpoint and holds the view state.
//
// Board owns one repeating timer that issues GET <base>/api/info on each
// tick, a click counter, and the latest successfully decoded [ServerInfo].
// It is created using [New] with functional options and started with
// [Board.Start].
//
// The typical lifecycle is:
//
//	board, err := infopulse.New("http://localhost:3000", infopulse.WithPort(8080))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	board.Start(ctx) // blocks until context cancelled
//
// The state lives in memory for the lifetime of the Board. [Board.Click],
// [Board.State] and [Board.View] may be called at any time, including
// before Start, and are safe for concurrent use.
type Board struct {
	id          string
	baseURL     string
	infoURL     string
	interval    time.Duration
	timeout     time.Duration
	overlap     Overlap
	pollOnStart bool
	port        int
	title       string
	logger      *slog.Logger
	callbacks   []func(State)
	cbMu        sync.Mutex

	store *store.MemoryStore

	// ticks overrides the timer in tests
	ticks poller.TickSource

	mu      sync.Mutex
	running bool
	lastSeq uint64
}

// New creates a new [Board] polling baseURL.
//
// baseURL must be an absolute http or https URL; the info path ("/api/info"
// unless changed with [WithInfoPath]) is appended to it. Defaults:
//   - Interval: 5 seconds
//   - Timeout: none
//   - Overlap: [OverlapSkip]
//   - Web view: disabled (see [WithPort])
//
// Returns an error if baseURL is invalid or if any option is invalid.
func New(baseURL string, opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		interval: defaultInterval,
		overlap:  OverlapSkip,
		path:     defaultInfoPath,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	infoURL, err := buildInfoURL(baseURL, cfg.path)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()

	return &Board{
		id:          id,
		baseURL:     baseURL,
		infoURL:     infoURL,
		interval:    cfg.interval,
		timeout:     cfg.timeout,
		overlap:     cfg.overlap,
		pollOnStart: cfg.pollOnStart,
		port:        cfg.port,
		title:       cfg.title,
		logger:      logger,
		callbacks:   cfg.callbacks,
		store:       store.NewMemoryStore(id, cfg.overlap.ordered()),
	}, nil
}

// buildInfoURL validates baseURL and joins it with path.
func buildInfoURL(baseURL, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("base URL cannot be empty")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("base URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("base URL must have a host")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return "", errors.New("base URL must not have a query or fragment")
	}

	return strings.TrimRight(baseURL, "/") + path, nil
}

// Start begins polling and, if a port is configured, serves the web view.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The first request is issued on the first tick (immediately with
//     [WithPollOnStart]), then one per tick subject to the [Overlap] policy
//   - Successful results replace the stored info; failed results leave it
//     untouched and are logged at WARN
//   - The web view is available at http://localhost:<port> when enabled
//
// Cancelling the context stops the timer, cancels in-flight requests and
// shuts the web view down. The state survives; Start may be called again
// after it returned.
//
// Returns nil on graceful shutdown. Returns an error if the Board is already
// running or if the HTTP server fails to start.
func (b *Board) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return errors.New("board is already running")
	}
	b.running = true
	lastSeq := b.lastSeq
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	b.logger.Info("infopulse starting", "url", b.infoURL, "instance", b.id)
	b.logger.Info("polling configured",
		"interval", b.interval.String(),
		"timeout", b.timeout.String(),
		"overlap", b.overlap.String(),
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	scheduler := poller.NewScheduler(poller.Config{
		URL:         b.infoURL,
		Interval:    b.interval,
		Timeout:     b.timeout,
		Policy:      poller.Policy(b.overlap),
		PollOnStart: b.pollOnStart,
		Ticks:       b.ticks,
		LastSeq:     lastSeq,
	}, b.logger)
	scheduler.Start(ctx)

	// single consumer: results are applied in the order they complete
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range scheduler.Results() {
			b.apply(result)
		}
	}()

	cleanup := func() {
		scheduler.Stop() // closes results channel
		wg.Wait()
		b.mu.Lock()
		b.lastSeq = scheduler.LastSeq()
		b.mu.Unlock()
	}

	if b.port > 0 {
		httpServer := server.NewServer(b.store, b.clickSnapshot, b.port, dashboard.Assets, b.title, b.logger)
		if err := httpServer.Start(ctx); err != nil {
			cleanup()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		b.logger.Info("view available", "url", fmt.Sprintf("http://localhost:%d", b.port))
	}

	<-ctx.Done()
	cleanup()
	b.logger.Info("infopulse stopped", "polls", scheduler.Issued())
	return nil
}

// apply decodes one poll result and applies it to the store.
func (b *Board) apply(pr poller.Result) {
	logAttrs := []any{
		"seq", pr.Seq,
		"url", pr.URL,
		"status_code", pr.StatusCode,
		"latency_ms", pr.Latency.Milliseconds(),
	}

	if pr.Superseded {
		b.logger.Debug("poll superseded by newer tick", logAttrs...)
		return
	}

	result := decodeResult(pr.Body, pr.StatusCode, pr.Error)
	result.Seq = pr.Seq
	result.StatusCode = pr.StatusCode
	result.Latency = pr.Latency
	result.CheckedAt = pr.CheckedAt

	snap, applied := b.store.Apply(resultToUpdate(result))
	if !applied {
		b.logger.Debug("stale poll result discarded", logAttrs...)
		return
	}

	if result.Err != nil {
		b.logger.Warn("poll failed",
			append(logAttrs, "kind", result.Kind.String(), "error", result.Err.Error())...)
	} else {
		b.logger.Debug("poll completed",
			append(logAttrs, "uptime_ms", result.Info.UptimeMs, "count", result.Info.Count)...)
	}

	b.notify(snapshotToState(snap))
}

// Click increments the click counter by one and returns the new state.
func (b *Board) Click() State {
	return snapshotToState(b.clickSnapshot())
}

func (b *Board) clickSnapshot() store.Snapshot {
	snap := b.store.Increment()
	b.notify(snapshotToState(snap))
	return snap
}

// State returns the current view state.
func (b *Board) State() State {
	return snapshotToState(b.store.Snapshot())
}

// View renders the current state. See [Render].
func (b *Board) View() string {
	return Render(b.State())
}

// Subscribe returns a channel that receives the state after every change,
// and a function that ends the subscription and closes the channel.
//
// Slow consumers miss intermediate states rather than block the Board.
func (b *Board) Subscribe() (<-chan State, func()) {
	src := b.store.Subscribe()
	out := make(chan State, stateBuffer)

	go func() {
		defer close(out)
		for snap := range src {
			select {
			case out <- snapshotToState(snap):
			default:
				// consumer is slow, drop the state
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() { b.store.Unsubscribe(src) })
	}
}

// ID returns the unique identifier of this Board instance.
func (b *Board) ID() string {
	return b.id
}

// URL returns the full URL polled on every tick.
func (b *Board) URL() string {
	return b.infoURL
}

// Interval returns the configured time between ticks.
func (b *Board) Interval() time.Duration {
	return b.interval
}

// Timeout returns the per-request timeout; zero means none.
func (b *Board) Timeout() time.Duration {
	return b.timeout
}

// Overlap returns the configured overlap policy.
func (b *Board) Overlap() Overlap {
	return b.overlap
}

// Port returns the web view port; zero means the view is disabled.
func (b *Board) Port() int {
	return b.port
}

// Render produces the text view of s.
//
// Render is a pure function of the click counter and the server info; the
// same state always renders the same text. Uptime is shown in seconds
// without rounding:
//
//	count is 3
//	API Info
//	Uptime: 12.345 seconds
//	Count: 7
func Render(s State) string {
	return view.Render(s.Clicks, store.ServerInfo{Uptime: s.Info.UptimeMs, Count: s.Info.Count})
}

// notify invokes the update callbacks in registration order.
func (b *Board) notify(s State) {
	if len(b.callbacks) == 0 {
		return
	}
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	for _, cb := range b.callbacks {
		invokeCallbackSafe(cb, s, b.logger)
	}
}

// invokeCallbackSafe calls an update callback with panic recovery.
// Panics are logged with a correlation ID and stack trace but do not propagate.
func invokeCallbackSafe(cb func(State), s State, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(s)
}

// resultToUpdate converts a Result to its storage form.
func resultToUpdate(r Result) store.Update {
	u := store.Update{
		Outcome: store.Outcome{
			Seq:            r.Seq,
			OK:             r.OK(),
			StatusCode:     r.StatusCode,
			ResponseTimeMs: r.Latency.Milliseconds(),
			CheckedAt:      r.CheckedAt,
		},
	}
	if r.OK() {
		u.Info = &store.ServerInfo{Uptime: r.Info.UptimeMs, Count: r.Info.Count}
		return u
	}
	msg := r.Err.Error()
	u.Error = &msg
	u.ErrorKind = string(r.Kind)
	return u
}

// snapshotToState converts a storage snapshot to the public State.
func snapshotToState(snap store.Snapshot) State {
	s := State{
		Instance:  snap.Instance,
		Clicks:    snap.Clicks,
		Info:      ServerInfo{UptimeMs: snap.Info.Uptime, Count: snap.Info.Count},
		Applied:   snap.AppliedSeq,
		Failures:  snap.Failures,
		UpdatedAt: snap.UpdatedAt,
	}
	if snap.Last != nil {
		last := Result{
			Seq:        snap.Last.Seq,
			StatusCode: snap.Last.StatusCode,
			Latency:    time.Duration(snap.Last.ResponseTimeMs) * time.Millisecond,
			CheckedAt:  snap.Last.CheckedAt,
		}
		if snap.Last.OK {
			last.Info = s.Info
		} else {
			last.Kind = ErrorKind(snap.Last.ErrorKind)
			msg := ""
			if snap.Last.Error != nil {
				msg = *snap.Last.Error
			}
			last.Err = &kindError{kind: last.Kind, msg: msg}
		}
		s.Last = &last
	}
	return s
}
