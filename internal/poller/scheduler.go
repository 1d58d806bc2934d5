package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Policy decides what a tick does when an earlier request is still in flight.
type Policy string

const (
	// PolicySkip skips the tick while a request is outstanding.
	PolicySkip Policy = "skip"

	// PolicyAllow always issues a new request. Requests may overlap and
	// complete in any order.
	PolicyAllow Policy = "allow"

	// PolicyCancel cancels the outstanding request before issuing a new one.
	PolicyCancel Policy = "cancel"
)

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool {
	switch p {
	case PolicySkip, PolicyAllow, PolicyCancel:
		return true
	}
	return false
}

// TickSource creates the channel that drives polling. The returned stop
// function releases it.
type TickSource func(interval time.Duration) (ticks <-chan time.Time, stop func())

// RealTicks is the default [TickSource] backed by [time.Ticker].
func RealTicks(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// Result holds the outcome of one request issued by the [Scheduler].
type Result struct {
	// Seq is the issue order of the request, starting at 1.
	Seq uint64

	// URL is the target URL that was polled.
	URL string

	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code. Zero if no response arrived.
	StatusCode int

	// Latency is the time taken to complete the HTTP request.
	Latency time.Duration

	// CheckedAt is the completion time of the request.
	CheckedAt time.Time

	// Error contains any transport error.
	Error error

	// Superseded is set when the request was cancelled by a newer tick
	// under [PolicyCancel].
	Superseded bool
}

// Config contains what the [Scheduler] needs to poll a single URL.
type Config struct {
	// URL is the full URL to GET on every tick.
	URL string

	// Interval is the time between ticks. Must be positive.
	Interval time.Duration

	// Timeout is the per-request timeout. Zero means none.
	Timeout time.Duration

	// Policy is the overlap policy. Empty means [PolicySkip].
	Policy Policy

	// PollOnStart issues one request as soon as the scheduler starts,
	// before the first tick.
	PollOnStart bool

	// Ticks overrides the tick source. nil means [RealTicks].
	Ticks TickSource

	// LastSeq is the sequence number of an earlier scheduler for the same
	// URL. Numbering continues after it.
	LastSeq uint64
}

// Scheduler polls a single URL on a repeating timer.
//
// The timer is owned by the scheduler: it is created by [Scheduler.Start] and
// released when the scheduler stops. Each tick runs its request in its own
// goroutine without waiting for earlier ones, subject to the configured
// [Policy]. Results are emitted on [Scheduler.Results] in completion order,
// which is not necessarily issue order.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	cfg     Config
	client  *Client
	results chan Result
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// requests tracks request goroutines; only the loop goroutine adds to it
	requests sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	seq          uint64
	inFlight     int
	cancelLatest context.CancelFunc
	latestSeq    uint64
}

// NewScheduler creates a new polling [Scheduler].
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Results are available via [Scheduler.Results].
func NewScheduler(cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Policy == "" {
		cfg.Policy = PolicySkip
	}
	if cfg.Ticks == nil {
		cfg.Ticks = RealTicks
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:     cfg,
		client:  NewClient(),
		results: make(chan Result, 16),
		logger:  logger,
		seq:     cfg.LastSeq,
	}
}

// Results returns a receive-only channel that emits [Result] values.
//
// The channel is closed when the scheduler stops and all in-flight requests
// have finished.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Start begins the polling loop in a background goroutine.
//
// Start is non-blocking. The first request is issued on the first tick, or
// immediately when PollOnStart is set. The loop runs until [Scheduler.Stop]
// is called or ctx is cancelled.
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	pollCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.requests.Wait()
			s.closeOnce.Do(func() { close(s.results) })
		}()

		ticks, stop := s.cfg.Ticks(s.cfg.Interval)
		defer stop()

		if s.cfg.PollOnStart {
			s.tick(pollCtx)
		}

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticks:
				s.tick(pollCtx)
			}
		}
	}()
}

// Stop halts the scheduler and waits for all goroutines to complete.
//
// Stop cancels the scheduler's context, which also cancels any in-flight
// requests, and blocks until the results channel is closed.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	if s.client != nil {
		s.client.Close()
	}

	// ensure channel is closed even if Start() was never called
	s.closeOnce.Do(func() { close(s.results) })
}

// Issued returns the number of requests issued so far.
func (s *Scheduler) Issued() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq - s.cfg.LastSeq
}

// LastSeq returns the sequence number of the most recently issued request,
// or Config.LastSeq if none was issued.
func (s *Scheduler) LastSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// tick issues one request according to the overlap policy.
// Only called from the loop goroutine.
func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	switch s.cfg.Policy {
	case PolicySkip:
		if s.inFlight > 0 {
			latest := s.latestSeq
			s.mu.Unlock()
			s.logger.Debug("poll skipped, request in flight", "in_flight_seq", latest)
			return
		}
	case PolicyCancel:
		if s.cancelLatest != nil {
			s.cancelLatest()
			s.cancelLatest = nil
		}
	}

	s.seq++
	seq := s.seq
	reqCtx, cancel := context.WithCancel(ctx)
	s.inFlight++
	s.latestSeq = seq
	s.cancelLatest = cancel
	s.mu.Unlock()

	s.requests.Add(1)
	go func() {
		defer s.requests.Done()
		defer s.finish(seq, cancel)

		resp := s.client.Fetch(reqCtx, s.cfg.URL, s.cfg.Timeout)

		result := Result{
			Seq:        seq,
			URL:        s.cfg.URL,
			Body:       resp.Body,
			StatusCode: resp.StatusCode,
			Latency:    resp.Latency,
			CheckedAt:  time.Now(),
			Error:      resp.Error,
		}
		// reqCtx is only cancelled by a newer tick or by the parent
		if resp.Error != nil && reqCtx.Err() != nil {
			if ctx.Err() != nil {
				return // abandoned on shutdown
			}
			result.Superseded = true
		}

		select {
		case s.results <- result:
		case <-ctx.Done():
		}
	}()
}

// finish releases the bookkeeping of request seq.
func (s *Scheduler) finish(seq uint64, cancel context.CancelFunc) {
	cancel()

	s.mu.Lock()
	s.inFlight--
	if s.latestSeq == seq {
		s.cancelLatest = nil
	}
	s.mu.Unlock()
}
