package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"
)

// StartMockInfoServer runs a mock /api/info endpoint reporting its uptime in
// milliseconds and the number of requests served.
// Roughly one response in ten is slow enough to overlap the next tick, and
// one in twenty fails with 503.
// Call this in a goroutine before starting the board.
func StartMockInfoServer(addr string) {
	started := time.Now()
	var count atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/info", func(w http.ResponseWriter, r *http.Request) {
		n := count.Add(1)

		// simulate latency variance, occasionally longer than the poll interval
		delay := time.Duration(50+rand.Intn(150)) * time.Millisecond
		if rand.Intn(10) == 0 {
			delay = time.Duration(2+rand.Intn(4)) * time.Second
		}
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			slog.Info("request abandoned by client", "count", n)
			return
		}

		if rand.Intn(20) == 0 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"uptime": time.Since(started).Milliseconds(),
			"count":  n,
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
