// Standalone mock info server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/infopulse watch -c example/config.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	slow := flag.Int("slow-every", 10, "make one in N responses slow (0 disables)")
	fail := flag.Int("fail-every", 20, "fail one in N responses with 503 (0 disables)")
	flag.Parse()

	fmt.Printf("Mock info server starting on %s\n", *addr)
	fmt.Println("GET /api/info reports uptime (ms) and request count")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	started := time.Now()
	var count atomic.Int64

	http.HandleFunc("GET /api/info", func(w http.ResponseWriter, r *http.Request) {
		n := count.Add(1)

		delay := time.Duration(50+rand.Intn(150)) * time.Millisecond
		if *slow > 0 && rand.Intn(*slow) == 0 {
			delay = time.Duration(2+rand.Intn(4)) * time.Second
		}
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			slog.Info("request abandoned by client", "count", n)
			return
		}

		if *fail > 0 && rand.Intn(*fail) == 0 {
			slog.Info("failing request", "count", n)
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int64{
			"uptime": time.Since(started).Milliseconds(),
			"count":  n,
		})
	})

	if err := http.ListenAndServe(*addr, nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
