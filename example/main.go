package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/infopulse"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockInfoServer(":9999")
	time.Sleep(100 * time.Millisecond)

	board, err := infopulse.New("http://localhost:9999",
		infopulse.WithInterval(2*time.Second),
		infopulse.WithOverlap(infopulse.OverlapCancel),
		infopulse.WithPollOnStart(true),
		infopulse.WithPort(8080),
		infopulse.WithUpdateCallback(func(s infopulse.State) {
			if s.Stale() {
				fmt.Printf("(stale: %v)\n", s.Last.Err)
			}
			fmt.Print(infopulse.Render(s), "\n")
		}),
	)
	if err != nil {
		slog.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   InfoPulse Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Upstream: mock /api/info on :9999                   ║")
	fmt.Println("  ║   • polled every 2s, slow requests cancelled          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Start(ctx); err != nil {
		slog.Error("infopulse error", "error", err)
		os.Exit(1)
	}
}
