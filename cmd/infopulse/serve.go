package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/infopulse"
	"github.com/jpalmerr/infopulse/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	}))
}

// serveCmd polls the info endpoint and serves the web view.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll and serve the web view",
	Long: `Poll the configured info endpoint and serve the live web view.

The server will:
  - Load configuration from the specified YAML file
  - Poll GET <base_url><path> every interval
  - Serve the view on the configured port (clicks via the page button)

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  infopulse serve -c config.yaml
  infopulse serve --config /etc/infopulse/config.yaml --port 9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().IntP("port", "p", 0, "override the configured port")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}

	logger := newLogger(os.Stderr, cfg.LogLevel)
	logger.Info("config loaded",
		"base_url", cfg.BaseURL,
		"path", cfg.Path,
	)
	logger.Info("starting server",
		"port", cfg.Port,
		"interval", cfg.Interval.Duration().String(),
	)

	opts := append(config.BuildOptions(cfg),
		infopulse.WithPort(cfg.Port),
		infopulse.WithLogger(logger),
	)

	board, err := infopulse.New(cfg.BaseURL, opts...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start board - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- board.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete", "clicks", board.State().Clicks)
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
