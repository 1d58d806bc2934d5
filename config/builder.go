package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jpalmerr/infopulse"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The web view port and the logger are left to the caller: serve enables the
// port, watch does not.
func BuildOptions(cfg *Config) []infopulse.Option {
	opts := []infopulse.Option{
		infopulse.WithInterval(cfg.Interval.Duration()),
		infopulse.WithOverlap(infopulse.Overlap(cfg.Overlap)),
		infopulse.WithPollOnStart(cfg.PollOnStart),
	}

	if cfg.Path != "" {
		opts = append(opts, infopulse.WithInfoPath(cfg.Path))
	}
	if cfg.Timeout != 0 {
		opts = append(opts, infopulse.WithTimeout(cfg.Timeout.Duration()))
	}
	if cfg.Title != "" {
		opts = append(opts, infopulse.WithTitle(cfg.Title))
	}

	return opts
}

// ParseLogLevel maps a log_level value to a [slog.Level].
// The empty string is info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
	}
}
