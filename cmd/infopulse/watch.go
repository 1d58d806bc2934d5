package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/jpalmerr/infopulse"
	"github.com/jpalmerr/infopulse/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// watchCmd polls the info endpoint and renders the view in the terminal.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll and show the view in the terminal",
	Long: `Poll the configured info endpoint and render the view in the terminal.

Keys:
  space, enter  click (increments the counter)
  q, Ctrl+C     quit

Logs would corrupt the terminal view, so they are discarded unless
--log-file is given.

Example:
  infopulse watch -c config.yaml
  infopulse watch -c config.yaml --log-file infopulse.log`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	watchCmd.Flags().String("log-file", "", "append logs to this file")
	_ = watchCmd.MarkFlagRequired("config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var logOut io.Writer = io.Discard
	if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, cfg.LogLevel)

	opts := append(config.BuildOptions(cfg), infopulse.WithLogger(logger))
	board, err := infopulse.New(cfg.BaseURL, opts...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer ui.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return board.Start(gCtx)
	})

	g.Go(func() error {
		// quitting ends the board too
		defer quit()
		return watchLoop(gCtx, board, cfg.BaseURL+cfg.Path)
	})

	return g.Wait()
}

// watchLoop redraws the terminal view on every state change and handles keys
// until ctx is cancelled or the user quits.
func watchLoop(ctx context.Context, board *infopulse.Board, target string) error {
	updates, unsubscribe := board.Subscribe()
	defer unsubscribe()

	p := widgets.NewParagraph()
	p.Title = " InfoPulse - " + target + " "
	p.PaddingLeft = 1

	width, height := ui.TerminalDimensions()
	draw := func(s infopulse.State) {
		p.Text = watchText(s, time.Now())
		p.SetRect(0, 0, width, min(height, watchHeight))
		ui.Render(p)
	}
	draw(board.State())

	events := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil

		case s, ok := <-updates:
			if !ok {
				return nil
			}
			draw(s)

		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "<Space>", "<Enter>":
				draw(board.Click())
			case "<Resize>":
				if r, ok := e.Payload.(ui.Resize); ok {
					width, height = r.Width, r.Height
				}
				ui.Clear()
				draw(board.State())
			}
		}
	}
}

// watchHeight fits the view, a blank line, the status line and the key help
// inside the border.
const watchHeight = 10

// watchText renders the terminal body for s: the view followed by the poll
// status and the key help.
func watchText(s infopulse.State, now time.Time) string {
	var b strings.Builder
	b.WriteString(infopulse.Render(s))
	b.WriteString("\n")

	switch {
	case s.Last == nil:
		b.WriteString("waiting for first poll")
	case s.Stale():
		fmt.Fprintf(&b, "[stale](fg:yellow): last poll failed (%s) %s ago",
			s.Last.Kind, since(now, s.Last.CheckedAt))
	default:
		fmt.Fprintf(&b, "[ok](fg:green): polled %s ago in %dms",
			since(now, s.Last.CheckedAt), s.Last.Latency.Milliseconds())
	}
	if s.Failures > 0 {
		fmt.Fprintf(&b, ", %d failed", s.Failures)
	}
	b.WriteString("\n")
	b.WriteString("space/enter: click  q: quit")

	return b.String()
}

// since formats the time elapsed from t to now, rounded to seconds.
func since(now, t time.Time) string {
	d := now.Sub(t).Round(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}
