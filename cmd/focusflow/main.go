package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"focusflow/internal/config"
	"focusflow/internal/session"
	"focusflow/internal/storage"
	"focusflow/internal/tasks"
	"focusflow/internal/ui"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args, os.Stderr)
	cancel()
	os.Exit(code)
}

// execute runs the root command and reports a failure on stderr, since the
// log file may already be closed by then.
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	if err := newRootCommand().Run(ctx, args); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
		return 1
	}
	return 0
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  config.AppName,
		Usage: "A keyboard-driven task list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ResolveConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: run,
	}
}

func run(_ context.Context, cmd *cli.Command) (err error) {
	cfg, err := config.LoadOrCreate(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := openLogger(cfg, cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer closeLog()
	prev := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(prev)
	defer func() {
		if err != nil {
			logger.Error("fatal", "error", err)
		}
	}()

	store, err := storage.Open(cfg.DBPath, storage.Options{MaxValueBytes: cfg.MaxBlobBytes})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	adapter := tasks.NewAdapter(store, cfg.StorageKey, logger, tasks.Options{})
	sess := session.New(adapter, session.Options{
		Params: cfg.ViewParams(),
		Logger: logger,
		OnRender: func(s session.Snapshot) {
			logger.Debug("render", "visible", s.Summary.Visible, "selected", len(s.Selected))
		},
	})
	defer sess.Close()

	if err := ui.Run(sess, cfg); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// openLogger writes structured logs to the configured file, since the
// terminal belongs to the UI.
func openLogger(cfg config.Config, debug bool) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	level := cfg.Level()
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(h), func() { _ = f.Close() }, nil
}
