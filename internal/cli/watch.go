package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/mark3labs/vimanam/internal/spec"
)

// WatchConfig captures the options for the watch command.
type WatchConfig struct {
	Generate *GenerateConfig
	Debounce time.Duration
}

var watchRunner = runWatch

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [FILE]",
		Short: "Regenerate documentation whenever the input document changes",
		Long: "Generate documentation once, then watch the local input document and " +
			"regenerate after every change. Accepts the same options as generate.",
		Args: maxOneFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := resolveGenerateConfig(cmd, args)
			if err != nil {
				return err
			}
			if gen.Check {
				return newUsageError("watch: --check is not supported")
			}
			if gen.Input == spec.StdinInput || strings.Contains(gen.Input, "://") {
				return newUsageError(fmt.Sprintf("watch: input must be a local file, got %q", gen.Input))
			}
			debounce, err := cmd.Flags().GetDuration("debounce")
			if err != nil {
				return err
			}
			if debounce <= 0 {
				return newUsageError("watch: --debounce must be positive")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watchRunner(ctx, &WatchConfig{Generate: gen, Debounce: debounce}, commandStreams(cmd))
		},
	}
	registerGenerateFlags(cmd.Flags())
	cmd.Flags().Duration("debounce", 300*time.Millisecond, "Quiet period after a change before regenerating")
	return cmd
}

// runWatch generates once and then again after each burst of changes to the
// input file. It returns when ctx is done.
func runWatch(ctx context.Context, cfg *WatchConfig, s streams) error {
	input, err := filepath.Abs(cfg.Generate.Input)
	if err != nil {
		return fmt.Errorf("watch: resolve input path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace files instead of writing them in place, so the
	// directory is watched and events are filtered by name.
	dir := filepath.Dir(input)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: watch %s: %w", dir, err)
	}
	name := filepath.Base(input)

	regenerate := func() {
		if err := runGenerate(ctx, cfg.Generate, s); err != nil {
			slog.Error("regeneration failed", "input", input, "error", err)
			return
		}
		slog.Debug("regenerated documentation", "input", input)
	}

	slog.Info("watching input", "path", input, "debounce", cfg.Debounce)
	regenerate()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped", "path", input)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("input changed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(cfg.Debounce)
			} else {
				timer.Reset(cfg.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			regenerate()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}
