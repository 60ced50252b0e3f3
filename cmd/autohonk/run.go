package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"autohonk/internal/actuation"
	"autohonk/internal/config"
	"autohonk/internal/history"
	"autohonk/internal/input"
	"autohonk/internal/journal"
	"autohonk/internal/logging"
	"autohonk/internal/monitor"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runWith(ctx, cfg, logger, cmd.OutOrStdout())
}

// runWith wires the monitor from c and runs it until ctx is cancelled.
func runWith(ctx context.Context, c *config.Config, log *logging.Logger, out io.Writer) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	boot := log.Get(logging.CategoryBoot)

	if err := checkJournalDir(c.Journal.Dir); err != nil {
		return err
	}

	key, source := chooseKey(c, log.Get(logging.CategoryInput))
	finder, sender, backend := selectBackend(c, log.Get(logging.CategoryInput))

	var recorder monitor.Recorder
	historyLabel := "off"
	if c.History.Enabled {
		store, err := history.Open(c.History.Path)
		if err != nil {
			boot.Warn("session history disabled", zap.Error(err))
		} else {
			defer store.Close()
			recorder = store
			historyLabel = c.History.Path
		}
	}

	ctrl := actuation.NewController(finder, sender, actuation.Options{
		TickInterval: c.Timing.GetKeyPressInterval(),
		MaxDuration:  c.Timing.GetMaxHonkDuration(),
		StopWait:     c.Timing.GetStopWait(),
		FocusDelay:   c.Timing.GetFocusDelay(),
	}, log.Get(logging.CategoryActuation))

	watcher, err := monitor.NewWatcher(c.Journal.Dir, log.Get(logging.CategoryJournal))
	if err != nil {
		return err
	}

	classifier := journal.NewClassifier(journal.Discriminants{
		Trigger:    c.Journal.TriggerEvents,
		Completion: c.Journal.CompletionEvents,
		Context:    c.Journal.ContextEvents,
	})
	loop := monitor.NewLoop(monitor.Options{
		Dir:            c.Journal.Dir,
		DelayAfterJump: c.Timing.GetDelayAfterJump(),
		PollInterval:   c.Timing.GetPollInterval(),
	}, classifier, ctrl, key, watcher.Notifications(), recorder, log.Get(logging.CategoryMonitor))

	loop.Attach()

	fmt.Fprintln(out, renderBanner(bannerInfo{
		Journal:   c.Journal.Dir,
		Key:       key.String(),
		KeySource: source,
		Backend:   backend,
		History:   historyLabel,
		Delay:     c.Timing.GetDelayAfterJump(),
		MaxHonk:   c.Timing.GetMaxHonkDuration(),
	}))
	boot.Info("autohonk started",
		zap.String("version", version),
		zap.String("journal", c.Journal.Dir),
		zap.String("key", key.String()),
		zap.String("backend", backend))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error { return loop.Run(gctx) })
	err = g.Wait()

	st := ctrl.Stats()
	ws := watcher.Stats()
	boot.Info("autohonk stopped",
		zap.Int("sessions", st.Started),
		zap.Int("key_downs", st.KeyDowns),
		zap.Int("key_ups", st.KeyUps),
		zap.Int("notifications_dropped", ws.Dropped))
	return err
}

func checkJournalDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("journal directory %q does not exist; set journal.dir or --journal-dir", dir)
		}
		return fmt.Errorf("journal directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("journal path %q is not a directory", dir)
	}
	return nil
}

// chooseKey picks and resolves the actuation key. An unknown name is kept
// so every session aborts with a clear reason instead of sending nothing.
func chooseKey(c *config.Config, log *zap.Logger) (input.Key, string) {
	name, source := input.ChooseKey(input.KeySelection{
		Override:    c.Key.Override,
		AutoDetect:  c.Key.AutoDetect,
		BindingsDir: c.Key.BindingsDir,
		Fallback:    c.Key.Fallback,
	}, log)
	key, ok := input.Resolve(name)
	if !ok {
		log.Error("unrecognized key name, sessions will not press anything",
			zap.String("key", name),
			zap.String("source", source))
		return input.Key{Name: name}, source
	}
	return key, source
}

func selectBackend(c *config.Config, log *zap.Logger) (actuation.WindowFinder, actuation.KeySender, string) {
	if c.DryRun || !input.NativeSupported {
		if !c.DryRun {
			log.Warn("no native input backend on this platform, using dry run")
		}
		dry := input.NewDryRun(log)
		return dry, dry, "dry-run"
	}
	finder := input.NewWindowFinder(input.Criteria{
		TitleContains:   c.Window.TitleContains,
		ProcessContains: c.Window.ProcessContains,
	}, log)
	return finder, input.NewInjector(log), "native"
}
