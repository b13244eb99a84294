package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/preflight"
	"redub/internal/queue"
	"redub/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process queued items until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()

				lockPath := filepath.Join(cfg.Paths.LogDir, "redub.lock")
				lock := flock.New(lockPath)
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire lock: %w", err)
				}
				if !ok {
					return errors.New("another redub run is already active")
				}
				defer func() { _ = lock.Unlock() }()

				if !skipPreflight {
					results := preflight.RunAll(cmd.Context(), cfg)
					fmt.Fprintln(out, preflight.Summarize(results))
					if failures := preflight.HardFailures(results); len(failures) > 0 {
						return errors.New("preflight checks failed")
					}
				}

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}

				if reset, err := store.ResetStuckProcessing(cmd.Context()); err != nil {
					logger.Warn("reset stuck items", logging.Error(err))
				} else if reset > 0 {
					logger.Info("reset interrupted items", logging.Int64("count", reset))
				}

				signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				mgr := workflow.NewManager(cfg, store, logger)
				mgr.ConfigureStages(buildStageSet(cfg, store, logger))
				if err := mgr.Start(signalCtx); err != nil {
					return fmt.Errorf("start workflow: %w", err)
				}

				logger.Info("redub processing started", logging.String("lock", lockPath))
				<-signalCtx.Done()
				logger.Info("redub shutting down")
				mgr.Stop()
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without running environment checks")
	return cmd
}
