package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/preflight"
	"redub/internal/queue"
	"redub/internal/services/ytdlp"
	"redub/internal/workflow"
)

// processPollInterval is how often the foreground pipeline checks whether
// its item reached a terminal state.
const processPollInterval = 500 * time.Millisecond

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var enqueueOnly bool

	cmd := &cobra.Command{
		Use:   "process <url>",
		Short: "Enqueue a video URL and run the full pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceURL := args[0]
			if err := ytdlp.ValidateURL(sourceURL); err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()

				existing, err := store.FindBySourceURL(cmd.Context(), sourceURL)
				if err != nil {
					return err
				}
				var item *queue.Item
				if existing != nil && !queue.IsTerminal(existing.Status) {
					item = existing
					fmt.Fprintf(out, "URL already queued as item %d (%s)\n", item.ID, item.Status)
				} else {
					item, err = store.NewURL(cmd.Context(), sourceURL, "")
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued item %d\n", item.ID)
				}

				if enqueueOnly {
					return nil
				}

				failures := preflight.HardFailures(preflight.RunAll(cmd.Context(), cfg))
				if len(failures) > 0 {
					fmt.Fprintln(out, preflight.Summarize(failures))
					return errors.New("preflight checks failed")
				}

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}

				signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				mgr := workflow.NewManager(cfg, store, logger)
				mgr.ConfigureStages(buildStageSet(cfg, store, logger))
				if err := mgr.Start(signalCtx); err != nil {
					return fmt.Errorf("start workflow: %w", err)
				}
				defer mgr.Stop()

				final, err := waitForItem(signalCtx, store, item.ID)
				if err != nil {
					return err
				}
				return reportOutcome(out, final)
			})
		},
	}

	cmd.Flags().BoolVar(&enqueueOnly, "enqueue-only", false, "Queue the URL without processing it now")
	return cmd
}

func waitForItem(ctx context.Context, store *queue.Store, id int64) (*queue.Item, error) {
	ticker := time.NewTicker(processPollInterval)
	defer ticker.Stop()

	for {
		item, err := store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if queue.IsTerminal(item.Status) {
			return item, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func reportOutcome(out io.Writer, item *queue.Item) error {
	switch item.Status {
	case queue.StatusCompleted:
		fmt.Fprintf(out, "Completed: %s\n", item.FinalFile)
		return nil
	case queue.StatusReview:
		fmt.Fprintf(out, "Item %d needs review: %s\n", item.ID, item.ReviewReason)
		return fmt.Errorf("item %d parked for review", item.ID)
	default:
		return fmt.Errorf("item %d failed: %s", item.ID, item.ErrorMessage)
	}
}
