package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/queue"
	"redub/internal/stage"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue and stage readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()

				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Queue", "Count"},
					[][]string{
						{"Pending", strconv.Itoa(health.Pending)},
						{"Processing", strconv.Itoa(health.Processing)},
						{"Completed", strconv.Itoa(health.Completed)},
						{"Failed", strconv.Itoa(health.Failed)},
						{"Review", strconv.Itoa(health.Review)},
						{"Total", strconv.Itoa(health.Total)},
					},
					[]columnAlignment{alignLeft, alignRight},
				))

				checks := stageHealth(cmd.Context(), cfg, store)
				rows := make([][]string, 0, len(checks))
				for _, h := range checks {
					state := "ready"
					if !h.Ready {
						state = "not ready"
					}
					rows = append(rows, []string{h.Name, state, h.Detail})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Stage", "State", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))

				active, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, item := range active {
					if !item.IsProcessing() {
						continue
					}
					fmt.Fprintf(out, "In flight: item %d (%s) %s\n", item.ID, item.Status, progressCell(item))
				}
				return nil
			})
		},
	}
}

func stageHealth(ctx context.Context, cfg *config.Config, store *queue.Store) []stage.Health {
	logger := logging.NewNop()
	set := buildStageSet(cfg, store, logger)
	handlers := []stage.Handler{
		set.Downloader,
		set.Extractor,
		set.Separator,
		set.Transcriber,
		set.Translator,
		set.Synthesizer,
		set.Muxer,
	}

	checks := make([]stage.Health, 0, len(handlers))
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		checks = append(checks, handler.HealthCheck(ctx))
	}
	return checks
}
