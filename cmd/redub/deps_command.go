package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"redub/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Report external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.CheckSystemDeps(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			missing := 0
			for _, result := range results {
				state := "ok"
				switch {
				case result.Failed():
					state = "missing"
					missing++
				case !result.Passed:
					state = "optional"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Dependency", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if missing > 0 {
				return errors.New("required dependencies are missing")
			}
			return nil
		},
	}
}
