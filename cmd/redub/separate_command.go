package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"redub/internal/logging"
	"redub/internal/separating"
	"redub/internal/separation"
)

func newSeparateCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "separate <audio-file>",
		Short: "Split an audio file into vocals and accompaniment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			audioPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if _, err := os.Stat(audioPath); err != nil {
				return fmt.Errorf("audio file: %w", err)
			}

			dest := strings.TrimSpace(outDir)
			if dest == "" {
				base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
				dest = filepath.Join(filepath.Dir(audioPath), base+"_separated")
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			selector := separating.SelectorFromConfig(cfg, logger)
			result := selector.Separate(cmd.Context(), audioPath, dest)
			if !result.Success {
				return errors.New(result.ErrorMessage)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Method: %s\n", result.MethodName)
			fmt.Fprintf(out, "Quality score: %.3f\n", result.QualityScore)
			fmt.Fprintf(out, "Elapsed: %.1fs\n", result.ProcessingSeconds)
			fmt.Fprintf(out, "Vocals: %s\n", result.VocalsPath)
			fmt.Fprintf(out, "Accompaniment: %s\n", result.AccompanimentPath)

			metrics, err := separation.Analyze(result.VocalsPath, result.AccompanimentPath)
			if err != nil {
				logger.Warn("quality analysis failed", logging.Error(err))
				return nil
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Metric", "Value"},
				[][]string{
					{"Vocals detected", fmt.Sprintf("%t", metrics.HasVocals)},
					{"Music detected", fmt.Sprintf("%t", metrics.HasMusic)},
					{"Vocals energy", fmt.Sprintf("%.6f", metrics.VocalsEnergy)},
					{"Music energy", fmt.Sprintf("%.6f", metrics.MusicEnergy)},
					{"Energy ratio", fmt.Sprintf("%.3f", metrics.EnergyRatio)},
					{"Vocals duration", fmt.Sprintf("%.1fs", metrics.VocalsDuration)},
				},
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Destination directory for the separated stems")
	return cmd
}
