// Package separating implements the source separation stage. The heavy
// lifting lives in internal/separation; this handler wires the selector
// policy (demucs when available and preferred, deterministic engine
// otherwise) into the queue workflow.
package separating

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/project"
	"redub/internal/queue"
	"redub/internal/separation"
	"redub/internal/services"
	"redub/internal/services/demucs"
	"redub/internal/stage"
)

// Separator manages the vocal/accompaniment split stage.
type Separator struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	selector separation.Separator
}

// NewSeparator constructs the stage handler using the selector policy from
// config.
func NewSeparator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Separator {
	return NewSeparatorWithSelector(cfg, store, logger, SelectorFromConfig(cfg, logger))
}

// SelectorFromConfig builds the separator selector: demucs becomes the
// preferred variant only when the config asks for it and the binary probes
// available; the deterministic engine always backs it.
func SelectorFromConfig(cfg *config.Config, logger *slog.Logger) separation.Separator {
	var primary separation.Separator
	if cfg.Separation.PreferModel {
		model := demucs.NewService(cfg.Separation.DemucsBin, cfg.Separation.DemucsModel, logger)
		if model.Available() {
			primary = model
		} else if logger != nil {
			logger.Warn("demucs requested but unavailable, using built-in engine",
				logging.String("binary", cfg.Separation.DemucsBin))
		}
	}
	return separation.NewSelector(primary, separation.NewEngine(logger), logger)
}

// NewSeparatorWithSelector allows injecting the separator (used in tests).
func NewSeparatorWithSelector(cfg *config.Config, store *queue.Store, logger *slog.Logger, selector separation.Separator) *Separator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Separator{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "separator"),
		selector: selector,
	}
}

func (s *Separator) Prepare(ctx context.Context, item *queue.Item) error {
	if item.AudioFile == "" {
		return services.Wrap(services.ErrValidation, "separating", "check input", "Item has no extracted audio file", nil)
	}
	if _, err := os.Stat(item.AudioFile); err != nil {
		return services.Wrap(services.ErrValidation, "separating", "check input", "Extracted audio file is missing on disk", err)
	}
	item.InitProgress("Separating audio", "Starting separation")
	return nil
}

func (s *Separator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	outDir := filepath.Join(item.ProjectDir, project.DirSeparated)

	result := s.selector.Separate(ctx, item.AudioFile, outDir)
	if !result.Success {
		return services.Wrap(services.ErrExternalTool, "separating", result.MethodName, result.ErrorMessage, nil)
	}

	item.VocalsFile = result.VocalsPath
	item.AccompanimentFile = result.AccompanimentPath
	item.SeparationMethod = result.MethodName
	item.QualityScore = result.QualityScore

	metrics, err := separation.Analyze(result.VocalsPath, result.AccompanimentPath)
	if err != nil {
		logger.Warn("quality analysis failed", logging.Error(err))
	} else if err := separation.WriteInfo(outDir, separation.Info{
		OriginalAudioPath: item.AudioFile,
		VocalsPath:        result.VocalsPath,
		AccompanimentPath: result.AccompanimentPath,
		Method:            result.MethodName,
		SeparatedAt:       time.Now().UTC(),
		Quality:           metrics,
	}); err != nil {
		logger.Warn("write separation info failed", logging.Error(err))
	}

	item.SetProgressComplete("Separating audio", "Separation complete")
	logger.Info("separation finished",
		logging.String("method", result.MethodName),
		logging.Float64("quality_score", result.QualityScore),
		logging.Float64("processing_seconds", result.ProcessingSeconds),
	)
	return nil
}

// HealthCheck always reports ready: the deterministic engine needs no
// external tools, so the stage can run even when demucs is absent.
func (s *Separator) HealthCheck(ctx context.Context) stage.Health {
	health := stage.Healthy("separate")
	health.Detail = "method " + s.selector.MethodName()
	return health
}
