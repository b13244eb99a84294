// Package transcribing implements the speech-to-text stage using the
// whisper CLI on the separated vocal track.
package transcribing

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"redub/internal/config"
	"redub/internal/deps"
	"redub/internal/logging"
	"redub/internal/project"
	"redub/internal/queue"
	"redub/internal/services"
	"redub/internal/services/whisper"
	"redub/internal/stage"
)

// Transcriber manages the transcription stage.
type Transcriber struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	client *whisper.Service
}

// NewTranscriber constructs the stage handler with a whisper client built
// from config.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Transcriber {
	client := whisper.NewService(cfg.Transcription.WhisperBin, cfg.Transcription.Model, cfg.Transcription.Language)
	return NewTranscriberWithClient(cfg, store, logger, client)
}

// NewTranscriberWithClient allows injecting the whisper client (used in tests).
func NewTranscriberWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client *whisper.Service) *Transcriber {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Transcriber{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "transcriber"),
		client: client,
	}
}

// source prefers the isolated vocal track; the raw extracted audio is the
// fallback when separation produced no usable vocals file.
func source(item *queue.Item) string {
	if item.VocalsFile != "" {
		return item.VocalsFile
	}
	return item.AudioFile
}

func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	input := source(item)
	if input == "" {
		return services.Wrap(services.ErrValidation, "transcribing", "check input", "Item has no audio to transcribe", nil)
	}
	if _, err := os.Stat(input); err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "check input", "Audio file is missing on disk", err)
	}
	item.InitProgress("Transcribing", "Starting transcription")
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	outDir := filepath.Join(item.ProjectDir, project.DirTranscript)

	result, err := t.client.Transcribe(ctx, source(item), outDir)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribing", "whisper", "Transcription failed; check whisper installation and model availability", err)
	}
	if len(result.Transcript.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "transcribing", "check output", "Transcription produced no speech segments", nil)
	}

	item.TranscriptFile = result.JSONPath
	item.SetProgressComplete("Transcribing", "Transcription complete")
	logger.Info("transcription finished",
		logging.String("transcript_file", result.JSONPath),
		logging.Int("segments", len(result.Transcript.Segments)),
		logging.String("detected_language", result.Transcript.Language),
	)
	return nil
}

func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	bin := t.cfg.Transcription.WhisperBin
	if bin == "" {
		bin = whisper.DefaultBinary
	}
	if !deps.Available(bin) {
		return stage.Unhealthy("transcribe", "whisper binary "+bin+" not found")
	}
	return stage.Healthy("transcribe")
}
