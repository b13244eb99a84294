// Package extracting implements the audio extraction stage: pulling a mono
// WAV track out of the downloaded video with ffmpeg.
package extracting

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
	"redub/internal/services/ffmpeg"
	"redub/internal/stage"
)

// ExtractedFileName is the WAV written into the project's audio directory.
const ExtractedFileName = "extracted.wav"

// Extractor manages the audio extraction stage.
type Extractor struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	client *ffmpeg.Service
}

// NewExtractor constructs the stage handler with an ffmpeg client built from
// config.
func NewExtractor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Extractor {
	return NewExtractorWithClient(cfg, store, logger, ffmpeg.NewService(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
}

// NewExtractorWithClient allows injecting the ffmpeg client (used in tests).
func NewExtractorWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client *ffmpeg.Service) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "extractor"),
		client: client,
	}
}

func (e *Extractor) Prepare(ctx context.Context, item *queue.Item) error {
	if item.VideoFile == "" {
		return services.Wrap(services.ErrValidation, "extracting", "check input", "Item has no downloaded video file", nil)
	}
	if _, err := os.Stat(item.VideoFile); err != nil {
		return services.Wrap(services.ErrValidation, "extracting", "check input", "Downloaded video file is missing on disk", err)
	}
	item.InitProgress("Extracting audio", "Starting extraction")
	return nil
}

func (e *Extractor) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)

	hasAudio, err := e.client.HasAudioStream(ctx, item.VideoFile)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "extracting", "ffprobe", "Could not inspect the video's streams", err)
	}
	if !hasAudio {
		return services.Wrap(services.ErrValidation, "extracting", "check streams", "Video has no audio stream to dub", nil)
	}

	dest := filepath.Join(item.ProjectDir, project.DirAudio, ExtractedFileName)
	if err := e.client.ExtractAudio(ctx, item.VideoFile, dest, e.cfg.Audio.ExtractSampleRate, e.cfg.Audio.VolumeBoost); err != nil {
		return services.Wrap(services.ErrExternalTool, "extracting", "ffmpeg", "Audio extraction failed", err)
	}

	item.AudioFile = dest
	item.SetProgressComplete("Extracting audio", "Extraction complete")
	logger.Info("audio extracted", logging.String("audio_file", dest))
	return nil
}

func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	for _, bin := range []string{e.cfg.FFmpegBinary(), e.cfg.FFprobeBinary()} {
		if !deps.Available(bin) {
			return stage.Unhealthy("extract", "binary "+bin+" not found")
		}
	}
	return stage.Healthy("extract")
}
