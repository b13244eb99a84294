// Package muxing implements the final stage: mixing the synthesized voice
// over the preserved accompaniment and remuxing the result into the video.
package muxing

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"redub/internal/config"
	"redub/internal/deps"
	"redub/internal/fileutil"
	"redub/internal/logging"
	"redub/internal/project"
	"redub/internal/queue"
	"redub/internal/services"
	"redub/internal/services/ffmpeg"
	"redub/internal/stage"
)

// Intermediate and final artifact names.
const (
	MixFileName   = "dub_mix.wav"
	FinalFileName = "dubbed.mp4"
)

// Muxer manages the mix and remux stage.
type Muxer struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	client *ffmpeg.Service
}

// NewMuxer constructs the stage handler with an ffmpeg client built from
// config.
func NewMuxer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Muxer {
	return NewMuxerWithClient(cfg, store, logger, ffmpeg.NewService(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
}

// NewMuxerWithClient allows injecting the ffmpeg client (used in tests).
func NewMuxerWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client *ffmpeg.Service) *Muxer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Muxer{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "muxer"),
		client: client,
	}
}

func (m *Muxer) Prepare(ctx context.Context, item *queue.Item) error {
	inputs := []struct {
		path string
		what string
	}{
		{item.VideoFile, "downloaded video"},
		{item.DubAudioFile, "synthesized voice track"},
		{item.AccompanimentFile, "accompaniment track"},
	}
	for _, input := range inputs {
		if input.path == "" {
			return services.Wrap(services.ErrValidation, "muxing", "check input", "Item has no "+input.what, nil)
		}
		if _, err := os.Stat(input.path); err != nil {
			return services.Wrap(services.ErrValidation, "muxing", "check input", "Missing "+input.what+" on disk", err)
		}
	}
	item.InitProgress("Muxing", "Starting final mux")
	return nil
}

func (m *Muxer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, m.logger)

	mixPath := filepath.Join(item.ProjectDir, project.DirDub, MixFileName)
	if err := m.client.MixTracks(ctx, item.DubAudioFile, item.AccompanimentFile, mixPath, m.cfg.Mix.VoiceGain, m.cfg.Mix.MusicGain); err != nil {
		return services.Wrap(services.ErrExternalTool, "muxing", "mix tracks", "Dub mix failed", err)
	}

	// Remux lands in the dub workspace; only a complete file is moved
	// into the final directory.
	workPath := filepath.Join(item.ProjectDir, project.DirDub, FinalFileName)
	if err := m.client.Remux(ctx, item.VideoFile, mixPath, workPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "muxing", "remux", "Final remux failed", err)
	}

	finalPath := filepath.Join(item.ProjectDir, project.DirFinal, FinalFileName)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "muxing", "publish", "Could not create final directory", err)
	}
	if err := fileutil.MoveFile(workPath, finalPath); err != nil {
		return services.Wrap(services.ErrTransient, "muxing", "publish", "Could not move dubbed video into the final directory", err)
	}

	item.FinalFile = finalPath
	item.SetProgressComplete("Muxing", "Dubbed video ready")
	logger.Info("mux finished", logging.String("final_file", finalPath))
	return nil
}

func (m *Muxer) HealthCheck(ctx context.Context) stage.Health {
	if !deps.Available(m.cfg.FFmpegBinary()) {
		return stage.Unhealthy("mux", "ffmpeg binary not found")
	}
	return stage.Healthy("mux")
}
