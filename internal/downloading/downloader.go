// Package downloading implements the first pipeline stage: fetching the
// source video with yt-dlp and laying out the item's project directory.
package downloading

import (
	"context"
	"log/slog"
	"strings"

	"redub/internal/config"
	"redub/internal/deps"
	"redub/internal/logging"
	"redub/internal/project"
	"redub/internal/queue"
	"redub/internal/services"
	"redub/internal/services/ytdlp"
	"redub/internal/stage"
)

// Downloader manages the video retrieval stage.
type Downloader struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	client *ytdlp.Service
}

// NewDownloader constructs the stage handler with a client built from config.
func NewDownloader(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Downloader {
	client := ytdlp.NewService(cfg.Download.YtDlpBin, cfg.Download.MaxHeight, cfg.Download.Format, cfg.Download.TimeoutSeconds)
	return NewDownloaderWithClient(cfg, store, logger, client)
}

// NewDownloaderWithClient allows injecting the yt-dlp client (used in tests).
func NewDownloaderWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client *ytdlp.Service) *Downloader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Downloader{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "downloader"),
		client: client,
	}
}

func (d *Downloader) Prepare(ctx context.Context, item *queue.Item) error {
	if err := ytdlp.ValidateURL(item.SourceURL); err != nil {
		return services.Wrap(services.ErrValidation, "downloading", "validate url", "Source URL is not a fetchable http(s) address", err)
	}
	item.InitProgress("Downloading", "Starting download")
	return nil
}

func (d *Downloader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)

	if item.ProjectDir == "" {
		title := strings.TrimSpace(item.Title)
		if info, err := d.client.FetchInfo(ctx, item.SourceURL); err == nil {
			if fetched := info.DisplayTitle(); fetched != "" {
				title = fetched
			}
		} else {
			logger.Warn("metadata fetch failed, continuing with queue title", logging.Error(err))
		}
		if title == "" {
			title = "Video"
		}

		proj, err := project.Create(d.cfg.Paths.WorkDir, title, item.SourceURL)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "downloading", "create project", "Failed to create project directory; check work_dir", err)
		}
		item.ProjectDir = proj.Root
		item.Title = title
		logger.Info("project created", logging.String("project_dir", proj.Root))
	}

	proj, err := project.Open(item.ProjectDir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "downloading", "open project", "Project directory is missing or unreadable", err)
	}

	item.SetProgress("Downloading", "Fetching video", 10)
	d.persistProgress(ctx, item)

	videoPath, err := d.client.Download(ctx, item.SourceURL, proj.SourceDir())
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "downloading", "yt-dlp", "Video download failed; check yt-dlp installation and the source URL", err)
	}

	item.VideoFile = videoPath
	item.SetProgressComplete("Downloading", "Download complete")
	logger.Info("download finished", logging.String("video_file", videoPath))
	return nil
}

func (d *Downloader) HealthCheck(ctx context.Context) stage.Health {
	bin := d.client.Binary()
	if !deps.Available(bin) {
		return stage.Unhealthy("download", "yt-dlp binary "+bin+" not found")
	}
	return stage.Healthy("download")
}

func (d *Downloader) persistProgress(ctx context.Context, item *queue.Item) {
	if d.store == nil {
		return
	}
	if err := d.store.Update(ctx, item); err != nil {
		d.logger.Warn("persist progress failed", logging.Error(err))
	}
}
