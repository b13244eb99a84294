package main

import (
	"log/slog"

	"redub/internal/config"
	"redub/internal/downloading"
	"redub/internal/extracting"
	"redub/internal/muxing"
	"redub/internal/queue"
	"redub/internal/separating"
	"redub/internal/synthesizing"
	"redub/internal/transcribing"
	"redub/internal/translating"
	"redub/internal/workflow"
)

func buildStageSet(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
	return workflow.StageSet{
		Downloader:  downloading.NewDownloader(cfg, store, logger),
		Extractor:   extracting.NewExtractor(cfg, store, logger),
		Separator:   separating.NewSeparator(cfg, store, logger),
		Transcriber: transcribing.NewTranscriber(cfg, store, logger),
		Translator:  translating.NewTranslator(cfg, store, logger),
		Synthesizer: synthesizing.NewSynthesizer(cfg, store, logger),
		Muxer:       muxing.NewMuxer(cfg, store, logger),
	}
}
