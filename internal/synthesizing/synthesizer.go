// Package synthesizing implements the text-to-speech stage: rendering the
// translated script to an MP3 voice track with edge-tts.
package synthesizing

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"redub/internal/config"
	"redub/internal/deps"
	"redub/internal/logging"
	"redub/internal/project"
	"redub/internal/queue"
	"redub/internal/services"
	"redub/internal/services/edgetts"
	"redub/internal/stage"
	"redub/internal/translating"
)

// VoiceFileName is the synthesized voice track within the dub directory.
const VoiceFileName = "voice.mp3"

// Synthesizer manages the speech synthesis stage.
type Synthesizer struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	client *edgetts.Service
}

// NewSynthesizer constructs the stage handler with an edge-tts client built
// from config.
func NewSynthesizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Synthesizer {
	client := edgetts.NewService(cfg.Synthesis.EdgeTTSBin, cfg.Synthesis.Voice, cfg.Synthesis.Rate)
	return NewSynthesizerWithClient(cfg, store, logger, client)
}

// NewSynthesizerWithClient allows injecting the edge-tts client (used in tests).
func NewSynthesizerWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client *edgetts.Service) *Synthesizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Synthesizer{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "synthesizer"),
		client: client,
	}
}

func (s *Synthesizer) Prepare(ctx context.Context, item *queue.Item) error {
	if item.TranslationFile == "" {
		return services.Wrap(services.ErrValidation, "synthesizing", "check input", "Item has no translation document", nil)
	}
	if _, err := os.Stat(item.TranslationFile); err != nil {
		return services.Wrap(services.ErrValidation, "synthesizing", "check input", "Translation document is missing on disk", err)
	}
	item.InitProgress("Synthesizing speech", "Starting synthesis")
	return nil
}

func (s *Synthesizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)

	doc, err := translating.LoadDocument(item.TranslationFile)
	if err != nil {
		return services.Wrap(services.ErrValidation, "synthesizing", "load translation", "Translation document is unreadable", err)
	}
	script := doc.PlainText()
	if strings.TrimSpace(script) == "" {
		return services.Wrap(services.ErrValidation, "synthesizing", "load translation", "Translation document has no text to speak", nil)
	}

	lang := doc.TargetLanguage
	if lang == "" {
		lang = s.cfg.Translation.TargetLanguage
	}

	dest := filepath.Join(item.ProjectDir, project.DirDub, VoiceFileName)
	if err := s.client.Synthesize(ctx, script, lang, dest); err != nil {
		return services.Wrap(services.ErrExternalTool, "synthesizing", "edge-tts", "Speech synthesis failed; check edge-tts installation and voice settings", err)
	}

	item.DubAudioFile = dest
	item.SetProgressComplete("Synthesizing speech", "Synthesis complete")
	logger.Info("synthesis finished", logging.String("voice_file", dest))
	return nil
}

func (s *Synthesizer) HealthCheck(ctx context.Context) stage.Health {
	bin := s.cfg.Synthesis.EdgeTTSBin
	if bin == "" {
		bin = edgetts.DefaultBinary
	}
	if !deps.Available(bin) {
		return stage.Unhealthy("synthesize", "edge-tts binary "+bin+" not found")
	}
	return stage.Healthy("synthesize")
}
