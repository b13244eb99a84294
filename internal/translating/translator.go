// Package translating implements the translation stage: converting the
// timed transcript into the target language through a translate.Provider.
package translating

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"redub/internal/config"
	"redub/internal/language"
	"redub/internal/logging"
	"redub/internal/project"
	"redub/internal/queue"
	"redub/internal/services"
	"redub/internal/services/translate"
	"redub/internal/services/whisper"
	"redub/internal/stage"
)

// Output file names within the translation directory.
const (
	DocumentFileName = "translation.json"
	SubtitleFileName = "translation.srt"
)

// Segment pairs a source transcript span with its translation.
type Segment struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Source string  `json:"source"`
	Text   string  `json:"text"`
}

// Document is the persisted result of the translation stage.
type Document struct {
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	Provider       string    `json:"provider"`
	TranslatedAt   time.Time `json:"translated_at"`
	Segments       []Segment `json:"segments"`
}

// PlainText joins the translated segment texts.
func (d Document) PlainText() string {
	parts := make([]string, 0, len(d.Segments))
	for _, seg := range d.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// LoadDocument reads a translation document from disk.
func LoadDocument(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read translation document: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse translation document: %w", err)
	}
	return doc, nil
}

// Translator manages the translation stage.
type Translator struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	provider translate.Provider
}

// NewTranslator constructs the stage handler with a provider selected from
// config. A broken provider configuration surfaces at Prepare time.
func NewTranslator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Translator {
	provider, err := translate.New(translate.Options{
		Provider:       cfg.Translation.Provider,
		APIKey:         cfg.Translation.APIKey,
		BaseURL:        cfg.Translation.BaseURL,
		Model:          cfg.Translation.Model,
		TimeoutSeconds: cfg.Translation.TimeoutSeconds,
	})
	if err != nil && logger != nil {
		logger.Warn("translation provider unavailable", logging.Error(err))
	}
	return NewTranslatorWithProvider(cfg, store, logger, provider)
}

// NewTranslatorWithProvider allows injecting the provider (used in tests).
func NewTranslatorWithProvider(cfg *config.Config, store *queue.Store, logger *slog.Logger, provider translate.Provider) *Translator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Translator{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "translator"),
		provider: provider,
	}
}

func (t *Translator) Prepare(ctx context.Context, item *queue.Item) error {
	if t.provider == nil {
		return services.Wrap(services.ErrConfiguration, "translating", "check provider", "No usable translation provider; check translation settings", nil)
	}
	if strings.TrimSpace(t.cfg.Translation.TargetLanguage) == "" {
		return services.Wrap(services.ErrConfiguration, "translating", "check target", "translation.target_language is not configured", nil)
	}
	if item.TranscriptFile == "" {
		return services.Wrap(services.ErrValidation, "translating", "check input", "Item has no transcript file", nil)
	}
	if _, err := os.Stat(item.TranscriptFile); err != nil {
		return services.Wrap(services.ErrValidation, "translating", "check input", "Transcript file is missing on disk", err)
	}
	item.InitProgress("Translating", "Starting translation")
	return nil
}

func (t *Translator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)

	transcript, err := whisper.LoadTranscript(item.TranscriptFile)
	if err != nil {
		return services.Wrap(services.ErrValidation, "translating", "load transcript", "Transcript file is unreadable", err)
	}
	if len(transcript.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "translating", "load transcript", "Transcript has no segments", nil)
	}

	texts := make([]string, len(transcript.Segments))
	for i, seg := range transcript.Segments {
		texts[i] = strings.TrimSpace(seg.Text)
	}

	target := t.cfg.Translation.TargetLanguage
	translated, err := t.provider.Translate(ctx, texts, transcript.Language, target)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "translating", t.provider.Name(), "Translation request failed", err)
	}
	if len(translated) != len(texts) {
		return services.Wrap(services.ErrExternalTool, "translating", t.provider.Name(),
			fmt.Sprintf("Provider returned %d translations for %d segments", len(translated), len(texts)), nil)
	}

	doc := Document{
		SourceLanguage: transcript.Language,
		TargetLanguage: language.ToISO2(target),
		Provider:       t.provider.Name(),
		TranslatedAt:   time.Now().UTC(),
		Segments:       make([]Segment, len(texts)),
	}
	for i, seg := range transcript.Segments {
		doc.Segments[i] = Segment{
			Start:  seg.Start,
			End:    seg.End,
			Source: texts[i],
			Text:   translated[i],
		}
	}

	outDir := filepath.Join(item.ProjectDir, project.DirTranslation)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "translating", "ensure output dir", "Failed to create translation directory", err)
	}

	docPath := filepath.Join(outDir, DocumentFileName)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "translating", "encode document", "Failed to encode translation document", err)
	}
	if err := os.WriteFile(docPath, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "translating", "write document", "Failed to write translation document", err)
	}

	srtSegments := make([]whisper.Segment, len(doc.Segments))
	for i, seg := range doc.Segments {
		srtSegments[i] = whisper.Segment{ID: i, Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	if err := os.WriteFile(filepath.Join(outDir, SubtitleFileName), []byte(whisper.FormatSRT(srtSegments)), 0o644); err != nil {
		logger.Warn("write translated subtitles failed", logging.Error(err))
	}

	item.TranslationFile = docPath
	item.SetProgressComplete("Translating", "Translation complete")
	logger.Info("translation finished",
		logging.String("provider", t.provider.Name()),
		logging.String("target_language", doc.TargetLanguage),
		logging.Int("segments", len(doc.Segments)),
	)
	return nil
}

func (t *Translator) HealthCheck(ctx context.Context) stage.Health {
	if t.provider == nil {
		return stage.Unhealthy("translate", "no usable translation provider")
	}
	health := stage.Healthy("translate")
	health.Detail = "provider " + t.provider.Name()
	return health
}
