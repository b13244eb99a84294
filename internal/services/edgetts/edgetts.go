// Package edgetts wraps the edge-tts command line tool for speech
// synthesis.
package edgetts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"redub/internal/language"
)

// DefaultBinary is used when no binary is configured.
const DefaultBinary = "edge-tts"

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// Voice describes one entry from edge-tts --list-voices.
type Voice struct {
	Name   string
	Gender string
}

// Locale returns the voice's locale prefix, e.g. "es-MX".
func (v Voice) Locale() string {
	return language.VoiceLocale(v.Name)
}

// Service drives the edge-tts CLI.
type Service struct {
	bin    string
	voice  string
	rate   string
	runner Runner
}

// NewService creates an edge-tts service. An empty voice falls back to the
// target language's default voice at synthesis time; rate is an edge-tts
// rate adjustment such as "+10%".
func NewService(bin, voice, rate string) *Service {
	if strings.TrimSpace(bin) == "" {
		bin = DefaultBinary
	}
	return &Service{bin: bin, voice: strings.TrimSpace(voice), rate: strings.TrimSpace(rate)}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner Runner) {
	s.runner = runner
}

// VoiceFor resolves the voice to use for a target language: the configured
// voice wins, then the language default.
func (s *Service) VoiceFor(lang string) (string, error) {
	if s.voice != "" {
		return s.voice, nil
	}
	if voice := language.DefaultVoice(lang); voice != "" {
		return voice, nil
	}
	return "", fmt.Errorf("no synthesis voice for language %q", lang)
}

// Synthesize renders text to an MP3 file in the target language's voice.
func (s *Service) Synthesize(ctx context.Context, text, lang, dest string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("synthesize: text is empty")
	}
	voice, err := s.VoiceFor(lang)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	if dir := filepath.Dir(dest); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("synthesize: create output dir: %w", err)
		}
	}

	args := []string{
		"--voice", voice,
		"--text", text,
		"--write-media", dest,
	}
	if s.rate != "" {
		args = append(args, "--rate="+s.rate)
	}
	if _, err := s.run(ctx, args...); err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	return nil
}

// ListVoices returns the voices whose locale matches lang (all voices when
// lang is empty).
func (s *Service) ListVoices(ctx context.Context, lang string) ([]Voice, error) {
	output, err := s.run(ctx, "--list-voices")
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	return filterVoices(parseVoiceList(output), lang), nil
}

func (s *Service) run(ctx context.Context, args ...string) (string, error) {
	if s.runner != nil {
		return s.runner(ctx, s.bin, args...)
	}
	cmd := exec.CommandContext(ctx, s.bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", s.bin, err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// parseVoiceList reads the two-column table printed by --list-voices,
// skipping the header and separator lines.
func parseVoiceList(output string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		if name == "Name" || strings.HasPrefix(name, "-") {
			continue
		}
		voices = append(voices, Voice{Name: name, Gender: fields[1]})
	}
	return voices
}

func filterVoices(voices []Voice, lang string) []Voice {
	code := language.ToISO2(lang)
	if code == "" {
		return voices
	}
	filtered := make([]Voice, 0, len(voices))
	for _, voice := range voices {
		if strings.HasPrefix(strings.ToLower(voice.Name), code+"-") {
			filtered = append(filtered, voice)
		}
	}
	return filtered
}
