// Package whisper wraps the whisper command line tool for speech
// transcription and handles its JSON output plus the SRT and plain-text
// transcript renderings.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"redub/internal/language"
	"redub/internal/textutil"
)

// DefaultBinary and DefaultModel are used when nothing is configured.
const (
	DefaultBinary = "whisper"
	DefaultModel  = "small"
)

// duplicateSimilarity is the cosine similarity above which consecutive
// segments are treated as a stuck-decoder repetition and collapsed.
const duplicateSimilarity = 0.97

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// Segment is one timed span of transcribed speech.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the decoded whisper output.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Result locates the artifacts written by a transcription run.
type Result struct {
	Transcript Transcript
	JSONPath   string
	TextPath   string
	SRTPath    string
}

// Service drives the whisper CLI.
type Service struct {
	bin      string
	model    string
	language string
	runner   Runner
}

// NewService creates a whisper service. language forces a source language;
// empty means auto-detect.
func NewService(bin, model, lang string) *Service {
	if strings.TrimSpace(bin) == "" {
		bin = DefaultBinary
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Service{bin: bin, model: model, language: strings.TrimSpace(lang)}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner Runner) {
	s.runner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.model
}

// Transcribe runs whisper on source, then decodes its JSON output and
// writes the .txt and .srt renderings next to it.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string) (Result, error) {
	var result Result
	if source == "" {
		return result, fmt.Errorf("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := []string{
		source,
		"--model", s.model,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--fp16", "False",
	}
	if lang := language.ToISO2(s.language); lang != "" {
		args = append(args, "--language", lang)
	}
	if _, err := s.run(ctx, args...); err != nil {
		return result, fmt.Errorf("whisper: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	result.JSONPath = filepath.Join(outputDir, base+".json")

	transcript, err := LoadTranscript(result.JSONPath)
	if err != nil {
		return result, fmt.Errorf("transcribe: %w", err)
	}
	transcript.Segments = CollapseRepeats(transcript.Segments)
	result.Transcript = transcript

	result.TextPath = filepath.Join(outputDir, base+".txt")
	if err := os.WriteFile(result.TextPath, []byte(transcript.PlainText()+"\n"), 0o644); err != nil {
		return result, fmt.Errorf("write transcript text: %w", err)
	}

	result.SRTPath = filepath.Join(outputDir, base+".srt")
	if err := os.WriteFile(result.SRTPath, []byte(FormatSRT(transcript.Segments)), 0o644); err != nil {
		return result, fmt.Errorf("write srt: %w", err)
	}

	return result, nil
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

// LoadTranscript decodes a whisper JSON output file.
func LoadTranscript(jsonPath string) (Transcript, error) {
	var transcript Transcript
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return transcript, err
	}
	if err := json.Unmarshal(data, &transcript); err != nil {
		return transcript, fmt.Errorf("parse whisper json: %w", err)
	}
	return transcript, nil
}

// PlainText joins the segment texts into a single transcript string.
func (t Transcript) PlainText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(t.Text)
	}
	return strings.Join(parts, " ")
}

// CollapseRepeats drops consecutive segments whose text is nearly identical
// to the previous one. Whisper's decoder can get stuck and emit the same
// phrase for many spans; the survivor keeps the first start and last end.
func CollapseRepeats(segments []Segment) []Segment {
	if len(segments) < 2 {
		return segments
	}
	out := make([]Segment, 0, len(segments))
	out = append(out, segments[0])
	prev := textutil.NewFingerprint(segments[0].Text)
	for _, seg := range segments[1:] {
		current := textutil.NewFingerprint(seg.Text)
		if prev != nil && current != nil && textutil.CosineSimilarity(prev, current) >= duplicateSimilarity {
			out[len(out)-1].End = seg.End
			continue
		}
		out = append(out, seg)
		prev = current
	}
	return out
}

// FormatSRT renders segments as an SRT document with HH:MM:SS,mmm
// timestamps.
func FormatSRT(segments []Segment) string {
	var builder strings.Builder
	index := 1
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&builder, "%d\n%s --> %s\n%s\n\n",
			index, FormatTimestamp(seg.Start), FormatTimestamp(seg.End), text)
		index++
	}
	return builder.String()
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int64(seconds*1000 + 0.5)
	hours := millis / 3_600_000
	millis -= hours * 3_600_000
	minutes := millis / 60_000
	millis -= minutes * 60_000
	secs := millis / 1000
	millis -= secs * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
