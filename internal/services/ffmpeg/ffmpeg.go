// Package ffmpeg wraps the ffmpeg and ffprobe command line tools for audio
// extraction, dub mixing, and remuxing.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// Service drives ffmpeg and ffprobe.
type Service struct {
	ffmpegBin  string
	ffprobeBin string
	runner     Runner
}

// NewService creates an ffmpeg service from explicit binary names.
func NewService(ffmpegBin, ffprobeBin string) *Service {
	if strings.TrimSpace(ffmpegBin) == "" {
		ffmpegBin = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBin) == "" {
		ffprobeBin = "ffprobe"
	}
	return &Service{ffmpegBin: ffmpegBin, ffprobeBin: ffprobeBin}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner Runner) {
	s.runner = runner
}

// ExtractAudio pulls the first audio stream into a mono 16-bit PCM WAV at
// sampleRate, applying a volume boost when boost differs from 1.0.
func (s *Service) ExtractAudio(ctx context.Context, videoPath, dest string, sampleRate int, boost float64) error {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if err := ensureParent(dest); err != nil {
		return err
	}

	args := []string{
		"-y", "-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
	}
	if boost > 0 && boost != 1.0 {
		args = append(args, "-af", fmt.Sprintf("volume=%.2f", boost))
	}
	args = append(args, dest)

	if _, err := s.run(ctx, s.ffmpegBin, args...); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	return nil
}

// MixTracks layers the synthesized voice over the accompaniment using amix,
// trimmed to the voice track's duration.
func (s *Service) MixTracks(ctx context.Context, voicePath, musicPath, dest string, voiceGain, musicGain float64) error {
	if voiceGain <= 0 {
		voiceGain = 1.0
	}
	if musicGain <= 0 {
		musicGain = 0.3
	}
	if err := ensureParent(dest); err != nil {
		return err
	}

	filter := fmt.Sprintf(
		"[0:a]volume=%.2f[voice];[1:a]volume=%.2f[music];[voice][music]amix=inputs=2:duration=first:dropout_transition=0[mix]",
		voiceGain, musicGain,
	)
	args := []string{
		"-y",
		"-i", voicePath,
		"-i", musicPath,
		"-filter_complex", filter,
		"-map", "[mix]",
		"-c:a", "pcm_s16le",
		dest,
	}
	if _, err := s.run(ctx, s.ffmpegBin, args...); err != nil {
		return fmt.Errorf("mix tracks: %w", err)
	}
	return nil
}

// Remux replaces the video's audio with audioPath. The video stream is
// copied untouched; the audio is encoded to AAC for container compatibility.
func (s *Service) Remux(ctx context.Context, videoPath, audioPath, dest string) error {
	if err := ensureParent(dest); err != nil {
		return err
	}
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		dest,
	}
	if _, err := s.run(ctx, s.ffmpegBin, args...); err != nil {
		return fmt.Errorf("remux: %w", err)
	}
	return nil
}

// HasAudioStream reports whether the file carries at least one audio stream.
func (s *Service) HasAudioStream(ctx context.Context, path string) (bool, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_type",
		"-of", "csv=p=0",
		path,
	}
	output, err := s.run(ctx, s.ffprobeBin, args...)
	if err != nil {
		return false, fmt.Errorf("probe audio streams: %w", err)
	}
	return strings.TrimSpace(output) != "", nil
}

// Duration returns the container duration in seconds.
func (s *Service) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	}
	output, err := s.run(ctx, s.ffprobeBin, args...)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(output), err)
	}
	return value, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) (string, error) {
	if s.runner != nil {
		return s.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

func ensureParent(dest string) error {
	dir := filepath.Dir(dest)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
