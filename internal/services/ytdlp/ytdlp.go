// Package ytdlp wraps the yt-dlp command line tool for video metadata and
// download.
package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBinary is used when no binary is configured.
const DefaultBinary = "yt-dlp"

// Info holds the metadata fields redub keeps from a yt-dlp -J dump.
type Info struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Channel  string  `json:"channel"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
	WebURL   string  `json:"webpage_url"`
}

// DisplayTitle returns the best available human title.
func (i Info) DisplayTitle() string {
	if title := strings.TrimSpace(i.Title); title != "" {
		return title
	}
	return strings.TrimSpace(i.ID)
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// Service drives yt-dlp.
type Service struct {
	bin       string
	maxHeight int
	format    string
	timeout   time.Duration
	runner    Runner
}

// NewService creates a yt-dlp service. maxHeight caps the selected video
// stream; zero means no cap. timeoutSeconds of zero disables the deadline.
func NewService(bin string, maxHeight int, format string, timeoutSeconds int) *Service {
	if strings.TrimSpace(bin) == "" {
		bin = DefaultBinary
	}
	return &Service{
		bin:       bin,
		maxHeight: maxHeight,
		format:    strings.TrimSpace(format),
		timeout:   time.Duration(timeoutSeconds) * time.Second,
	}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner Runner) {
	s.runner = runner
}

// Binary returns the configured executable name.
func (s *Service) Binary() string {
	return s.bin
}

// ValidateURL checks that raw parses as an absolute http(s) URL.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("url is empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url has no host")
	}
	return nil
}

// FetchInfo runs yt-dlp -J and decodes the metadata dump.
func (s *Service) FetchInfo(ctx context.Context, rawURL string) (Info, error) {
	var info Info
	if err := ValidateURL(rawURL); err != nil {
		return info, err
	}

	output, err := s.run(ctx, "-J", "--no-playlist", rawURL)
	if err != nil {
		return info, fmt.Errorf("fetch info: %w", err)
	}
	if err := json.Unmarshal([]byte(output), &info); err != nil {
		return info, fmt.Errorf("decode info dump: %w", err)
	}
	if info.Channel == "" {
		info.Channel = info.Uploader
	}
	return info, nil
}

// Download retrieves the video into destDir and returns the downloaded file
// path. Format selection prefers a merged mp4 capped at the configured
// height.
func (s *Service) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	template := filepath.Join(destDir, "source.%(ext)s")
	args := []string{
		"--no-playlist",
		"--no-progress",
		"-f", s.formatSelector(),
		"--merge-output-format", "mp4",
		"-o", template,
		"--print", "after_move:filepath",
		"--no-simulate",
		rawURL,
	}

	output, err := s.run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	if path := lastLine(output); path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			return path, nil
		}
	}
	return findDownloaded(destDir)
}

func (s *Service) formatSelector() string {
	if s.format != "" {
		return s.format
	}
	if s.maxHeight > 0 {
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", s.maxHeight, s.maxHeight)
	}
	return "bestvideo+bestaudio/best"
}

func (s *Service) run(ctx context.Context, args ...string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
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

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// findDownloaded locates the newest plausible video file in destDir. Used
// when yt-dlp's printed filepath cannot be trusted.
func findDownloaded(destDir string) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("scan download dir: %w", err)
	}
	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".mp4", ".mkv", ".webm", ".mov":
		default:
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(destDir, entry.Name())
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no video file found in %s", destDir)
	}
	return newest, nil
}
