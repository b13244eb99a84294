package ytdlp_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redub/internal/services/ytdlp"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://www.youtube.com/watch?v=abc123", false},
		{"http", "http://example.com/video", false},
		{"empty", "", true},
		{"no scheme", "youtube.com/watch?v=abc", true},
		{"ftp", "ftp://example.com/video", true},
		{"no host", "https://", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ytdlp.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestFetchInfo(t *testing.T) {
	svc := ytdlp.NewService("yt-dlp", 1080, "", 0)
	var gotArgs []string
	svc.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		gotArgs = args
		return `{"id":"abc123","title":"Test Video","uploader":"Some Channel","duration":213.4,"webpage_url":"https://example.com/v"}`, nil
	})

	info, err := svc.FetchInfo(context.Background(), "https://example.com/watch?v=abc123")
	if err != nil {
		t.Fatalf("FetchInfo: %v", err)
	}
	if info.Title != "Test Video" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.Channel != "Some Channel" {
		t.Errorf("Channel fallback to uploader failed: %q", info.Channel)
	}
	if info.Duration != 213.4 {
		t.Errorf("Duration = %v", info.Duration)
	}
	if len(gotArgs) == 0 || gotArgs[0] != "-J" {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestFetchInfoBadJSON(t *testing.T) {
	svc := ytdlp.NewService("", 0, "", 0)
	svc.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "not json", nil
	})
	if _, err := svc.FetchInfo(context.Background(), "https://example.com/v"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDownloadUsesPrintedPath(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "source.mp4")

	svc := ytdlp.NewService("yt-dlp", 720, "", 0)
	var gotArgs []string
	svc.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		gotArgs = args
		if err := os.WriteFile(video, []byte("fake video"), 0o644); err != nil {
			t.Fatal(err)
		}
		return video + "\n", nil
	})

	got, err := svc.Download(context.Background(), "https://example.com/v", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got != video {
		t.Errorf("path = %q, want %q", got, video)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "height<=720") {
		t.Errorf("format selector missing height cap: %s", joined)
	}
	if !strings.Contains(joined, "--merge-output-format mp4") {
		t.Errorf("missing merge format: %s", joined)
	}
}

func TestDownloadFallsBackToDirectoryScan(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "source.mkv")

	svc := ytdlp.NewService("yt-dlp", 0, "", 0)
	svc.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		if err := os.WriteFile(video, []byte("fake"), 0o644); err != nil {
			t.Fatal(err)
		}
		// Simulate noisy output with no usable filepath line.
		return "[download] 100%\n", nil
	})

	got, err := svc.Download(context.Background(), "https://example.com/v", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got != video {
		t.Errorf("path = %q, want %q", got, video)
	}
}

func TestDownloadRejectsBadURL(t *testing.T) {
	svc := ytdlp.NewService("", 0, "", 0)
	if _, err := svc.Download(context.Background(), "not-a-url", t.TempDir()); err == nil {
		t.Fatal("expected validation error")
	}
}
