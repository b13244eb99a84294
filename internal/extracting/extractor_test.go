package extracting_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redub/internal/config"
	"redub/internal/extracting"
	"redub/internal/queue"
	"redub/internal/services"
	"redub/internal/services/ffmpeg"
)

func testItem(t *testing.T) *queue.Item {
	t.Helper()
	projectDir := t.TempDir()
	video := filepath.Join(projectDir, "source.mp4")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &queue.Item{ProjectDir: projectDir, VideoFile: video}
}

func stubClient(t *testing.T, probeOutput string, extractErr error) *ffmpeg.Service {
	t.Helper()
	client := ffmpeg.NewService("", "")
	client.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		if name == "ffprobe" {
			return probeOutput, nil
		}
		if extractErr != nil {
			return "", extractErr
		}
		return "", os.WriteFile(args[len(args)-1], []byte("wav"), 0o644)
	})
	return client
}

func TestPrepareRequiresVideoFile(t *testing.T) {
	cfg := config.Default()
	handler := extracting.NewExtractor(&cfg, nil, nil)
	err := handler.Prepare(context.Background(), &queue.Item{})
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestExecuteExtracts(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.ExtractSampleRate = 16000
	cfg.Audio.VolumeBoost = 1.5
	item := testItem(t)

	handler := extracting.NewExtractorWithClient(&cfg, nil, nil, stubClient(t, "audio\n", nil))
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.AudioFile == "" {
		t.Fatal("AudioFile not set")
	}
	if !strings.HasSuffix(item.AudioFile, filepath.Join("02_audio", "extracted.wav")) {
		t.Errorf("AudioFile = %s", item.AudioFile)
	}
	if _, err := os.Stat(item.AudioFile); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestExecuteNoAudioStreamIsValidation(t *testing.T) {
	cfg := config.Default()
	item := testItem(t)

	handler := extracting.NewExtractorWithClient(&cfg, nil, nil, stubClient(t, "\n", nil))
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestExecuteFFmpegFailureIsExternalTool(t *testing.T) {
	cfg := config.Default()
	item := testItem(t)

	handler := extracting.NewExtractorWithClient(&cfg, nil, nil, stubClient(t, "audio\n", errors.New("boom")))
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Errorf("error = %v, want external tool", err)
	}
}
