package transcribing_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"redub/internal/config"
	"redub/internal/queue"
	"redub/internal/services"
	"redub/internal/services/whisper"
	"redub/internal/transcribing"
)

func testItem(t *testing.T) *queue.Item {
	t.Helper()
	projectDir := t.TempDir()
	vocals := filepath.Join(projectDir, "03_separated", "vocals.wav")
	if err := os.MkdirAll(filepath.Dir(vocals), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(vocals, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &queue.Item{ProjectDir: projectDir, VocalsFile: vocals}
}

func stubWhisper(t *testing.T, segments []whisper.Segment) *whisper.Service {
	t.Helper()
	client := whisper.NewService("whisper", "small", "")
	client.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		outDir := ""
		for i, arg := range args {
			if arg == "--output_dir" && i+1 < len(args) {
				outDir = args[i+1]
			}
		}
		payload := whisper.Transcript{Language: "en", Segments: segments}
		data, err := json.Marshal(payload)
		if err != nil {
			return "", err
		}
		return "", os.WriteFile(filepath.Join(outDir, "vocals.json"), data, 0o644)
	})
	return client
}

func TestPrepareRequiresAudio(t *testing.T) {
	cfg := config.Default()
	handler := transcribing.NewTranscriber(&cfg, nil, nil)
	err := handler.Prepare(context.Background(), &queue.Item{})
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestExecuteTranscribes(t *testing.T) {
	cfg := config.Default()
	item := testItem(t)
	segments := []whisper.Segment{
		{ID: 0, Start: 0, End: 2, Text: "Hello there."},
		{ID: 1, Start: 2, End: 4, Text: "General greeting."},
	}

	handler := transcribing.NewTranscriberWithClient(&cfg, nil, nil, stubWhisper(t, segments))
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if item.TranscriptFile == "" {
		t.Fatal("TranscriptFile not set")
	}
	transcript, err := whisper.LoadTranscript(item.TranscriptFile)
	if err != nil {
		t.Fatalf("LoadTranscript: %v", err)
	}
	if len(transcript.Segments) != 2 {
		t.Errorf("segments = %d", len(transcript.Segments))
	}
}

func TestExecuteEmptyTranscriptIsValidation(t *testing.T) {
	cfg := config.Default()
	item := testItem(t)

	handler := transcribing.NewTranscriberWithClient(&cfg, nil, nil, stubWhisper(t, nil))
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestExecuteWhisperFailureIsExternalTool(t *testing.T) {
	cfg := config.Default()
	item := testItem(t)

	client := whisper.NewService("", "", "")
	client.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "", errors.New("model load failed")
	})
	handler := transcribing.NewTranscriberWithClient(&cfg, nil, nil, client)
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Errorf("error = %v, want external tool", err)
	}
}
