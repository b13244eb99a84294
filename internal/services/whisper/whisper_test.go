package whisper_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redub/internal/services/whisper"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.042, "00:01:01,042"},
		{3661.25, "01:01:01,250"},
		{-5, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := whisper.FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatSRT(t *testing.T) {
	segments := []whisper.Segment{
		{ID: 0, Start: 0, End: 2.5, Text: " Hello there. "},
		{ID: 1, Start: 2.5, End: 4, Text: ""},
		{ID: 2, Start: 4, End: 6.1, Text: "Second line."},
	}
	got := whisper.FormatSRT(segments)
	want := "1\n00:00:00,000 --> 00:00:02,500\nHello there.\n\n" +
		"2\n00:00:04,000 --> 00:00:06,100\nSecond line.\n\n"
	if got != want {
		t.Errorf("FormatSRT:\n%q\nwant:\n%q", got, want)
	}
}

func TestCollapseRepeats(t *testing.T) {
	segments := []whisper.Segment{
		{Start: 0, End: 2, Text: "Thanks for watching the video today"},
		{Start: 2, End: 4, Text: "Thanks for watching the video today"},
		{Start: 4, End: 6, Text: "Thanks for watching the video today"},
		{Start: 6, End: 8, Text: "Now for something completely different"},
	}
	got := whisper.CollapseRepeats(segments)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].Start != 0 || got[0].End != 6 {
		t.Errorf("merged span = [%v, %v], want [0, 6]", got[0].Start, got[0].End)
	}
	if got[1].Text != "Now for something completely different" {
		t.Errorf("second segment = %q", got[1].Text)
	}
}

func TestCollapseRepeatsKeepsDistinctText(t *testing.T) {
	segments := []whisper.Segment{
		{Start: 0, End: 2, Text: "The weather turned cold overnight"},
		{Start: 2, End: 4, Text: "Markets opened lower this morning"},
	}
	if got := whisper.CollapseRepeats(segments); len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestTranscribe(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "speech.wav")
	if err := os.WriteFile(source, []byte("fake wav"), 0o644); err != nil {
		t.Fatal(err)
	}

	payload := whisper.Transcript{
		Text:     " Hello world. Goodbye.",
		Language: "en",
		Segments: []whisper.Segment{
			{ID: 0, Start: 0, End: 1.2, Text: " Hello world."},
			{ID: 1, Start: 1.2, End: 2.4, Text: " Goodbye."},
		},
	}

	svc := whisper.NewService("whisper", "small", "en")
	var gotArgs []string
	svc.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		gotArgs = args
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		return "", os.WriteFile(filepath.Join(dir, "speech.json"), data, 0o644)
	})

	result, err := svc.Transcribe(context.Background(), source, dir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"--model small", "--output_format json", "--language en"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}

	if result.Transcript.PlainText() != "Hello world. Goodbye." {
		t.Errorf("PlainText = %q", result.Transcript.PlainText())
	}

	text, err := os.ReadFile(result.TextPath)
	if err != nil {
		t.Fatalf("read text: %v", err)
	}
	if strings.TrimSpace(string(text)) != "Hello world. Goodbye." {
		t.Errorf("text file = %q", text)
	}

	srt, err := os.ReadFile(result.SRTPath)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.Contains(string(srt), "00:00:00,000 --> 00:00:01,200") {
		t.Errorf("srt = %q", srt)
	}
}

func TestTranscribeMissingJSON(t *testing.T) {
	svc := whisper.NewService("", "", "")
	svc.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "", nil
	})
	source := filepath.Join(t.TempDir(), "speech.wav")
	if err := os.WriteFile(source, []byte("fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Transcribe(context.Background(), source, filepath.Dir(source)); err == nil {
		t.Fatal("expected error when whisper writes no JSON")
	}
}

func TestTranscribeEmptySource(t *testing.T) {
	svc := whisper.NewService("", "", "")
	if _, err := svc.Transcribe(context.Background(), "", t.TempDir()); err == nil {
		t.Fatal("expected error for empty source")
	}
}
