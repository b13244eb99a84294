package demucs_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redub/internal/separation"
	"redub/internal/services/demucs"
	"redub/internal/wavio"
)

func sine(freq float64, rate, n int, amp float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return samples
}

func writeStems(t *testing.T, stemRoot string) {
	t.Helper()
	trackDir := filepath.Join(stemRoot, "htdemucs", "input")
	if err := os.MkdirAll(trackDir, 0o755); err != nil {
		t.Fatal(err)
	}
	rate := separation.AnalysisRate
	if err := wavio.WriteFileMono(filepath.Join(trackDir, "vocals.wav"), sine(440, rate, rate/2, 0.5), rate); err != nil {
		t.Fatal(err)
	}
	if err := wavio.WriteFileMono(filepath.Join(trackDir, "no_vocals.wav"), sine(220, rate, rate/2, 0.4), rate); err != nil {
		t.Fatal(err)
	}
}

func TestSeparateConvertsStems(t *testing.T) {
	outDir := t.TempDir()
	svc := demucs.NewService("demucs", "htdemucs", nil)
	var gotArgs []string
	svc.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		gotArgs = args
		writeStems(t, filepath.Join(outDir, "stems"))
		return "", nil
	})

	result := svc.Separate(context.Background(), "input.wav", outDir)
	if !result.Success {
		t.Fatalf("Separate failed: %s", result.ErrorMessage)
	}
	if result.MethodName != "demucs" {
		t.Errorf("MethodName = %q", result.MethodName)
	}

	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"--two-stems=vocals", "-n htdemucs"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}

	for _, path := range []string{result.VocalsPath, result.AccompanimentPath} {
		signal, err := wavio.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if signal.Rate != separation.AnalysisRate {
			t.Errorf("%s rate = %d, want %d", path, signal.Rate, separation.AnalysisRate)
		}
	}

	if result.QualityScore < 0.3 || result.QualityScore > 0.95 {
		t.Errorf("QualityScore = %v", result.QualityScore)
	}
}

func TestSeparateIncompleteOutput(t *testing.T) {
	outDir := t.TempDir()
	svc := demucs.NewService("demucs", "", nil)
	svc.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		// Run "succeeds" but writes nothing.
		return "", os.MkdirAll(filepath.Join(outDir, "stems"), 0o755)
	})

	result := svc.Separate(context.Background(), "input.wav", outDir)
	if result.Success {
		t.Fatal("expected failure for missing stems")
	}
	if result.ErrorMessage == "" {
		t.Error("expected error message")
	}
}

func TestSeparateUnavailableBinary(t *testing.T) {
	svc := demucs.NewService("definitely-not-a-real-binary-xyz", "", nil)
	if svc.Available() {
		t.Skip("unexpected binary on PATH")
	}
	result := svc.Separate(context.Background(), "input.wav", t.TempDir())
	if result.Success {
		t.Fatal("expected failure when binary is unavailable")
	}
}

func TestServiceSatisfiesSeparator(t *testing.T) {
	var _ separation.Separator = demucs.NewService("", "", nil)
}
