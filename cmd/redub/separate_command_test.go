package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"redub/internal/separation"
	"redub/internal/wavio"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	rate := separation.AnalysisRate
	samples := make([]float64, rate)
	for i := range samples {
		samples[i] = 0.4 * math.Sin(2*math.Pi*330*float64(i)/float64(rate))
		if i%(rate/4) == 0 {
			samples[i] += 0.5
		}
	}
	path := filepath.Join(t.TempDir(), "input.wav")
	if err := wavio.WriteFileMono(path, samples, rate); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSeparateCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	audioPath := writeTestAudio(t)
	outDir := filepath.Join(env.baseDir, "stems")

	out, _, err := runCLI(t, []string{"separate", audioPath, "--output", outDir}, env.configPath)
	if err != nil {
		t.Fatalf("separate: %v", err)
	}
	requireContains(t, out, "Method: deterministic")
	requireContains(t, out, "Quality score:")

	for _, name := range []string{separation.VocalsFileName, separation.AccompanimentFileName} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing stem %s: %v", name, err)
		}
	}
}

func TestSeparateCommandMissingInput(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"separate", filepath.Join(env.baseDir, "nope.wav")}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing audio file")
	}
}
