package separation_test

import (
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"redub/internal/separation"
	"redub/internal/wavio"
)

func TestScoreBounds(t *testing.T) {
	cases := []struct {
		vocals, music float64
	}{
		{0, 0},
		{0.5, 0},
		{0, 0.5},
		{0.5, 0.5},
		{0.01, 0.5},
		{0.5, 0.01},
		{0.25, 0.5},
		{1e-6, 1e-6},
		{100, 0.002},
	}
	for _, tt := range cases {
		score := separation.Score(tt.vocals, tt.music)
		if score < 0.3 || score > 0.95 {
			t.Errorf("Score(%v, %v) = %v outside [0.3, 0.95]", tt.vocals, tt.music, score)
		}
	}
}

func TestScoreSilentIsFloor(t *testing.T) {
	if got := separation.Score(0, 0); got != 0.3 {
		t.Errorf("Score(0,0) = %v, want 0.3", got)
	}
	if got := separation.Score(0.5, 0.0005); got != 0.3 {
		t.Errorf("Score with near-silent music = %v, want 0.3", got)
	}
}

func TestScorePeaksAtHalfBalance(t *testing.T) {
	peak := separation.Score(0.25, 0.5)
	if math.Abs(peak-0.95) > 1e-9 {
		t.Errorf("Score(0.25, 0.5) = %v, want 0.95", peak)
	}
	equal := separation.Score(0.5, 0.5)
	if equal >= peak {
		t.Errorf("Score at equal energies = %v, should not exceed peak %v", equal, peak)
	}
}

func TestAnalyzeSignalsRatioSentinel(t *testing.T) {
	vocals := sine(440, separation.AnalysisRate, separation.AnalysisRate/10, 0.5)
	silent := make([]float64, len(vocals))

	metrics := separation.AnalyzeSignals(vocals, silent)
	if metrics.EnergyRatio != 999.0 {
		t.Errorf("energy ratio = %v, want exactly 999.0", metrics.EnergyRatio)
	}
	if metrics.HasMusic {
		t.Error("silent accompaniment should not register music")
	}
	if metrics.SeparationSucceeded {
		t.Error("separation should not be successful with silent accompaniment")
	}

	// Sentinel must survive serialization without becoming Inf or NaN.
	data, err := json.Marshal(metrics)
	if err != nil {
		t.Fatalf("marshal metrics: %v", err)
	}
	if !strings.Contains(string(data), "999") {
		t.Errorf("serialized metrics missing sentinel: %s", data)
	}
}

func TestAnalyzeSignalsBalanced(t *testing.T) {
	n := separation.AnalysisRate / 2
	vocals := sine(440, separation.AnalysisRate, n, 0.5)
	music := sine(220, separation.AnalysisRate, n, 0.5)

	metrics := separation.AnalyzeSignals(vocals, music)
	if !metrics.HasVocals || !metrics.HasMusic {
		t.Errorf("expected both components detected: %+v", metrics)
	}
	if !metrics.SeparationSucceeded {
		t.Error("expected successful separation")
	}
	if math.Abs(metrics.EnergyRatio-1.0) > 0.01 {
		t.Errorf("energy ratio = %v, want ~1.0", metrics.EnergyRatio)
	}
	if math.Abs(metrics.VocalsDuration-0.5) > 0.001 {
		t.Errorf("vocals duration = %v, want 0.5", metrics.VocalsDuration)
	}
}

func TestAnalyzeLoadsFiles(t *testing.T) {
	dir := t.TempDir()
	n := separation.AnalysisRate / 4
	vocalsPath := filepath.Join(dir, "vocals.wav")
	musicPath := filepath.Join(dir, "accompaniment.wav")
	if err := wavio.WriteFileMono(vocalsPath, sine(440, separation.AnalysisRate, n, 0.5), separation.AnalysisRate); err != nil {
		t.Fatalf("write vocals: %v", err)
	}
	if err := wavio.WriteFileMono(musicPath, sine(220, separation.AnalysisRate, n, 0.5), separation.AnalysisRate); err != nil {
		t.Fatalf("write accompaniment: %v", err)
	}

	metrics, err := separation.Analyze(vocalsPath, musicPath)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !metrics.SeparationSucceeded {
		t.Errorf("expected success: %+v", metrics)
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	if _, err := separation.Analyze("/nonexistent/v.wav", "/nonexistent/a.wav"); err == nil {
		t.Error("expected error for missing files")
	}
}

func TestEnergy(t *testing.T) {
	if got := separation.Energy(nil); got != 0 {
		t.Errorf("Energy(nil) = %v", got)
	}
	if got := separation.Energy([]float64{0.5, -0.5}); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("Energy = %v, want 0.25", got)
	}
}
