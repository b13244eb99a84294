package separation

import (
	"fmt"
	"math"

	"redub/internal/wavio"
)

const (
	// energyThreshold is the mean-squared amplitude below which an output is
	// treated as silent or near-silent.
	energyThreshold = 0.001

	// ratioSentinel stands in for infinity when the accompaniment carries no
	// energy. The metrics are serialized to JSON and must stay finite.
	ratioSentinel = 999.0

	scoreFloor = 0.3
	scoreBase  = 0.4
	scoreSpan  = 0.55
	scoreCeil  = 0.95
)

// Metrics summarizes the energy balance of a finished separation. Derived
// purely from the two output signals; no hidden state.
type Metrics struct {
	HasVocals           bool    `json:"has_vocals"`
	HasMusic            bool    `json:"has_music"`
	VocalsEnergy        float64 `json:"vocals_energy"`
	MusicEnergy         float64 `json:"music_energy"`
	EnergyRatio         float64 `json:"energy_ratio"`
	VocalsDuration      float64 `json:"vocals_duration_seconds"`
	MusicDuration       float64 `json:"music_duration_seconds"`
	SeparationSucceeded bool    `json:"separation_succeeded"`
}

// Analyze loads both output files at the analysis rate and computes their
// quality metrics.
func Analyze(vocalsPath, accompanimentPath string) (Metrics, error) {
	vocals, err := wavio.LoadMono(vocalsPath, AnalysisRate)
	if err != nil {
		return Metrics{}, fmt.Errorf("load vocals: %w", err)
	}
	music, err := wavio.LoadMono(accompanimentPath, AnalysisRate)
	if err != nil {
		return Metrics{}, fmt.Errorf("load accompaniment: %w", err)
	}
	return AnalyzeSignals(vocals, music), nil
}

// AnalyzeSignals computes quality metrics from in-memory output signals at
// the analysis rate.
func AnalyzeSignals(vocals, music []float64) Metrics {
	vocalsEnergy := Energy(vocals)
	musicEnergy := Energy(music)

	ratio := ratioSentinel
	if musicEnergy > 0 {
		ratio = vocalsEnergy / musicEnergy
	}

	hasVocals := vocalsEnergy > energyThreshold
	hasMusic := musicEnergy > energyThreshold

	return Metrics{
		HasVocals:           hasVocals,
		HasMusic:            hasMusic,
		VocalsEnergy:        vocalsEnergy,
		MusicEnergy:         musicEnergy,
		EnergyRatio:         ratio,
		VocalsDuration:      float64(len(vocals)) / AnalysisRate,
		MusicDuration:       float64(len(music)) / AnalysisRate,
		SeparationSucceeded: hasVocals && hasMusic,
	}
}

// Energy returns the mean squared amplitude of a signal.
func Energy(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return sum / float64(len(samples))
}

// Score maps the energy balance of the two outputs to a scalar in
// [0.3, 0.95]. It peaks when the balance ratio min/max sits at 0.5 and
// decays toward the extremes. The bounds are deliberate: this heuristic
// cannot distinguish "well separated" from "equally loud but poorly
// separated", so it never reports perfect or zero quality.
func Score(vocalsEnergy, musicEnergy float64) float64 {
	if vocalsEnergy < energyThreshold || musicEnergy < energyThreshold {
		return scoreFloor
	}
	balance := math.Min(vocalsEnergy, musicEnergy) / math.Max(vocalsEnergy, musicEnergy)
	balanceScore := 1 - 2*math.Abs(0.5-balance)
	score := scoreBase + scoreSpan*balanceScore
	if score > scoreCeil {
		score = scoreCeil
	}
	return score
}
