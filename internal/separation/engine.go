package separation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"redub/internal/logging"
	"redub/internal/wavio"
)

// Fusion weights combining the harmonic/percussive and masked-spectral
// estimates. Percussive and transient energy correlates with speech onsets;
// harmonic energy correlates with sustained instrumental tone. These are
// hand-tuned constants with no documented derivation; changing them changes
// output audio.
const (
	vocalsPercussiveWeight      = 0.5
	vocalsSpectralWeight        = 0.5
	accompanimentHarmonicWeight = 0.6
	accompanimentSpectralWeight = 0.4

	// normalizePeak is the peak amplitude both outputs are scaled to,
	// leaving headroom against clipping while preserving relative dynamics.
	normalizePeak = 0.8
)

// Output file names within the separation directory.
const (
	VocalsFileName        = "vocals.wav"
	AccompanimentFileName = "accompaniment.wav"
)

// MethodDeterministic tags results produced by the signal-processing engine.
const MethodDeterministic = "deterministic"

// Result records the outcome of one separation invocation. Created once per
// call and immutable after construction; a failed result never references
// partial output files.
type Result struct {
	Success           bool    `json:"success"`
	VocalsPath        string  `json:"vocals_path,omitempty"`
	AccompanimentPath string  `json:"accompaniment_path,omitempty"`
	OriginalAudioPath string  `json:"original_audio_path"`
	MethodName        string  `json:"method"`
	ProcessingSeconds float64 `json:"processing_seconds"`
	QualityScore      float64 `json:"quality_score"`
	ErrorMessage      string  `json:"error_message,omitempty"`
}

// Engine is the deterministic separation fallback. It needs no external
// tools or models, only CPU and memory proportional to the input length.
type Engine struct {
	logger *slog.Logger
}

// NewEngine constructs the deterministic engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{logger: logging.NewComponentLogger(logger, "separation")}
}

// MethodName identifies the engine in results and metadata.
func (e *Engine) MethodName() string { return MethodDeterministic }

// Separate isolates vocals and accompaniment from the audio file at
// audioPath, writing both outputs into outDir. All failures are converted
// to a Result with Success false; no error escapes this boundary.
func (e *Engine) Separate(ctx context.Context, audioPath, outDir string) Result {
	start := time.Now()
	fail := func(err error) Result {
		e.logger.Warn("separation failed", logging.Error(err), logging.String("input", audioPath))
		return Result{
			Success:           false,
			OriginalAudioPath: audioPath,
			MethodName:        MethodDeterministic,
			ProcessingSeconds: time.Since(start).Seconds(),
			ErrorMessage:      err.Error(),
		}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	signal, err := wavio.LoadMono(audioPath, AnalysisRate)
	if err != nil {
		return fail(fmt.Errorf("load input: %w", err))
	}

	res := e.SeparateSignal(signal, audioPath, outDir)
	res.ProcessingSeconds = time.Since(start).Seconds()
	return res
}

// SeparateSignal runs the separation pipeline on an in-memory mono signal at
// the analysis rate. Exposed separately so callers holding decoded audio can
// skip the file load.
func (e *Engine) SeparateSignal(signal []float64, originalPath, outDir string) Result {
	start := time.Now()
	fail := func(err error) Result {
		e.logger.Warn("separation failed", logging.Error(err), logging.String("input", originalPath))
		return Result{
			Success:           false,
			OriginalAudioPath: originalPath,
			MethodName:        MethodDeterministic,
			ProcessingSeconds: time.Since(start).Seconds(),
			ErrorMessage:      err.Error(),
		}
	}

	if len(signal) == 0 {
		return fail(ErrEmptySignal)
	}

	harmonic, percussive, err := HPSS(signal, hpssMargin)
	if err != nil {
		return fail(fmt.Errorf("harmonic/percussive decomposition: %w", err))
	}

	sp, err := STFT(signal, frameSize, hopLength)
	if err != nil {
		return fail(fmt.Errorf("spectral transform: %w", err))
	}

	vocalMask := VocalMask(sp.Mag, AnalysisRate, frameSize)
	accompanimentMask := ComplementMask(vocalMask)

	vocalsSpectral, err := ISTFT(applyMask(sp, vocalMask))
	if err != nil {
		return fail(fmt.Errorf("vocal reconstruction: %w", err))
	}
	accompanimentSpectral, err := ISTFT(applyMask(sp, accompanimentMask))
	if err != nil {
		return fail(fmt.Errorf("accompaniment reconstruction: %w", err))
	}

	// The decomposition paths can disagree on length by less than a frame.
	minLen := len(harmonic)
	for _, s := range [][]float64{percussive, vocalsSpectral, accompanimentSpectral} {
		if len(s) < minLen {
			minLen = len(s)
		}
	}

	vocals := make([]float64, minLen)
	accompaniment := make([]float64, minLen)
	for i := 0; i < minLen; i++ {
		vocals[i] = vocalsPercussiveWeight*percussive[i] + vocalsSpectralWeight*vocalsSpectral[i]
		accompaniment[i] = accompanimentHarmonicWeight*harmonic[i] + accompanimentSpectralWeight*accompanimentSpectral[i]
	}

	normalize(vocals)
	normalize(accompaniment)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fail(fmt.Errorf("create output directory: %w", err))
	}
	vocalsPath := filepath.Join(outDir, VocalsFileName)
	accompanimentPath := filepath.Join(outDir, AccompanimentFileName)

	if err := wavio.WriteFileMono(vocalsPath, vocals, AnalysisRate); err != nil {
		return fail(fmt.Errorf("write vocals: %w", err))
	}
	if err := wavio.WriteFileMono(accompanimentPath, accompaniment, AnalysisRate); err != nil {
		// Do not leave a half-finished pair behind.
		_ = os.Remove(vocalsPath)
		return fail(fmt.Errorf("write accompaniment: %w", err))
	}

	score := Score(Energy(vocals), Energy(accompaniment))
	e.logger.Info("separation complete",
		logging.String("input", originalPath),
		logging.Float64("quality_score", score),
		logging.Duration("elapsed", time.Since(start)),
	)

	return Result{
		Success:           true,
		VocalsPath:        vocalsPath,
		AccompanimentPath: accompanimentPath,
		OriginalAudioPath: originalPath,
		MethodName:        MethodDeterministic,
		ProcessingSeconds: time.Since(start).Seconds(),
		QualityScore:      score,
	}
}

func applyMask(sp *Spectrogram, mask [][]float64) *Spectrogram {
	out := &Spectrogram{
		Mag:       make([][]float64, sp.Frames()),
		Phase:     sp.Phase,
		frameSize: sp.frameSize,
		hop:       sp.hop,
	}
	for t := range sp.Mag {
		row := make([]float64, len(sp.Mag[t]))
		for k := range row {
			row[k] = sp.Mag[t][k] * mask[t][k]
		}
		out.Mag[t] = row
	}
	return out
}

// normalize scales the signal so its peak sits at normalizePeak. Silent
// signals are left untouched.
func normalize(samples []float64) {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	scale := normalizePeak / peak
	for i := range samples {
		samples[i] *= scale
	}
}
