// Package demucs wraps the demucs command line separator. It satisfies the
// separation.Separator contract so the selector can prefer it over the
// built-in engine when the binary is installed.
package demucs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"redub/internal/deps"
	"redub/internal/logging"
	"redub/internal/separation"
	"redub/internal/wavio"
)

// Defaults used when nothing is configured.
const (
	DefaultBinary = "demucs"
	DefaultModel  = "htdemucs"
)

// MethodName tags results produced by the model separator.
const MethodName = "demucs"

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// Service drives the demucs CLI. The stems it writes are converted to the
// pipeline's 22050 Hz mono WAV contract and scored with the shared quality
// analyzer.
type Service struct {
	bin       string
	model     string
	available bool
	logger    *slog.Logger
	runner    Runner
}

// NewService creates a demucs service. Binary availability is probed once
// here; Available reports the result.
func NewService(bin, model string, logger *slog.Logger) *Service {
	if strings.TrimSpace(bin) == "" {
		bin = DefaultBinary
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		bin:       bin,
		model:     model,
		available: deps.Available(bin),
		logger:    logging.NewComponentLogger(logger, "demucs"),
	}
}

// WithRunner sets a custom command runner and marks the binary available
// (for testing).
func (s *Service) WithRunner(runner Runner) {
	s.runner = runner
	s.available = true
}

// Available reports whether the demucs binary was found at construction.
func (s *Service) Available() bool {
	return s.available
}

// MethodName implements separation.Separator.
func (s *Service) MethodName() string { return MethodName }

// Separate implements separation.Separator. All failures become a Result
// with Success false so the selector can fall back to the engine.
func (s *Service) Separate(ctx context.Context, audioPath, outDir string) separation.Result {
	start := time.Now()
	fail := func(err error) separation.Result {
		s.logger.Warn("model separation failed", logging.Error(err), logging.String("input", audioPath))
		return separation.Result{
			Success:           false,
			OriginalAudioPath: audioPath,
			MethodName:        MethodName,
			ProcessingSeconds: time.Since(start).Seconds(),
			ErrorMessage:      err.Error(),
		}
	}

	if !s.available {
		return fail(fmt.Errorf("demucs binary %q not available", s.bin))
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fail(fmt.Errorf("create output directory: %w", err))
	}

	stemRoot := filepath.Join(outDir, "stems")
	args := []string{
		"--two-stems=vocals",
		"-n", s.model,
		"-o", stemRoot,
		audioPath,
	}
	if _, err := s.run(ctx, args...); err != nil {
		return fail(fmt.Errorf("run demucs: %w", err))
	}

	vocalsStem, accompanimentStem, err := locateStems(stemRoot)
	if err != nil {
		return fail(err)
	}

	vocalsPath := filepath.Join(outDir, separation.VocalsFileName)
	accompanimentPath := filepath.Join(outDir, separation.AccompanimentFileName)

	vocals, err := convertStem(vocalsStem, vocalsPath)
	if err != nil {
		return fail(fmt.Errorf("convert vocals stem: %w", err))
	}
	accompaniment, err := convertStem(accompanimentStem, accompanimentPath)
	if err != nil {
		_ = os.Remove(vocalsPath)
		return fail(fmt.Errorf("convert accompaniment stem: %w", err))
	}

	score := separation.Score(separation.Energy(vocals), separation.Energy(accompaniment))
	s.logger.Info("model separation complete",
		logging.String("input", audioPath),
		logging.Float64("quality_score", score),
		logging.Duration("elapsed", time.Since(start)),
	)

	return separation.Result{
		Success:           true,
		VocalsPath:        vocalsPath,
		AccompanimentPath: accompanimentPath,
		OriginalAudioPath: audioPath,
		MethodName:        MethodName,
		ProcessingSeconds: time.Since(start).Seconds(),
		QualityScore:      score,
	}
}

func (s *Service) run(ctx context.Context, args ...string) (string, error) {
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

// locateStems finds vocals.wav and no_vocals.wav under the demucs output
// tree (stemRoot/<model>/<track>/).
func locateStems(stemRoot string) (vocals, accompaniment string, err error) {
	walkErr := filepath.WalkDir(stemRoot, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		switch entry.Name() {
		case "vocals.wav":
			vocals = path
		case "no_vocals.wav":
			accompaniment = path
		}
		return nil
	})
	if walkErr != nil {
		return "", "", fmt.Errorf("scan demucs output: %w", walkErr)
	}
	if vocals == "" || accompaniment == "" {
		return "", "", fmt.Errorf("demucs output incomplete under %s", stemRoot)
	}
	return vocals, accompaniment, nil
}

// convertStem rewrites a stem to the 22050 Hz mono contract and returns the
// converted samples for quality scoring.
func convertStem(stemPath, dest string) ([]float64, error) {
	samples, err := wavio.LoadMono(stemPath, separation.AnalysisRate)
	if err != nil {
		return nil, err
	}
	if err := wavio.WriteFileMono(dest, samples, separation.AnalysisRate); err != nil {
		return nil, err
	}
	return samples, nil
}
