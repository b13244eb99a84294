package separation

import (
	"context"
	"log/slog"

	"redub/internal/logging"
)

// Separator is the single capability both variants expose. Implementations
// never surface errors directly; every failure is a Result with Success
// false, and no variant mixes partial output with another.
type Separator interface {
	MethodName() string
	Separate(ctx context.Context, audioPath, outDir string) Result
}

// Selector prefers a model-based separator when one was constructed and
// falls back to the deterministic engine on any failure. Availability is
// probed once at construction time by the caller (a nil primary means the
// probe failed); the selector never re-probes per call.
type Selector struct {
	primary  Separator
	fallback Separator
	logger   *slog.Logger
}

// NewSelector builds the selection policy. primary may be nil; fallback
// must not be.
func NewSelector(primary, fallback Separator, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Selector{
		primary:  primary,
		fallback: fallback,
		logger:   logging.NewComponentLogger(logger, "separation-selector"),
	}
}

// MethodName reports the variant the selector will try first.
func (s *Selector) MethodName() string {
	if s.primary != nil {
		return s.primary.MethodName()
	}
	return s.fallback.MethodName()
}

// Separate runs the preferred variant and escalates to the fallback when it
// fails. The caller only sees a failed result if both variants fail.
func (s *Selector) Separate(ctx context.Context, audioPath, outDir string) Result {
	if s.primary != nil {
		res := s.primary.Separate(ctx, audioPath, outDir)
		if res.Success {
			return res
		}
		s.logger.Warn("preferred separator failed, falling back",
			logging.String("method", s.primary.MethodName()),
			logging.String("error", res.ErrorMessage),
		)
	}
	return s.fallback.Separate(ctx, audioPath, outDir)
}
