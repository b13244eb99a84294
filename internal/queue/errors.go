package queue

import (
	"errors"

	"redub/internal/services"
)

// FailureStatus maps a stage error to the queue status the workflow manager
// should persist after the stage fails.
//
// Validation, configuration, and not-found errors mean retrying will not help,
// so those items are parked for review. Everything else is a plain failure
// that a retry may clear.
func FailureStatus(err error) Status {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConfiguration),
		errors.Is(err, services.ErrNotFound):
		return StatusReview
	default:
		return StatusFailed
	}
}
