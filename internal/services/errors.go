package services

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy for route optimization. Callers match with errors.Is.
var (
	// Malformed or empty request; surfaced immediately.
	ErrInvalidInput = errors.New("invalid input")
	// Distance provider failure. Recovered by the haversine fallback and
	// never returned from Optimize.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// Caller deadline elapsed or the call was cancelled mid-optimization.
	ErrTimeout = errors.New("optimization timed out")
	// A solver broke its own contract; treated as a defect.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// timeoutErr wraps a context error so both ErrTimeout and the original
// context.DeadlineExceeded / context.Canceled stay matchable.
func timeoutErr(stage string, ctxErr error) error {
	return fmt.Errorf("%w during %s: %w", ErrTimeout, stage, ctxErr)
}

// checkCtx returns a timeout error when ctx is done.
func checkCtx(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return timeoutErr(stage, err)
	}
	return nil
}
