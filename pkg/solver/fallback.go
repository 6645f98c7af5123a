package solver

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/model"
)

// FallbackSolver tries engines in order and returns the first success.
// A typical chain is a bounded search (Options.MaxBacktracks) followed by
// an unbounded one and finally an ExternalSolver.
type FallbackSolver struct {
	Engines []Engine
	Logger  *log.Logger
}

// NewFallbackSolver creates a FallbackSolver over engines.
func NewFallbackSolver(engines ...Engine) *FallbackSolver {
	return &FallbackSolver{Engines: engines}
}

// TrySolve implements Engine. A solution or a definitive failure ends the
// chain, as do input errors and cancellation. Other errors and failures
// that gave up at a search limit move on to the next engine. When no
// engine succeeds the last failure is returned, or the last error if no
// engine produced a failure.
func (f *FallbackSolver) TrySolve(ctx context.Context, req model.Requirements) (*Result, error) {
	logger := f.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var lastFailure *Result
	var lastErr error
	for i, e := range f.Engines {
		res, err := e.TrySolve(ctx, req)
		switch {
		case err != nil && (errs.IsInputError(err) || errs.Is(err, errs.ErrCodeCanceled) || ctx.Err() != nil):
			return nil, err
		case err != nil:
			logger.Warn("solver failed, trying next", "engine", i, "err", err)
			lastErr = err
		case res.Solved():
			return res, nil
		case res.Failure == nil || !res.Failure.GaveUp:
			return res, nil
		default:
			logger.Debug("search limit reached, trying next", "engine", i)
			lastFailure = res
		}
	}
	if lastFailure != nil {
		return lastFailure, nil
	}
	if lastErr == nil {
		lastErr = errs.New(errs.ErrCodeInternal, "no solver configured")
	}
	return nil, lastErr
}
