package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Stage is one step of a pipeline run over shared state T.
type Stage[T any] struct {
	Name string
	// Optional stages log their failure and let the run continue. Once the
	// context is done they are skipped.
	Optional bool
	// Detached stages still run after the context is done and bound their
	// own work.
	Detached bool
	Run      func(ctx context.Context, state *T) error
}

// StageError identifies the required stage that stopped a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// RunStages runs stages in order against state. The first required stage to
// fail ends the run with a *StageError; later stages never see the state.
// A done context stops the run at the next required stage that is not
// detached.
func RunStages[T any](ctx context.Context, state *T, stages []Stage[T], logger zerolog.Logger) error {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil && !stage.Detached {
			if stage.Optional {
				logger.Warn().Err(err).Str("stage", stage.Name).Msg("Context done, skipping optional stage")
				continue
			}
			return &StageError{Stage: stage.Name, Err: err}
		}

		start := time.Now()
		err := stage.Run(ctx, state)
		elapsed := time.Since(start)

		if err == nil {
			logger.Debug().Str("stage", stage.Name).Dur("duration", elapsed).Msg("Stage completed")
			continue
		}

		if stage.Optional {
			logger.Warn().
				Err(err).
				Str("stage", stage.Name).
				Dur("duration", elapsed).
				Msg("Optional stage failed, continuing")
			continue
		}

		return &StageError{Stage: stage.Name, Err: err}
	}
	return nil
}
