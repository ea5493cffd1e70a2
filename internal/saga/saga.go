// Package saga runs a sequence of steps and, when one fails, undoes the
// steps that already completed in reverse order.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Step is one unit of work. Compensate may be nil for steps with no side
// effects worth reverting.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga is an ordered list of steps.
type Saga struct {
	name   string
	logger zerolog.Logger
	steps  []Step
}

func New(name string, logger zerolog.Logger) *Saga {
	return &Saga{
		name:   name,
		logger: logger.With().Str("saga", name).Logger(),
	}
}

// Add appends a step and returns the saga for chaining.
func (s *Saga) Add(name string, action, compensate func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, Step{Name: name, Action: action, Compensate: compensate})
	return s
}

// Run executes the steps in order. On the first failure the compensations of
// every completed step run in reverse order on a context that ignores the
// caller's cancellation, and the step error is returned. Compensation
// failures are logged and joined onto the returned error.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		s.logger.Debug().Str("step", step.Name).Msg("running step")
		if err := step.Action(ctx); err != nil {
			s.logger.Warn().Err(err).Str("step", step.Name).Msg("step failed, compensating")
			stepErr := fmt.Errorf("%s: %w", step.Name, err)
			if cerr := s.compensate(context.WithoutCancel(ctx), i); cerr != nil {
				return errors.Join(stepErr, cerr)
			}
			return stepErr
		}
	}
	return nil
}

// compensate undoes steps [0, failed) in reverse.
func (s *Saga) compensate(ctx context.Context, failed int) error {
	var errs []error
	for i := failed - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error().Err(err).Str("step", step.Name).Msg("compensation failed")
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
