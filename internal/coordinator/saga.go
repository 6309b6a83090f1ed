// Package coordinator runs a sequence of steps and undoes the completed ones
// when a later step fails.
package coordinator

import (
	"context"
	"log/slog"
)

// Step represents a single unit of work in the saga.
// Each step must have a compensating action to undo its effects.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// StepFunc adapts a pair of functions to Step. Undo may be nil.
type StepFunc struct {
	Label string
	Do    func(ctx context.Context) error
	Undo  func(ctx context.Context) error
}

func (s StepFunc) Name() string { return s.Label }

func (s StepFunc) Execute(ctx context.Context) error { return s.Do(ctx) }

func (s StepFunc) Compensate(ctx context.Context) error {
	if s.Undo == nil {
		return nil
	}
	return s.Undo(ctx)
}

// Orchestrator manages the execution of a collection of Steps.
type Orchestrator struct {
	steps  []Step
	logger *slog.Logger
}

func NewOrchestrator(logger *slog.Logger, steps ...Step) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{steps: steps, logger: logger}
}

// Start runs the steps in order. If one fails, the steps that already
// succeeded are compensated in reverse and the failing step's error is
// returned unchanged.
func (o *Orchestrator) Start(ctx context.Context) error {
	var done []Step

	for _, step := range o.steps {
		o.logger.DebugContext(ctx, "executing step", "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			o.logger.DebugContext(ctx, "step failed, rolling back", "step", step.Name(), "error", err)
			o.rollback(ctx, done)
			return err
		}
		done = append(done, step)
	}
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) {
	// The caller's context may already be cancelled; compensation still runs.
	ctx = context.WithoutCancel(ctx)
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if err := step.Compensate(ctx); err != nil {
			o.logger.ErrorContext(ctx, "failed to compensate step", "step", step.Name(), "error", err)
		}
	}
}
