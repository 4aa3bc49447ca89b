package service

import (
	"context"
	"log/slog"
)

// undoStack accumulates compensating actions as a checkout group makes
// progress. On failure the actions run in reverse order of registration,
// unwinding the group the way it was built. Failures are logged, never
// dropped; a compensation that cannot run needs operator attention.
type undoStack struct {
	logger *slog.Logger
	steps  []undoStep
}

type undoStep struct {
	name string
	fn   func(context.Context) error
}

func newUndoStack(logger *slog.Logger) *undoStack {
	return &undoStack{logger: logger}
}

// push registers a compensating action.
func (u *undoStack) push(name string, fn func(context.Context) error) {
	u.steps = append(u.steps, undoStep{name: name, fn: fn})
}

// run executes all registered actions in reverse order and clears the
// stack. Each action runs regardless of earlier failures.
func (u *undoStack) run(ctx context.Context) {
	for i := len(u.steps) - 1; i >= 0; i-- {
		step := u.steps[i]
		if err := step.fn(ctx); err != nil {
			u.logger.ErrorContext(ctx, "compensation step failed",
				slog.String("step", step.name),
				slog.String("error", err.Error()),
			)
		}
	}
	u.steps = nil
}

// discard clears the stack without running anything. Called once the
// group has reached a state that must not be unwound.
func (u *undoStack) discard() {
	u.steps = nil
}
