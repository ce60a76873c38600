package wsboot

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
)

// Harness is a support structure that runs stages, the harness can be customized with
// pre- and post- execution hook functions, where common functionality to all stages
// can be defined.
type Harness struct {
	PreExecHook  Task
	PostExecHook Task
}

// New constructs a harness.
func New(opts ...Option) *Harness {
	h := Harness{
		PreExecHook:  func(_ context.Context) error { return nil },
		PostExecHook: func(_ context.Context) error { return nil },
	}

	for _, opt := range opts {
		opt(&h)
	}

	return &h
}

// Execute a list of tasks inside the harness.
// Tasks run sequentially and the first failure stops the execution; later tasks never
// run, as they usually depend on the result of the previous ones.
// The post execution hook runs regardless.
func (h *Harness) Execute(ctx context.Context, tasks ...Task) error {
	start := time.Now()

	fmt.Printf("\n")

	if err := h.PreExecHook(ctx); err != nil {
		return fmt.Errorf("failed to initialize harness: %w", err)
	}

	var failure error
	for i := range tasks {
		if err := ctx.Err(); err != nil {
			failure = err
			break
		}
		if err := tasks[i](ctx); err != nil {
			failure = err
			break
		}
	}

	if err := h.PostExecHook(ctx); err != nil && failure == nil {
		failure = fmt.Errorf("failed to run post exec hook: %w", err)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	color.New(color.FgHiBlack).Printf("------------------------\n\n")

	if failure != nil {
		color.Red(" ✘ failed after %s", elapsed)
		color.Red("   • %s", failure)
		fmt.Printf("\n")
		return failure
	}

	color.Green(" ✔ all good after %s\n\n", elapsed)
	return nil
}

// Task defines the basic function that the harness executes.
// Additional configuration and tweaks can be done by using clojures which return
// Tasks.
type Task func(ctx context.Context) error

// Step wraps a task with a banner naming it and a closing line with its timing.
func Step(name string, task Task) Task {
	return func(ctx context.Context) (err error) {
		LogBanner(name)

		start := time.Now()
		defer func() {
			elapsed := time.Since(start).Round(time.Millisecond)
			if err != nil {
				color.Red(" ✘ %s failed after %s\n\n", name, elapsed)
				return
			}
			color.Green(" ✔ %s done in %s\n\n", name, elapsed)
		}()

		return task(ctx)
	}
}

// When only runs the task if the condition holds at execution time.
func When(condition func() bool, task Task) Task {
	return func(ctx context.Context) error {
		if !condition() {
			return nil
		}
		return task(ctx)
	}
}

type Option func(h *Harness)

// WithPreExecFunc allows specifying a task that will be run every execution, before the
// specific execution tasks are run.
func WithPreExecFunc(hook Task) Option {
	return func(h *Harness) {
		h.PreExecHook = hook
	}
}

// WithPostExecFunc allows specifying a task that will be run every execution, after
// the tasks, even when one of them failed.
func WithPostExecFunc(hook Task) Option {
	return func(h *Harness) {
		h.PostExecHook = hook
	}
}
