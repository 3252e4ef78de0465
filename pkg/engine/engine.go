// Package engine defines the contract between the session runner and the
// browser-automation engine that carries out a task.
//
// The runner owns exactly one Handle at a time. Every Handle returned by Open
// must be closed exactly once, including when Execute fails.
package engine

import (
	"context"
	"fmt"

	"github.com/entrhq/serpwalk/pkg/profile"
)

// Engine opens browser handles and executes natural-language tasks in them.
type Engine interface {
	// Open launches a browser configured with the given client profile.
	Open(ctx context.Context, p profile.ClientProfile) (Handle, error)

	// Execute runs the task in the handle's browser and returns the planner's
	// free-text report. Timeouts are the engine's own concern.
	Execute(ctx context.Context, h Handle, task string) (string, error)
}

// Handle is a live browser owned by one objective. Close must be safe to call
// more than once and after a partially failed Open.
type Handle interface {
	Close() error
}

// Op names the engine operation that failed.
type Op string

const (
	// OpOpen is a failure while launching the browser
	OpOpen Op = "open"
	// OpExecute is a failure while running the task
	OpExecute Op = "execute"
)

// InvocationError wraps an engine failure for a single objective.
type InvocationError struct {
	Op        Op
	Objective string
	Err       error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("engine %s failed for %q: %v", e.Op, e.Objective, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
