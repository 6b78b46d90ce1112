package async

import (
	"context"
	"errors"
)

// Task is one unit of ledger work.
type Task func(ctx context.Context) error

// ErrClosed is returned for tasks submitted after Shutdown.
var ErrClosed = errors.New("queue is shutting down")

// Executor runs tasks and reports their result to the caller.
type Executor interface {
	Do(ctx context.Context, name string, task Task) error
	Shutdown(ctx context.Context)
}

// Inline runs tasks on the caller's goroutine. Concurrent callers are not serialised.
type Inline struct{}

func (Inline) Do(ctx context.Context, _ string, task Task) error { return task(ctx) }
func (Inline) Shutdown(context.Context)                         {}
