// Package testutil provides test helpers for casai (a recording implementation, a test registry).
package testutil

import (
	"context"
	"maps"
	"sync"

	"github.com/geleto/casai"
)

// Call is one recorded invocation.
type Call struct {
	Input   map[string]any
	Options casai.ToolCallOptions
}

// Recorder is a configurable implementation that records every invocation.
// With Fn unset it returns Result and Err.
type Recorder struct {
	Result any
	Err    error
	Fn     func(ctx context.Context, input map[string]any, opts casai.ToolCallOptions) (any, error)

	mu    sync.Mutex
	calls []Call
}

// Func returns the recorder as a plain function implementation.
func (r *Recorder) Func() casai.FunctionFunc {
	return func(ctx context.Context, input map[string]any) (any, error) {
		return r.record(ctx, input, casai.ToolCallOptions{})
	}
}

// ToolFunc returns the recorder as a tool implementation.
func (r *Recorder) ToolFunc() casai.ToolFunc {
	return r.record
}

func (r *Recorder) record(ctx context.Context, input map[string]any, opts casai.ToolCallOptions) (any, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Input: maps.Clone(input), Options: opts})
	r.mu.Unlock()
	if r.Fn != nil {
		return r.Fn(ctx, input, opts)
	}
	return r.Result, r.Err
}

// Calls returns a copy of the recorded invocations, oldest first.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Last returns the most recent invocation.
func (r *Recorder) Last() (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}, false
	}
	return r.calls[len(r.calls)-1], true
}
