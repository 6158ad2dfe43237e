package casai

import (
	"context"
	"log/slog"
	"time"
)

// Invoker is what a Registry dispatches to after input validation. *Tool implements it;
// middlewares wrap it.
type Invoker interface {
	Name() string
	Execute(ctx context.Context, input map[string]any, opts ToolCallOptions) (any, error)
}

// Middleware wraps an Invoker with cross-cutting behavior (logging, recovery, timeout).
type Middleware func(Invoker) Invoker

// WithLogging returns a middleware that logs start, end, duration, and errors.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Invoker) Invoker {
		return &loggingInvoker{invokerBase: invokerBase{next: next}, logger: logger}
	}
}

// WithRecovery returns a middleware that recovers panics and returns SystemError.
func WithRecovery() Middleware {
	return func(next Invoker) Invoker {
		return &recoveryInvoker{invokerBase{next: next}}
	}
}

// WithTimeoutMiddleware returns a middleware that enforces a per-tool timeout. When the registry
// default timeout also applies, the effective timeout is the smaller of the two.
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Invoker) Invoker {
		return &timeoutInvoker{invokerBase: invokerBase{next: next}, timeout: d}
	}
}

// invokerBase delegates Name to the wrapped Invoker.
type invokerBase struct{ next Invoker }

func (b *invokerBase) Name() string { return b.next.Name() }

type loggingInvoker struct {
	invokerBase
	logger *slog.Logger
}

func (m *loggingInvoker) Execute(ctx context.Context, input map[string]any, opts ToolCallOptions) (any, error) {
	m.logger.InfoContext(ctx, "tool start", "tool", m.next.Name(), "call_id", opts.ToolCallID)
	start := time.Now()
	res, err := m.next.Execute(ctx, input, opts)
	dur := time.Since(start)
	if err != nil {
		m.logger.ErrorContext(ctx, "tool error", "tool", m.next.Name(), "call_id", opts.ToolCallID, "duration", dur, "error", err)
		return nil, err
	}
	m.logger.InfoContext(ctx, "tool end", "tool", m.next.Name(), "call_id", opts.ToolCallID, "duration", dur)
	return res, nil
}

type recoveryInvoker struct{ invokerBase }

func (r *recoveryInvoker) Execute(ctx context.Context, input map[string]any, opts ToolCallOptions) (res any, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &SystemError{Err: &panicError{p: p}}
		}
	}()
	return r.next.Execute(ctx, input, opts)
}

type timeoutInvoker struct {
	invokerBase
	timeout time.Duration
}

func (t *timeoutInvoker) Execute(ctx context.Context, input map[string]any, opts ToolCallOptions) (any, error) {
	if t.timeout <= 0 {
		return t.next.Execute(ctx, input, opts)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Execute(ctx, input, opts)
}

// Use stores the given middlewares and reapplies them from scratch to all registered tools (onion order:
// first middleware is outermost). Tools registered after Use also get them. Calling Use again replaces
// the chain.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, raw := range r.rawTools {
		r.tools[name] = r.wrap(raw)
	}
}

var _ Invoker = (*Tool)(nil)
