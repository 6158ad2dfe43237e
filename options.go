package casai

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// options hold optional factory settings (parent, logger, tool metadata).
type options struct {
	parent    ConfigProvider
	logger    *slog.Logger
	timeout   time.Duration
	tags      []string
	version   string
	dangerous bool
}

// Option configures NewFunction, NewTool and NewConfig.
type Option func(*options)

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithParent sets the configuration the new entity inherits from: a Config, RawConfig, Template,
// Function or Tool. Chains of any depth are built by passing previously built entities.
func WithParent(p ConfigProvider) Option {
	return func(o *options) {
		o.parent = p
	}
}

// WithLogger sets the logger that receives the debug dump of the final configuration.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTimeout sets a per-tool timeout used by Registry instead of its default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithTags sets tool tags (metadata for discovery/orchestrator).
func WithTags(tags ...string) Option {
	return func(o *options) {
		o.tags = tags
	}
}

// WithVersion sets the tool version.
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithDangerous marks the tool as dangerous (orchestrator may require confirmation).
func WithDangerous() Option {
	return func(o *options) {
		o.dangerous = true
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout        time.Duration
	maxConcurrency int
	recoverPanics  bool
	tracer         trace.Tracer
	meter          metric.Meter
	onBefore       func(context.Context, ToolCall)
	onAfter        func(context.Context, ToolCall, ExecutionSummary, time.Duration)
}

// WithDefaultTimeout sets the default execution timeout for tools.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithMaxConcurrency limits concurrent tool executions (semaphore).
// Pass 0 or negative to disable the semaphore (unlimited concurrency).
func WithMaxConcurrency(n int) RegistryOption {
	return func(o *registryOptions) {
		o.maxConcurrency = n
	}
}

// WithRecoverPanics enables panic recovery in Execute (returns SystemError).
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithTracer records one span per dispatched tool call.
func WithTracer(t trace.Tracer) RegistryOption {
	return func(o *registryOptions) {
		o.tracer = t
	}
}

// WithMeter records a call counter (casai.tool.calls) and a duration histogram (casai.tool.duration, ms)
// per dispatched tool call.
func WithMeter(m metric.Meter) RegistryOption {
	return func(o *registryOptions) {
		o.meter = m
	}
}

// WithOnBeforeExecute sets a hook called before each tool execution.
func WithOnBeforeExecute(fn func(context.Context, ToolCall)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterExecute sets a hook called after each tool execution, success or error.
func WithOnAfterExecute(fn func(context.Context, ToolCall, ExecutionSummary, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}
