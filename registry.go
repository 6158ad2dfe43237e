package casai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// ExecutionSummary is the outcome of one dispatched call. It is passed to the after-execution hook
// and returned by ExecuteBatch.
type ExecutionSummary struct {
	CallID   string
	ToolName string
	Result   any
	Error    error
}

// Registry plays the host SDK's dispatch role: it holds tools by name, validates raw tool input
// against the tool's input schema and calls Tool.Execute with the invocation options. It adds a
// timeout, a concurrency limit and optional panic recovery.
type Registry struct {
	tools       map[string]Invoker // wrapped with middlewares, used by Execute
	rawTools    map[string]*Tool   // unwrapped, used by Use() to re-apply middlewares from scratch
	sem         chan struct{}
	opts        registryOptions
	done        chan struct{}
	running     sync.WaitGroup
	mu          sync.Mutex
	middlewares []Middleware
	calls       metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		timeout:        5 * time.Second,
		maxConcurrency: 10,
		recoverPanics:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("casai")
	}
	if o.meter == nil {
		o.meter = metricnoop.NewMeterProvider().Meter("casai")
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	r := &Registry{
		tools:    make(map[string]Invoker),
		rawTools: make(map[string]*Tool),
		sem:      sem,
		opts:     o,
		done:     make(chan struct{}),
	}
	r.initMetrics()
	return r
}

// initMetrics creates the registry instruments. A meter that fails to create one gets a no-op instead.
func (r *Registry) initMetrics() {
	var err error
	r.calls, err = r.opts.meter.Int64Counter("casai.tool.calls",
		metric.WithDescription("Number of dispatched tool calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		r.calls = metricnoop.Int64Counter{}
	}
	r.duration, err = r.opts.meter.Float64Histogram("casai.tool.duration",
		metric.WithDescription("Tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		r.duration = metricnoop.Float64Histogram{}
	}
}

// Register adds a tool under its name. Stored middlewares (see Use) are applied before registration.
// A tool with the same name is replaced. The tool must have a name.
func (r *Registry) Register(t *Tool) error {
	if t == nil {
		return errors.New("register: tool must not be nil")
	}
	name := t.Name()
	if name == "" {
		return &ConfigError{Kind: KindTool, Problem: ProblemMissing, Properties: []string{PropName}}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rawTools[name] = t
	r.tools[name] = r.wrap(t)
	return nil
}

func (r *Registry) wrap(t *Tool) Invoker {
	var inv Invoker = t
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		inv = r.middlewares[i](inv)
	}
	return inv
}

// GetAllTools returns all registered tools sorted by name.
func (r *Registry) GetAllTools() []*Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.rawTools))
	for name := range r.rawTools {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.rawTools[name])
	}
	return out
}

// GetTool returns the tool registered under name.
func (r *Registry) GetTool(name string) (*Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rawTools[name]
	return t, ok
}

// Params returns the tool definitions for MessageNewParams.Tools, sorted by name.
func (r *Registry) Params() []anthropic.ToolUnionParam {
	tools := r.GetAllTools()
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Union())
	}
	return out
}

// Execute runs one tool call. Raw input is decoded and validated against the tool's input schema
// ("Input validation failed") before Tool.Execute, which then skips its own input validation.
// The after-execution hook is always invoked with the final summary.
func (r *Registry) Execute(ctx context.Context, call ToolCall) (result any, err error) {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil, ErrShutdown
	default:
	}
	inv, ok := r.tools[call.ToolName]
	raw := r.rawTools[call.ToolName]
	if !ok {
		r.mu.Unlock()
		return nil, ErrToolNotFound
	}
	r.running.Add(1)
	r.mu.Unlock()

	if err = r.acquireSemaphore(ctx); err != nil {
		r.running.Done()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer r.releaseSemaphore()
	defer r.running.Done()

	timeout := r.opts.timeout
	if raw.Timeout() > 0 {
		timeout = raw.Timeout()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, span := r.opts.tracer.Start(ctx, "casai.tool.execute", trace.WithAttributes(
		attribute.String("tool.name", call.ToolName),
		attribute.String("tool.call_id", call.ID),
	))
	defer span.End()

	summary := ExecutionSummary{CallID: call.ID, ToolName: call.ToolName}
	start := time.Now()
	// Recover defer is registered after the hook defer so it runs first and sets summary.Error.
	defer func() {
		elapsed := time.Since(start)
		outcome := "ok"
		if summary.Error != nil {
			outcome = "error"
			span.RecordError(summary.Error)
			span.SetStatus(codes.Error, summary.Error.Error())
		}
		attrs := metric.WithAttributes(attribute.String("tool.name", call.ToolName), attribute.String("outcome", outcome))
		r.calls.Add(ctx, 1, attrs)
		r.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, summary, elapsed)
		}
	}()
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				summary.Error = &SystemError{Err: &panicError{p: p}}
				result, err = nil, summary.Error
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}

	input, err := decodeToolInput(call.Args)
	if err == nil {
		if res := SafeParse(raw.InputSchema(), input); !res.Success {
			err = newValidationError(StageInput, res.Err)
		}
	}
	if err != nil {
		summary.Error = err
		return nil, err
	}

	summary.Result, summary.Error = inv.Execute(ctx, input, ToolCallOptions{
		ToolCallID: call.ID,
		ToolName:   call.ToolName,
		Messages:   call.Messages,
	})
	return summary.Result, summary.Error
}

// decodeToolInput decodes the model's JSON arguments. Empty arguments are an empty object.
func decodeToolInput(args json.RawMessage) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	var input map[string]any
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, newValidationError(StageInput, fmt.Errorf("json parse error: %w", err))
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}

func (r *Registry) acquireSemaphore(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) releaseSemaphore() {
	if r.sem != nil {
		<-r.sem
	}
}

// ExecuteBatch runs all calls in parallel and returns one summary per call, in call order.
// One failing call does not cancel the others. The returned error is non-nil only when the
// registry shut down during the batch.
func (r *Registry) ExecuteBatch(ctx context.Context, calls []ToolCall) ([]ExecutionSummary, error) {
	out := make([]ExecutionSummary, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			res, err := r.Execute(ctx, call)
			out[i] = ExecutionSummary{CallID: call.ID, ToolName: call.ToolName, Result: res, Error: err}
			if errors.Is(err, ErrShutdown) {
				return err
			}
			return nil
		})
	}
	return out, g.Wait()
}

// HandleToolUse executes a tool_use block and returns the matching tool_result block. Errors are
// reported to the model as error results; SystemError hides its cause.
func (r *Registry) HandleToolUse(ctx context.Context, block anthropic.ToolUseBlock, messages ...anthropic.MessageParam) anthropic.ContentBlockParamUnion {
	res, err := r.Execute(ctx, ToolCall{
		ID:       block.ID,
		ToolName: block.Name,
		Args:     json.RawMessage(block.JSON.Input.Raw()),
		Messages: messages,
	})
	if err != nil {
		return anthropic.NewToolResultBlock(block.ID, err.Error(), true)
	}
	content, err := resultText(res)
	if err != nil {
		return anthropic.NewToolResultBlock(block.ID, (&SystemError{Err: err}).Error(), true)
	}
	return anthropic.NewToolResultBlock(block.ID, content, false)
}

// HandleMessage answers every tool_use block in msg, in order. messages is the conversation so far
// and is forwarded to the tools.
func (r *Registry) HandleMessage(ctx context.Context, msg *anthropic.Message, messages ...anthropic.MessageParam) []anthropic.ContentBlockParamUnion {
	var results []anthropic.ContentBlockParamUnion
	for _, block := range msg.Content {
		if use, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			results = append(results, r.HandleToolUse(ctx, use, messages...))
		}
	}
	return results
}

// resultText renders a tool result for a tool_result block: strings as-is, everything else as JSON.
func resultText(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Shutdown closes the registry for new calls and waits for in-flight executions or ctx to cancel.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil
	default:
		close(r.done)
	}
	r.mu.Unlock()
	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
