package casai

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// Type tags carried by built entities. TypeTool matches the host SDK's tool-type convention.
const (
	TypeFunctionCall = "FunctionCall"
	TypeTool         = "function"
)

// Kind selects the recognized configuration shape and the required properties.
type Kind int

const (
	// KindConfig is a pure configuration template: every property is recognized, none is required.
	KindConfig Kind = iota
	// KindFunction is a plain function: execute is required.
	KindFunction
	// KindTool is a host SDK tool: execute and inputSchema are required.
	KindTool
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindFunction:
		return "function"
	case KindTool:
		return "tool"
	default:
		return "unknown"
	}
}

// ToolCallOptions is the per-call data the host SDK passes to a tool alongside its input.
type ToolCallOptions struct {
	// ToolCallID identifies the tool_use block being answered.
	ToolCallID string
	ToolName   string
	// Messages is the conversation that led to the call, if the caller has it.
	Messages []anthropic.MessageParam
}

// Implementation is the user callback behind a function or tool: FunctionFunc or ToolFunc.
type Implementation interface {
	call(ctx context.Context, input map[string]any, opts *ToolCallOptions) (any, error)
	isNil() bool
}

// FunctionFunc is a plain function implementation. It receives runtime input merged with the configured context.
type FunctionFunc func(ctx context.Context, input map[string]any) (any, error)

func (f FunctionFunc) call(ctx context.Context, input map[string]any, _ *ToolCallOptions) (any, error) {
	return f(ctx, input)
}

func (f FunctionFunc) isNil() bool { return f == nil }

// ToolFunc is a tool implementation. It also receives the host SDK invocation options, unmodified.
// When it backs a plain function the options are zero.
type ToolFunc func(ctx context.Context, input map[string]any, opts ToolCallOptions) (any, error)

func (f ToolFunc) call(ctx context.Context, input map[string]any, opts *ToolCallOptions) (any, error) {
	var o ToolCallOptions
	if opts != nil {
		o = *opts
	}
	return f(ctx, input, o)
}

func (f ToolFunc) isNil() bool { return f == nil }

// ConfigProvider is anything that exposes a configuration usable as a parent: a Config literal,
// a RawConfig, a Template, or a previously built Function or Tool.
type ConfigProvider interface {
	Config() Config
}

// ToolMetadata is implemented by tools built with NewTool and carries optional per-tool settings.
// Registry uses Timeout() to override the default execution timeout when set.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
	Version() string
	IsDangerous() bool
}

// ToolCall is a single execution request as produced by the model.
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage
	// Messages is forwarded to ToolCallOptions.Messages.
	Messages []anthropic.MessageParam
}

func isNilImplementation(impl Implementation) bool {
	return impl == nil || impl.isNil()
}
