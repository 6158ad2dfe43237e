package casai

import (
	"context"
	"maps"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
)

// Tool is a function in the host SDK's tool shape: it carries a name, a description and a mandatory
// input schema, and its entry point also receives ToolCallOptions.
type Tool struct {
	cfg  Config
	opts options
}

// NewTool merges cfg with the parent (WithParent), validates the result and returns the tool.
// Besides execute, the final configuration must have an input schema.
func NewTool(cfg Config, opts ...Option) (*Tool, error) {
	o := buildOptions(opts)
	final, err := build(KindTool, cfg, o)
	if err != nil {
		return nil, err
	}
	o.parent = nil
	return &Tool{cfg: final, opts: o}, nil
}

// MustTool is like NewTool but panics on error.
func MustTool(cfg Config, opts ...Option) *Tool {
	t, err := NewTool(cfg, opts...)
	if err != nil {
		panic("casai: " + err.Error())
	}
	return t
}

// Execute is the entry point the host SDK dispatches to. The SDK has already validated input
// against the input schema, so only the output is validated here. opts reaches the implementation
// unmodified.
func (t *Tool) Execute(ctx context.Context, input map[string]any, opts ToolCallOptions) (any, error) {
	return invoke(ctx, t.cfg, input, &opts, "")
}

// Call invokes the tool outside the host SDK with a freshly generated call id. It behaves as Execute:
// input is not revalidated, which is left to the host SDK or Registry.Execute.
func (t *Tool) Call(ctx context.Context, input map[string]any) (any, error) {
	opts := ToolCallOptions{ToolCallID: "call_" + uuid.NewString(), ToolName: t.cfg.Name}
	return t.Execute(ctx, input, opts)
}

// Func returns Execute as a ToolFunc.
func (t *Tool) Func() ToolFunc { return t.Execute }

// Type returns TypeTool.
func (t *Tool) Type() string { return TypeTool }

// Name returns the tool name sent to the model.
func (t *Tool) Name() string { return t.cfg.Name }

// Description returns the tool description sent to the model, or "".
func (t *Tool) Description() string { return t.cfg.Description }

// Context returns a copy of the final configured context.
func (t *Tool) Context() map[string]any { return maps.Clone(t.cfg.Context) }

// InputSchema returns the final input schema. It is never nil.
func (t *Tool) InputSchema() Schema { return t.cfg.InputSchema }

// OutputSchema returns the final output schema, or nil.
func (t *Tool) OutputSchema() Schema { return t.cfg.Schema }

// Debug reports whether the final configuration has debug enabled.
func (t *Tool) Debug() bool { return t.cfg.DebugEnabled() }

// Config returns a copy of the final configuration, including the raw implementation.
func (t *Tool) Config() Config {
	if t == nil {
		return Config{}
	}
	return t.cfg.clone()
}

// Param returns the tool definition in the host SDK's shape.
func (t *Tool) Param() anthropic.ToolParam {
	p := anthropic.ToolParam{
		Name:        t.cfg.Name,
		InputSchema: toolInputSchema(t.cfg.InputSchema),
	}
	if t.cfg.Description != "" {
		p.Description = anthropic.String(t.cfg.Description)
	}
	return p
}

// Union wraps Param for MessageNewParams.Tools.
func (t *Tool) Union() anthropic.ToolUnionParam {
	p := t.Param()
	return anthropic.ToolUnionParam{OfTool: &p}
}

// Timeout returns the per-call timeout set by WithTimeout. Zero means the registry default.
func (t *Tool) Timeout() time.Duration { return t.opts.timeout }

// Tags returns a copy of the tags set by WithTags.
func (t *Tool) Tags() []string { return append([]string(nil), t.opts.tags...) }

// Version returns the version set by WithVersion.
func (t *Tool) Version() string { return t.opts.version }

// IsDangerous reports whether the tool was marked with WithDangerous.
func (t *Tool) IsDangerous() bool { return t.opts.dangerous }

var (
	_ ConfigProvider = (*Tool)(nil)
	_ ConfigProvider = (*Function)(nil)
	_ ToolMetadata   = (*Tool)(nil)
)
