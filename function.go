package casai

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
)

// Function is a callable built from a validated, merged Config. It is safe for concurrent use:
// the configuration is read-only after construction.
type Function struct {
	cfg Config
}

// NewFunction merges cfg with the parent (WithParent), validates the result and returns the callable.
// Configuration problems are reported here as *ConfigError, never at call time.
func NewFunction(cfg Config, opts ...Option) (*Function, error) {
	o := buildOptions(opts)
	final, err := build(KindFunction, cfg, o)
	if err != nil {
		return nil, err
	}
	return &Function{cfg: final}, nil
}

// MustFunction is like NewFunction but panics on error.
func MustFunction(cfg Config, opts ...Option) *Function {
	f, err := NewFunction(cfg, opts...)
	if err != nil {
		panic("casai: " + err.Error())
	}
	return f
}

// Call merges input over the configured context, validates the merged value against the input schema,
// runs the implementation and validates its result against the output schema.
// Errors returned by the implementation are passed through unchanged.
func (f *Function) Call(ctx context.Context, input map[string]any) (any, error) {
	return invoke(ctx, f.cfg, input, nil, StageInputContext)
}

// Func returns Call as a FunctionFunc, so a built function can serve as another configuration's Execute.
func (f *Function) Func() FunctionFunc { return f.Call }

// Type returns TypeFunctionCall.
func (f *Function) Type() string { return TypeFunctionCall }

// Context returns a copy of the final configured context.
func (f *Function) Context() map[string]any { return maps.Clone(f.cfg.Context) }

// InputSchema returns the final input schema, or nil.
func (f *Function) InputSchema() Schema { return f.cfg.InputSchema }

// OutputSchema returns the final output schema, or nil.
func (f *Function) OutputSchema() Schema { return f.cfg.Schema }

// Debug reports whether the final configuration has debug enabled.
func (f *Function) Debug() bool { return f.cfg.DebugEnabled() }

// Config returns a copy of the final configuration, including the raw implementation, so the
// function can be used as a parent.
func (f *Function) Config() Config {
	if f == nil {
		return Config{}
	}
	return f.cfg.clone()
}

// build composes cfg with the parent from o, validates it for kind and logs it when debug is on.
func build(kind Kind, cfg Config, o options) (Config, error) {
	final, parent := compose(cfg, o.parent)
	if err := validateConfig(kind, cfg, parent, final); err != nil {
		return Config{}, err
	}
	if final.DebugEnabled() {
		logConfig(o.logger, kind, final)
	}
	return final, nil
}

// invoke is the per-call pipeline: context composition, input validation (skipped when stage is
// empty), implementation, output validation. Nothing is retained between calls.
func invoke(ctx context.Context, cfg Config, input map[string]any, opts *ToolCallOptions, stage ValidationStage) (any, error) {
	merged := mergeContext(cfg.Context, input)
	if stage != "" && cfg.InputSchema != nil {
		if res := SafeParse(cfg.InputSchema, validationInput(cfg.Context, input)); !res.Success {
			return nil, newValidationError(stage, res.Err)
		}
	}
	out, err := cfg.Execute.call(ctx, merged, opts)
	if err != nil {
		return nil, err
	}
	res := SafeParse(cfg.Schema, out)
	if !res.Success {
		return nil, newValidationError(StageOutput, res.Err)
	}
	return res.Data, nil
}

// validationInput is the merged object minus context-only entries that have no JSON form, such as
// funcs, channels or clients. Configured context never fails input validation.
func validationInput(configured, input map[string]any) map[string]any {
	out := mergeContext(configured, input)
	for k, v := range configured {
		if _, ok := input[k]; ok {
			continue
		}
		if _, err := json.Marshal(v); err != nil {
			delete(out, k)
		}
	}
	return out
}

func logConfig(logger *slog.Logger, kind Kind, cfg Config) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		logger.Warn("[DEBUG] cannot render configuration", "kind", kind.String(), "error", err)
		return
	}
	logger.Info("[DEBUG] "+kind.String()+" created with config", "kind", kind.String(), "config", string(data))
}
