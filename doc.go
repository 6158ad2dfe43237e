// Package casai composes LLM-callable functions and tools from declarative configurations.
//
// # Overview
//
// A Config describes a callable: default context data, an input schema, an output schema and an
// implementation. A Config may inherit from a parent (another Config, a YAML Template, or a
// previously built Function or Tool). The factories merge child over parent, validate the result
// once, and return an immutable callable.
//
// Pipeline: Config (+ parent) → merge → validate (construction time, *ConfigError) → Function/Tool →
// Call: merge input over context → validate input → Execute → validate output.
//
// # Key concepts
//
//   - Merge: context is merged key by key across every level (child wins); every other property is
//     replaced when the child sets it and inherited otherwise.
//   - Eager validation: unknown properties, a parent with properties foreign to the entity kind, and
//     missing required properties fail the factory call, never a later call.
//   - Pass-through errors: errors returned by an implementation reach the caller unchanged, so
//     composed functions report the true origin.
//   - Host SDK shape: a Tool exports an anthropic.ToolParam and Registry answers tool_use blocks.
//
// # Example
//
//	base, _ := casai.NewConfig(casai.Config{Context: map[string]any{"factor": 2}})
//	double, err := casai.NewFunction(casai.Config{
//	    InputSchema: casai.MustCompileSchema(map[string]any{
//	        "type": "object", "properties": map[string]any{"val": map[string]any{"type": "number"}},
//	        "required": []any{"val"},
//	    }),
//	    Execute: casai.FunctionFunc(func(_ context.Context, in map[string]any) (any, error) {
//	        return in["val"].(float64) * float64(in["factor"].(int)), nil
//	    }),
//	}, casai.WithParent(base))
//	if err != nil { ... }
//	out, err := double.Call(ctx, map[string]any{"val": 5.0}) // 10
package casai
