package casai

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Has(t *testing.T) {
	c := Config{
		Context: map[string]any{},
		Debug:   Bool(false),
		Extra:   map[string]any{"model": "x"},
	}
	assert.True(t, c.Has(PropContext))
	assert.True(t, c.Has(PropDebug))
	assert.True(t, c.Has("model"))
	assert.False(t, c.Has(PropExecute))
	assert.False(t, c.Has(PropName))
	assert.False(t, Config{Execute: FunctionFunc(nil)}.Has(PropExecute))
	assert.Equal(t, []string{PropContext, PropDebug, "model"}, c.Properties())
}

func TestConfig_MarshalJSON(t *testing.T) {
	c := Config{
		Context:     map[string]any{"a": 1},
		InputSchema: MustCompileSchema(map[string]any{"type": "object"}),
		Schema:      SchemaFunc(func(any) error { return nil }),
		Execute:     fn(func(map[string]any) (any, error) { return nil, nil }),
		Debug:       Bool(true),
		Name:        "n",
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"context": {"a": 1},
		"inputSchema": {"type": "object"},
		"schema": "casai.SchemaFunc",
		"debug": true,
		"name": "n"
	}`, string(data))
}

func TestConfig_MarshalJSONUnencodable(t *testing.T) {
	c := Config{
		Context: map[string]any{"helper": fn(nil), "events": make(chan int), "n": 2},
		Extra:   map[string]any{"hook": func() {}},
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"context": {"helper": "casai.FunctionFunc", "events": "chan int", "n": 2},
		"hook": "func()"
	}`, string(data))
}

func TestRawConfig_Config(t *testing.T) {
	r := RawConfig{
		PropContext:     map[string]any{"k": "v"},
		PropInputSchema: map[string]any{"type": "object", "required": []any{"k"}},
		PropSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{"ok": map[string]any{"type": "boolean"}},
		},
		PropExecute: func(_ context.Context, _ map[string]any, opts ToolCallOptions) (any, error) {
			return opts.ToolCallID, nil
		},
		PropDebug:       true,
		PropDescription: "d",
		PropName:        "n",
		"temperature":   0.3,
		"ignored":       nil,
	}
	c := r.Config()
	assert.Equal(t, map[string]any{"k": "v"}, c.Context)
	require.NotNil(t, c.InputSchema)
	assert.Error(t, c.InputSchema.Validate(map[string]any{}))
	require.NotNil(t, c.Schema)
	assert.Error(t, c.Schema.Validate(map[string]any{"ok": "yes"}))
	assert.IsType(t, ToolFunc(nil), c.Execute)
	assert.True(t, c.DebugEnabled())
	assert.Equal(t, "d", c.Description)
	assert.Equal(t, "n", c.Name)
	assert.Equal(t, map[string]any{"temperature": 0.3}, c.Extra)
}

func TestRawConfig_InvalidValues(t *testing.T) {
	c := RawConfig{
		PropContext:     "not a map",
		PropInputSchema: 42,
		PropExecute:     "not a function",
		PropDebug:       "yes",
		PropName:        7,
	}.Config()
	_, err := NewTool(c)
	require.Error(t, err)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ProblemInvalid, ce.Problem)
	assert.Equal(t, []string{PropContext, PropDebug, PropExecute, PropInputSchema, PropName}, ce.Properties)
	assert.ErrorIs(t, err, ErrInvalidProperty)
}

func TestRawConfig_UnknownBeforeInvalid(t *testing.T) {
	_, err := NewFunction(RawConfig{"model": "x", PropDebug: "yes"}.Config())
	require.ErrorIs(t, err, ErrUnknownProperty)
}

func TestConfig_CloneIsolation(t *testing.T) {
	c := Config{Context: map[string]any{"a": 1}, Debug: Bool(true)}
	cl := c.clone()
	cl.Context["a"] = 2
	*cl.Debug = false
	assert.Equal(t, 1, c.Context["a"])
	assert.True(t, *c.Debug)
}

func TestToImplementation(t *testing.T) {
	_, ok := toImplementation(func(context.Context, map[string]any) (any, error) { return nil, nil })
	assert.True(t, ok)
	_, ok = toImplementation(FunctionFunc(func(context.Context, map[string]any) (any, error) { return nil, nil }))
	assert.True(t, ok)
	_, ok = toImplementation(func() {})
	assert.False(t, ok)
}
