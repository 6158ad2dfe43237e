package casai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeContext(t *testing.T) {
	tests := []struct {
		name     string
		base     map[string]any
		override map[string]any
		want     map[string]any
	}{
		{"both nil", nil, nil, map[string]any{}},
		{"base only", map[string]any{"a": 1}, nil, map[string]any{"a": 1}},
		{"override wins", map[string]any{"a": 1, "b": 2}, map[string]any{"b": 3}, map[string]any{"a": 1, "b": 3}},
		{
			"shallow",
			map[string]any{"opts": map[string]any{"x": 1}},
			map[string]any{"opts": map[string]any{"y": 2}},
			map[string]any{"opts": map[string]any{"y": 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeContext(tt.base, tt.override))
		})
	}
}

func TestMergeConfigs(t *testing.T) {
	sa := SchemaFunc(func(any) error { return nil })
	sb := SchemaFunc(func(any) error { return nil })
	parent := Config{
		Context:     map[string]any{"a": 1},
		InputSchema: sa,
		Debug:       Bool(true),
		Description: "parent",
	}
	child := Config{
		Context: map[string]any{"b": 2},
		Schema:  sb,
		Debug:   Bool(false),
		Name:    "child",
	}
	got := mergeConfigs(parent, child)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, got.Context)
	assert.NotNil(t, got.InputSchema)
	assert.NotNil(t, got.Schema)
	assert.False(t, got.DebugEnabled())
	assert.Equal(t, "parent", got.Description)
	assert.Equal(t, "child", got.Name)

	assert.Equal(t, map[string]any{"a": 1}, parent.Context)
	assert.True(t, *parent.Debug)
	assert.Nil(t, parent.Schema)
}

func TestMergeConfigs_EmptyStringIsAbsent(t *testing.T) {
	got := mergeConfigs(Config{Name: "kept", Description: "kept"}, Config{})
	assert.Equal(t, "kept", got.Name)
	assert.Equal(t, "kept", got.Description)
}

func TestMergeConfigs_ExtraAccumulates(t *testing.T) {
	got := mergeConfigs(Config{Extra: map[string]any{"a": 1}}, Config{Extra: map[string]any{"b": 2}})
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, got.Extra)
}

func TestProcessConfig(t *testing.T) {
	in := Config{Name: "n"}
	out := processConfig(in)
	assert.NotNil(t, out.Context)
	assert.Nil(t, in.Context)

	ctx := map[string]any{"k": "v"}
	out = processConfig(Config{Context: ctx})
	out.Context["k"] = "changed"
	assert.Equal(t, "v", ctx["k"])
}

func TestResolveParent(t *testing.T) {
	_, ok := resolveParent(nil)
	assert.False(t, ok)

	cfg, ok := resolveParent(Config{Name: "p"})
	assert.True(t, ok)
	assert.Equal(t, "p", cfg.Name)
}
