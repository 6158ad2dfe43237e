package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/geleto/casai"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{Result: "done"}
	out, err := rec.Func()(context.Background(), map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "done", out)

	boom := errors.New("boom")
	rec.Err = boom
	_, err = rec.ToolFunc()(context.Background(), map[string]any{"b": 2}, casai.ToolCallOptions{ToolCallID: "call_1"})
	assert.Same(t, boom, err)

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]any{"a": 1}, calls[0].Input)
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "call_1", last.Options.ToolCallID)
}

func TestRecorder_Fn(t *testing.T) {
	rec := &Recorder{Fn: func(_ context.Context, in map[string]any, _ casai.ToolCallOptions) (any, error) {
		return in["x"], nil
	}}
	out, err := rec.Func()(context.Background(), map[string]any{"x": 7})
	require.NoError(t, err)
	assert.Equal(t, 7, out)
	_, ok := (&Recorder{}).Last()
	assert.False(t, ok)
}

func TestNewTestRegistry(t *testing.T) {
	rec := &Recorder{Result: map[string]any{"ok": true}}
	tool := casai.MustTool(casai.Config{
		Name:        "m",
		InputSchema: casai.MustCompileSchema(map[string]any{"type": "object"}),
		Execute:     rec.ToolFunc(),
	})
	reg := NewTestRegistry(tool)
	require.NotNil(t, reg)
	all := reg.GetAllTools()
	require.Len(t, all, 1)
	assert.Equal(t, "m", all[0].Name())
	res, err := reg.Execute(context.Background(), casai.ToolCall{ID: "1", ToolName: "m", Args: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, res)
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "1", last.Options.ToolCallID)
}

func TestNewBufferLogger(t *testing.T) {
	logger, buf := NewBufferLogger()
	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), "hello")
}
