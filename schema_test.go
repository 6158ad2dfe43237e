package casai

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noRefInSchemaTree returns false if any node in schemaMap has a "$ref" key.
func noRefInSchemaTree(schemaMap map[string]any) bool {
	found := false
	walkSchema(schemaMap, func(n map[string]any) {
		if _, has := n["$ref"]; has {
			found = true
		}
	})
	return !found
}

func TestSafeParse(t *testing.T) {
	number := MustCompileSchema(map[string]any{"type": "number"})
	tests := []struct {
		name    string
		schema  Schema
		value   any
		success bool
	}{
		{"nil schema", nil, "anything", true},
		{"valid", number, 3, true},
		{"invalid", number, "three", false},
		{"schema func ok", SchemaFunc(func(any) error { return nil }), 1, true},
		{"schema func error", SchemaFunc(func(any) error { return errors.New("no") }), 1, false},
		{"panicking schema", SchemaFunc(func(any) error { panic("boom") }), 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := SafeParse(tt.schema, tt.value)
			assert.Equal(t, tt.success, res.Success)
			if tt.success {
				assert.Equal(t, tt.value, res.Data)
				assert.NoError(t, res.Err)
			} else {
				assert.Error(t, res.Err)
			}
		})
	}
}

type upperParser struct{}

func (upperParser) Validate(any) error { return errors.New("Parse must be preferred") }
func (upperParser) Parse(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errors.New("want string")
	}
	return s + "!", nil
}

func TestSafeParse_PrefersParser(t *testing.T) {
	res := SafeParse(upperParser{}, "hi")
	require.True(t, res.Success)
	assert.Equal(t, "hi!", res.Data)
}

func TestCompileSchema(t *testing.T) {
	doc := map[string]any{
		"type":       "object",
		"properties": map[string]any{"x": map[string]any{"type": "integer"}},
		"required":   []any{"x"},
	}
	s, err := CompileSchema(doc)
	require.NoError(t, err)
	doc["required"] = []any{"y"}

	assert.NoError(t, s.Validate(map[string]any{"x": 1}))
	assert.Error(t, s.Validate(map[string]any{"x": "1"}))
	assert.Error(t, s.Validate(map[string]any{}))

	_, err = CompileSchema(nil)
	require.Error(t, err)
	_, err = CompileSchema(map[string]any{"type": 12})
	require.Error(t, err)
}

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema([]byte(`{"$id": "https://example.com/s", "type": "string", "minLength": 2}`))
	require.NoError(t, err)
	assert.NoError(t, s.Validate("ok"))
	assert.Error(t, s.Validate("x"))
	assert.NotContains(t, s.JSONSchema(), "$id")

	_, err = ParseSchema([]byte(`{invalid`))
	require.Error(t, err)
	_, err = ParseSchema([]byte(`null`))
	require.Error(t, err)
}

func TestJSONSchema_ValidatesGoValues(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	s := MustCompileSchema(map[string]any{
		"type":     "object",
		"required": []any{"x", "y"},
	})
	assert.NoError(t, s.Validate(point{X: 1, Y: 2}))
	assert.Error(t, s.Validate(func() {}))
}

func TestJSONSchema_ReturnsCopy(t *testing.T) {
	s := MustCompileSchema(map[string]any{"type": "object"})
	m := s.JSONSchema()
	m["mutated"] = true
	assert.NotContains(t, s.JSONSchema(), "mutated")
}

func TestSchemaFor(t *testing.T) {
	type Args struct {
		Location string `json:"location" jsonschema:"description=City name"`
		Unit     string `json:"unit,omitempty" jsonschema:"enum=celsius,enum=fahrenheit"`
	}
	s, err := SchemaFor[Args]()
	require.NoError(t, err)
	doc := s.JSONSchema()
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "location")
	assert.Contains(t, props, "unit")

	assert.NoError(t, s.Validate(map[string]any{"location": "Oslo"}))
	assert.NoError(t, s.Validate(map[string]any{"location": "Oslo", "apiKey": "from context"}))
	assert.Error(t, s.Validate(map[string]any{"location": "Oslo", "unit": "kelvin"}))
	assert.Error(t, s.Validate(map[string]any{"unit": "celsius"}))
}

func TestReflectSchema_StrictMode(t *testing.T) {
	type Nested struct {
		A string `json:"a"`
	}
	type Root struct {
		X string `json:"x"`
		N Nested `json:"n"`
	}
	doc, err := reflectSchema[Root](true)
	require.NoError(t, err)
	walkSchema(doc, func(n map[string]any) {
		if _, hasProps := n["properties"].(map[string]any); hasProps {
			assert.Equal(t, false, n["additionalProperties"])
		}
	})
}

func TestReflectSchema_NoRefs(t *testing.T) {
	type Nested struct {
		A string `json:"a"`
	}
	type Root struct {
		N Nested `json:"n"`
	}
	doc, err := reflectSchema[Root](false)
	require.NoError(t, err)
	assert.Nil(t, doc["$ref"])
	assert.Nil(t, doc["$defs"])
	assert.True(t, noRefInSchemaTree(doc))
}

func TestApplyStrictMode(t *testing.T) {
	m := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
			"b": map[string]any{
				"type":       "object",
				"properties": map[string]any{"c": map[string]any{"type": "integer"}},
			},
		},
	}
	applyStrictMode(m)
	assert.Equal(t, false, m["additionalProperties"])
	props := m["properties"].(map[string]any)
	assert.Equal(t, false, props["b"].(map[string]any)["additionalProperties"])
	assert.Equal(t, []any{"a", "b"}, m["required"])
}

func TestToolInputSchema_RoundTrip(t *testing.T) {
	s := MustCompileSchema(map[string]any{
		"type":        "object",
		"description": "weather query",
		"properties":  map[string]any{"city": map[string]any{"type": "string"}},
		"required":    []any{"city"},
	})
	p := toolInputSchema(s)
	assert.Equal(t, []string{"city"}, p.Required)
	assert.Equal(t, "weather query", p.ExtraFields["description"])

	back, err := FromToolInputSchema(p)
	require.NoError(t, err)
	assert.NoError(t, back.Validate(map[string]any{"city": "Oslo"}))
	assert.Error(t, back.Validate(map[string]any{}))
}

func TestToolInputSchema_NotDescribed(t *testing.T) {
	p := toolInputSchema(SchemaFunc(func(any) error { return nil }))
	assert.Nil(t, p.Properties)
	assert.Empty(t, p.Required)
	assert.Empty(t, p.ExtraFields)
}

func TestFromToolInputSchema(t *testing.T) {
	s, err := FromToolInputSchema(anthropic.ToolInputSchemaParam{
		Properties: map[string]any{"q": map[string]any{"type": "string"}},
		Required:   []string{"q"},
	})
	require.NoError(t, err)
	assert.NoError(t, s.Validate(map[string]any{"q": "go"}))
	assert.Error(t, s.Validate(map[string]any{"q": 1}))
}

func FuzzJSONSchemaValidate(f *testing.F) {
	s, err := SchemaFor[struct {
		X int `json:"x"`
	}]()
	if err != nil {
		f.Skip("SchemaFor failed")
	}
	f.Add([]byte(`{"x": 1}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"x": "y"}`))
	f.Fuzz(func(_ *testing.T, data []byte) {
		var instance any
		_ = json.Unmarshal(data, &instance)
		_ = s.Validate(instance)
	})
}
