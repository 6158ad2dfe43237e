package casai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
	santhosh "github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema validates a decoded JSON-like value (maps, slices, strings, numbers, bools, nil).
// Structs and other Go values are accepted by the implementations in this package; they are
// normalized through encoding/json first.
type Schema interface {
	Validate(v any) error
}

// Parser is implemented by schemas that also transform the value they accept
// (defaults, coercion, decoding into a Go type). SafeParse prefers Parse over Validate.
type Parser interface {
	Parse(v any) (any, error)
}

// Describer is implemented by schemas that can state the shape of the data they accept
// as a JSON Schema document. Tool input schemas must implement it to be exported to the host SDK.
type Describer interface {
	JSONSchema() map[string]any
}

// SchemaFunc adapts an ordinary validation function to Schema.
type SchemaFunc func(v any) error

// Validate calls f(v).
func (f SchemaFunc) Validate(v any) error { return f(v) }

// ParseResult is the outcome of SafeParse. On success Data holds the accepted (possibly transformed) value.
type ParseResult struct {
	Success bool
	Data    any
	Err     error
}

// SafeParse validates v against s and never panics. A nil schema accepts anything unchanged.
func SafeParse(s Schema, v any) (res ParseResult) {
	if s == nil {
		return ParseResult{Success: true, Data: v}
	}
	defer func() {
		if p := recover(); p != nil {
			res = ParseResult{Err: &panicError{p: p}}
		}
	}()
	if p, ok := s.(Parser); ok {
		data, err := p.Parse(v)
		if err != nil {
			return ParseResult{Err: err}
		}
		return ParseResult{Success: true, Data: data}
	}
	if err := s.Validate(v); err != nil {
		return ParseResult{Err: err}
	}
	return ParseResult{Success: true, Data: v}
}

// JSONSchema is a compiled JSON Schema document.
type JSONSchema struct {
	doc      map[string]any
	compiled *santhosh.Schema
}

// CompileSchema compiles a JSON Schema document. The document is copied; later changes to doc
// do not affect the compiled schema.
func CompileSchema(doc map[string]any) (*JSONSchema, error) {
	if doc == nil {
		return nil, errNilSchema
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return ParseSchema(data)
}

// MustCompileSchema is like CompileSchema but panics on error. Intended for package-level schema variables.
func MustCompileSchema(doc map[string]any) *JSONSchema {
	s, err := CompileSchema(doc)
	if err != nil {
		panic("casai: " + err.Error())
	}
	return s
}

// ParseSchema compiles a JSON Schema document given as JSON text.
func ParseSchema(data []byte) (*JSONSchema, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if doc == nil {
		return nil, errNilSchema
	}
	stripSchemaIDs(doc)
	compiled, err := compileRawSchema(doc)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &JSONSchema{doc: doc, compiled: compiled}, nil
}

// Validate normalizes v through encoding/json and validates it against the schema.
func (s *JSONSchema) Validate(v any) error {
	inst, err := normalizeValue(v)
	if err != nil {
		return err
	}
	return s.compiled.Validate(inst)
}

// JSONSchema returns a shallow copy of the schema document (top-level keys only).
// Nested maps are shared; callers must not mutate them.
func (s *JSONSchema) JSONSchema() map[string]any { return maps.Clone(s.doc) }

// SchemaFor reflects a JSON Schema from T. Objects allow additional properties, so configured context
// keys never fail validation of the merged input; use NewExtractor with strict for closed objects.
func SchemaFor[T any]() (*JSONSchema, error) {
	doc, err := reflectSchema[T](false)
	if err != nil {
		return nil, err
	}
	compiled, err := compileRawSchema(doc)
	if err != nil {
		return nil, err
	}
	return &JSONSchema{doc: doc, compiled: compiled}, nil
}

// FromToolInputSchema compiles the host SDK's lightweight tool input schema.
func FromToolInputSchema(p anthropic.ToolInputSchemaParam) (*JSONSchema, error) {
	doc := map[string]any{"type": "object"}
	if p.Properties != nil {
		doc["properties"] = p.Properties
	}
	if len(p.Required) > 0 {
		doc["required"] = p.Required
	}
	maps.Copy(doc, p.ExtraFields)
	return CompileSchema(doc)
}

// toolInputSchema converts a schema to the host SDK tool input schema. Schemas without a
// JSON Schema description accept any object.
func toolInputSchema(s Schema) anthropic.ToolInputSchemaParam {
	var p anthropic.ToolInputSchemaParam
	d, ok := s.(Describer)
	if !ok {
		return p
	}
	doc := d.JSONSchema()
	if props, ok := doc["properties"]; ok {
		p.Properties = props
	}
	switch req := doc["required"].(type) {
	case []string:
		p.Required = slices.Clone(req)
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				p.Required = append(p.Required, name)
			}
		}
	}
	for k, v := range doc {
		switch k {
		case "properties", "required", "type", "$schema":
			continue
		}
		if p.ExtraFields == nil {
			p.ExtraFields = make(map[string]any)
		}
		p.ExtraFields[k] = v
	}
	return p
}

// describeSchema renders a schema for diagnostic output.
func describeSchema(s Schema) any {
	if s == nil {
		return nil
	}
	if d, ok := s.(Describer); ok {
		return d.JSONSchema()
	}
	return fmt.Sprintf("%T", s)
}

// reflectSchema produces a JSON Schema document for T. strict sets additionalProperties: false
// and marks every property required (OpenAI Structured Outputs).
func reflectSchema[T any](strict bool) (map[string]any, error) {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	typ := reflect.TypeFor[T]()
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil {
		return nil, errNilSchema
	}
	s := r.ReflectFromType(typ)
	if s == nil {
		return nil, errNilSchema
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if strict {
		applyStrictMode(doc)
	}
	stripSchemaIDs(doc)
	return doc, nil
}

// walkSchema recursively visits every map node in the schema tree (including $defs and definitions).
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for _, val := range schemaMap {
		switch v := val.(type) {
		case map[string]any:
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if m2, ok := item.(map[string]any); ok {
					walkSchema(m2, visit)
				}
			}
		}
	}
}

// applyStrictMode sets additionalProperties: false for every object and requires all of its properties.
func applyStrictMode(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		props, ok := n["properties"].(map[string]any)
		if !ok {
			return
		}
		n["additionalProperties"] = false
		keys := slices.Sorted(maps.Keys(props))
		if len(keys) == 0 {
			return
		}
		required := make([]any, len(keys))
		for i, k := range keys {
			required[i] = k
		}
		n["required"] = required
	})
}

var errNilSchema = errors.New("schema document must not be nil")

const schemaResourceURL = "mem://casai/schema.json"

// compileRawSchema compiles a JSON Schema map into a validator. The map is not mutated.
func compileRawSchema(schemaMap map[string]any) (*santhosh.Schema, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	doc, err := santhosh.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c := santhosh.NewCompiler()
	if err := c.AddResource(schemaResourceURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaResourceURL)
}

// stripSchemaIDs removes id and $id so resolution does not depend on them.
func stripSchemaIDs(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "id")
		delete(n, "$id")
	})
}

// normalizeValue turns any Go value into the representation the validator expects
// (json.Number for numbers, map[string]any for objects).
func normalizeValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not representable as JSON: %w", err)
	}
	return santhosh.UnmarshalJSON(bytes.NewReader(data))
}

var (
	_ Schema    = (*JSONSchema)(nil)
	_ Describer = (*JSONSchema)(nil)
	_ Schema    = SchemaFunc(nil)
)
