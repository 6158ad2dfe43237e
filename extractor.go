package casai

import (
	"context"
	"encoding/json"
	"reflect"
)

// Extractor provides a reflected JSON Schema and two-layer validation (schema + Validatable) for T.
// It is itself a Schema, Parser and Describer: as an output schema it turns the implementation's
// result into a T; as an input schema it checks the merged input.
type Extractor[T any] struct {
	schema *JSONSchema
}

// NewExtractor creates an Extractor for T. When strict is true the generated schema has
// additionalProperties: false for all objects and every property required.
func NewExtractor[T any](strict bool) (*Extractor[T], error) {
	doc, err := reflectSchema[T](strict)
	if err != nil {
		return nil, err
	}
	compiled, err := compileRawSchema(doc)
	if err != nil {
		return nil, err
	}
	return &Extractor[T]{schema: &JSONSchema{doc: doc, compiled: compiled}}, nil
}

// JSONSchema returns a shallow copy of the schema document.
func (e *Extractor[T]) JSONSchema() map[string]any { return e.schema.JSONSchema() }

// Validate reports whether v would extract cleanly.
func (e *Extractor[T]) Validate(v any) error {
	_, err := e.Extract(v)
	return err
}

// Parse extracts v and returns the T as any.
func (e *Extractor[T]) Parse(v any) (any, error) {
	return e.Extract(v)
}

// Extract validates v against the schema, decodes it into T and runs Validatable.
func (e *Extractor[T]) Extract(v any) (T, error) {
	var zero T
	if err := e.schema.Validate(v); err != nil {
		return zero, err
	}
	return decodeInto[T](v)
}

// Typed adapts a function over a typed argument struct to FunctionFunc. The merged input is decoded
// into T; decoding and Validatable failures are input validation errors.
func Typed[T any, R any](fn func(ctx context.Context, args T) (R, error)) FunctionFunc {
	return func(ctx context.Context, input map[string]any) (any, error) {
		args, err := decodeInto[T](input)
		if err != nil {
			return nil, newValidationError(StageInputContext, err)
		}
		return fn(ctx, args)
	}
}

// TypedTool is Typed for tool implementations.
func TypedTool[T any, R any](fn func(ctx context.Context, args T, opts ToolCallOptions) (R, error)) ToolFunc {
	return func(ctx context.Context, input map[string]any, opts ToolCallOptions) (any, error) {
		args, err := decodeInto[T](input)
		if err != nil {
			return nil, newValidationError(StageInputContext, err)
		}
		return fn(ctx, args, opts)
	}
}

// decodeInto converts v into T through encoding/json and runs the Validatable layer.
func decodeInto[T any](v any) (T, error) {
	var zero T
	if typed, ok := v.(T); ok {
		if err := runLayer2Validation(typed); err != nil {
			return zero, err
		}
		return typed, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return zero, err
	}
	var args T
	if err := json.Unmarshal(data, &args); err != nil {
		return zero, err
	}
	if err := runLayer2Validation(args); err != nil {
		return zero, err
	}
	return args, nil
}

// runLayer2Validation runs Validatable.Validate() on args; if args does not implement Validatable,
// it tries &args for value types (pointer receiver). Never calls Validate twice for the same receiver.
func runLayer2Validation[T any](args T) error {
	if err := validateCustom(any(args)); err != nil {
		return err
	}
	if _, ok := any(args).(Validatable); ok {
		return nil
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	return validateCustom(any(&args))
}

var (
	_ Schema    = (*Extractor[struct{}])(nil)
	_ Parser    = (*Extractor[struct{}])(nil)
	_ Describer = (*Extractor[struct{}])(nil)
)
