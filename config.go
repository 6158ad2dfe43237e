package casai

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/anthropics/anthropic-sdk-go"
)

// Property names of the recognized configuration shape, as used in RawConfig and YAML.
const (
	PropContext     = "context"
	PropInputSchema = "inputSchema"
	PropSchema      = "schema"
	PropExecute     = "execute"
	PropDebug       = "debug"
	PropDescription = "description"
	PropName        = "name"
)

var (
	functionShape = []string{PropContext, PropInputSchema, PropSchema, PropExecute, PropDebug}
	toolShape     = []string{PropContext, PropInputSchema, PropSchema, PropExecute, PropDebug, PropDescription, PropName}
)

// shapeOf returns the property names recognized for kind. KindConfig recognizes every property.
func shapeOf(kind Kind) []string {
	if kind == KindFunction {
		return functionShape
	}
	return toolShape
}

// requiredOf returns the properties that must be present on a final configuration of kind.
func requiredOf(kind Kind) []string {
	switch kind {
	case KindFunction:
		return []string{PropExecute}
	case KindTool:
		return []string{PropExecute, PropInputSchema}
	default:
		return nil
	}
}

// Config is the declarative description of a function or tool. A property is present when it is
// non-nil (maps, schemas, Execute, Debug) or non-empty (strings). Absent properties are inherited
// from the parent when one is given.
//
// Config is also its own ConfigProvider, so a literal can serve directly as a parent.
type Config struct {
	// Context is default call-time data. It is merged key by key with the parent's context and,
	// at call time, with the runtime input (input wins).
	Context map[string]any
	// InputSchema validates call input. Required for tools.
	InputSchema Schema
	// Schema validates the value returned by Execute.
	Schema Schema
	// Execute is the implementation: FunctionFunc or ToolFunc.
	Execute Implementation
	// Debug logs the final configuration once at construction. nil inherits; Bool(false) overrides.
	Debug *bool
	// Description is shown to the model. Tools only.
	Description string
	// Name is the tool name sent to the host SDK. Tools only.
	Name string
	// Extra holds properties outside the recognized set. Any entry fails construction.
	Extra map[string]any

	invalid map[string]string
}

// Bool returns a pointer to v, for Config.Debug.
func Bool(v bool) *bool { return &v }

// Config returns c.
func (c Config) Config() Config { return c }

// Has reports whether the property is present on c.
func (c Config) Has(prop string) bool {
	switch prop {
	case PropContext:
		return c.Context != nil
	case PropInputSchema:
		return c.InputSchema != nil
	case PropSchema:
		return c.Schema != nil
	case PropExecute:
		return !isNilImplementation(c.Execute)
	case PropDebug:
		return c.Debug != nil
	case PropDescription:
		return c.Description != ""
	case PropName:
		return c.Name != ""
	}
	if _, ok := c.invalid[prop]; ok {
		return true
	}
	_, ok := c.Extra[prop]
	return ok
}

// Properties returns the names of all properties present on c, sorted.
func (c Config) Properties() []string {
	var out []string
	for _, p := range toolShape {
		if c.Has(p) {
			out = append(out, p)
		}
	}
	for k := range c.Extra {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// DebugEnabled reports whether Debug is set to true.
func (c Config) DebugEnabled() bool { return c.Debug != nil && *c.Debug }

// clone copies the maps owned by c so the copy can be merged without touching the original.
func (c Config) clone() Config {
	c.Context = maps.Clone(c.Context)
	c.Extra = maps.Clone(c.Extra)
	c.invalid = maps.Clone(c.invalid)
	if c.Debug != nil {
		c.Debug = Bool(*c.Debug)
	}
	return c
}

// MarshalJSON renders the configuration for diagnostics. Execute is omitted; schemas are rendered
// as their JSON Schema documents when they have one. Values with no JSON form are rendered as
// their Go type.
func (c Config) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)
	if c.Context != nil {
		ctx := make(map[string]any, len(c.Context))
		for k, v := range c.Context {
			ctx[k] = renderValue(v)
		}
		out[PropContext] = ctx
	}
	if c.InputSchema != nil {
		out[PropInputSchema] = describeSchema(c.InputSchema)
	}
	if c.Schema != nil {
		out[PropSchema] = describeSchema(c.Schema)
	}
	if c.Debug != nil {
		out[PropDebug] = *c.Debug
	}
	if c.Description != "" {
		out[PropDescription] = c.Description
	}
	if c.Name != "" {
		out[PropName] = c.Name
	}
	for k, v := range c.Extra {
		out[k] = renderValue(v)
	}
	return json.Marshal(out)
}

func renderValue(v any) any {
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprintf("%T", v)
	}
	return v
}

// RawConfig is a configuration in its late-bound map form, e.g. decoded from YAML or JSON.
// Schema values may be a Schema, a JSON Schema document (map[string]any) or an
// anthropic.ToolInputSchemaParam. Execute may be an Implementation or a plain func with the
// FunctionFunc or ToolFunc signature. Unknown keys and badly typed values are reported when the
// configuration is used by a factory.
type RawConfig map[string]any

// Config decodes r. It never fails; problems are carried to the factory's validation.
func (r RawConfig) Config() Config {
	var c Config
	for k, v := range r {
		if v == nil {
			continue
		}
		switch k {
		case PropContext:
			m, ok := v.(map[string]any)
			if !ok {
				c.markInvalid(k, fmt.Sprintf("must be a mapping, got %T", v))
				continue
			}
			c.Context = m
		case PropInputSchema, PropSchema:
			s, err := toSchema(v)
			if err != nil {
				c.markInvalid(k, err.Error())
				continue
			}
			if k == PropInputSchema {
				c.InputSchema = s
			} else {
				c.Schema = s
			}
		case PropExecute:
			impl, ok := toImplementation(v)
			if !ok {
				c.markInvalid(k, fmt.Sprintf("must be a function implementation, got %T", v))
				continue
			}
			c.Execute = impl
		case PropDebug:
			b, ok := v.(bool)
			if !ok {
				c.markInvalid(k, fmt.Sprintf("must be a boolean, got %T", v))
				continue
			}
			c.Debug = Bool(b)
		case PropDescription, PropName:
			s, ok := v.(string)
			if !ok {
				c.markInvalid(k, fmt.Sprintf("must be a string, got %T", v))
				continue
			}
			if k == PropDescription {
				c.Description = s
			} else {
				c.Name = s
			}
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[k] = v
		}
	}
	return c
}

func (c *Config) markInvalid(prop, reason string) {
	if c.invalid == nil {
		c.invalid = make(map[string]string)
	}
	c.invalid[prop] = reason
}

func toSchema(v any) (Schema, error) {
	switch s := v.(type) {
	case Schema:
		return s, nil
	case map[string]any:
		return CompileSchema(s)
	case anthropic.ToolInputSchemaParam:
		return FromToolInputSchema(s)
	default:
		return nil, fmt.Errorf("must be a schema, got %T", v)
	}
}

func toImplementation(v any) (Implementation, bool) {
	switch f := v.(type) {
	case Implementation:
		return f, true
	case func(context.Context, map[string]any) (any, error):
		return FunctionFunc(f), true
	case func(context.Context, map[string]any, ToolCallOptions) (any, error):
		return ToolFunc(f), true
	default:
		return nil, false
	}
}

var (
	_ ConfigProvider = Config{}
	_ ConfigProvider = RawConfig(nil)
)
