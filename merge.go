package casai

import "maps"

// processConfig normalizes a configuration built without a parent: the context becomes non-nil.
func processConfig(c Config) Config {
	c = c.clone()
	if c.Context == nil {
		c.Context = make(map[string]any)
	}
	return c
}

// resolveParent returns the plain configuration behind a parent reference.
// A nil provider yields ok == false.
func resolveParent(p ConfigProvider) (Config, bool) {
	if p == nil {
		return Config{}, false
	}
	return p.Config().clone(), true
}

// mergeConfigs overlays the present properties of child onto parent. Context is merged one level
// deep (child keys win); every other property is replaced wholesale when the child has it.
// Neither argument is modified.
func mergeConfigs(parent, child Config) Config {
	out := parent.clone()
	out.Context = mergeContext(parent.Context, child.Context)
	if child.InputSchema != nil {
		out.InputSchema = child.InputSchema
	}
	if child.Schema != nil {
		out.Schema = child.Schema
	}
	if !isNilImplementation(child.Execute) {
		out.Execute = child.Execute
	}
	if child.Debug != nil {
		out.Debug = Bool(*child.Debug)
	}
	if child.Description != "" {
		out.Description = child.Description
	}
	if child.Name != "" {
		out.Name = child.Name
	}
	if len(child.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(child.Extra))
		}
		maps.Copy(out.Extra, child.Extra)
	}
	if len(child.invalid) > 0 {
		if out.invalid == nil {
			out.invalid = make(map[string]string, len(child.invalid))
		}
		maps.Copy(out.invalid, child.invalid)
	}
	return out
}

// mergeContext returns a new map holding base overlaid with override. The result is never nil.
func mergeContext(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	maps.Copy(out, base)
	maps.Copy(out, override)
	return out
}
