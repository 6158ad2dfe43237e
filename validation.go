package casai

import (
	"maps"
	"slices"
)

// Validatable is implemented by argument structs that need custom business validation.
// Extractor calls it after schema validation and decoding.
type Validatable interface {
	Validate() error
}

// validateCustom runs the Validatable layer if args implements it.
func validateCustom(args any) error {
	if v, ok := args.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// validateConfig runs the construction-time checks, in order: unknown properties on the child,
// the parent's shape, then required properties of the final configuration.
// parent is nil when the configuration was built without one.
// Properties named in skip are not required.
func validateConfig(kind Kind, child Config, parent *Config, final Config, skip ...string) error {
	if err := checkShape(kind, SourceChild, child); err != nil {
		return err
	}
	if parent != nil {
		if err := checkShape(kind, SourceParent, *parent); err != nil {
			return err
		}
	}
	return checkRequired(kind, final, skip...)
}

// checkShape rejects properties outside the recognized shape for kind, then badly typed values.
func checkShape(kind Kind, source ConfigSource, c Config) error {
	shape := shapeOf(kind)
	var unknown []string
	for _, p := range c.Properties() {
		if !slices.Contains(shape, p) {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		return &ConfigError{Kind: kind, Source: source, Problem: ProblemUnknown, Properties: unknown}
	}
	if len(c.invalid) > 0 {
		return &ConfigError{
			Kind:       kind,
			Source:     source,
			Problem:    ProblemInvalid,
			Properties: slices.Sorted(maps.Keys(c.invalid)),
			Reasons:    maps.Clone(c.invalid),
		}
	}
	return nil
}

// checkRequired rejects a final configuration that lacks a property required for kind.
func checkRequired(kind Kind, final Config, skip ...string) error {
	var missing []string
	for _, p := range requiredOf(kind) {
		if !final.Has(p) && !slices.Contains(skip, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Kind: kind, Source: SourceChild, Problem: ProblemMissing, Properties: missing}
	}
	return nil
}

// ValidateConfig runs the shape and required-property checks for kind on cfg merged with parent,
// without building anything. When requireExecute is false a missing execute is tolerated, which
// suits configurations loaded from files.
func ValidateConfig(kind Kind, cfg Config, parent ConfigProvider, requireExecute bool) (Config, error) {
	final, parentCfg := compose(cfg, parent)
	var skip []string
	if !requireExecute {
		skip = append(skip, PropExecute)
	}
	if err := validateConfig(kind, cfg, parentCfg, final, skip...); err != nil {
		return Config{}, err
	}
	return final, nil
}

// compose merges cfg with the resolved parent, or normalizes it when there is none.
func compose(cfg Config, parent ConfigProvider) (Config, *Config) {
	p, ok := resolveParent(parent)
	if !ok {
		return processConfig(cfg), nil
	}
	return mergeConfigs(p, cfg), &p
}
