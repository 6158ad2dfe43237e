package casai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Template is a pure configuration: a parent for functions and tools that is not callable itself.
// Every property is recognized and none is required.
type Template struct {
	cfg Config
}

// NewConfig merges cfg with the parent (WithParent) and checks its shape.
func NewConfig(cfg Config, opts ...Option) (*Template, error) {
	o := buildOptions(opts)
	final, err := build(KindConfig, cfg, o)
	if err != nil {
		return nil, err
	}
	return &Template{cfg: final}, nil
}

// Config returns a copy of the merged configuration.
func (t *Template) Config() Config {
	if t == nil {
		return Config{}
	}
	return t.cfg.clone()
}

// ParseConfig builds a Template from a YAML (or JSON) document. Schemas are JSON Schema documents.
// Keys outside the recognized set fail with *ConfigError.
//
//	debug: true
//	context:
//	  currency: EUR
//	inputSchema:
//	  type: object
//	  properties:
//	    amount: {type: number}
//	  required: [amount]
func ParseConfig(data []byte, opts ...Option) (*Template, error) {
	raw, err := decodeRawConfig(data)
	if err != nil {
		return nil, err
	}
	return NewConfig(raw.Config(), opts...)
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string, opts ...Option) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	t, err := ParseConfig(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return t, nil
}

// LoadRawConfig reads a YAML configuration file without validating it.
func LoadRawConfig(path string) (RawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	raw, err := decodeRawConfig(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return raw, nil
}

func decodeRawConfig(data []byte) (RawConfig, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}
	return RawConfig(raw), nil
}

var _ ConfigProvider = (*Template)(nil)
