package casai

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for casai. Use errors.Is to check.
var (
	ErrConfig           = errors.New("invalid configuration")
	ErrUnknownProperty  = errors.New("unknown configuration property")
	ErrMissingProperty  = errors.New("missing required configuration property")
	ErrInvalidProperty  = errors.New("invalid configuration property value")
	ErrInputValidation  = errors.New("input validation failed")
	ErrOutputValidation = errors.New("output validation failed")
	ErrToolNotFound     = errors.New("tool not found")
	ErrTimeout          = errors.New("tool execution timeout")
	ErrShutdown         = errors.New("registry is shutting down")
)

// ConfigSource tells whether a configuration error comes from the child or the parent configuration.
type ConfigSource int

const (
	SourceChild ConfigSource = iota
	SourceParent
)

// ConfigProblem classifies a configuration error.
type ConfigProblem int

const (
	ProblemUnknown ConfigProblem = iota
	ProblemMissing
	ProblemInvalid
)

// ConfigError is returned by the factories when a configuration is rejected at construction time.
// It is never returned from a call.
type ConfigError struct {
	Kind       Kind
	Source     ConfigSource
	Problem    ConfigProblem
	Properties []string
	// Reasons holds per-property detail for ProblemInvalid, keyed by property name.
	Reasons map[string]string
}

func (e *ConfigError) Error() string {
	prefix := "Config Error"
	if e.Source == SourceParent {
		prefix = "Parent Config Error"
	}
	names := quoteNames(e.Properties)
	switch e.Problem {
	case ProblemMissing:
		if len(e.Properties) == 1 {
			return fmt.Sprintf("%s: %s is a required property of the final configuration", prefix, names)
		}
		return fmt.Sprintf("%s: %s are required properties of the final configuration", prefix, names)
	case ProblemInvalid:
		parts := make([]string, 0, len(e.Properties))
		for _, p := range e.Properties {
			parts = append(parts, fmt.Sprintf("'%s' %s", p, e.Reasons[p]))
		}
		return fmt.Sprintf("%s: Invalid property values: %s", prefix, strings.Join(parts, "; "))
	default:
		if e.Source == SourceParent {
			return fmt.Sprintf("%s: Parent has properties not allowed for the final generator type: %s", prefix, names)
		}
		return fmt.Sprintf("%s: Unknown properties for this generator type: %s", prefix, names)
	}
}

// Is matches ErrConfig and the sentinel for the problem.
func (e *ConfigError) Is(target error) bool {
	switch target {
	case ErrConfig:
		return true
	case ErrUnknownProperty:
		return e.Problem == ProblemUnknown
	case ErrMissingProperty:
		return e.Problem == ProblemMissing
	case ErrInvalidProperty:
		return e.Problem == ProblemInvalid
	}
	return false
}

// ValidationStage names the point of a call where validation failed.
type ValidationStage string

const (
	// StageInputContext validates the runtime input merged with the configured context.
	StageInputContext ValidationStage = "Input context"
	// StageInput validates the raw tool input before dispatch.
	StageInput  ValidationStage = "Input"
	StageOutput ValidationStage = "Output"
)

// ValidationError is returned from a call whose input or output does not satisfy the configured schema.
// Err wraps ErrInputValidation or ErrOutputValidation together with the schema or Validatable error.
type ValidationError struct {
	Stage  ValidationStage
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Stage, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SystemError represents an internal failure such as a recovered panic.
// The model should not see the underlying error message or stack.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsConfigError returns true if err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

func newValidationError(stage ValidationStage, err error) *ValidationError {
	sentinel := ErrInputValidation
	if stage == StageOutput {
		sentinel = ErrOutputValidation
	}
	return &ValidationError{Stage: stage, Reason: err.Error(), Err: fmt.Errorf("%w: %w", sentinel, err)}
}

// panicError wraps a recovered panic value; used by SafeParse, Registry and WithRecovery.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}

func quoteNames(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
