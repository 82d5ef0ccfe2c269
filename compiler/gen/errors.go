package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/cdmgen/compiler/resolve"
)

// Sentinel errors for common failure cases.
var (
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("cdmgen: missing configuration")
	// ErrNameCollision indicates distinct keys that produced the same candidate name.
	ErrNameCollision = errors.New("cdmgen: name collision")
	// ErrUnmergeable indicates an allOf that could not be merged into one record.
	ErrUnmergeable = errors.New("cdmgen: unmergeable allOf")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("cdmgen: code generation failed")
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("cdmgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("cdmgen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// NameCollision records a group of keys that share a candidate name and the
// distinct names they were given. It is informational.
type NameCollision struct {
	Candidate string
	Keys      []resolve.Key
	Names     []string
}

// Error implements the error interface.
func (e *NameCollision) Error() string {
	var b strings.Builder
	b.WriteString("cdmgen: name collision on ")
	b.WriteString(e.Candidate)
	for i, k := range e.Keys {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(k.String())
		if i < len(e.Names) {
			b.WriteString(" as ")
			b.WriteString(e.Names[i])
		}
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for NameCollision.
func (e *NameCollision) Is(target error) bool {
	return target == ErrNameCollision
}

// WarningKind classifies a Warning.
type WarningKind uint8

// Warning kinds.
const (
	UnmergeableAllOf WarningKind = iota + 1
)

// Warning reports a lossy conversion found while building the type graph.
type Warning struct {
	Kind    WarningKind
	Key     resolve.Key
	Type    string // Name of the enclosing named type.
	Message string
}

// Error implements the error interface.
func (e *Warning) Error() string {
	var b strings.Builder
	b.WriteString("cdmgen: warning")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	b.WriteString(" (key: ")
	b.WriteString(e.Key.String())
	b.WriteString(")")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for the warning kind.
func (e *Warning) Is(target error) bool {
	return e.Kind == UnmergeableAllOf && target == ErrUnmergeable
}

// EmitError reports a unit that could not be rendered, formatted or written.
// Emission continues with the remaining units.
type EmitError struct {
	Name  string // Assigned type name.
	File  string
	Phase string // "render", "format" or "write".
	Cause error
}

// Error implements the error interface.
func (e *EmitError) Error() string {
	var b strings.Builder
	b.WriteString("cdmgen: emit error")
	if e.Name != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Name)
	}
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *EmitError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for EmitError.
func (e *EmitError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewEmitError creates a new EmitError.
func NewEmitError(name, file, phase string, cause error) *EmitError {
	return &EmitError{
		Name:  name,
		File:  file,
		Phase: phase,
		Cause: cause,
	}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsNameCollision reports whether the error is a NameCollision.
func IsNameCollision(err error) bool {
	var collision *NameCollision
	return errors.As(err, &collision)
}

// IsEmitError reports whether the error is an EmitError.
func IsEmitError(err error) bool {
	var emitErr *EmitError
	return errors.As(err, &emitErr)
}
