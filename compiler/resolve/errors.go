package resolve

import (
	"errors"
	"strings"
)

// Sentinel errors for resolver failures.
var (
	// ErrDuplicate indicates a key registered twice inside one document.
	ErrDuplicate = errors.New("cdmgen: duplicate definition")
	// ErrUnresolved indicates a $ref whose target is not in the symbol table.
	ErrUnresolved = errors.New("cdmgen: unresolved reference")
	// ErrAliasCycle indicates definitions that only alias each other.
	ErrAliasCycle = errors.New("cdmgen: alias cycle")
)

// ErrorKind classifies a ResolveError.
type ErrorKind uint8

// Resolver error kinds.
const (
	DuplicateDefinition ErrorKind = iota + 1
	UnresolvedReference
	AliasCycle
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case DuplicateDefinition:
		return "duplicate definition"
	case UnresolvedReference:
		return "unresolved reference"
	case AliasCycle:
		return "alias cycle"
	}
	return "unknown"
}

// ResolveError reports a problem found while indexing or linking documents.
// It never aborts a run.
type ResolveError struct {
	Kind ErrorKind
	// Key is the duplicated key, the referring node, or the first alias in a cycle.
	Key Key
	// Ref is the raw $ref value of an unresolved reference.
	Ref string
	// Keys lists every member of an alias cycle.
	Keys  []Key
	Cause error

	// seq orders errors by document, then by position in the document.
	seq int
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	var b strings.Builder
	b.WriteString("cdmgen: ")
	b.WriteString(e.Kind.String())
	b.WriteString(" (key: ")
	b.WriteString(e.Key.String())
	b.WriteString(")")
	if e.Ref != "" {
		b.WriteString(" $ref ")
		b.WriteString(e.Ref)
	}
	if len(e.Keys) > 1 {
		b.WriteString(" through ")
		for i, k := range e.Keys {
			if i > 0 {
				b.WriteString(" -> ")
			}
			b.WriteString(k.String())
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for the error kind.
func (e *ResolveError) Is(target error) bool {
	switch e.Kind {
	case DuplicateDefinition:
		return target == ErrDuplicate
	case UnresolvedReference:
		return target == ErrUnresolved
	case AliasCycle:
		return target == ErrAliasCycle
	}
	return false
}

// IsResolveError reports whether the error is a ResolveError.
func IsResolveError(err error) bool {
	var resolveErr *ResolveError
	return errors.As(err, &resolveErr)
}

// IsUnresolved reports whether the error is an unresolved reference.
func IsUnresolved(err error) bool {
	return errors.Is(err, ErrUnresolved)
}
