package load

import (
	"errors"
	"strings"
)

// Sentinel errors for loader failures.
var (
	// ErrLoad indicates a document that could not be read or parsed.
	ErrLoad = errors.New("cdmgen: load failed")
	// ErrInvalidSchema indicates a document rejected by metaschema validation.
	ErrInvalidSchema = errors.New("cdmgen: invalid schema document")
)

// LoadError reports a document that was skipped. It never aborts a run.
type LoadError struct {
	Path  string     // Filesystem path of the document.
	ID    DocumentID // Document id, empty when the path is outside the root.
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("cdmgen: load error")
	if e.Path != "" {
		b.WriteString(" (path: ")
		b.WriteString(e.Path)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// NewLoadError creates a new LoadError.
func NewLoadError(path string, id DocumentID, cause error) *LoadError {
	return &LoadError{Path: path, ID: id, Cause: cause}
}

// ValidationWarning reports a document that failed metaschema validation.
// The document is still handed to the resolver.
type ValidationWarning struct {
	ID    DocumentID
	Cause error
}

// Error implements the error interface.
func (e *ValidationWarning) Error() string {
	var b strings.Builder
	b.WriteString("cdmgen: validation warning")
	if e.ID != "" {
		b.WriteString(" (document: ")
		b.WriteString(string(e.ID))
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ValidationWarning) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ValidationWarning.
func (e *ValidationWarning) Is(target error) bool {
	return target == ErrInvalidSchema
}

// IsLoadError reports whether the error is a LoadError.
func IsLoadError(err error) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr)
}
