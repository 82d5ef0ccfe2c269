package gen

import "github.com/dave/jennifer/jen"

// TypeGenerator generates one unit per named type.
type TypeGenerator interface {
	// GenType generates the unit declaring t ({name}.go).
	GenType(t *Type) *jen.File
}

// MinimalDialect is the minimum interface a dialect must implement.
type MinimalDialect interface {
	// Name returns the dialect name (e.g., "golang").
	Name() string
	TypeGenerator
}

// PackageGenerator is implemented by dialects that also emit package-level
// files, such as a doc.go. It is detected at runtime.
type PackageGenerator interface {
	// GenPackage returns the package-level files keyed by file name.
	// File names must not collide with unit names, which never contain '_'.
	GenPackage() map[string]*jen.File
}

// GeneratorHelper provides helper methods for dialect implementations.
// JenniferGenerator implements this interface, allowing dialect packages
// to use helper methods without importing the full generator.
type GeneratorHelper interface {
	// NewFile creates a new Jennifer file in the output package with the
	// standard header comment.
	NewFile() *jen.File

	// Graph returns the type graph.
	Graph() *Graph

	// Pkg returns the output package name.
	Pkg() string

	// FeatureEnabled reports if the given feature name is enabled.
	FeatureEnabled(name string) bool

	// Cyclic reports whether two named types are part of the same reference
	// cycle. References between them must be indirect.
	Cyclic(from, to string) bool
}
