// Package gen builds the type graph from resolved schema documents and
// drives code generation for it.
//
// # Architecture
//
// The code generation pipeline follows this flow:
//
//	Schema documents (*.cdm.json)
//	        ↓
//	   load.Load (raw schema nodes)
//	        ↓
//	   resolve.Resolve (symbol table, linked $refs)
//	        ↓
//	   gen.NewGraph (named types, assigned names)
//	        ↓
//	   JenniferGenerator + dialect (one unit per named type)
//
// # Key Types
//
//   - Graph: The named types, sorted by name, plus naming collisions and warnings
//   - Type: A record, enum, array, union, primitive, alias or unknown placeholder
//   - Field: A record field with its declared name and required flag
//   - TypeRef: An owning or back reference to a type
//   - Config: Global configuration for code generation
//
// # Naming
//
// Every named type receives a name that is unique case-insensitively, so
// that file names derived from it are unique on any file system. The
// candidate name is built from the pointer segments after the innermost
// "definitions" keyword. Keys sharing a candidate get the document stem,
// then parent directories, nearest first, prepended; keys that still clash
// are numbered in key order. Each such group is reported as a NameCollision.
//
// # Interface Hierarchy
//
//	MinimalDialect (basic dialect support)
//	├── Name() string
//	└── TypeGenerator
//	    └── GenType(t *Type) *jen.File
//
//	PackageGenerator (optional, detected at runtime)
//	└── GenPackage() map[string]*jen.File
//
// # Error Handling
//
// The package uses structured error types:
//
//   - ConfigError: Configuration errors
//   - NameCollision: Candidate names shared by several keys (informational)
//   - Warning: Lossy conversions, such as an allOf that could not be merged
//   - EmitError: A unit that could not be rendered, formatted or written
//
// None of them aborts a run. Example:
//
//	emitErrs, err := generator.Generate(ctx)
//	if err != nil {
//	    return err // output directory could not be created
//	}
//	for _, e := range emitErrs {
//	    log.Printf("skipped %s: %v", e.File, e.Cause)
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	config, err := gen.NewConfig(
//	    gen.WithTarget("./cdm"),
//	    gen.WithFeatures(gen.FeatureValidator),
//	    gen.WithHeader("Code generated by cdmgen. DO NOT EDIT."),
//	)
//
// # Usage
//
// The recommended way to generate code is through the golang package:
//
//	import "github.com/syssam/cdmgen/compiler/gen/golang"
//
//	emitErrs, err := golang.Generate(ctx, graph)
//
// Or manually configure the generator:
//
//	generator := gen.NewJenniferGenerator(graph, outDir).WithWorkers(4)
//	generator.WithDialect(golang.NewDialect(generator))
//	emitErrs, err := generator.Generate(ctx)
//
// # Features
//
//   - snapshot: msgpack snapshot of the type graph in internal/graph.msgpack
//   - validator: Validate and IsValid methods on generated types
package gen
