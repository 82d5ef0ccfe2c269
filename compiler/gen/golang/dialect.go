// Package golang provides the Go dialect for the Jennifer generator.
//
// Every named type becomes one file in the output package:
//
//	{output}/
//	├── account.go       # type Account struct { ... }, package documentation
//	├── statecode.go     # type StateCode int64 and its constants
//	└── internal/
//	    └── graph.msgpack  # type graph snapshot (snapshot feature)
//
// Mapping:
//
//	record     struct with json tags; optional fields are pointers with omitempty
//	enum       named type over the value kind plus Name_Value constants
//	array      slice
//	union      struct holding one pointer per branch, with MarshalJSON/UnmarshalJSON
//	primitive  named type over string, int64, float64, bool, map[string]any or any
//	alias      type alias
//	unknown    alias of json.RawMessage
//
// Inline records, enums and unions are declared next to the named type that
// owns them as Owner_Field. Assigned names never contain '_', so these
// declarations cannot clash with named types. The package comment goes to
// the unit of the first type in name order, so the output holds exactly one
// file per named type.
package golang

import (
	"context"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/cdmgen/compiler/gen"
)

// Generate is a convenience function to generate Go code for g using the
// Jennifer generator. Hooks registered in g.Config.Hooks wrap the generator.
//
// Example:
//
//	import "github.com/syssam/cdmgen/compiler/gen/golang"
//	emitErrs, err := golang.Generate(ctx, graph)
func Generate(ctx context.Context, g *gen.Graph) ([]*gen.EmitError, error) {
	if g.Config == nil || g.Target == "" {
		return nil, gen.NewConfigError("Target", nil, "missing target directory in config")
	}
	var generator gen.Generator = Generator()
	generator = g.Wrap(generator)
	return generator.Generate(ctx, g)
}

// Generator returns the Go generator as a gen.Generator.
func Generator() gen.Generator {
	return gen.GenerateFunc(func(ctx context.Context, g *gen.Graph) ([]*gen.EmitError, error) {
		generator := gen.NewJenniferGenerator(g, g.Target)
		generator.WithDialect(NewDialect(generator))
		return generator.Generate(ctx)
	})
}

// Dialect implements gen.MinimalDialect for Go.
type Dialect struct {
	helper gen.GeneratorHelper
}

// NewDialect creates a new Go dialect generator.
// The helper parameter should be a *gen.JenniferGenerator.
func NewDialect(helper gen.GeneratorHelper) *Dialect {
	return &Dialect{helper: helper}
}

// Name returns the dialect name.
func (d *Dialect) Name() string {
	return "golang"
}

// GenType generates the unit declaring t and its inline types.
func (d *Dialect) GenType(t *gen.Type) *jen.File {
	f := d.helper.NewFile()
	if g := d.helper.Graph(); len(g.Nodes) > 0 && g.Nodes[0] == t {
		f.PackageComment(fmt.Sprintf("Package %s contains the types generated from a Common Data Model schema corpus.", d.helper.Pkg()))
	}
	e := &emitter{
		helper:    d.helper,
		graph:     d.helper.Graph(),
		f:         f,
		owner:     t.Name,
		validator: d.helper.FeatureEnabled(gen.FeatureValidator.Name),
	}
	e.declare(t.Name, t, fmt.Sprintf("%s is generated from %s.", t.Name, t.Key))
	for len(e.queue) > 0 {
		next := e.queue[0]
		e.queue = e.queue[1:]
		e.declare(next.name, next.t, fmt.Sprintf("%s is an inline type of %s.", next.name, t.Name))
	}
	return f
}

var _ gen.MinimalDialect = (*Dialect)(nil)
