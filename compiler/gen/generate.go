package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
)

// JenniferGenerator renders the type graph with Jennifer, one unit per named
// type, in dependency order on a bounded worker pool.
type JenniferGenerator struct {
	graph   *Graph
	workers int
	outDir  string
	pkg     string

	// Dialect generator for language-specific code.
	dialect MinimalDialect
	// Optional interface implementations detected at runtime.
	packageGen PackageGenerator

	cyclic  map[string]int
	metrics *WriterMetrics
}

// NewJenniferGenerator creates a new Jennifer-based generator.
// You must call WithDialect() to set a dialect before calling Generate().
//
// Example:
//
//	import "github.com/syssam/cdmgen/compiler/gen/golang"
//
//	gen := gen.NewJenniferGenerator(graph, outDir)
//	gen.WithDialect(golang.NewDialect(gen))
//	emitErrs, err := gen.Generate(ctx)
func NewJenniferGenerator(g *Graph, outDir string) *JenniferGenerator {
	pkg := filepath.Base(outDir)
	workers := 0
	if g.Config != nil {
		pkg = g.PackageName()
		workers = g.WorkerCount()
	}
	return &JenniferGenerator{
		graph:   g,
		workers: workers,
		outDir:  outDir,
		pkg:     pkg,
		cyclic:  g.Cyclic(),
		metrics: &WriterMetrics{},
	}
}

// WithWorkers sets the number of parallel workers.
func (g *JenniferGenerator) WithWorkers(n int) *JenniferGenerator {
	if n > 0 {
		g.workers = n
	}
	return g
}

// WithPackage sets the output package name.
func (g *JenniferGenerator) WithPackage(pkg string) *JenniferGenerator {
	if pkg != "" {
		g.pkg = pkg
	}
	return g
}

// WithDialect sets the dialect generator. Additional capabilities are
// detected via PackageGenerator.
func (g *JenniferGenerator) WithDialect(d MinimalDialect) *JenniferGenerator {
	if d != nil {
		g.dialect = d
		if pg, ok := d.(PackageGenerator); ok {
			g.packageGen = pg
		}
	}
	return g
}

// Metrics returns the generation metrics.
func (g *JenniferGenerator) Metrics() *WriterMetrics {
	return g.metrics
}

// unit is one file to emit.
type unit struct {
	name   string // type name, empty for package files
	subdir string
	file   string
	gen    func() (*jen.File, error)
}

// Generate writes one unit per named type. Units that cannot be rendered,
// formatted or written are reported as EmitErrors and skipped; the error is
// non-nil only if the output directory cannot be created or ctx is canceled.
func (g *JenniferGenerator) Generate(ctx context.Context) ([]*EmitError, error) {
	if g.dialect == nil {
		return nil, NewConfigError("Dialect", nil, "no dialect set: call WithDialect() before Generate()")
	}
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output directory: %w", ErrGenerationFailed, err)
	}
	logger := g.graph.logger()
	var units []unit
	for _, group := range g.graph.Order() {
		for _, t := range group {
			units = append(units, unit{
				name: t.Name,
				file: strings.ToLower(t.Name) + ".go",
				gen:  g.typeFile(t),
			})
		}
	}
	if g.packageGen != nil {
		files := g.packageGen.GenPackage()
		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			f := files[name]
			units = append(units, unit{file: name, gen: func() (*jen.File, error) { return f, nil }})
		}
	}

	errs := make([]*EmitError, len(units))
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.workers)
	for i, u := range units {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			errs[i] = g.emit(u)
			if errs[i] == nil {
				logger.Debug("emitted unit", "name", u.name, "file", u.file)
			}
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}
	var emitErrs []*EmitError
	for _, e := range errs {
		if e != nil {
			logger.Error("emit failed", "name", e.Name, "file", e.File, "phase", e.Phase, "error", e.Cause)
			emitErrs = append(emitErrs, e)
		}
	}
	if g.graph.Config != nil {
		if enabled, _ := g.graph.FeatureEnabled(FeatureSnapshot.Name); enabled {
			if err := WriteSnapshot(filepath.Join(g.outDir, SnapshotDir, SnapshotFile), g.graph); err != nil {
				e := NewEmitError("", filepath.Join(SnapshotDir, SnapshotFile), "write", err)
				logger.Error("snapshot failed", "error", err)
				emitErrs = append(emitErrs, e)
			}
		}
		if err := cleanupFeatures(g.graph.Config); err != nil {
			logger.Warn("feature cleanup failed", "error", err)
		}
	}
	logger.Info("emitted units", "units", len(units)-len(emitErrs), "failed", len(emitErrs), "target", g.outDir)
	return emitErrs, nil
}

// typeFile renders the unit of t, turning a dialect panic into an error.
func (g *JenniferGenerator) typeFile(t *Type) func() (*jen.File, error) {
	return func() (f *jen.File, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("dialect %s: %v", g.dialect.Name(), r)
			}
		}()
		f = g.dialect.GenType(t)
		if f == nil {
			return nil, fmt.Errorf("dialect %s returned no file", g.dialect.Name())
		}
		return f, nil
	}
}

// =============================================================================
// GeneratorHelper interface implementation
// These exported methods allow dialect packages to access helper functionality.
// =============================================================================

// NewFile creates a new Jennifer file with the standard header comment.
func (g *JenniferGenerator) NewFile() *jen.File {
	f := jen.NewFile(g.pkg)
	header := DefaultHeader
	if g.graph.Config != nil {
		header = g.graph.HeaderComment()
	}
	f.HeaderComment(header)
	return f
}

// Graph returns the type graph.
func (g *JenniferGenerator) Graph() *Graph {
	return g.graph
}

// Pkg returns the output package name.
func (g *JenniferGenerator) Pkg() string {
	return g.pkg
}

// FeatureEnabled reports if the given feature name is enabled.
func (g *JenniferGenerator) FeatureEnabled(name string) bool {
	if g.graph.Config == nil {
		return false
	}
	enabled, _ := g.graph.FeatureEnabled(name)
	return enabled
}

// Cyclic reports whether from and to belong to the same reference cycle.
func (g *JenniferGenerator) Cyclic(from, to string) bool {
	i, ok := g.cyclic[from]
	if !ok {
		return false
	}
	j, ok := g.cyclic[to]
	return ok && i == j
}

// Verify JenniferGenerator implements GeneratorHelper at compile time.
var _ GeneratorHelper = (*JenniferGenerator)(nil)
