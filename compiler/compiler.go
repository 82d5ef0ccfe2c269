// Package compiler runs the cdmgen pipeline: it loads a schema corpus,
// resolves its references, builds the type graph and emits one Go unit per
// named type.
//
//	cfg, err := gen.NewConfig(gen.WithTarget("./cdm"))
//	if err != nil {
//	    return err
//	}
//	report, err := compiler.Generate(ctx, "./schemaDocuments", cfg)
//	if err != nil {
//	    return err
//	}
//	if report.Failed() {
//	    return report.Err()
//	}
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/cdmgen/compiler/gen"
	"github.com/syssam/cdmgen/compiler/gen/golang"
	"github.com/syssam/cdmgen/compiler/load"
	"github.com/syssam/cdmgen/compiler/resolve"
)

// ErrNoTypes is returned when a run resolves no named type.
var ErrNoTypes = errors.New("cdmgen: no types resolved")

// Report collects the diagnostics of one run. None of them aborts the run.
type Report struct {
	// RunID identifies the run in log records.
	RunID     string
	Documents int
	Types     int
	// Files is the number of units written.
	Files int

	LoadErrors         []*load.LoadError
	ValidationWarnings []*load.ValidationWarning
	ResolveErrors      []*resolve.ResolveError
	Collisions         []*gen.NameCollision
	Warnings           []*gen.Warning
	EmitErrors         []*gen.EmitError

	Duration time.Duration
}

// Unresolved returns the number of unresolved references.
func (r *Report) Unresolved() int {
	n := 0
	for _, e := range r.ResolveErrors {
		if e.Kind == resolve.UnresolvedReference {
			n++
		}
	}
	return n
}

// Failed reports whether any reference could not be resolved or any unit
// could not be emitted.
func (r *Report) Failed() bool {
	return r.Unresolved() > 0 || len(r.EmitErrors) > 0
}

// Err joins every diagnostic of the run, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, e := range r.LoadErrors {
		errs = append(errs, e)
	}
	for _, e := range r.ValidationWarnings {
		errs = append(errs, e)
	}
	for _, e := range r.ResolveErrors {
		errs = append(errs, e)
	}
	for _, e := range r.Collisions {
		errs = append(errs, e)
	}
	for _, e := range r.Warnings {
		errs = append(errs, e)
	}
	for _, e := range r.EmitErrors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// Option configures a run.
type Option func(*options)

type options struct {
	validate bool
	debounce time.Duration
}

// WithValidation enables metaschema validation of the loaded documents.
func WithValidation(enabled bool) Option {
	return func(o *options) {
		o.validate = enabled
	}
}

// WithDebounce sets how long Watch waits for file events to settle before
// regenerating.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

func newOptions(opts ...Option) *options {
	o := &options{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LoadGraph loads the documents under schemaDir, resolves them and builds the
// type graph. The graph is returned together with the report of the stages
// that ran.
func LoadGraph(ctx context.Context, schemaDir string, cfg *gen.Config, opts ...Option) (*gen.Graph, *Report, error) {
	if cfg == nil {
		return nil, nil, gen.NewConfigError("Config", nil, "config cannot be nil")
	}
	o := newOptions(opts...)
	report := &Report{RunID: uuid.NewString()}
	c := *cfg
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.Logger = c.Logger.With("run", report.RunID)
	logger := c.Logger

	suffix := c.Suffix
	if suffix == "" {
		suffix = load.DefaultSuffix
	}
	loaded, err := load.Load(ctx, schemaDir,
		load.WithSuffix(suffix),
		load.WithWorkers(c.WorkerCount()),
		load.WithValidation(o.validate),
		load.WithLogger(logger),
	)
	if err != nil {
		return nil, report, err
	}
	report.Documents = len(loaded.Documents)
	report.LoadErrors = loaded.Errors
	report.ValidationWarnings = loaded.Warnings

	res := resolve.Resolve(loaded.Documents, resolve.WithLogger(logger))
	report.ResolveErrors = res.Errors

	g, err := gen.NewGraph(&c, res)
	if err != nil {
		return nil, report, err
	}
	report.Types = len(g.Nodes)
	report.Collisions = g.Collisions
	report.Warnings = g.Warnings
	if len(g.Nodes) == 0 {
		return g, report, fmt.Errorf("%w under %s", ErrNoTypes, schemaDir)
	}
	return g, report, nil
}

// Generate runs the whole pipeline over schemaDir and writes the generated
// package to cfg.Target. The error is non-nil only when the run failed
// outright: the schema root cannot be walked, no type was resolved, or the
// output directory cannot be created. Everything else is in the Report.
func Generate(ctx context.Context, schemaDir string, cfg *gen.Config, opts ...Option) (*Report, error) {
	if cfg == nil {
		return nil, gen.NewConfigError("Config", nil, "config cannot be nil")
	}
	if cfg.Target == "" {
		return nil, gen.NewConfigError("Target", nil, "missing target directory in config")
	}
	start := time.Now()
	g, report, err := LoadGraph(ctx, schemaDir, cfg, opts...)
	if err != nil {
		if report != nil {
			report.Duration = time.Since(start)
		}
		return report, err
	}
	generator := g.Generator
	if generator == nil {
		generator = golang.Generator()
	}
	emitErrs, err := g.Wrap(generator).Generate(ctx, g)
	report.EmitErrors = emitErrs
	report.Duration = time.Since(start)
	if err != nil {
		return report, err
	}
	report.Files = report.Types - countTypeErrors(emitErrs)
	g.Logger.Info("generation finished",
		"documents", report.Documents,
		"types", report.Types,
		"files", report.Files,
		"load_errors", len(report.LoadErrors),
		"unresolved", report.Unresolved(),
		"collisions", len(report.Collisions),
		"emit_errors", len(report.EmitErrors),
		"duration", report.Duration,
	)
	return report, nil
}

// countTypeErrors counts the emit errors of type units.
func countTypeErrors(errs []*gen.EmitError) int {
	n := 0
	for _, e := range errs {
		if e.Name != "" {
			n++
		}
	}
	return n
}
