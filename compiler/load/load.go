// Package load discovers and parses schema documents.
//
// Load walks a schema root in lexicographic order, parses every document
// whose name carries the schema suffix on a bounded worker pool, and returns
// the parsed documents sorted by DocumentID together with one LoadError per
// document that could not be read or parsed:
//
//	res, err := load.Load(ctx, "./schemaDocuments",
//	    load.WithWorkers(8),
//	    load.WithLogger(logger),
//	)
//	if err != nil {
//	    return err // the root itself could not be walked
//	}
//	for _, le := range res.Errors {
//	    logger.Warn("skipped document", "path", le.Path, "error", le.Cause)
//	}
package load

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultSuffix is the file suffix of Common Data Model schema documents.
const DefaultSuffix = ".cdm.json"

// Config configures document discovery and parsing.
type Config struct {
	// Suffix selects the files to load. Defaults to DefaultSuffix.
	Suffix string
	// Workers bounds the number of documents parsed in parallel.
	Workers int
	// Validate compiles every document against the JSON Schema metaschema.
	Validate bool
	// Logger receives per-document debug records. Defaults to slog.Default().
	Logger *slog.Logger
}

// Option configures the loader.
type Option func(*Config)

// WithSuffix sets the schema document suffix.
func WithSuffix(suffix string) Option {
	return func(c *Config) {
		if suffix != "" {
			c.Suffix = suffix
		}
	}
}

// WithWorkers sets the number of parallel parse workers.
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithValidation enables metaschema validation of parsed documents.
func WithValidation(enabled bool) Option {
	return func(c *Config) {
		c.Validate = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

func newConfig(opts ...Option) *Config {
	c := &Config{
		Suffix:  DefaultSuffix,
		Workers: runtime.GOMAXPROCS(0),
		Logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result holds the outcome of a Load call.
type Result struct {
	// Documents are the parsed documents sorted by ID.
	Documents []*Document
	// Errors holds one entry per skipped document, in discovery order.
	Errors []*LoadError
	// Warnings holds metaschema validation findings.
	Warnings []*ValidationWarning
}

// Document returns the document with the given id, or nil.
func (r *Result) Document(id DocumentID) *Document {
	i := sort.Search(len(r.Documents), func(i int) bool { return r.Documents[i].ID >= id })
	if i < len(r.Documents) && r.Documents[i].ID == id {
		return r.Documents[i]
	}
	return nil
}

// Load discovers and parses every schema document under root. Per-document
// failures are collected in Result.Errors; the returned error is non-nil only
// if root cannot be walked or ctx is canceled.
func Load(ctx context.Context, root string, opts ...Option) (*Result, error) {
	cfg := newConfig(opts...)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("load: schema root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("load: schema root %q is not a directory", root)
	}
	res := &Result{}
	paths, walkErrs := discover(root, cfg.Suffix)
	res.Errors = append(res.Errors, walkErrs...)
	cfg.Logger.Info("discovered schema documents", "root", root, "count", len(paths))

	type outcome struct {
		doc *Document
		err *LoadError
	}
	outcomes := make([]outcome, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Workers)
	for i, p := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := documentID(root, p)
			doc, err := parseFile(p, id, cfg.Validate)
			if err != nil {
				outcomes[i].err = NewLoadError(p, id, err)
				return nil
			}
			cfg.Logger.Debug("parsed schema document", "document", id)
			outcomes[i].doc = doc
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			res.Errors = append(res.Errors, o.err)
		case o.doc != nil:
			res.Documents = append(res.Documents, o.doc)
		}
	}
	sort.Slice(res.Documents, func(i, j int) bool { return res.Documents[i].ID < res.Documents[j].ID })
	if cfg.Validate {
		res.Warnings = validate(res.Documents)
		for _, d := range res.Documents {
			d.raw = nil
		}
	}
	for _, le := range res.Errors {
		cfg.Logger.Warn("skipped schema document", "path", le.Path, "error", le.Cause)
	}
	for _, w := range res.Warnings {
		cfg.Logger.Warn("schema document failed validation", "document", w.ID, "error", w.Cause)
	}
	cfg.Logger.Info("loaded schema documents", "documents", len(res.Documents), "errors", len(res.Errors))
	return res, nil
}

// Parse reads one schema document from r.
func Parse(id DocumentID, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parse(id, data)
}

func parseFile(path string, id DocumentID, keepRaw bool) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := parse(id, data)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	if keepRaw {
		doc.raw = data
	}
	return doc, nil
}

func parse(id DocumentID, data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	v, err := decodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if v.kind != valueObject {
		return nil, fmt.Errorf("document must be a JSON object, got %s", v.typeName())
	}
	root, err := newNode(v, "#")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Document{ID: id, Root: root}, nil
}

// discover returns the schema files under root in lexicographic walk order.
// Unreadable entries are reported and skipped.
func discover(root, suffix string) ([]string, []*LoadError) {
	var (
		paths []string
		errs  []*LoadError
	)
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != root {
				errs = append(errs, NewLoadError(path, documentID(root, path), err))
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths, errs
}

func documentID(root, path string) DocumentID {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	return DocumentID(filepath.ToSlash(rel))
}
