// Package resolve builds the global symbol table over a set of parsed schema
// documents and links every $ref to the key of its target.
//
// References are never inlined. A Ref records the referring key and the
// target key; recursion (self or mutual) is permitted and flagged on the Ref
// so later stages can break it with a back reference.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/syssam/cdmgen/compiler/load"
	"github.com/syssam/cdmgen/graph"
)

// Ref is a $ref occurrence rewritten to a target key.
type Ref struct {
	// From is the key of the node carrying the $ref.
	From Key
	// Raw is the $ref value as written in the document.
	Raw string
	// Target is the referenced key. It is set even when unresolved.
	Target Key
	// Resolved reports whether Target exists in the symbol table.
	Resolved bool
	// Cyclic is set when the referring type and the target are part of the
	// same reference cycle.
	Cyclic bool
}

// Result is the output of Resolve.
type Result struct {
	Table  *SymbolTable
	Refs   []*Ref
	Errors []*ResolveError

	refs    map[Key]*Ref
	targets map[Key]bool
}

// Ref returns the reference carried by the node at k, or nil.
func (r *Result) Ref(k Key) *Ref {
	return r.refs[k]
}

// IsTarget reports whether k is the target of at least one resolved reference.
func (r *Result) IsTarget(k Key) bool {
	return r.targets[k]
}

// Unresolved returns the number of unresolved references.
func (r *Result) Unresolved() int {
	n := 0
	for _, ref := range r.Refs {
		if !ref.Resolved {
			n++
		}
	}
	return n
}

// Err joins all resolver errors, or returns nil.
func (r *Result) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Option configures the resolver.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Resolve indexes docs and links their references. The result does not
// depend on the order of docs; errors are reported by document id, then in
// document order.
func Resolve(docs []*load.Document, opts ...Option) *Result {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	sorted := make([]*load.Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	res := &Result{
		Table:   newSymbolTable(),
		refs:    make(map[Key]*Ref),
		targets: make(map[Key]bool),
	}
	seq := 0
	for _, d := range sorted {
		if _, dup := res.Table.docs[d.ID]; dup {
			seq++
			res.Errors = append(res.Errors, &ResolveError{
				Kind:  DuplicateDefinition,
				Key:   Key{Doc: d.ID, Pointer: Root},
				Cause: fmt.Errorf("document %s loaded twice", d.ID),
				seq:   seq,
			})
			continue
		}
		res.Table.docs[d.ID] = d
		ix := &indexer{table: res.Table, doc: d.ID, seq: &seq}
		ix.walk(d.Root, Root, Key{}, "", true)
		res.Errors = append(res.Errors, ix.errs...)
	}
	cfg.logger.Debug("indexed schema nodes", "documents", len(res.Table.docs), "nodes", res.Table.Len())

	res.link()
	res.markCycles()
	res.aliasCycles()
	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].seq < res.Errors[j].seq })

	for _, e := range res.Errors {
		cfg.logger.Warn("resolve error", "kind", e.Kind.String(), "document", e.Key.Doc, "pointer", e.Key.Pointer, "ref", e.Ref)
	}
	cfg.logger.Info("resolved references", "refs", len(res.Refs), "unresolved", res.Unresolved(), "errors", len(res.Errors))
	return res
}

// link turns every $ref into a Ref.
func (r *Result) link() {
	for _, e := range r.Table.order {
		if e.Node.Ref == "" {
			continue
		}
		ref := &Ref{From: e.Key, Raw: e.Node.Ref}
		r.Refs = append(r.Refs, ref)
		r.refs[e.Key] = ref
		target, err := ParseRef(e.Key.Doc, e.Node.Ref)
		if err == nil {
			ref.Target = target
			if _, ok := r.Table.entries[target]; !ok {
				err = missingTarget(r.Table, target)
			}
		}
		if err != nil {
			r.Errors = append(r.Errors, &ResolveError{Kind: UnresolvedReference, Key: e.Key, Ref: e.Node.Ref, Cause: err, seq: e.seq})
			continue
		}
		ref.Resolved = true
		r.targets[target] = true
	}
}

func missingTarget(t *SymbolTable, k Key) error {
	if _, ok := t.docs[k.Doc]; !ok {
		return fmt.Errorf("document %s not found", k.Doc)
	}
	return fmt.Errorf("%s not found in %s", k.Pointer, k.Doc)
}

// owner returns the nearest enclosing key that becomes a named type:
// a definition, a document root, or a reference target.
func (r *Result) owner(k Key) Key {
	for {
		e := r.Table.entries[k]
		if e.Definition || r.targets[k] || e.Parent == k {
			return k
		}
		k = e.Parent
	}
}

// markCycles flags references whose owner and target share a strongly
// connected component of the owner-level reference graph.
func (r *Result) markCycles() {
	g := graph.New[Key]()
	for _, ref := range r.Refs {
		if !ref.Resolved {
			continue
		}
		g.AddEdge(r.owner(ref.From), ref.Target)
	}
	components := g.Components()
	index := graph.ComponentOf(components)
	for _, ref := range r.Refs {
		if !ref.Resolved {
			continue
		}
		from := r.owner(ref.From)
		c := index[from]
		ref.Cyclic = c == index[ref.Target] && g.Cyclic(components[c])
	}
}

// aliasCycles reports components of nodes that are nothing but a $ref to
// another member of the same component.
func (r *Result) aliasCycles() {
	g := graph.New[Key]()
	for _, ref := range r.Refs {
		if !ref.Resolved || !isAlias(r.Table.entries[ref.From].Node) {
			continue
		}
		if target := r.Table.entries[ref.Target].Node; isAlias(target) {
			g.AddEdge(ref.From, ref.Target)
		}
	}
	for _, c := range g.Components() {
		if !g.Cyclic(c) {
			continue
		}
		sort.Slice(c, func(i, j int) bool { return r.Table.entries[c[i]].seq < r.Table.entries[c[j]].seq })
		r.Errors = append(r.Errors, &ResolveError{Kind: AliasCycle, Key: c[0], Keys: c, seq: r.Table.entries[c[0]].seq})
	}
}

// isAlias reports whether the node only names another node.
func isAlias(n *load.Node) bool {
	return n.Ref != "" && len(n.Properties) == 0 && !n.IsComposite() && n.Items == nil && len(n.Enum) == 0
}

// ParseRef parses a $ref found in document from into a Key. Relative paths
// resolve against the directory of from; a leading '/' is relative to the
// schema root; a missing path targets from itself and a missing fragment
// targets the document root.
func ParseRef(from load.DocumentID, raw string) (Key, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Key{}, fmt.Errorf("invalid $ref: %w", err)
	}
	if u.Scheme != "" || u.Host != "" {
		return Key{}, fmt.Errorf("absolute reference %q is not supported", raw)
	}
	docPath, fragment, _ := strings.Cut(raw, "#")
	ptr, err := ParsePointer(fragment)
	if err != nil {
		return Key{}, err
	}
	if docPath == "" {
		return Key{Doc: from, Pointer: ptr}, nil
	}
	docPath, err = url.PathUnescape(docPath)
	if err != nil {
		return Key{}, fmt.Errorf("invalid $ref path: %w", err)
	}
	if strings.HasPrefix(docPath, "/") {
		docPath = path.Clean(strings.TrimPrefix(docPath, "/"))
	} else {
		docPath = path.Join(from.Dir(), docPath)
	}
	if docPath == ".." || strings.HasPrefix(docPath, "../") {
		return Key{}, fmt.Errorf("reference %q leaves the schema root", raw)
	}
	return Key{Doc: load.DocumentID(docPath), Pointer: ptr}, nil
}
