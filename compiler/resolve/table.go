package resolve

import (
	"strconv"

	"github.com/syssam/cdmgen/compiler/load"
)

// Entry is one indexed schema node.
type Entry struct {
	Key  Key
	Node *load.Node
	// Parent is the key of the enclosing node. It equals Key for document roots.
	Parent Key
	// Definition is set for document roots, for members of "definitions"
	// or "$defs" at any depth, and for non-keyword members of a root.
	Definition bool
	// Name is the member name the node was declared under, if any.
	Name string

	seq int
}

// SymbolTable maps every schema node reachable from a document to its Key.
// It is built once per run and read-only afterwards.
type SymbolTable struct {
	entries map[Key]*Entry
	nodes   map[*load.Node]Key
	docs    map[load.DocumentID]*load.Document
	order   []*Entry
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{
		entries: make(map[Key]*Entry),
		nodes:   make(map[*load.Node]Key),
		docs:    make(map[load.DocumentID]*load.Document),
	}
}

// Lookup returns the node registered under k.
func (t *SymbolTable) Lookup(k Key) (*load.Node, bool) {
	e, ok := t.entries[k]
	if !ok {
		return nil, false
	}
	return e.Node, true
}

// Entry returns the entry registered under k, or nil.
func (t *SymbolTable) Entry(k Key) *Entry {
	return t.entries[k]
}

// KeyOf returns the key a node was registered under. Nodes inside a
// discarded duplicate are not registered.
func (t *SymbolTable) KeyOf(n *load.Node) (Key, bool) {
	k, ok := t.nodes[n]
	return k, ok
}

// Document returns the indexed document with the given id, or nil.
func (t *SymbolTable) Document(id load.DocumentID) *load.Document {
	return t.docs[id]
}

// Entries returns all entries in document order, then pre-order.
func (t *SymbolTable) Entries() []*Entry {
	return t.order
}

// Definitions returns the definition entries in document order.
func (t *SymbolTable) Definitions() []*Entry {
	var defs []*Entry
	for _, e := range t.order {
		if e.Definition {
			defs = append(defs, e)
		}
	}
	return defs
}

// Len returns the number of indexed nodes.
func (t *SymbolTable) Len() int { return len(t.order) }

// indexer registers the nodes of one document.
type indexer struct {
	table *SymbolTable
	doc   load.DocumentID
	seq   *int
	errs  []*ResolveError
}

func (ix *indexer) walk(n *load.Node, ptr Pointer, parent Key, name string, definition bool) {
	*ix.seq++
	key := Key{Doc: ix.doc, Pointer: ptr}
	if _, dup := ix.table.entries[key]; dup {
		ix.errs = append(ix.errs, &ResolveError{Kind: DuplicateDefinition, Key: key, seq: *ix.seq})
		return
	}
	if ptr.IsRoot() {
		parent = key
	}
	e := &Entry{Key: key, Node: n, Parent: parent, Definition: definition, Name: name, seq: *ix.seq}
	ix.table.entries[key] = e
	ix.table.nodes[n] = key
	ix.table.order = append(ix.table.order, e)

	for _, p := range n.Definitions {
		ix.walk(p.Schema, ptr.Child(p.Keyword, p.Name), key, p.Name, true)
	}
	for _, p := range n.Properties {
		ix.walk(p.Schema, ptr.Child(p.Keyword, p.Name), key, p.Name, false)
	}
	if n.Items != nil {
		ix.walk(n.Items, ptr.Child("items"), key, "", false)
	}
	for i, it := range n.TupleItems {
		ix.walk(it, ptr.Child("items", strconv.Itoa(i)), key, "", false)
	}
	ix.branches("allOf", n.AllOf, ptr, key)
	ix.branches("anyOf", n.AnyOf, ptr, key)
	ix.branches("oneOf", n.OneOf, ptr, key)
	if n.AdditionalProperties != nil {
		ix.walk(n.AdditionalProperties, ptr.Child("additionalProperties"), key, "", false)
	}
	// Non-keyword members of the root are definitions without a wrapper.
	for _, p := range n.Members {
		ix.walk(p.Schema, ptr.Child(p.Name), key, p.Name, ptr.IsRoot() && !load.IsKeyword(p.Name))
	}
}

func (ix *indexer) branches(keyword string, nodes []*load.Node, ptr Pointer, parent Key) {
	for i, b := range nodes {
		ix.walk(b, ptr.Child(keyword, strconv.Itoa(i)), parent, "", false)
	}
}
