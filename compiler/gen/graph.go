package gen

import (
	"fmt"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/syssam/cdmgen/compiler/load"
	"github.com/syssam/cdmgen/compiler/resolve"
	"github.com/syssam/cdmgen/graph"
)

// Graph is the named type table produced from a resolved document set.
type Graph struct {
	*Config
	// Nodes are the named types sorted by name.
	Nodes []*Type
	// Collisions lists the candidate names shared by more than one key.
	Collisions []*NameCollision
	// Warnings lists lossy conversions.
	Warnings []*Warning

	types map[string]*Type
	keys  map[resolve.Key]*Type
}

// NewGraph builds the type graph for res. The graph is a pure function of
// the resolved documents and the configured suffix.
func NewGraph(c *Config, res *resolve.Result) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	if res == nil || res.Table == nil {
		return nil, NewConfigError("Resolve", nil, "missing resolve result")
	}
	b := &builder{
		res:     res,
		named:   make(map[resolve.Key]bool),
		nodes:   make(map[string]*load.Node),
		types:   make(map[resolve.Key]*Type),
		done:    make(map[resolve.Key]bool),
		onStack: make(map[resolve.Key]bool),
	}
	var keys []resolve.Key
	for _, e := range res.Table.Entries() {
		if (e.Definition && e.Node.TypeLike()) || res.IsTarget(e.Key) {
			b.named[e.Key] = true
			keys = append(keys, e.Key)
		}
	}
	names, collisions := assignNames(keys, stemSuffix(c))
	g := &Graph{
		Config:     c,
		Collisions: collisions,
		types:      make(map[string]*Type, len(keys)),
		keys:       make(map[resolve.Key]*Type, len(keys)),
	}
	for _, k := range keys {
		t := &Type{Name: names[k], Key: k}
		b.types[k] = t
		b.nodes[t.Name], _ = res.Table.Lookup(k)
		g.types[t.Name] = t
		g.keys[k] = t
		g.Nodes = append(g.Nodes, t)
	}
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].Name < g.Nodes[j].Name })
	for _, t := range g.Nodes {
		b.build(t.Key)
	}
	g.Warnings = b.warnings
	for _, w := range g.Warnings {
		c.logger().Warn("lossy conversion", "name", w.Type, "document", w.Key.Doc, "pointer", w.Key.Pointer, "warning", w.Message)
	}
	for _, nc := range g.Collisions {
		c.logger().Debug("name collision", "candidate", nc.Candidate, "names", nc.Names)
	}
	c.logger().Info("built type graph", "types", len(g.Nodes), "collisions", len(g.Collisions), "warnings", len(g.Warnings))
	return g, nil
}

// Type returns the named type with the given name, or nil.
func (g *Graph) Type(name string) *Type {
	return g.types[name]
}

// TypeOf returns the named type built from k, or nil.
func (g *Graph) TypeOf(k resolve.Key) *Type {
	return g.keys[k]
}

// Order returns the named types grouped into strongly connected components
// of the reference graph, dependencies first. Members of a component are
// sorted by name.
func (g *Graph) Order() [][]*Type {
	dg := graph.New[string]()
	for _, t := range g.Nodes {
		dg.AddNode(t.Name)
	}
	for _, t := range g.Nodes {
		for _, d := range t.Deps() {
			if g.types[d] != nil {
				dg.AddEdge(t.Name, d)
			}
		}
	}
	var order [][]*Type
	for _, c := range dg.Components() {
		sort.Strings(c)
		group := make([]*Type, len(c))
		for i, name := range c {
			group[i] = g.types[name]
		}
		order = append(order, group)
	}
	return order
}

// Cyclic returns the names of the types that are part of a reference cycle,
// mapped to the index of their component in Order.
func (g *Graph) Cyclic() map[string]int {
	cyclic := make(map[string]int)
	for i, c := range g.Order() {
		switch {
		case len(c) > 1:
		case len(c) == 1 && containsString(c[0].Deps(), c[0].Name):
		default:
			continue
		}
		for _, t := range c {
			cyclic[t.Name] = i
		}
	}
	return cyclic
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// builder materializes named types depth first. A reference to a type
// that is still being built becomes a back reference.
type builder struct {
	res      *resolve.Result
	named    map[resolve.Key]bool
	nodes    map[string]*load.Node
	types    map[resolve.Key]*Type
	done     map[resolve.Key]bool
	onStack  map[resolve.Key]bool
	stack    []string
	warnings []*Warning
}

func (b *builder) build(k resolve.Key) {
	if b.done[k] {
		return
	}
	b.done[k] = true
	b.onStack[k] = true
	t := b.types[k]
	b.stack = append(b.stack, t.Name)
	n, _ := b.res.Table.Lookup(k)
	shaped := b.shape(n, k)
	shaped.Name, shaped.Key = t.Name, k
	*t = *shaped
	b.stack = b.stack[:len(b.stack)-1]
	b.onStack[k] = false
}

// link returns a reference to the named type at k.
func (b *builder) link(k resolve.Key) *TypeRef {
	t := b.types[k]
	if b.onStack[k] {
		return &TypeRef{Name: t.Name, Back: true}
	}
	b.build(k)
	return &TypeRef{Name: t.Name, Type: t}
}

// ref converts the node at k as seen from its parent.
func (b *builder) ref(n *load.Node, k resolve.Key) *TypeRef {
	switch {
	case b.named[k]:
		return b.link(k)
	case n.Ref != "":
		return b.follow(n, k)
	}
	return &TypeRef{Type: b.shape(n, k)}
}

// follow returns the target of the $ref carried by the node at k.
func (b *builder) follow(n *load.Node, k resolve.Key) *TypeRef {
	r := b.res.Ref(k)
	if r == nil || !r.Resolved {
		return &TypeRef{Type: &Type{Kind: KindUnknown, Key: k, Ref: n.Ref, Description: "unresolved reference " + n.Ref}}
	}
	return b.link(r.Target)
}

// shape converts a node into a type. Inline $ref nodes never reach shape;
// ref follows them directly.
func (b *builder) shape(n *load.Node, k resolve.Key) *Type {
	t := &Type{Key: k, Description: describe(n)}
	switch {
	case n.Ref != "":
		target := b.follow(n, k)
		if !target.IsNamed() {
			return target.Type
		}
		b.alias(t, target, n.Ref)
	case n.Bool != nil:
		t.Kind = KindPrimitive
	case len(n.Enum) > 0:
		b.enum(t, n)
	case n.IsComposite():
		b.composite(t, n, k)
	case len(n.Types) > 1:
		b.typeUnion(t, n, k)
	default:
		b.single(t, n, k, typeOf(n))
	}
	return t
}

// alias makes t an alias of target. An alias whose target is still being
// built and is itself an alias closes an alias cycle, which the resolver
// reports; it degrades to an unknown type.
func (b *builder) alias(t *Type, target *TypeRef, raw string) {
	if target.Back && aliasNode(b.nodes[target.Name]) {
		t.Kind, t.Ref = KindUnknown, raw
		return
	}
	t.Kind, t.Target = KindAlias, target
}

// aliasNode reports whether n only names another node.
func aliasNode(n *load.Node) bool {
	switch {
	case n == nil, len(n.Properties) > 0, len(n.Enum) > 0:
		return false
	case n.Ref != "":
		return !n.IsComposite()
	case len(n.AllOf) == 1 && len(n.AnyOf)+len(n.OneOf) == 0:
		return aliasNode(n.AllOf[0])
	}
	return false
}

// typeOf returns the single declared type of n, or infers one.
func typeOf(n *load.Node) string {
	if len(n.Types) == 1 {
		return n.Types[0]
	}
	switch {
	case len(n.Properties) > 0, n.AdditionalProperties != nil:
		return "object"
	case n.Items != nil, len(n.TupleItems) > 0:
		return "array"
	}
	return ""
}

func (b *builder) single(t *Type, n *load.Node, k resolve.Key, typ string) {
	switch typ {
	case "object":
		if len(n.Properties) == 0 && n.AdditionalProperties != nil {
			t.Kind = KindMap
			t.Elem = b.ref(n.AdditionalProperties, child(k, "additionalProperties"))
			return
		}
		if len(n.Properties) == 0 {
			t.Kind, t.Primitive = KindPrimitive, PrimitiveObject
			return
		}
		t.Kind = KindRecord
		t.Fields = b.fields(n, k)
	case "array":
		t.Kind = KindArray
		if n.Items != nil {
			t.Elem = b.ref(n.Items, child(k, "items"))
		} else {
			t.Elem = &TypeRef{Type: &Type{Kind: KindPrimitive, Key: k}}
		}
	default:
		t.Kind = KindPrimitive
		t.Primitive = primitiveOf(typ)
		t.Format = n.Format
	}
}

func primitiveOf(typ string) Primitive {
	switch typ {
	case "string":
		return PrimitiveString
	case "integer":
		return PrimitiveInteger
	case "number":
		return PrimitiveNumber
	case "boolean":
		return PrimitiveBoolean
	case "null":
		return PrimitiveNull
	case "object":
		return PrimitiveObject
	}
	return PrimitiveAny
}

func (b *builder) fields(n *load.Node, k resolve.Key) []*Field {
	fields := make([]*Field, 0, len(n.Properties))
	seen := make(map[string]bool, len(n.Properties))
	for _, p := range n.Properties {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		fields = append(fields, &Field{
			Name:        p.Name,
			Type:        b.ref(p.Schema, child(k, "properties", p.Name)),
			Required:    n.IsRequired(p.Name),
			Description: describe(p.Schema),
		})
	}
	return fields
}

func (b *builder) enum(t *Type, n *load.Node) {
	t.Kind = KindEnum
	seen := make(map[string]bool, len(n.Enum))
	kind, first := PrimitiveAny, true
	for _, v := range n.Enum {
		if v == nil {
			t.Nullable = true
			continue
		}
		key := enumKey(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		t.Values = append(t.Values, v)
		p := literalKind(v)
		switch {
		case first:
			kind, first = p, false
		case kind == p:
		case kind == PrimitiveInteger && p == PrimitiveNumber, kind == PrimitiveNumber && p == PrimitiveInteger:
			kind = PrimitiveNumber
		default:
			kind = PrimitiveAny
		}
	}
	t.Primitive = kind
}

// enumKey identifies an enum literal for deduplication. Arrays and objects
// are not comparable and compare by their JSON encoding.
func enumKey(v any) string {
	switch v.(type) {
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%T:%v", v, v)
		}
		return "json:" + string(b)
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func literalKind(v any) Primitive {
	switch v.(type) {
	case string:
		return PrimitiveString
	case int64:
		return PrimitiveInteger
	case float64:
		return PrimitiveNumber
	case bool:
		return PrimitiveBoolean
	}
	return PrimitiveAny
}

// typeUnion converts a "type" array. A single type plus "null" is that type
// marked nullable.
func (b *builder) typeUnion(t *Type, n *load.Node, k resolve.Key) {
	var types []string
	for _, typ := range n.Types {
		if typ == "null" {
			t.Nullable = true
			continue
		}
		types = append(types, typ)
	}
	switch len(types) {
	case 0:
		t.Kind, t.Primitive = KindPrimitive, PrimitiveNull
		return
	case 1:
		b.single(t, n, k, types[0])
		return
	}
	t.Kind, t.Composite = KindUnion, "type"
	for _, typ := range types {
		bt := &Type{Key: k}
		b.single(bt, n, k, typ)
		t.Branches = append(t.Branches, &TypeRef{Type: bt})
	}
}

func (b *builder) composite(t *Type, n *load.Node, k resolve.Key) {
	var (
		branches []*TypeRef
		keyword  string
	)
	for _, c := range []struct {
		keyword string
		nodes   []*load.Node
	}{{"allOf", n.AllOf}, {"anyOf", n.AnyOf}, {"oneOf", n.OneOf}} {
		for i, bn := range c.nodes {
			if keyword == "" {
				keyword = c.keyword
			}
			branches = append(branches, b.ref(bn, child(k, c.keyword, strconv.Itoa(i))))
		}
	}
	var own []*Field
	if len(n.Properties) > 0 {
		own = b.fields(n, k)
	}
	onlyAllOf := len(n.AnyOf)+len(n.OneOf) == 0
	if onlyAllOf && len(branches) == 1 && own == nil {
		r := branches[0]
		if r.IsNamed() {
			b.alias(t, r, "")
			return
		}
		inner := *r.Type
		inner.Key, inner.Description = k, firstNonEmpty(t.Description, inner.Description)
		*t = inner
		return
	}
	if onlyAllOf {
		fields, err := mergeRecords(branches, own)
		if err == nil {
			t.Kind, t.Fields = KindRecord, fields
			return
		}
		b.warnings = append(b.warnings, &Warning{
			Kind:    UnmergeableAllOf,
			Key:     k,
			Type:    b.current(),
			Message: err.Error(),
		})
	}
	if own != nil {
		branches = append(branches, &TypeRef{Type: &Type{Kind: KindRecord, Key: k, Fields: own}})
	}
	t.Kind, t.Composite, t.Branches = KindUnion, keyword, branches
}

// mergeRecords merges fully built record branches. Fields keep branch
// order; a field required by any branch is required.
func mergeRecords(branches []*TypeRef, own []*Field) ([]*Field, error) {
	var (
		fields []*Field
		index  = make(map[string]*Field)
	)
	add := func(fs []*Field) error {
		for _, f := range fs {
			prev, ok := index[f.Name]
			if !ok {
				nf := *f
				index[f.Name] = &nf
				fields = append(fields, &nf)
				continue
			}
			if !sameRef(prev.Type, f.Type) {
				return fmt.Errorf("conflicting definitions of field %q", f.Name)
			}
			prev.Required = prev.Required || f.Required
		}
		return nil
	}
	for i, r := range branches {
		rt := recordOf(r)
		if rt == nil {
			return nil, fmt.Errorf("branch %d is not a fully built record", i)
		}
		if err := add(rt.Fields); err != nil {
			return nil, err
		}
	}
	if err := add(own); err != nil {
		return nil, err
	}
	return fields, nil
}

// recordOf follows owning aliases to a record, or returns nil.
func recordOf(r *TypeRef) *Type {
	for i := 0; r != nil && i < 64; i++ {
		if r.Back || r.Type == nil {
			return nil
		}
		switch r.Type.Kind {
		case KindRecord:
			return r.Type
		case KindAlias:
			r = r.Type.Target
		default:
			return nil
		}
	}
	return nil
}

func (b *builder) current() string {
	if len(b.stack) == 0 {
		return ""
	}
	return b.stack[len(b.stack)-1]
}

func child(k resolve.Key, tokens ...string) resolve.Key {
	return resolve.Key{Doc: k.Doc, Pointer: k.Pointer.Child(tokens...)}
}

func describe(n *load.Node) string {
	return firstNonEmpty(n.Description, n.Title)
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
