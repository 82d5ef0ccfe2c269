package graph

// Graph is a directed graph with deterministic iteration order.
type Graph[K comparable] struct {
	nodes []K
	index map[K]int
	edges map[K][]K
	seen  map[[2]K]struct{}
}

// New returns an empty graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		index: make(map[K]int),
		edges: make(map[K][]K),
		seen:  make(map[[2]K]struct{}),
	}
}

// AddNode adds k to the graph. Adding an existing node is a no-op.
func (g *Graph[K]) AddNode(k K) {
	if _, ok := g.index[k]; ok {
		return
	}
	g.index[k] = len(g.nodes)
	g.nodes = append(g.nodes, k)
}

// AddEdge adds a directed edge and both of its endpoints.
// Duplicate edges are ignored.
func (g *Graph[K]) AddEdge(from, to K) {
	g.AddNode(from)
	g.AddNode(to)
	e := [2]K{from, to}
	if _, ok := g.seen[e]; ok {
		return
	}
	g.seen[e] = struct{}{}
	g.edges[from] = append(g.edges[from], to)
}

// Has reports whether k is a node of the graph.
func (g *Graph[K]) Has(k K) bool {
	_, ok := g.index[k]
	return ok
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph[K]) HasEdge(from, to K) bool {
	_, ok := g.seen[[2]K{from, to}]
	return ok
}

// Nodes returns the nodes in insertion order.
func (g *Graph[K]) Nodes() []K {
	return append([]K(nil), g.nodes...)
}

// Edges returns the successors of k in insertion order.
func (g *Graph[K]) Edges(k K) []K {
	return append([]K(nil), g.edges[k]...)
}

// Len returns the number of nodes.
func (g *Graph[K]) Len() int { return len(g.nodes) }

// Cyclic reports whether the component forms a cycle: more than one
// member, or a single member with an edge to itself.
func (g *Graph[K]) Cyclic(component []K) bool {
	switch len(component) {
	case 0:
		return false
	case 1:
		return g.HasEdge(component[0], component[0])
	default:
		return true
	}
}

// Components returns the strongly connected components of the graph.
// Components are listed dependency-first: a component appears after every
// component it has an edge into. Within a component, members are listed in
// the order they were added to the graph.
func (g *Graph[K]) Components() [][]K {
	var (
		counter int
		stack   []K
		out     [][]K
		index   = make(map[K]int, len(g.nodes))
		low     = make(map[K]int, len(g.nodes))
		onStack = make(map[K]bool, len(g.nodes))
	)
	var visit func(k K)
	visit = func(k K) {
		index[k] = counter
		low[k] = counter
		counter++
		stack = append(stack, k)
		onStack[k] = true
		for _, next := range g.edges[k] {
			if _, ok := index[next]; !ok {
				visit(next)
				low[k] = min(low[k], low[next])
			} else if onStack[next] {
				low[k] = min(low[k], index[next])
			}
		}
		if low[k] != index[k] {
			return
		}
		var comp []K
		for {
			n := len(stack) - 1
			top := stack[n]
			stack = stack[:n]
			onStack[top] = false
			comp = append(comp, top)
			if top == k {
				break
			}
		}
		// Restore insertion order inside the component.
		sortByIndex(comp, g.index)
		out = append(out, comp)
	}
	for _, k := range g.nodes {
		if _, ok := index[k]; !ok {
			visit(k)
		}
	}
	return out
}

// ComponentOf maps every node to the position of its component in the
// slice returned by Components.
func ComponentOf[K comparable](components [][]K) map[K]int {
	m := make(map[K]int)
	for i, c := range components {
		for _, k := range c {
			m[k] = i
		}
	}
	return m
}

func sortByIndex[K comparable](s []K, index map[K]int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && index[s[j]] < index[s[j-1]]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
