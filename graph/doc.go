// Package graph provides the ordering primitives used by cdmgen code generation.
//
// The generator works on two directed graphs: the definition-level reference
// graph built by the resolver (one node per schema definition, one edge per
// $ref) and the dependency graph between named types built by the emitter.
// Both need the same two answers:
//
//   - which nodes take part in a cycle (self or mutual recursion), and
//   - an order in which every node comes after the nodes it depends on.
//
// # Graph Structure
//
// Graph is generic over a comparable key. Nodes and edges are kept in
// insertion order so that every traversal is reproducible:
//
//	g := graph.New[string]()
//	g.AddEdge("Account", "Contact")
//	g.AddEdge("Contact", "Account")
//	g.AddNode("Address")
//
// # Components
//
// Components returns the strongly connected components in dependency-first
// order (Tarjan). A component with more than one member, or a single member
// with a self edge, is a cycle:
//
//	for _, c := range g.Components() {
//	    if g.Cyclic(c) {
//	        // emit members together
//	    }
//	}
//
// # Usage in Code Generation
//
//	import (
//	    "github.com/syssam/cdmgen/graph"
//	    "github.com/syssam/cdmgen/compiler/gen"
//	)
//
//	for _, group := range typeGraph.Order() { // built on graph.Components
//	    // group holds *gen.Type values emitted together
//	}
package graph
