// Package graph provides algorithms over graphs given by their edge relation,
// such as the block graph and the instruction graph of an IR function.
package graph

// Graph is a graph over nodes of type T. The edges of a node are computed on
// first use and cached.
type Graph[T comparable] struct {
	edgesOf func(T) []T
	edges   map[T][]T
}

// OfHashable creates the graph with the given edge relation.
func OfHashable[T comparable](edgesOf func(T) []T) Graph[T] {
	return Graph[T]{edgesOf, make(map[T][]T)}
}

// Edges returns the successors of node.
func (G Graph[T]) Edges(node T) []T {
	es, found := G.edges[node]
	if !found {
		es = G.edgesOf(node)
		G.edges[node] = es
	}
	return es
}
