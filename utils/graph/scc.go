package graph

// SCC is the index of a strongly connected component.
type SCC = int

// SCCDecomposition is the condensation of a graph into its strongly
// connected components. Edges from component i only lead to components
// j <= i, so the components are in reverse topological order.
type SCCDecomposition[T comparable] struct {
	Components [][]T
	comp       map[T]SCC
}

// ComponentOf returns the component of node, or -1 if node was not reached.
func (scc SCCDecomposition[T]) ComponentOf(node T) SCC {
	if c, found := scc.comp[node]; found {
		return c
	}
	return -1
}

// SCC decomposes the subgraph reachable from starts with Tarjan's algorithm.
func (G Graph[T]) SCC(starts []T) SCCDecomposition[T] {
	res := SCCDecomposition[T]{comp: make(map[T]SCC)}
	// Discovery time, lowered to the lowest time reachable on the stack.
	low := make(map[T]int)
	var stack []T
	time := 0

	var visit func(T)
	visit = func(node T) {
		time++
		low[node] = time
		root := time
		height := len(stack)
		stack = append(stack, node)

		for _, succ := range G.Edges(node) {
			if _, done := res.comp[succ]; done {
				continue
			}
			if _, seen := low[succ]; !seen {
				visit(succ)
			}
			if low[succ] < low[node] {
				low[node] = low[succ]
			}
		}

		if low[node] != root {
			return
		}
		component := append([]T(nil), stack[height:]...)
		stack = stack[:height]
		for _, n := range component {
			res.comp[n] = len(res.Components)
		}
		res.Components = append(res.Components, component)
	}

	for _, node := range starts {
		if _, done := res.comp[node]; !done {
			visit(node)
		}
	}
	return res
}
