package graph

import (
	"testing"

	"github.com/cs-au-dk/divzero/utils/dot"
)

var edges = map[int][]int{
	0:  {1, 8},
	1:  {4, 5, 2},
	2:  {6, 3, 9},
	3:  {2, 7},
	4:  {0, 5},
	5:  {6},
	6:  {5},
	7:  {3, 6},
	8:  {},
	9:  {10, 11},
	10: {12, 13},
	11: {12, 13},
	12: {},
	13: {},
}
var _sampleGraph = OfHashable(func(i int) []int {
	return edges[i]
})

func TestEdgesAreCached(t *testing.T) {
	calls := 0
	G := OfHashable(func(i int) []int {
		calls++
		return edges[i]
	})
	for i := 0; i < 3; i++ {
		if es := G.Edges(1); len(es) != 3 {
			t.Fatalf("Expected 3 edges, got %v", es)
		}
	}
	if calls != 1 {
		t.Errorf("Expected the edge function to be called once, was called %d times", calls)
	}
}

func TestToDotGraph(t *testing.T) {
	// The subgraph induced by the nodes of the cycles 2 -> 3 -> 2 and 5 <-> 6.
	dg := _sampleGraph.ToDotGraph([]int{2, 3, 5, 6}, &VisualizationConfig[int]{
		NodeAttrs: func(i int) (string, dot.DotAttrs) {
			return "n" + string(rune('0'+i)), nil
		},
		ClusterKey: func(i int) any { return i < 4 },
	})

	if len(dg.Clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d", len(dg.Clusters))
	}
	if n := dg.NodeCount(); n != 4 {
		t.Errorf("Expected 4 nodes, got %d", n)
	}

	var rendered []string
	for _, e := range dg.Edges {
		rendered = append(rendered, e.From.ID+"->"+e.To.ID)
	}
	expected := []string{"n2->n6", "n2->n3", "n3->n2", "n5->n6", "n6->n5"}
	if len(rendered) != len(expected) {
		t.Fatalf("Expected edges %v, got %v", expected, rendered)
	}
	for i := range expected {
		if rendered[i] != expected[i] {
			t.Errorf("Expected edges %v, got %v", expected, rendered)
			break
		}
	}
}
