package graph

import (
	"fmt"

	"github.com/cs-au-dk/divzero/utils"
	"github.com/cs-au-dk/divzero/utils/dot"
)

var opts = utils.Opts()

// VisualizationConfig customizes the rendering of a graph.
type VisualizationConfig[T any] struct {
	// NodeAttrs provides the ID and attributes of the DOT node of a node.
	// By default the ID is the formatted node.
	NodeAttrs func(node T) (string, dot.DotAttrs)
	// ClusterKey groups the nodes with equal keys in one cluster. Keys must
	// be comparable.
	ClusterKey func(node T) any
	// ClusterAttrs provides the ID and attributes of the cluster of a key.
	ClusterAttrs func(key any) (string, dot.DotAttrs)
}

// ToDotGraph renders the subgraph induced by nodes. Nodes are emitted in the
// given order; edges leaving the node set are omitted.
func (G Graph[T]) ToDotGraph(nodes []T, cfg *VisualizationConfig[T]) *dot.DotGraph {
	if cfg == nil {
		cfg = &VisualizationConfig[T]{}
	}

	dg := &dot.DotGraph{
		Options: map[string]string{
			"minlen":  fmt.Sprint(opts.Minlen()),
			"nodesep": fmt.Sprint(opts.Nodesep()),
			"rankdir": "TB",
		},
	}

	clusters := make(map[any]*dot.DotCluster)
	clusterOf := func(key any) *dot.DotCluster {
		if cl, found := clusters[key]; found {
			return cl
		}
		id, attrs := fmt.Sprint(key), dot.DotAttrs(nil)
		if cfg.ClusterAttrs != nil {
			id, attrs = cfg.ClusterAttrs(key)
		}
		cl := dot.NewDotCluster(id)
		cl.Attrs = attrs
		clusters[key] = cl
		dg.Clusters = append(dg.Clusters, cl)
		return cl
	}

	dnodes := make(map[T]*dot.DotNode, len(nodes))
	for _, node := range nodes {
		dn := &dot.DotNode{ID: fmt.Sprint(node)}
		if cfg.NodeAttrs != nil {
			dn.ID, dn.Attrs = cfg.NodeAttrs(node)
		}
		dnodes[node] = dn

		if cfg.ClusterKey == nil {
			dg.Nodes = append(dg.Nodes, dn)
		} else {
			cl := clusterOf(cfg.ClusterKey(node))
			cl.Nodes = append(cl.Nodes, dn)
		}
	}

	for _, node := range nodes {
		for _, succ := range G.Edges(node) {
			if to, found := dnodes[succ]; found {
				dg.Edges = append(dg.Edges, &dot.DotEdge{From: dnodes[node], To: to})
			}
		}
	}
	return dg
}
