package absint

import (
	"fmt"
	"strconv"

	"github.com/cs-au-dk/divzero/utils/dot"
	"github.com/cs-au-dk/divzero/utils/graph"
)

// DotGraph renders the instruction-level control flow graph of the analysed
// function. Instructions are clustered by block and annotated with the memory
// after them. Divisions with findings are highlighted.
func (r *Result) DotGraph() *dot.DotGraph {
	fn := r.fn
	instrs := fn.Instrs()
	flagged := map[int]bool{}
	for _, f := range r.findings {
		flagged[f.Instr.ID()] = true
	}

	// Nodes are instruction IDs.
	G := graph.OfHashable(func(id int) (succs []int) {
		for _, succ := range fn.Succs(instrs[id]) {
			succs = append(succs, succ.ID())
		}
		return
	})

	nodes := make([]int, len(instrs))
	for i := range nodes {
		nodes[i] = i
	}

	dg := G.ToDotGraph(nodes, &graph.VisualizationConfig[int]{
		NodeAttrs: func(id int) (string, dot.DotAttrs) {
			instr := instrs[id]
			attrs := dot.DotAttrs{
				"label": fmt.Sprintf("%s\n%s", instr, r.Out(instr).Inline()),
				"shape": "box",
			}
			if flagged[id] {
				attrs["fillcolor"] = "#ffb3b3"
			}
			return strconv.Itoa(id), attrs
		},
		ClusterKey: func(id int) any {
			return instrs[id].Block().Index
		},
		ClusterAttrs: func(key any) (string, dot.DotAttrs) {
			blk := fn.Blocks[key.(int)]
			return "b" + strconv.Itoa(blk.Index), dot.DotAttrs{
				"label":   blk.String(),
				"bgcolor": "#e6ffff",
			}
		},
	})
	dg.Title = fn.Name
	return dg
}
