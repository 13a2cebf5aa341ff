package ir

import (
	"go/token"
	"strconv"

	"github.com/cs-au-dk/divzero/utils/graph"
)

// Block is a basic block. Preds and Succs are ordered; the edges of a Phi
// follow the order of Preds.
type Block struct {
	Index   int
	Comment string
	Instrs  []Instruction
	Preds   []*Block
	Succs   []*Block

	parent *Function
}

func (b *Block) Parent() *Function { return b.parent }

func (b *Block) String() string {
	if b.Comment != "" {
		return "b" + strconv.Itoa(b.Index) + " (" + b.Comment + ")"
	}
	return "b" + strconv.Itoa(b.Index)
}

// Function is the unit of analysis: a single procedure with its blocks,
// parameters and the instruction-level control flow graph derived from them.
type Function struct {
	Name     string
	Params   []*Var
	FreeVars []*Var
	Blocks   []*Block
	// Fset resolves instruction positions. It may be nil for hand-built functions.
	Fset *token.FileSet

	vars   []*Var
	instrs []Instruction
	preds  [][]Instruction
	succs  [][]Instruction
	prios  []int
}

// Instrs lists all instructions in block order. Instruction IDs index into it.
func (f *Function) Instrs() []Instruction { return f.instrs }

// Vars lists all variables of the function, ordered by ID.
func (f *Function) Vars() []*Var { return f.vars }

// Entry is the first instruction executed, or nil for an empty function.
func (f *Function) Entry() Instruction {
	if len(f.Blocks) == 0 {
		return nil
	}
	if entries := f.firstInstrs(f.Blocks[0], map[*Block]bool{}); len(entries) > 0 {
		return entries[0]
	}
	return nil
}

// Preds returns the instruction-level predecessors of i: the previous
// instruction in the block, or the last instructions of the predecessor blocks.
// Empty blocks are skipped.
func (f *Function) Preds(i Instruction) []Instruction { return f.preds[i.ID()] }

// Succs is the dual of Preds.
func (f *Function) Succs(i Instruction) []Instruction { return f.succs[i.ID()] }

// Position resolves the source position of an instruction.
func (f *Function) Position(i Instruction) token.Position {
	if f.Fset == nil || !i.Pos().IsValid() {
		return token.Position{}
	}
	return f.Fset.Position(i.Pos())
}

// Priority orders instructions for worklist processing. Blocks are ordered by
// a topological order of the strongly connected components of the block graph,
// and instructions by their index within a block.
func (f *Function) Priority(i Instruction) (block, index int) {
	return f.prios[i.Block().Index], i.Index()
}

// Locations returns the memory locations of the function, i.e. allocated
// pointers and the addresses of loads and stores, ordered by ID.
func (f *Function) Locations() []*Var {
	seen := make(map[*Var]bool)
	for _, instr := range f.instrs {
		switch instr := instr.(type) {
		case *Alloc:
			seen[instr.Dest] = true
		case *Store:
			seen[instr.Addr] = true
		case *Load:
			seen[instr.Addr] = true
		}
	}

	var locs []*Var
	for _, v := range f.vars {
		if seen[v] {
			locs = append(locs, v)
		}
	}
	return locs
}

// PointerSet returns the locations holding tracked values. These are the
// candidates consulted when a store may write through an alias.
func (f *Function) PointerSet() []*Var {
	var res []*Var
	for _, v := range f.Locations() {
		if v.Type().PointsToTracked() {
			res = append(res, v)
		}
	}
	return res
}

// firstInstrs finds the first instructions reached when entering the block,
// skipping over empty blocks.
func (f *Function) firstInstrs(b *Block, visited map[*Block]bool) (res []Instruction) {
	if visited[b] {
		return nil
	}
	visited[b] = true
	if len(b.Instrs) > 0 {
		return []Instruction{b.Instrs[0]}
	}
	for _, s := range b.Succs {
		res = append(res, f.firstInstrs(s, visited)...)
	}
	return
}

// link numbers instructions and computes the instruction-level control flow
// graph and block priorities.
func (f *Function) link() {
	f.instrs = nil
	for _, b := range f.Blocks {
		b.parent = f
		for idx, instr := range b.Instrs {
			base := instr.base()
			base.block = b
			base.index = idx
			base.id = len(f.instrs)
			f.instrs = append(f.instrs, instr)
		}
	}

	f.preds = make([][]Instruction, len(f.instrs))
	f.succs = make([][]Instruction, len(f.instrs))
	for _, b := range f.Blocks {
		for idx, instr := range b.Instrs {
			var succs []Instruction
			if idx+1 < len(b.Instrs) {
				succs = []Instruction{b.Instrs[idx+1]}
			} else {
				visited := map[*Block]bool{}
				for _, s := range b.Succs {
					succs = append(succs, f.firstInstrs(s, visited)...)
				}
			}

			f.succs[instr.ID()] = succs
			for _, s := range succs {
				f.preds[s.ID()] = append(f.preds[s.ID()], instr)
			}
		}
	}

	f.prios = blockPriorities(f)
}

// blockPriorities assigns priorities to blocks in topological order of the
// SCC decomposition of the block graph. Blocks in a loop are ordered by index.
func blockPriorities(f *Function) []int {
	prios := make([]int, len(f.Blocks))
	if len(f.Blocks) == 0 {
		return prios
	}

	bbGraph := graph.OfHashable(func(b int) (succs []int) {
		for _, s := range f.Blocks[b].Succs {
			succs = append(succs, s.Index)
		}
		return
	})

	starts := make([]int, len(f.Blocks))
	for i := range starts {
		starts[i] = i
	}
	bbSCC := bbGraph.SCC(starts)

	time := 0
	// Components are ordered in reverse topological order.
	for compIdx := len(bbSCC.Components) - 1; compIdx >= 0; compIdx-- {
		inComponent := map[int]bool{}
		for _, bIdx := range bbSCC.Components[compIdx] {
			inComponent[bIdx] = true
		}
		for _, b := range f.Blocks {
			if inComponent[b.Index] {
				prios[b.Index] = time
				time++
			}
		}
	}

	return prios
}
