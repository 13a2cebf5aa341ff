package oracle

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/cs-au-dk/divzero/analysis/ir"
	"github.com/cs-au-dk/divzero/utils"
)

var opts = utils.Opts()

// ValueMap resolves IR variables to the SSA values they were lowered from.
type ValueMap interface {
	Value(v *ir.Var) (ssa.Value, bool)
}

// PointsTo is the result of a whole-program inclusion based (Andersen style)
// points-to analysis, computed once and shared by the oracles of all functions.
type PointsTo struct {
	Prog    *ssa.Program
	Queries map[ssa.Value]pointer.Pointer
}

// Analyze runs go/pointer on the program rooted in mains, with a query for
// every pointer valued parameter, free variable and instruction.
func Analyze(prog *ssa.Program, mains []*ssa.Package) (*PointsTo, error) {
	if len(mains) == 0 {
		return nil, ErrNoMain
	}

	config := &pointer.Config{
		Mains:          mains,
		BuildCallGraph: false,
	}

	maybeAdd := func(v ssa.Value) {
		if isPointerType(v) {
			config.AddQuery(v)
		}
	}

	for fun := range ssautil.AllFunctions(prog) {
		for _, param := range fun.Params {
			maybeAdd(param)
		}
		for _, fv := range fun.FreeVars {
			maybeAdd(fv)
		}

		for _, block := range fun.Blocks {
			for _, insn := range block.Instrs {
				if v, ok := insn.(ssa.Value); ok {
					maybeAdd(v)
				}
			}
		}
	}

	result, err := pointer.Analyze(config)
	if err != nil {
		return nil, fmt.Errorf("pointer analysis: %w", err)
	}

	opts.OnVerbose(func() {
		for _, warning := range result.Warnings {
			fmt.Println(prog.Fset.Position(warning.Pos), warning.Message)
		}
	})

	return &PointsTo{prog, result.Queries}, nil
}

func isPointerType(v ssa.Value) bool {
	_, isPtr := v.Type().Underlying().(*types.Pointer)
	return isPtr && pointer.CanPoint(v.Type())
}

// For creates the oracle of a single lowered function.
func (pt *PointsTo) For(values ValueMap) Andersen {
	return Andersen{pt, values}
}

// Labels is the set of allocation sites v may point to.
func (pt *PointsTo) Labels(v ssa.Value) utils.SSAValueSet {
	set := utils.MakeSSASet()
	if ptr, found := pt.Queries[v]; found {
		for _, l := range ptr.PointsTo().Labels() {
			if site := l.Value(); site != nil {
				set = set.Add(site)
			}
		}
	}
	return set
}

// Andersen answers alias queries with the points-to sets of a PointsTo.
// Two locations may alias if their points-to sets overlap. Locations without
// a points-to set fall back to Conservative.
type Andersen struct {
	pt     *PointsTo
	values ValueMap
}

func (a Andersen) Alias(x, y *ir.Var) bool {
	if x == y {
		return true
	}

	px, okX := a.pointer(x)
	py, okY := a.pointer(y)
	if !okX || !okY {
		return Conservative{}.Alias(x, y)
	}
	return px.MayAlias(py)
}

func (a Andersen) pointer(v *ir.Var) (pointer.Pointer, bool) {
	sv, found := a.values.Value(v)
	if !found {
		return pointer.Pointer{}, false
	}
	ptr, found := a.pt.Queries[sv]
	return ptr, found
}
