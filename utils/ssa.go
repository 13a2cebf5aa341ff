package utils

import (
	"fmt"
	"go/token"
	"io"

	"golang.org/x/tools/go/ssa"
)

// Returns the first instruction in block-instruction order that matches the predicate.
func FindSSAInstruction(fun *ssa.Function, pred func(ssa.Instruction) bool) (ssa.Instruction, bool) {
	for _, block := range fun.Blocks {
		for _, insn := range block.Instrs {
			if pred(insn) {
				return insn, true
			}
		}
	}
	return nil, false
}

// PrintSSAFunWithPos prints the instructions of fun with their positions.
func PrintSSAFunWithPos(w io.Writer, fset *token.FileSet, fun *ssa.Function) {
	fmt.Fprintln(w, fun.String())
	for bi, b := range fun.Blocks {
		fmt.Fprintln(w, bi, ":")
		for _, i := range b.Instrs {
			switch v := i.(type) {
			case *ssa.DebugRef:
				// skip
			case ssa.Value:
				fmt.Fprintln(w, v.Name(), "=", v, "at position:", fset.Position(v.Pos()))
			default:
				fmt.Fprintln(w, i, "at position:", fset.Position(i.Pos()))
			}
		}
	}
}
