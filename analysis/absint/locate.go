package absint

import (
	"fmt"
	"go/token"

	"github.com/cs-au-dk/divzero/analysis/ir"
)

// Site is a candidate division instruction.
type Site struct {
	Instr    *ir.BinOp
	Position token.Position
}

func (s Site) String() string {
	return fmt.Sprintf("%s: %s (dividend %s, divisor %s)",
		s.Position, s.Instr, s.Instr.X, s.Instr.Y)
}

// Locate lists the integer divisions and remainders of fn in instruction order.
func Locate(fn *ir.Function) (sites []Site) {
	for _, instr := range fn.Instrs() {
		if bin, ok := instr.(*ir.BinOp); ok && bin.Op.IsDivision() && bin.Dest.Type().IsInteger() {
			sites = append(sites, Site{bin, fn.Position(bin)})
		}
	}
	return
}
