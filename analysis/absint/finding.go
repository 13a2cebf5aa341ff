package absint

import (
	"fmt"
	"go/token"

	"github.com/cs-au-dk/divzero/analysis/ir"
	L "github.com/cs-au-dk/divzero/analysis/lattice"
)

// Severity grades a finding by how certain the division by zero is.
type Severity uint8

const (
	// Possible findings have a divisor that may be zero.
	Possible Severity = iota
	// Definite findings have a divisor that is zero whenever the division executes.
	Definite
)

func (s Severity) String() string {
	if s == Definite {
		return "definite"
	}
	return "possible"
}

// Finding is a division whose divisor may be zero.
type Finding struct {
	Function string
	Instr    *ir.BinOp
	Divisor  ir.Value
	Domain   L.Domain
	Severity Severity
	Position token.Position
}

func (f Finding) Pos() token.Pos {
	return f.Instr.Pos()
}

func (f Finding) Message() string {
	if f.Severity == Definite {
		return fmt.Sprintf("division by zero: divisor %s is always zero", f.Divisor)
	}
	return fmt.Sprintf("possible division by zero: divisor %s may be zero", f.Divisor)
}

func (f Finding) String() string {
	pos := f.Position.String()
	if !f.Position.IsValid() {
		pos = fmt.Sprintf("%s:%s", f.Function, f.Instr.Block())
	}
	return fmt.Sprintf("%s: %s", pos, f.Message())
}

func newFinding(instr *ir.BinOp, divisor L.Domain) Finding {
	sev := Possible
	if divisor == L.Zero {
		sev = Definite
	}

	var fnName string
	var position token.Position
	if blk := instr.Block(); blk != nil && blk.Parent() != nil {
		fn := blk.Parent()
		fnName = fn.Name
		position = fn.Position(instr)
	}

	return Finding{
		Function: fnName,
		Instr:    instr,
		Divisor:  instr.Y,
		Domain:   divisor,
		Severity: sev,
		Position: position,
	}
}

// Sink receives the diagnostics of an analysis.
type Sink interface {
	// Report is called for every division whose divisor may be zero.
	Report(Finding)
	// Unhandled is called for instructions the analysis has no rule for.
	Unhandled(ir.Instruction)
}

type discard struct{}

func (discard) Report(Finding)           {}
func (discard) Unhandled(ir.Instruction) {}
