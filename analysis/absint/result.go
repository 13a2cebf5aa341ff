package absint

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/divzero/analysis/ir"
	L "github.com/cs-au-dk/divzero/analysis/lattice"
)

// Stats summarizes a fixpoint computation.
type Stats struct {
	Instructions int
	Pops         int
	Transfers    int
	Changes      int
	// Bound is the maximum number of pops allowed.
	Bound    int
	Duration time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("%d instructions, %d pops, %d transfers, %d changes in %s",
		s.Instructions, s.Pops, s.Transfers, s.Changes, s.Duration)
}

// recorder keeps the diagnostics of the latest transfer of every instruction.
type recorder struct {
	current   int
	findings  [][]Finding
	unhandled []bool
}

func newRecorder(n int) *recorder {
	return &recorder{
		findings:  make([][]Finding, n),
		unhandled: make([]bool, n),
	}
}

func (r *recorder) reset(id int) {
	r.current = id
	r.findings[id] = nil
	r.unhandled[id] = false
}

func (r *recorder) Report(f Finding) {
	r.findings[r.current] = append(r.findings[r.current], f)
}

func (r *recorder) Unhandled(ir.Instruction) {
	r.unhandled[r.current] = true
}

// Result is the outcome of analysing a function.
type Result struct {
	fn        *ir.Function
	in, out   []L.Memory
	status    []Status
	findings  []Finding
	unhandled []ir.Instruction
	stats     Stats
}

func (s *solver) result() *Result {
	res := &Result{
		fn:     s.fn,
		in:     s.in,
		out:    s.out,
		status: s.status,
		stats:  s.stats,
	}

	for _, instr := range s.fn.Instrs() {
		res.findings = append(res.findings, s.recorder.findings[instr.ID()]...)
		if s.recorder.unhandled[instr.ID()] {
			res.unhandled = append(res.unhandled, instr)
		}
	}

	slices.SortFunc(res.findings, func(a, b Finding) bool {
		pa, pb := a.Position, b.Position
		switch {
		case pa.Filename != pb.Filename:
			return pa.Filename < pb.Filename
		case pa.Line != pb.Line:
			return pa.Line < pb.Line
		case pa.Column != pb.Column:
			return pa.Column < pb.Column
		}
		return a.Instr.ID() < b.Instr.ID()
	})

	return res
}

func (r *Result) Function() *ir.Function { return r.fn }

// In is the memory before instr.
func (r *Result) In(instr ir.Instruction) L.Memory { return r.in[instr.ID()] }

// Out is the memory after instr.
func (r *Result) Out(instr ir.Instruction) L.Memory { return r.out[instr.ID()] }

func (r *Result) Status(instr ir.Instruction) Status { return r.status[instr.ID()] }

// Findings lists the divisions that may be by zero at the fixpoint, ordered by position.
func (r *Result) Findings() []Finding { return r.findings }

// Unhandled lists the instructions the transfer function has no rule for.
func (r *Result) Unhandled() []ir.Instruction { return r.unhandled }

func (r *Result) Stats() Stats { return r.stats }

// Exit is the join of the memories after every return instruction.
func (r *Result) Exit() L.Memory {
	m := L.NewMemory()
	for _, instr := range r.fn.Instrs() {
		if _, ok := instr.(*ir.Return); ok {
			m = m.Join(r.Out(instr))
		}
	}
	return m
}

// Domain is the abstract value of v after the instruction defining it.
func (r *Result) Domain(v *ir.Var) L.Domain {
	if def := v.Def(); def != nil {
		d, _ := r.Out(def).Get(v)
		return d
	}
	return Eval(v, L.NewMemory())
}
