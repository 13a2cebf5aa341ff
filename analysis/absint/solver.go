package absint

import (
	"errors"
	"fmt"
	"time"

	"github.com/cs-au-dk/divzero/analysis/ir"
	L "github.com/cs-au-dk/divzero/analysis/lattice"
	"github.com/cs-au-dk/divzero/analysis/oracle"
	"github.com/cs-au-dk/divzero/utils/pq"
)

// ErrDiverged is returned if the fixpoint iteration exceeds its bound on
// worklist pops. Monotone transfer functions cannot cause this.
var ErrDiverged = errors.New("fixpoint iteration did not converge")

// Config configures a single analysis run.
type Config struct {
	// Oracle resolves aliasing for stores. Defaults to oracle.Conservative.
	Oracle oracle.Oracle
	// Sink receives the findings of the fixpoint, in instruction order, once
	// the analysis has converged.
	Sink Sink
	// MaxPops bounds the number of worklist pops. Zero derives a bound that
	// monotone transfer functions never exceed.
	MaxPops int
}

// Status of an instruction in the worklist.
type Status uint8

const (
	Pending Status = iota
	Stable
)

func (s Status) String() string {
	if s == Stable {
		return "Stable"
	}
	return "Pending"
}

// solver is the state of a single fixpoint computation.
type solver struct {
	fn       *ir.Function
	env      Env
	in, out  []L.Memory
	status   []Status
	recorder *recorder
	stats    Stats
}

// Analyze computes the fixpoint of the transfer function over fn.
// On ErrDiverged the partial result is returned along with the error.
func Analyze(fn *ir.Function, cfg Config) (*Result, error) {
	start := time.Now()

	if cfg.Oracle == nil {
		cfg.Oracle = oracle.Conservative{}
	}
	if cfg.Sink == nil {
		cfg.Sink = discard{}
	}

	n := len(fn.Instrs())
	s := &solver{
		fn:       fn,
		in:       make([]L.Memory, n),
		out:      make([]L.Memory, n),
		status:   make([]Status, n),
		recorder: newRecorder(n),
	}
	s.env = Env{
		Oracle:     cfg.Oracle,
		PointerSet: fn.PointerSet(),
		Sink:       s.recorder,
	}
	s.stats.Instructions = n
	s.stats.Bound = cfg.MaxPops
	if s.stats.Bound <= 0 {
		s.stats.Bound = DefaultBound(fn)
	}

	err := s.run()
	s.stats.Duration = time.Since(start)

	res := s.result()
	for _, f := range res.findings {
		cfg.Sink.Report(f)
	}
	for _, instr := range res.unhandled {
		cfg.Sink.Unhandled(instr)
	}
	return res, err
}

// DefaultBound over-approximates the number of pops of a monotone fixpoint
// computation: every instruction is popped once initially, and again at most
// once per change of a predecessor's output. An output changes at most
// lattice-height times per bound variable.
func DefaultBound(fn *ir.Function) int {
	n := len(fn.Instrs())
	tracked := 0
	for _, v := range fn.Vars() {
		if v.Type().Tracked() || v.Type().PointsToTracked() {
			tracked++
		}
	}
	edges := 0
	for _, instr := range fn.Instrs() {
		edges += len(fn.Succs(instr))
	}
	return n + (L.MaxHeight+1)*(tracked+1)*(edges+n)
}

func (s *solver) run() error {
	fn := s.fn
	less := func(a, b ir.Instruction) bool {
		ba, ia := fn.Priority(a)
		bb, ib := fn.Priority(b)
		if ba != bb {
			return ba < bb
		}
		return ia < ib
	}

	W := pq.Empty(less)
	for _, instr := range fn.Instrs() {
		s.status[instr.ID()] = Pending
		W.Add(instr)
	}

	for !W.IsEmpty() {
		if s.stats.Pops >= s.stats.Bound {
			return fmt.Errorf("%s: %w after %d pops", fn.Name, ErrDiverged, s.stats.Pops)
		}

		instr := W.GetNext()
		id := instr.ID()
		s.stats.Pops++

		in := L.NewMemory()
		for _, pred := range fn.Preds(instr) {
			in = in.Join(s.out[pred.ID()])
		}
		s.in[id] = in

		s.recorder.reset(id)
		out := Transfer(instr, in, s.env)
		s.stats.Transfers++

		s.status[id] = Stable
		if out.Eq(s.out[id]) {
			continue
		}

		s.out[id] = out
		s.stats.Changes++
		for _, succ := range fn.Succs(instr) {
			s.status[succ.ID()] = Pending
			W.Add(succ)
		}
	}

	return nil
}
