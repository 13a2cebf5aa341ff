package absint

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/cs-au-dk/divzero/analysis/ir"
	L "github.com/cs-au-dk/divzero/analysis/lattice"
)

// buildCounter builds
//
//	for i := 0; i < n; i++ { _ = 100 / i }
func buildCounter() (*ir.Function, *ir.Var) {
	b := ir.NewBuilder("counter")
	n := b.Param("n", ir.IntType)
	head := b.NewBlock("for.loop")
	body := b.NewBlock("for.body")
	done := b.NewBlock("for.done")

	b.Jump(head)

	b.SetBlock(head)
	phi := b.Phi(ir.IntType, ir.NewInt(0))
	b.If(b.Cmp(ir.Lt, phi.Dest, n), body, done)

	b.SetBlock(body)
	b.BinOp(ir.Div, ir.NewInt(100), phi.Dest)
	next := b.BinOp(ir.Add, phi.Dest, ir.NewInt(1))
	phi.Edges = append(phi.Edges, next)
	b.Jump(head)

	b.SetBlock(done)
	b.Return()
	return b.Finish(), phi.Dest
}

func TestLoopConverges(t *testing.T) {
	fn, i := buildCounter()
	res, err := Analyze(fn, Config{})
	if err != nil {
		t.Fatal(err)
	}

	if d := res.Domain(i); d != L.MaybeZero {
		t.Errorf("Expected the counter to be %s, got %s", L.MaybeZero, d)
	}
	if len(res.Findings()) != 1 {
		t.Fatalf("Expected one finding, got %v", res.Findings())
	}
	if f := res.Findings()[0]; f.Severity != Possible || f.Function != "counter" {
		t.Errorf("Unexpected finding %+v", f)
	}

	for _, instr := range fn.Instrs() {
		if res.Status(instr) != Stable {
			t.Errorf("%s is not stable", instr)
		}
	}

	stats := res.Stats()
	switch {
	case stats.Instructions != len(fn.Instrs()):
		t.Errorf("Expected %d instructions, got %d", len(fn.Instrs()), stats.Instructions)
	case stats.Bound != DefaultBound(fn):
		t.Errorf("Expected the bound to be %d, got %d", DefaultBound(fn), stats.Bound)
	case stats.Pops > stats.Bound || stats.Pops < len(fn.Instrs()):
		t.Errorf("Unexpected number of pops: %s", stats)
	}
	t.Log(stats)
}

func TestDiverged(t *testing.T) {
	fn, _ := buildCounter()
	res, err := Analyze(fn, Config{MaxPops: 3})
	if !errors.Is(err, ErrDiverged) {
		t.Fatalf("Expected %v, got %v", ErrDiverged, err)
	}
	if res == nil {
		t.Fatal("Expected a partial result")
	}
	if pops := res.Stats().Pops; pops != 3 {
		t.Errorf("Expected 3 pops, got %d", pops)
	}
}

func TestRepeatedAnalysisIsDeterministic(t *testing.T) {
	fn, _ := buildCounter()
	first, err := Analyze(fn, Config{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Analyze(fn, Config{})
	if err != nil {
		t.Fatal(err)
	}

	if first.Stats().Pops != second.Stats().Pops {
		t.Errorf("Pops differ: %d and %d", first.Stats().Pops, second.Stats().Pops)
	}
	for _, instr := range fn.Instrs() {
		if !first.Out(instr).Eq(second.Out(instr)) {
			t.Errorf("Memories after %s differ", instr)
		}
	}
}

func TestFindingsAreDeduplicated(t *testing.T) {
	// The loop body is analysed several times, but each division is reported
	// at most once.
	fn, _ := buildCounter()
	c := &collector{}
	if _, err := Analyze(fn, Config{Sink: c}); err != nil {
		t.Fatal(err)
	}
	if len(c.findings) != 1 {
		t.Errorf("Expected one finding, got %v", c.findings)
	}
}

func TestDotGraph(t *testing.T) {
	fn, _ := buildCounter()
	res, err := Analyze(fn, Config{})
	if err != nil {
		t.Fatal(err)
	}

	dg := res.DotGraph()
	if dg.Title != "counter" {
		t.Errorf("Unexpected title %q", dg.Title)
	}
	if n := dg.NodeCount(); n != len(fn.Instrs()) {
		t.Errorf("Expected %d nodes, got %d", len(fn.Instrs()), n)
	}
	if len(dg.Clusters) != len(fn.Blocks) {
		t.Errorf("Expected %d clusters, got %d", len(fn.Blocks), len(dg.Clusters))
	}

	buf := new(bytes.Buffer)
	if err := dg.WriteDot(buf); err != nil {
		t.Fatal(err)
	}
	for _, part := range []string{"100 / ", "#ffb3b3"} {
		if !strings.Contains(buf.String(), part) {
			t.Errorf("Expected %q in\n%s", part, buf.String())
		}
	}
}
