package absint

import (
	"testing"

	"github.com/cs-au-dk/divzero/analysis/ir"
	L "github.com/cs-au-dk/divzero/analysis/lattice"
	"github.com/cs-au-dk/divzero/analysis/oracle"
)

// collector gathers diagnostics for inspection in tests.
type collector struct {
	findings  []Finding
	unhandled []ir.Instruction
}

func (c *collector) Report(f Finding)                { c.findings = append(c.findings, f) }
func (c *collector) Unhandled(instr ir.Instruction) { c.unhandled = append(c.unhandled, instr) }

// transferFixture contains one instruction of (almost) every kind, operating
// on two havocked integers x and y and two locations p and q.
type transferFixture struct {
	fn     *ir.Function
	x, y   *ir.Var
	p, q   *ir.Var
	instrs []ir.Instruction
}

func newTransferFixture() transferFixture {
	b := ir.NewBuilder("fixture")
	x := b.Havoc(ir.IntType, "x")
	y := b.Havoc(ir.IntType, "y")
	p := b.Alloc("p", ir.IntType)
	q := b.Alloc("q", ir.IntType)

	start := len(b.Block().Instrs)
	for _, op := range []ir.Op{ir.Add, ir.Sub, ir.Mul, ir.Div, ir.Rem, ir.And} {
		b.BinOp(op, x, y)
	}
	for _, op := range []ir.Op{ir.Neg, ir.Not, ir.Compl} {
		b.UnOp(op, x)
	}
	for _, pred := range []ir.Pred{ir.Eq, ir.Ne, ir.Lt, ir.Le} {
		b.Cmp(pred, x, y)
	}
	b.Cast(ir.NamedInt("int64"), x)
	b.Store(p, x)
	b.Load(p)
	b.Load(q)
	b.Call("ext", ir.IntType, x)
	b.Input("in", ir.IntType, "getchar")
	b.Emit(&ir.Unknown{Desc: "mystery"})
	b.Return(x)
	fn := b.Finish()

	return transferFixture{fn, x, y, p, q, fn.Instrs()[start:]}
}

func (fx transferFixture) env(sink Sink) Env {
	return Env{
		Oracle:     oracle.Conservative{},
		PointerSet: fx.fn.PointerSet(),
		Sink:       sink,
	}
}

func TestInputThenDivide(t *testing.T) {
	b := ir.NewBuilder("f")
	x := b.Input("x", ir.IntType, "getchar")
	q := b.BinOp(ir.Div, ir.NewInt(10), x)
	b.Return(q)
	fn := b.Finish()

	c := &collector{}
	res, err := Analyze(fn, Config{Sink: c})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Findings()) != 1 {
		t.Fatalf("Expected one finding, got %v", res.Findings())
	}
	f := res.Findings()[0]
	if f.Severity != Possible || f.Domain != L.MaybeZero || f.Divisor != ir.Value(x) {
		t.Errorf("Unexpected finding %+v", f)
	}
	if msg := f.Message(); msg != "possible division by zero: divisor x may be zero" {
		t.Errorf("Unexpected message %q", msg)
	}
	if !sameFindings(res.Findings(), c.findings) {
		t.Errorf("The sink saw %v, but the result has %v", c.findings, res.Findings())
	}
	if d := res.Domain(q); d != L.MaybeZero {
		t.Errorf("Expected the quotient to be %s, got %s", L.MaybeZero, d)
	}
}

func sameFindings(a, b []Finding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDivisionByConstants(t *testing.T) {
	tests := []struct {
		name     string
		divisor  ir.Value
		findings int
		severity Severity
	}{
		{"x / 2", ir.NewInt(2), 0, Possible},
		{"x / 0", ir.NewInt(0), 1, Definite},
		{"x / -1", ir.NewInt(-1), 0, Possible},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := ir.NewBuilder("f")
			x := b.Input("x", ir.IntType, "getchar")
			b.Return(b.BinOp(ir.Div, x, test.divisor))

			res, err := Analyze(b.Finish(), Config{})
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Findings()) != test.findings {
				t.Fatalf("Expected %d findings, got %v", test.findings, res.Findings())
			}
			if test.findings > 0 && res.Findings()[0].Severity != test.severity {
				t.Errorf("Expected severity %s, got %s", test.severity, res.Findings()[0].Severity)
			}
		})
	}
}

func TestZeroDividedByZero(t *testing.T) {
	b := ir.NewBuilder("f")
	q := b.BinOp(ir.Rem, ir.NewInt(0), ir.NewInt(0))
	b.Return(q)

	res, err := Analyze(b.Finish(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings()) != 1 || res.Findings()[0].Severity != Definite {
		t.Errorf("Expected one definite finding, got %v", res.Findings())
	}
	if d := res.Domain(q); d != L.Zero {
		t.Errorf("Expected %s, got %s", L.Zero, d)
	}
}

func TestNonIntegerDivisionIsIgnored(t *testing.T) {
	b := ir.NewBuilder("f")
	x := b.Havoc(ir.Opaque("float64"), "float")
	b.Return(b.BinOp(ir.Div, x, ir.NewConst(ir.Opaque("float64"), true, "0.0")))

	res, err := Analyze(b.Finish(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings()) != 0 {
		t.Errorf("Expected no findings, got %v", res.Findings())
	}
}

func TestCast(t *testing.T) {
	float := ir.Opaque("float64")
	tests := []struct {
		name     string
		operand  ir.Value
		expected L.Domain
	}{
		{"int constant", ir.NewInt(3), L.NonZero},
		{"zero int constant", ir.NewInt(0), L.Zero},
		// int(0.5) is zero, although the constant is not.
		{"float constant", ir.NewConst(float, false, "1/2"), L.MaybeZero},
		{"zero float constant", ir.NewConst(float, true, "0"), L.MaybeZero},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := ir.NewBuilder("f")
			v := b.Cast(ir.IntType, test.operand)
			b.Return(b.BinOp(ir.Div, ir.NewInt(10), v))

			res, err := Analyze(b.Finish(), Config{})
			if err != nil {
				t.Fatal(err)
			}
			if d := res.Domain(v); d != test.expected {
				t.Errorf("Expected %s, got %s", test.expected, d)
			}
			if flagged := len(res.Findings()) > 0; flagged != test.expected.MayBeZero() {
				t.Errorf("Expected the division to be flagged: %v, findings: %v",
					test.expected.MayBeZero(), res.Findings())
			}
		})
	}
}

// buildMerge builds
//
//	if c { v = a } else { v = b }; return 100 / v
func buildMerge(a, b ir.Value) (*ir.Function, *ir.Phi) {
	bld := ir.NewBuilder("merge")
	then := bld.NewBlock("if.then")
	els := bld.NewBlock("if.else")
	done := bld.NewBlock("if.done")

	c := bld.Input("c", ir.BoolType, "getchar")
	bld.If(c, then, els)
	bld.SetBlock(then)
	bld.Jump(done)
	bld.SetBlock(els)
	bld.Jump(done)

	bld.SetBlock(done)
	phi := bld.Phi(ir.IntType, a, b)
	bld.Return(bld.BinOp(ir.Div, ir.NewInt(100), phi.Dest))
	return bld.Finish(), phi
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		a, b     ir.Value
		expected L.Domain
		findings int
	}{
		{"zero and non-zero", ir.NewInt(0), ir.NewInt(5), L.MaybeZero, 1},
		{"non-zero constants", ir.NewInt(3), ir.NewInt(5), L.NonZero, 0},
		{"same constant", ir.NewInt(7), ir.NewInt(7), L.NonZero, 0},
		{"same zero constant", ir.NewInt(0), ir.NewInt(0), L.Zero, 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fn, phi := buildMerge(test.a, test.b)
			res, err := Analyze(fn, Config{})
			if err != nil {
				t.Fatal(err)
			}
			if d := res.Domain(phi.Dest); d != test.expected {
				t.Errorf("Expected %s, got %s", test.expected, d)
			}
			if len(res.Findings()) != test.findings {
				t.Errorf("Expected %d findings, got %v", test.findings, res.Findings())
			}
		})
	}
}

func TestComparison(t *testing.T) {
	b := ir.NewBuilder("cmp")
	z := b.Cast(ir.IntType, ir.NewInt(0))
	eq := b.Cmp(ir.Eq, z, ir.NewInt(0))
	ne := b.Cmp(ir.Ne, z, ir.NewInt(0))
	b.Return(eq, ne)

	res, err := Analyze(b.Finish(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		v        *ir.Var
		expected L.Domain
	}{
		{z, L.Zero},
		{eq, L.NonZero},
		{ne, L.Zero},
	} {
		if d := res.Domain(test.v); d != test.expected {
			t.Errorf("Expected %s to be %s, got %s", test.v, test.expected, d)
		}
	}
}

func TestLoadOfUnwrittenLocation(t *testing.T) {
	b := ir.NewBuilder("load")
	p := b.Alloc("p", ir.IntType)
	v := b.Load(p)
	b.Return(b.BinOp(ir.Div, ir.NewInt(1), v))

	res, err := Analyze(b.Finish(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if d := res.Domain(v); d != L.Uninit {
		t.Errorf("Expected %s, got %s", L.Uninit, d)
	}
	if len(res.Findings()) != 0 {
		t.Errorf("Expected no findings, got %v", res.Findings())
	}
}

func TestStoreThenLoad(t *testing.T) {
	b := ir.NewBuilder("store")
	p := b.Alloc("p", ir.IntType)
	b.Store(p, ir.NewInt(0))
	v := b.Load(p)
	b.Return(b.BinOp(ir.Div, ir.NewInt(1), v))

	res, err := Analyze(b.Finish(), Config{Oracle: oracle.None{}})
	if err != nil {
		t.Fatal(err)
	}
	if d := res.Domain(v); d != L.Zero {
		t.Errorf("Expected %s, got %s", L.Zero, d)
	}
	if len(res.Findings()) != 1 || res.Findings()[0].Severity != Definite {
		t.Errorf("Expected one definite finding, got %v", res.Findings())
	}
}

func TestAliasConsistency(t *testing.T) {
	build := func() (*ir.Function, *ir.Var, *ir.Var, *ir.Var) {
		b := ir.NewBuilder("alias")
		p := b.Alloc("p", ir.IntType)
		q := b.Alloc("q", ir.IntType)
		b.Store(p, ir.NewInt(0))
		b.Store(q, ir.NewInt(1))
		lp := b.Load(p)
		b.Return(b.BinOp(ir.Div, ir.NewInt(1), lp))
		return b.Finish(), p, q, lp
	}

	tests := []struct {
		name     string
		oracle   oracle.Oracle
		p, q, lp L.Domain
		severity Severity
	}{
		// p and q may alias, so the store to q makes both locations MaybeZero.
		{"conservative", oracle.Conservative{}, L.MaybeZero, L.MaybeZero, L.MaybeZero, Possible},
		// Distinct allocations do not alias.
		{"type-based", oracle.TypeBased{}, L.Zero, L.NonZero, L.Zero, Definite},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fn, p, q, lp := build()
			res, err := Analyze(fn, Config{Oracle: test.oracle})
			if err != nil {
				t.Fatal(err)
			}
			exit := res.Exit()
			dp, _ := exit.Get(p)
			dq, _ := exit.Get(q)
			if dp != test.p || dq != test.q {
				t.Errorf("Expected p, q to be %s, %s at exit, got %s, %s", test.p, test.q, dp, dq)
			}
			if d := res.Domain(lp); d != test.lp {
				t.Errorf("Expected the load to be %s, got %s", test.lp, d)
			}
			if len(res.Findings()) != 1 || res.Findings()[0].Severity != test.severity {
				t.Errorf("Expected one %s finding, got %v", test.severity, res.Findings())
			}
		})
	}
}

func TestUnhandled(t *testing.T) {
	fx := newTransferFixture()
	c := &collector{}
	res, err := Analyze(fx.fn, Config{Sink: c})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Unhandled()) != 1 {
		t.Fatalf("Expected one unhandled instruction, got %v", res.Unhandled())
	}
	unknown := res.Unhandled()[0]
	if kind := ir.Kind(unknown); kind != "Unknown" {
		t.Errorf("Expected an Unknown instruction, got %s", kind)
	}
	if len(c.unhandled) != 1 || c.unhandled[0] != unknown {
		t.Errorf("The sink saw %v", c.unhandled)
	}
	if !res.In(unknown).Eq(res.Out(unknown)) {
		t.Errorf("%s changed the memory", unknown)
	}
}

func TestTransferMonotonicity(t *testing.T) {
	fx := newTransferFixture()

	memory := func(x, y, p, q L.Domain) L.Memory {
		return L.NewMemory().Update(fx.x, x).Update(fx.y, y).Update(fx.p, p).Update(fx.q, q)
	}

	ds := L.Domains[:]
	for _, instr := range fx.instrs {
		violations := 0
		for _, x1 := range ds {
			for _, x2 := range ds {
				if !x1.Leq(x2) {
					continue
				}
				for _, y1 := range ds {
					for _, y2 := range ds {
						if !y1.Leq(y2) {
							continue
						}
						for _, p1 := range ds {
							for _, p2 := range ds {
								if !p1.Leq(p2) {
									continue
								}
								m1 := memory(x1, y1, p1, L.Uninit)
								m2 := memory(x2, y2, p2, L.NonZero)
								o1 := Transfer(instr, m1, fx.env(discard{}))
								o2 := Transfer(instr, m2, fx.env(discard{}))
								if !o1.Leq(o2) {
									violations++
								}
							}
						}
					}
				}
			}
		}
		if violations != 0 {
			t.Errorf("%s is not monotone (%d violations)", instr, violations)
		}
	}
}

func TestDivisionReportedOnce(t *testing.T) {
	fx := newTransferFixture()
	var div ir.Instruction
	for _, instr := range fx.instrs {
		if bin, ok := instr.(*ir.BinOp); ok && bin.Op == ir.Div {
			div = bin
		}
	}
	if div == nil {
		t.Fatal("No division in the fixture")
	}

	c := &collector{}
	Transfer(div, L.NewMemory().Update(fx.x, L.NonZero).Update(fx.y, L.NonZero), fx.env(c))
	if len(c.findings) != 0 {
		t.Errorf("A nonzero divisor was reported: %v", c.findings)
	}

	Transfer(div, L.NewMemory().Update(fx.x, L.NonZero).Update(fx.y, L.Zero), fx.env(c))
	if len(c.findings) != 1 || c.findings[0].Severity != Definite {
		t.Fatalf("Expected one definite finding, got %v", c.findings)
	}

	Transfer(div, L.NewMemory().Update(fx.y, L.Uninit), fx.env(c))
	if len(c.findings) != 1 {
		t.Errorf("An Uninit divisor was reported: %v", c.findings)
	}
}

func TestLocate(t *testing.T) {
	fx := newTransferFixture()
	sites := Locate(fx.fn)
	if len(sites) != 2 || sites[0].Instr.Op != ir.Div || sites[1].Instr.Op != ir.Rem {
		t.Errorf("Expected a division and a remainder, got %v", sites)
	}
}
