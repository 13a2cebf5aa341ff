package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/cs-au-dk/divzero/analysis/absint"
	"github.com/cs-au-dk/divzero/analysis/frontend"
	"github.com/cs-au-dk/divzero/analysis/oracle"
	"github.com/cs-au-dk/divzero/analysis/report"
	"github.com/cs-au-dk/divzero/config"
	"github.com/cs-au-dk/divzero/pkgutil"
)

// pipeline is a wrapper around the analysis pipeline: lowering, the
// selection of a pointer oracle and the fixpoint computation.
type pipeline struct {
	prog    *ssa.Program
	cfg     config.Config
	metrics *metrics

	// The whole-program points-to analysis is computed on first use.
	pts     *oracle.PointsTo
	ptsDone bool
}

func (p *pipeline) lower(fun *ssa.Function) (*frontend.Lowered, error) {
	l, err := frontend.Lower(fun, frontend.Config{InputSources: p.cfg.Analysis.InputSources})
	if err != nil {
		return nil, err
	}

	opts.OnVerbose(func() {
		fmt.Println(l.Func)
	})
	return l, nil
}

// tryLower lowers fun, logging failures.
func (p *pipeline) tryLower(fun *ssa.Function) (*frontend.Lowered, bool) {
	l, err := p.lower(fun)
	if err != nil {
		log.Println(err)
		return nil, false
	}
	return l, true
}

// pointsTo runs the Andersen style points-to analysis rooted in the main
// packages of the program. When tests are included, test functions are used
// as entry points. It returns nil if the program has no entry points.
func (p *pipeline) pointsTo() *oracle.PointsTo {
	if p.ptsDone {
		return p.pts
	}
	p.ptsDone = true

	mains := ssautil.MainPackages(p.prog.AllPackages())
	if opts.IncludeTests() {
		for _, test := range pkgutil.TestFunctions(p.prog) {
			spkg, err := pkgutil.CreateFakeTestMainPackage(test)
			if err != nil {
				log.Println(err)
				continue
			}
			mains = append(mains, spkg)
		}
	}

	log.Println("Performing points-to analysis...")
	pts, err := oracle.Analyze(p.prog, mains)
	switch {
	case errors.Is(err, oracle.ErrNoMain):
		log.Println(color.YellowString("No main packages detected, falling back to the %s oracle", oracle.KindUnify))
	case err != nil:
		log.Fatalln(err)
	default:
		log.Println("Points-to analysis done")
	}
	p.pts = pts
	return pts
}

// oracle creates the configured oracle for l, and reports which kind of
// oracle it is.
func (p *pipeline) oracle(l *frontend.Lowered) (oracle.Oracle, string) {
	kind := p.cfg.Analysis.Oracle
	var pts *oracle.PointsTo
	if kind == oracle.KindAndersen {
		if pts = p.pointsTo(); pts == nil {
			kind = oracle.KindUnify
		}
	}

	o, err := oracle.New(kind, l.Func, pts, l)
	if err != nil {
		log.Fatalln(err)
	}
	return o, kind
}

// analyze lowers and analyses fun, forwarding diagnostics to sink. The result
// is nil if fun could not be lowered.
func (p *pipeline) analyze(fun *ssa.Function, sink absint.Sink) (*absint.Result, error) {
	l, err := p.lower(fun)
	if err != nil {
		return nil, err
	}
	o, _ := p.oracle(l)

	res, err := absint.Analyze(l.Func, absint.Config{
		Oracle:  o,
		Sink:    sink,
		MaxPops: p.cfg.Analysis.MaxPops,
	})
	if opts.Metrics() {
		p.metrics.add(l.Func.Name, res.Stats(), err != nil)
	}
	return res, err
}

func (p *pipeline) printer() *report.Printer {
	return report.NewPrinter(os.Stdout, report.Options{
		ShowUnhandled: p.cfg.Report.ShowUnhandled,
		Color:         p.cfg.Report.Color,
	})
}
