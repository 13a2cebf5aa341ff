// Package divzero provides an analysis pass reporting integer divisions and
// remainders whose divisor may be zero.
package divzero

import (
	"errors"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"

	"github.com/cs-au-dk/divzero/analysis/absint"
	"github.com/cs-au-dk/divzero/analysis/frontend"
	"github.com/cs-au-dk/divzero/analysis/ir"
	"github.com/cs-au-dk/divzero/analysis/oracle"
	"github.com/cs-au-dk/divzero/config"
)

const doc = `report divisions by zero

The divzero pass runs an intraprocedural abstract interpretation of every
function in the package, tracking whether integer values are zero, and
reports divisions and remainders whose divisor may be zero. Settings are
read from divzero.toml files in the package directory and its ancestors;
command line flags take precedence.`

var Analyzer = &analysis.Analyzer{
	Name:     "divzero",
	Doc:      doc,
	Requires: []*analysis.Analyzer{buildssa.Analyzer},
	Run:      run,
}

var (
	oracleFlag   string
	inputsFlag   string
	maxPopsFlag  int
	definiteOnly bool
)

func init() {
	Analyzer.Flags.StringVar(&oracleFlag, "oracle", "", "pointer oracle [unify | type-based | conservative | none]")
	Analyzer.Flags.StringVar(&inputsFlag, "inputs", "", "comma separated list of additional input source functions")
	Analyzer.Flags.IntVar(&maxPopsFlag, "max-pops", 0, "upper bound on worklist pops per function")
	Analyzer.Flags.BoolVar(&definiteOnly, "definite-only", false, "only report divisors that are always zero")
}

// settings merges the flags over the configuration of the package directory.
func settings(pass *analysis.Pass) (config.Config, error) {
	dir := "."
	if len(pass.Files) > 0 {
		dir = filepath.Dir(pass.Fset.Position(pass.Files[0].Pos()).Filename)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return cfg, err
	}

	if oracleFlag != "" {
		if !oracle.Valid(oracleFlag) {
			return cfg, errors.New("unknown oracle " + oracleFlag)
		}
		cfg.Analysis.Oracle = oracleFlag
	}
	if inputsFlag != "" {
		cfg.Analysis.InputSources = append(cfg.Analysis.InputSources, strings.Split(inputsFlag, ",")...)
	}
	if maxPopsFlag > 0 {
		cfg.Analysis.MaxPops = maxPopsFlag
	}
	// Packages are analysed in isolation.
	if cfg.Analysis.Oracle == oracle.KindAndersen {
		cfg.Analysis.Oracle = oracle.KindUnify
	}
	return cfg, nil
}

// reporter forwards findings to the pass as diagnostics.
type reporter struct {
	pass *analysis.Pass
}

func (r reporter) Report(f absint.Finding) {
	if definiteOnly && f.Severity != absint.Definite {
		return
	}
	r.pass.Reportf(f.Pos(), "%s", f.Message())
}

func (reporter) Unhandled(ir.Instruction) {}

func run(pass *analysis.Pass) (interface{}, error) {
	ssaInfo := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	cfg, err := settings(pass)
	if err != nil {
		return nil, err
	}

	sink := reporter{pass}
	for _, fn := range ssaInfo.SrcFuncs {
		lowered, err := frontend.Lower(fn, frontend.Config{InputSources: cfg.Analysis.InputSources})
		if errors.Is(err, frontend.ErrNoBody) {
			continue
		} else if err != nil {
			return nil, err
		}

		o, err := oracle.New(cfg.Analysis.Oracle, lowered.Func, nil, lowered)
		if err != nil {
			return nil, err
		}

		// A diverged fixpoint still reports what it found so far.
		_, err = absint.Analyze(lowered.Func, absint.Config{
			Oracle:  o,
			Sink:    sink,
			MaxPops: cfg.Analysis.MaxPops,
		})
		if err != nil && !errors.Is(err, absint.ErrDiverged) {
			return nil, err
		}
	}

	return nil, nil
}
