package utils

import (
	"flag"
	"fmt"
	"log"
	"strings"
)

type options struct {
	minlen       uint
	nodesep      float64
	maxPops      int
	function     string
	outputFormat string
	gopath       string
	modulePath   string
	task         string
	oracle       string
	config       string
	factsDir     string
	inputs       string
	metrics      bool
	noColorize   bool
	verbose      bool
	naive        bool
	includeTests bool
	unhandled    bool
}

const (
	_ANALYZE = iota
	_CAN_BUILD
	_LOCATE
	_FACTS
	_CFG_TO_DOT
	_POINTS_TO
)

func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}

var task = []struct{ flag, explanation string }{{
	"analyze",
	"Run the division-by-zero analysis and report findings",
}, {
	"check-can-build",
	"Performs a mock building of the package, attempting SSA construction and lowering",
}, {
	"locate",
	"List every division and remainder site together with its operands",
}, {
	"facts",
	"Extract def/use/div/taint/sanitizer/next relations into .facts files",
}, {
	"cfg-to-dot",
	"Create a graph of the instruction-level control-flow graph, annotated with abstract memories",
}, {
	"points-to",
	"Print may-alias pairs among the tracked memory locations of each function",
}}

var opts = &options{
	minlen:       1,
	nodesep:      0.35,
	function:     ".",
	outputFormat: "svg",
	gopath:       "examples",
	task:         task[_ANALYZE].flag,
	factsDir:     "facts",
}

type optInterface struct{}

type taskInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}

func (optInterface) Minlen() uint {
	return opts.minlen
}
func (optInterface) Nodesep() float64 {
	return opts.nodesep
}
func (optInterface) Function() string {
	return opts.function
}
func (optInterface) OutputFormat() string {
	return opts.outputFormat
}
func (optInterface) GoPath() string {
	return opts.gopath
}
func (optInterface) ModulePath() string {
	return opts.modulePath
}

// Oracle is the name of the pointer oracle selected on the command line.
// An empty string defers to the configuration file.
func (optInterface) Oracle() string {
	return opts.oracle
}
func (optInterface) Config() string {
	return opts.config
}
func (optInterface) FactsDir() string {
	return opts.factsDir
}

// Inputs is the comma separated list of extra input source functions.
func (optInterface) Inputs() []string {
	if opts.inputs == "" {
		return nil
	}
	return strings.Split(opts.inputs, ",")
}
func (optInterface) MaxPops() int {
	return opts.maxPops
}
func (optInterface) Naive() bool {
	return opts.naive
}
func (optInterface) ShowUnhandled() bool {
	return opts.unhandled
}
func (optInterface) Task() taskInterface {
	return taskInterface{}
}
func (taskInterface) IsAnalyze() bool {
	return opts.task == task[_ANALYZE].flag
}
func (taskInterface) IsCanBuild() bool {
	return opts.task == task[_CAN_BUILD].flag
}
func (taskInterface) IsLocate() bool {
	return opts.task == task[_LOCATE].flag
}
func (taskInterface) IsFacts() bool {
	return opts.task == task[_FACTS].flag
}
func (taskInterface) IsCfgToDot() bool {
	return opts.task == task[_CFG_TO_DOT].flag
}
func (taskInterface) IsPointsTo() bool {
	return opts.task == task[_POINTS_TO].flag
}
func (optInterface) Metrics() bool {
	return opts.metrics
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) IncludeTests() bool {
	return opts.includeTests
}

func init() {
	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

// registerFlags binds the options to command line flags. The current values
// of the options are the defaults.
func registerFlags() {
	taskFlag := "\n"
	for _, task := range task {
		taskFlag += task.flag + " -- " + task.explanation + "\n"
	}
	taskFlag += "\n"

	flag.UintVar(&(opts.minlen), "minlen", opts.minlen, "Minimum edge length (for wider output).")
	flag.Float64Var(&(opts.nodesep), "nodesep", opts.nodesep, "Minimum space between two adjacent nodes in the same rank (for taller output).")
	flag.IntVar(&(opts.maxPops), "max-pops", opts.maxPops, "Upper bound on worklist pops per function (0 derives a bound from the function size).")
	flag.StringVar(&(opts.function), "fun", opts.function, "target a specific function w. r. t. the given task.\n"+
		"- Function names need not be fully qualified w.r.t. package name. A simple name "+
		"matches every function with that name across the loaded packages.\n"+
		"- Use '.' to target all functions with a body in the loaded packages.\n")
	flag.StringVar(&(opts.outputFormat), "format", opts.outputFormat, "output file format [svg | png | jpg | ...]")
	flag.StringVar(&(opts.gopath), "gopath", opts.gopath, "specify GOPATH to be used for packages.Load")
	flag.StringVar(&(opts.modulePath), "modulepath", "", `specify a path to a directory containing a Go module.
- If provided this will make our code loading tools (that piggyback on Go's tools) run
in "module-aware" mode (GO111MODULE=on).`)
	flag.StringVar(&(opts.task), "task", opts.task, "Set the task to do during execution. Options:"+taskFlag)
	flag.StringVar(&(opts.oracle), "oracle", "", "pointer oracle [andersen | unify | type-based | conservative | none] (overrides the configuration file)")
	flag.StringVar(&(opts.config), "config", "", "path to a divzero.toml file; by default the file is searched for upwards from the target directory")
	flag.StringVar(&(opts.factsDir), "facts-dir", opts.factsDir, "output directory for the facts task")
	flag.StringVar(&(opts.inputs), "inputs", "", "comma separated list of additional input source functions")
	flag.BoolVar(&(opts.metrics), "metrics", false, "Enable collection of performance metrics for the analysis")
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.naive), "naive", false, "build SSA in naive form, keeping local variables in memory (exercises the pointer oracle)")
	flag.BoolVar(&(opts.includeTests), "include-tests", false, "include test files in the analysis.")
	flag.BoolVar(&(opts.unhandled), "show-unhandled", false, "report instructions the analysis has no rule for")
}

// ParseArgs registers and parses the command line flags. Packages that
// only consult the options, such as the vet tool, see the defaults and do
// not inherit the flags.
func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	// See https://stackoverflow.com/questions/60235896/flag-provided-but-not-defined-test-v
	registerFlags()
	flag.Parse()

	validTask := false
	for _, task := range task {
		if task.flag == opts.task {
			validTask = true
			break
		}
	}

	if !validTask {
		log.Fatalf("Value \"%s\" is not valid for -task", opts.task)
	}

	if Opts().Task().IsCfgToDot() {
		opts.noColorize = true
	}
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}
