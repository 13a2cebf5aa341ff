package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/cs-au-dk/divzero/analysis/absint"
	"github.com/cs-au-dk/divzero/analysis/facts"
	"github.com/cs-au-dk/divzero/analysis/oracle"
	"github.com/cs-au-dk/divzero/analysis/report"
	"github.com/cs-au-dk/divzero/config"
	"github.com/cs-au-dk/divzero/pkgutil"
	"github.com/cs-au-dk/divzero/utils"
	"github.com/cs-au-dk/divzero/utils/dot"
)

var (
	opts = utils.Opts()
	task = opts.Task()
)

func main() {
	utils.ParseArgs()
	path := utils.MakePath()

	cfg, err := loadConfig(path)
	if err != nil {
		log.Fatalln("Failed to read the configuration:", err)
	}

	pattern, err := regexp.Compile(opts.Function())
	if err != nil {
		log.Fatalln("Invalid -fun pattern:", err)
	}

	pkgs, err := pkgutil.LoadPackages(pkgutil.LoadConfig{
		GoPath:       opts.GoPath(),
		ModulePath:   opts.ModulePath(),
		IncludeTests: opts.IncludeTests(),
	}, path)
	if err != nil {
		log.Println("Failed pkgutil.LoadPackages")
		log.Println(err)
		os.Exit(1)
	}

	mode := ssa.InstantiateGenerics
	if opts.Naive() {
		mode |= ssa.NaiveForm
	}
	prog, _ := ssautil.AllPackages(pkgs, mode)
	prog.Build()

	p := &pipeline{
		prog:    prog,
		cfg:     cfg,
		metrics: &metrics{},
	}
	local := pkgutil.LocalPackages(prog, pkgs)
	funs := pkgutil.LocalFunctions(prog, local, pattern)
	if len(funs) == 0 {
		log.Println("No functions matching", opts.Function())
		return
	}

	opts.OnVerbose(func() {
		for _, fun := range funs {
			utils.PrintSSAFunWithPos(os.Stdout, prog.Fset, fun)
		}
	})

	switch {
	case task.IsCanBuild():
		for _, fun := range funs {
			if _, err := p.lower(fun); err != nil {
				log.Fatalln(err)
			}
		}
		log.Println(color.GreenString("Lowered %d functions", len(funs)))

	case task.IsLocate():
		printer := p.printer()
		for _, fun := range funs {
			if l, ok := p.tryLower(fun); ok {
				printer.Sites(l.Func, absint.Locate(l.Func))
			}
		}

	case task.IsFacts():
		extractor := facts.NewExtractor(facts.Config{
			TaintSources: cfg.Analysis.TaintSources,
			Sanitizers:   cfg.Analysis.Sanitizers,
		})
		for _, fun := range funs {
			if l, ok := p.tryLower(fun); ok {
				extractor.Extract(l.Func)
			}
		}
		if err := extractor.WriteDir(opts.FactsDir()); err != nil {
			log.Fatalln(err)
		}
		log.Println("Facts written to", opts.FactsDir())

	case task.IsCfgToDot():
		for _, fun := range funs {
			res, err := p.analyze(fun, nil)
			if res == nil {
				log.Println(err)
				continue
			}

			dg := res.DotGraph()
			dg.Options = map[string]string{
				"minlen":  fmt.Sprint(opts.Minlen()),
				"nodesep": fmt.Sprint(opts.Nodesep()),
				"rankdir": "TB",
			}
			buf := new(bytes.Buffer)
			if err := dg.WriteDot(buf); err != nil {
				log.Fatalln(err)
			}

			out := filepath.Join(os.TempDir(), "divzero_"+sanitize(res.Function().Name))
			img, err := dot.DotToImage(out, opts.OutputFormat(), buf.Bytes())
			if err != nil {
				log.Println(err)
				continue
			}
			fmt.Println(img)
		}

	case task.IsPointsTo():
		for _, fun := range funs {
			l, ok := p.tryLower(fun)
			if !ok {
				continue
			}
			o, kind := p.oracle(l)

			fmt.Printf("%s (%s):\n", utils.FunString(l.Func.Name), kind)
			for _, pair := range oracle.Pairs(o, l.Func.Locations()) {
				fmt.Printf("  %s ~ %s\n", utils.NameString(pair[0].Name()), utils.NameString(pair[1].Name()))
			}

			if pts := p.pointsTo(); pts != nil && kind == oracle.KindAndersen {
				for _, loc := range l.Func.Locations() {
					if sv, found := l.Value(loc); found {
						fmt.Printf("  %s -> %s\n", utils.NameString(loc.Name()), pts.Labels(sv))
					}
				}
			}
		}

	case task.IsAnalyze():
		collector := &report.Collector{}
		for _, fun := range funs {
			res, err := p.analyze(fun, collector)
			if errors.Is(err, absint.ErrDiverged) {
				log.Println(color.YellowString("%v", err))
			} else if err != nil && res == nil {
				log.Println(err)
			}
		}
		printer := p.printer()
		collector.Replay(printer)
		printer.Summary()
		p.metrics.print(os.Stdout)
	}
}

// loadConfig reads the file given by -config, or searches for divzero.toml
// upwards from the directory of the target package. Command line flags
// override the file.
func loadConfig(path string) (cfg config.Config, err error) {
	if file := opts.Config(); file != "" {
		cfg, err = config.LoadFile(file)
	} else {
		cfg, err = config.Load(targetDir(path))
	}
	if err != nil {
		return
	}

	if o := opts.Oracle(); o != "" {
		if !oracle.Valid(o) {
			return cfg, fmt.Errorf("unknown oracle %q, expected one of %s", o, strings.Join(oracle.Kinds, ", "))
		}
		cfg.Analysis.Oracle = o
	}
	cfg.Analysis.InputSources = append(cfg.Analysis.InputSources, opts.Inputs()...)
	if n := opts.MaxPops(); n > 0 {
		cfg.Analysis.MaxPops = n
	}
	if opts.ShowUnhandled() {
		cfg.Report.ShowUnhandled = true
	}
	if opts.NoColorize() {
		cfg.Report.Color = false
	}
	return
}

func targetDir(path string) string {
	if dir := opts.ModulePath(); dir != "" {
		return dir
	}
	dir := filepath.Join(opts.GoPath(), "src", path)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return "."
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

func sanitize(name string) string {
	return strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_")
}
