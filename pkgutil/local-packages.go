package pkgutil

import (
	"fmt"
	"regexp"
	"sort"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/cs-au-dk/divzero/utils"
)

var opts = utils.Opts()

// LocalPackages are the SSA packages of the packages matched by the load
// query, as opposed to their dependencies.
func LocalPackages(prog *ssa.Program, pkgs []*packages.Package) map[*ssa.Package]bool {
	local := make(map[*ssa.Package]bool)
	for _, p := range pkgs {
		if sp := prog.Package(p.Types); sp != nil {
			local[sp] = true
		}
	}

	opts.OnVerbose(func() {
		fmt.Println("Local packages:")
		for p := range local {
			fmt.Println(p.Pkg.Path())
		}
	})
	return local
}

// LocalFunctions lists the functions with bodies declared in the local
// packages, including methods and function literals, whose names match
// pattern. Synthetic wrappers are skipped. Functions are ordered by position.
func LocalFunctions(prog *ssa.Program, local map[*ssa.Package]bool, pattern *regexp.Regexp) []*ssa.Function {
	var res []*ssa.Function
	for fun := range ssautil.AllFunctions(prog) {
		if fun.Pkg == nil || !local[fun.Pkg] || fun.Synthetic != "" || len(fun.Blocks) == 0 {
			continue
		}
		if pattern != nil && !pattern.MatchString(fun.String()) {
			continue
		}
		res = append(res, fun)
	}

	sort.Slice(res, func(i, j int) bool {
		pi, pj := prog.Fset.Position(res[i].Pos()), prog.Fset.Position(res[j].Pos())
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		if pi.Offset != pj.Offset {
			return pi.Offset < pj.Offset
		}
		return res[i].String() < res[j].String()
	})
	return res
}
