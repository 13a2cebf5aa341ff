package pkgutil

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// packagesByPath picks one package per import path, ignoring the synthetic
// .test packages. If the test variant of a package is loaded, it is the one
// with more members.
func packagesByPath(prog *ssa.Program) []*ssa.Package {
	byPath := make(map[string]*ssa.Package)
	for _, pkg := range prog.AllPackages() {
		path := pkg.Pkg.Path()
		if strings.HasSuffix(path, ".test") {
			continue
		}
		if other, ok := byPath[path]; !ok || len(pkg.Members) > len(other.Members) {
			byPath[path] = pkg
		}
	}

	res := make([]*ssa.Package, 0, len(byPath))
	for _, pkg := range byPath {
		res = append(res, pkg)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Pkg.Path() < res[j].Pkg.Path() })
	return res
}

// TestFunctions lists the test functions of all packages in the program.
func TestFunctions(prog *ssa.Program) (res []*ssa.Function) {
	testingPkg := prog.ImportedPackage("testing")
	if testingPkg == nil {
		// testing package is not loaded so no tests are defined.
		return
	}

	arg0Type := types.NewPointer(testingPkg.Type("T").Type())

	for _, pkg := range packagesByPath(prog) {
		for name, member := range pkg.Members {
			if fun, ok := member.(*ssa.Function); ok && strings.HasPrefix(name, "Test") &&
				len(fun.Params) == 1 && types.Identical(arg0Type, fun.Params[0].Type()) {

				res = append(res, fun)
			}
		}
	}

	return
}

// A type satisfying the types.Importer interface. It can only import the
// package it is initialized with and the testing package.
type fakeImporter types.Package

func (f *fakeImporter) Import(path string) (*types.Package, error) {
	p := (*types.Package)(f)
	if path == p.Path() {
		return p, nil
	} else if path == "testing" {
		for _, pkg := range p.Imports() {
			if pkg.Path() == path {
				return pkg, nil
			}
		}
	}
	return nil, fmt.Errorf("unexpected import of %s", path)
}

// CreateFakeTestMainPackage creates a main package that calls the supplied
// test function, so whole-program analyses can treat the test as an entry
// point.
func CreateFakeTestMainPackage(testFun *ssa.Function) (*ssa.Package, error) {
	testPkg := testFun.Pkg.Pkg
	prog := testFun.Prog

	file, err := parser.ParseFile(
		prog.Fset,
		"main.go",
		fmt.Sprintf(`package main
		import (
			pkg "%s"
			"testing"
		)

		func main() {
			var t testing.T
			pkg.%s(&t)
		}`, testPkg.Path(), testFun.Name()),
		0,
	)
	if err != nil {
		return nil, err
	}

	files := []*ast.File{file}

	pkg := types.NewPackage(testPkg.Path()+".synth", "main")
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Scopes:     make(map[ast.Node]*types.Scope),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}

	if err := types.NewChecker(
		&types.Config{Importer: (*fakeImporter)(testPkg)},
		prog.Fset, pkg, info,
	).Files(files); err != nil {
		return nil, fmt.Errorf("synthesizing main for %s: %w", testFun, err)
	}

	spkg := prog.CreatePackage(pkg, files, info, false)
	spkg.Build()
	return spkg, nil
}
