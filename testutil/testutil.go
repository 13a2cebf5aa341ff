package testutil

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/cs-au-dk/divzero/pkgutil"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// LoadResult contains the SSA form of a package loaded for a test.
type LoadResult struct {
	Fset *token.FileSet
	// Files are the syntax trees of the package, including comments.
	Files []*ast.File
	// Prog is the SSA representation of the entire program.
	Prog *ssa.Program
	// Pkg is the package built from the test source.
	Pkg *ssa.Package
	// Mains denotes all the packages that can act as entry points.
	Mains []*ssa.Package
}

// Function returns the package level function with the given name.
func (res LoadResult) Function(t *testing.T, name string) *ssa.Function {
	t.Helper()
	fun := res.Pkg.Func(name)
	if fun == nil {
		t.Fatalf("Function %s not found in %s", name, res.Pkg.Pkg.Path())
	}
	return fun
}

// Notes extracts the annotations of the test source.
func (res LoadResult) Notes(t *testing.T) NotesManager {
	return MakeNotesManager(t, res.Fset, res.Files)
}

// LoadSource type-checks content as a single file package and builds it in
// SSA form with the given mode. Imported packages are created from export
// data, so their functions have no bodies.
func LoadSource(t *testing.T, content string, mode ssa.BuilderMode) (res LoadResult) {
	t.Helper()
	res.Fset = token.NewFileSet()
	file, err := parser.ParseFile(res.Fset, "main.go", content, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}
	res.Files = []*ast.File{file}

	pkg := types.NewPackage(file.Name.Name, file.Name.Name)
	res.Pkg, _, err = ssautil.BuildPackage(
		&types.Config{Importer: importer.Default()},
		res.Fset, pkg, res.Files, mode)
	if err != nil {
		t.Fatal(err)
	}

	res.Prog = res.Pkg.Prog
	res.Mains = ssautil.MainPackages(res.Prog.AllPackages())
	return
}

// LoadProgram loads content as a whole program, with bodies for every
// function in its dependencies, as needed by whole-program analyses.
func LoadProgram(t *testing.T, content string) (res LoadResult) {
	t.Helper()
	pkgs := LoadSourceAsPackages(t, "main", content)
	mainpkg := pkgs[0]

	res.Fset = mainpkg.Fset
	res.Files = mainpkg.Syntax
	res.Prog, _ = ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions|ssa.InstantiateGenerics)
	res.Prog.Build()
	res.Pkg = res.Prog.Package(mainpkg.Types)
	res.Mains = ssautil.MainPackages(res.Prog.AllPackages())
	return
}

func LoadSourceAsPackages(t *testing.T, importPath string, content string) []*packages.Package {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(
		fset,
		"main.go",
		content,
		parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}

	files := []*ast.File{file}

	// First argument is package path, the second is name.
	pkg := types.NewPackage(importPath, file.Name.Name)
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Instances:  make(map[*ast.Ident]types.Instance),
		Scopes:     make(map[ast.Node]*types.Scope),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
	if err := types.NewChecker(
		&types.Config{Importer: importer.Default()},
		fset, pkg, info).Files(files); err != nil {
		t.Fatal(err)
	}

	// If the package does not have imports we can take a fast path.
	if len(pkg.Imports()) == 0 {
		return []*packages.Package{{
			ID:        "pkg-loaded-from-src",
			Name:      pkg.Name(),
			PkgPath:   pkg.Path(),
			Types:     pkg,
			Fset:      fset,
			Syntax:    files,
			TypesInfo: info,
		}}
	}

	// Otherwise we need to invoke the packages tool that can import code for
	// dependencies. The reason to not just do this for all packages is that
	// it's a lot slower than the above because it needs to invoke the go tool
	// in a subprocess.
	pkgs, err := pkgutil.LoadPackagesFromSource(content)
	if err != nil {
		t.Fatal(err)
	}
	return pkgs
}
