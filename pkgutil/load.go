package pkgutil

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"
)

// LoadConfig configures package loading. Packages are loaded in module-aware
// mode if ModulePath is set, and in GOPATH mode otherwise. If IncludeTests is
// true, the test variants of the packages are loaded instead.
type LoadConfig struct {
	GoPath, ModulePath string
	IncludeTests       bool
}

// ErrLoad is returned when packages.Load reports errors in the loaded packages.
// The errors themselves are printed to stderr.
var ErrLoad = errors.New("errors encountered while loading packages")

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedTypes | packages.NeedTypesSizes | packages.NeedSyntax |
	packages.NeedTypesInfo | packages.NeedDeps

// parseRelative parses files under names relative to dir, so that positions
// in findings do not depend on where the sources are checked out.
func parseRelative(dir string) func(*token.FileSet, string, []byte) (*ast.File, error) {
	return func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
		if rel, err := filepath.Rel(dir, filename); err == nil {
			filename = rel
		}
		return parser.ParseFile(fset, filename, src, parser.AllErrors|parser.ParseComments)
	}
}

// ModuleName returns the module path declared by the go.mod file in dir.
func ModuleName(dir string) (string, error) {
	file := filepath.Join(dir, "go.mod")
	contents, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("unable to load module: %w", err)
	}
	name := modfile.ModulePath(contents)
	if name == "" {
		return "", fmt.Errorf("no module directive in %s", file)
	}
	return name, nil
}

func (cfg LoadConfig) packagesConfig() (*packages.Config, error) {
	gopath, err := filepath.Abs(cfg.GoPath)
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	config := &packages.Config{
		Mode:      loadMode,
		Tests:     cfg.IncludeTests,
		ParseFile: parseRelative(cwd),
	}
	if cfg.ModulePath == "" {
		config.Env = append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=off")
		return config, nil
	}

	dir, err := filepath.Abs(cfg.ModulePath)
	if err != nil {
		return nil, err
	}
	if _, err := ModuleName(dir); err != nil {
		return nil, err
	}
	config.Dir = dir
	config.Env = append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=on")
	return config, nil
}

// LoadPackages loads the packages matching pattern, with syntax and type
// information for them and all their dependencies.
func LoadPackages(cfg LoadConfig, pattern string) ([]*packages.Package, error) {
	config, err := cfg.packagesConfig()
	if err != nil {
		return nil, err
	}
	return load(config, pattern)
}

// LoadPackagesFromSource loads a single file main package from source. The
// file does not exist on disk; it is served to the go tool through an
// overlay.
func LoadPackagesFromSource(source string) ([]*packages.Package, error) {
	const file = "/fake/testpackage/main.go"
	return load(&packages.Config{
		Mode:    loadMode,
		Env:     append(os.Environ(), "GO111MODULE=off", "GOPATH=/fake"),
		Overlay: map[string][]byte{file: []byte(source)},
	}, file)
}

func load(config *packages.Config, query string) ([]*packages.Package, error) {
	pkgs, err := packages.Load(config, query)
	switch {
	case err != nil:
		return nil, fmt.Errorf("loading %s: %w", query, err)
	case packages.PrintErrors(pkgs) > 0:
		return nil, ErrLoad
	case config.Tests:
		return withoutUntested(pkgs), nil
	}
	return pkgs, nil
}

// withoutUntested drops the packages that are also loaded in their test
// variant, so every function is analysed once.
func withoutUntested(pkgs []*packages.Package) []*packages.Package {
	ids := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		ids[pkg.ID] = true
	}

	var res []*packages.Package
	for _, pkg := range pkgs {
		if !ids[fmt.Sprintf("%s [%s.test]", pkg.ID, pkg.ID)] {
			res = append(res, pkg)
		}
	}
	return res
}
