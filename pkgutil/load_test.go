package pkgutil

import (
	"reflect"
	"regexp"
	"sort"
	"testing"

	"golang.org/x/tools/go/ssa/ssautil"
)

func TestLoadWithModule(t *testing.T) {
	if pkgs, err := LoadPackages(LoadConfig{
		GoPath:     "../examples",
		ModulePath: "../examples/src/pkg-with-module",
	}, "unrelated-name/..."); err != nil {
		t.Fatal(err)
	} else if len(pkgs) != 2 {
		t.Errorf("Expected load result to contain 2 packages, got: %s", pkgs)
	}
}

func TestLoadFromGoPath(t *testing.T) {
	if pkgs, err := LoadPackages(LoadConfig{GoPath: "../examples"}, "pkg-with-test/...");
		err != nil {
		t.Fatal(err)
	} else if len(pkgs) != 2 {
		t.Errorf("Expected load result to contain 2 packages, got: %s", pkgs)
	}
}

func TestLocalFunctions(t *testing.T) {
	pkgs, err := LoadPackages(LoadConfig{
		GoPath:     "../examples",
		ModulePath: "../examples/src/pkg-with-module",
	}, "unrelated-name/...")
	if err != nil {
		t.Fatal(err)
	}

	prog, _ := ssautil.AllPackages(pkgs, 0)
	prog.Build()
	local := LocalPackages(prog, pkgs)
	if len(local) != 2 {
		t.Fatalf("Expected 2 local packages, got %d", len(local))
	}

	for pattern, expected := range map[string][]string{
		".":     {"unrelated-name/calc.Average", "unrelated-name/calc.Ratio", "unrelated-name.main"},
		"calc":  {"unrelated-name/calc.Average", "unrelated-name/calc.Ratio"},
		"Ratio": {"unrelated-name/calc.Ratio"},
		"fmt":   nil,
	} {
		var names []string
		for _, fun := range LocalFunctions(prog, local, regexp.MustCompile(pattern)) {
			names = append(names, fun.String())
		}
		if !reflect.DeepEqual(names, expected) {
			t.Errorf("LocalFunctions(%q) = %v, expected %v", pattern, names, expected)
		}
	}
}

func TestModuleName(t *testing.T) {
	if name, err := ModuleName("../examples/src/pkg-with-module"); err != nil {
		t.Fatal(err)
	} else if name != "unrelated-name" {
		t.Errorf("Expected module unrelated-name, got %q", name)
	}

	if _, err := ModuleName("../examples/src/pkg-with-test"); err == nil {
		t.Error("Expected an error for a directory without go.mod")
	}
}

func TestTestFunctions(t *testing.T) {
	pkgs, err := LoadPackages(LoadConfig{GoPath: "../examples", IncludeTests: true}, "pkg-with-test")
	if err != nil {
		t.Fatal(err)
	}

	prog, _ := ssautil.AllPackages(pkgs, 0)
	prog.Build()

	var names []string
	for _, fun := range TestFunctions(prog) {
		names = append(names, fun.Name())
		if _, err := CreateFakeTestMainPackage(fun); err != nil {
			t.Errorf("Creating a main package for %s: %v", fun, err)
		}
	}
	sort.Strings(names)
	if expected := []string{"TestHejJorden", "TestHi"}; !reflect.DeepEqual(names, expected) {
		t.Errorf("Expected test functions %v, got %v", expected, names)
	}
}
