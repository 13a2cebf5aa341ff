package divzero_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/cs-au-dk/divzero/passes/divzero"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, divzero.Analyzer, "a")
}

func TestDefiniteOnly(t *testing.T) {
	if err := divzero.Analyzer.Flags.Set("definite-only", "true"); err != nil {
		t.Fatal(err)
	}
	defer divzero.Analyzer.Flags.Set("definite-only", "false")

	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, divzero.Analyzer, "b")
}

func TestUnknownOracle(t *testing.T) {
	if err := divzero.Analyzer.Flags.Set("oracle", "magic"); err != nil {
		t.Fatal(err)
	}
	defer divzero.Analyzer.Flags.Set("oracle", "")

	results := analysistest.Run(&errorT{T: t}, analysistest.TestData(), divzero.Analyzer, "b")
	if len(results) != 1 || results[0].Err == nil {
		t.Errorf("Expected the pass to fail with an unknown oracle, got %v", results)
	}
}

// errorT swallows the errors analysistest reports for failed passes.
type errorT struct {
	*testing.T
}

func (errorT) Errorf(format string, args ...interface{}) {}
