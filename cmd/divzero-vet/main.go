// Command divzero-vet reports divisions by zero.
//
// Usage:
//
//	divzero-vet ./...
//
// Or as a vet tool:
//
//	go vet -vettool=$(which divzero-vet) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/cs-au-dk/divzero/passes/divzero"
)

func main() {
	singlechecker.Main(divzero.Analyzer)
}
