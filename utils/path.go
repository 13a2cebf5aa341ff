package utils

import (
	"flag"
)

// MakePath returns the package pattern to analyse: the first non-flag
// argument, or "./..." if none is provided.
func MakePath() string {
	if args := flag.Args(); len(args) >= 1 {
		return args[0]
	}
	return "./..."
}
