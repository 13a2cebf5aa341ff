package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/divzero/analysis/absint"
)

type functionMetrics struct {
	name     string
	stats    absint.Stats
	diverged bool
}

// metrics collects the fixpoint statistics of every analysed function.
type metrics struct {
	entries []functionMetrics
}

func (m *metrics) add(name string, stats absint.Stats, diverged bool) {
	m.entries = append(m.entries, functionMetrics{name, stats, diverged})
}

// print summarizes the metrics, slowest functions first.
func (m *metrics) print(w io.Writer) {
	if !opts.Metrics() || len(m.entries) == 0 {
		return
	}

	entries := append([]functionMetrics(nil), m.entries...)
	slices.SortFunc(entries, func(a, b functionMetrics) bool {
		if a.stats.Duration != b.stats.Duration {
			return a.stats.Duration > b.stats.Duration
		}
		return a.name < b.name
	})

	var total absint.Stats
	diverged := 0
	fmt.Fprintln(w, "================ Results =====================")
	for _, e := range entries {
		outcome := color.GreenString("converged")
		if e.diverged {
			outcome = color.RedString("diverged")
			diverged++
		}
		fmt.Fprintf(w, "%s: %s -- %s (bound %d)\n", e.name, outcome, e.stats, e.stats.Bound)

		total.Instructions += e.stats.Instructions
		total.Pops += e.stats.Pops
		total.Transfers += e.stats.Transfers
		total.Changes += e.stats.Changes
		total.Duration += e.stats.Duration
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Functions: %d (%d diverged)\n", len(entries), diverged)
	fmt.Fprintln(w, "Total:", total)
	fmt.Fprintln(w, "Average time per function:", (total.Duration / time.Duration(len(entries))).String())
	fmt.Fprintln(w, "================ Results =====================")
}
