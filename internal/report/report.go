// Package report orders and renders match results. All presentation
// ordering lives here so the matcher itself stays order-free.
package report

import (
	"sort"

	"github.com/samber/lo"

	"github.com/cvescan/cvescan/internal/scanner"
	"github.com/cvescan/cvescan/pkg/vulndb"
)

// Assemble sorts results for deterministic rendering: priority descending,
// then CVE id ascending. The sort is stable so equal keys keep their
// classification order.
func Assemble(results []*scanner.Result) []*scanner.Result {
	sorted := make([]*scanner.Result, len(results))
	copy(sorted, results)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Record, sorted[j].Record
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.CVE < b.CVE
	})

	return sorted
}

// GroupByPackage buckets results per package name, keeping each bucket's
// assembled order.
func GroupByPackage(results []*scanner.Result) map[string][]*scanner.Result {
	return lo.GroupBy(results, func(r *scanner.Result) string {
		return r.Record.Package
	})
}

// Summary counts results per priority and status.
type Summary struct {
	Total      int
	Unresolved int
	ByPriority map[vulndb.Priority]int
}

// Summarize tallies a result set. Priority counts only cover unresolved
// results; resolved CVEs are history, not exposure.
func Summarize(results []*scanner.Result) Summary {
	unresolved := lo.Filter(results, func(r *scanner.Result, _ int) bool {
		return r.Status == scanner.StatusUnresolved
	})

	return Summary{
		Total:      len(results),
		Unresolved: len(unresolved),
		ByPriority: lo.CountValuesBy(unresolved, func(r *scanner.Result) vulndb.Priority {
			return r.Record.Priority
		}),
	}
}
