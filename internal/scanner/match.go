package scanner

import (
	"github.com/cvescan/cvescan/pkg/dpkg"
	"github.com/cvescan/cvescan/pkg/packages"
	"github.com/cvescan/cvescan/pkg/vulndb"
)

// Status classifies one (CVE, installed package) pair.
type Status int

const (
	// StatusUnresolved means the installed version is still affected:
	// either it is below the fix version, or no fix exists at all.
	StatusUnresolved Status = iota

	// StatusResolved means the installed version already carries the fix.
	StatusResolved
)

func (s Status) String() string {
	if s == StatusResolved {
		return "resolved"
	}
	return "unresolved"
}

// Result is one classified match.
type Result struct {
	Record  *vulndb.Record
	Package *packages.Package
	Status  Status
}

// Options filters the caller-visible result list. Filtering happens after
// classification and never changes how a pair was classified.
type Options struct {
	// MinPriority drops results rated below this floor. Unknown rates
	// lowest, so any floor above it hides untriaged CVEs.
	MinPriority vulndb.Priority

	// ShowResolved includes already-fixed CVEs as historical
	// information. Off by default: only unresolved results are
	// interesting in a routine scan.
	ShowResolved bool

	// CVE restricts results to a single CVE identifier. A query names
	// its CVE explicitly, so the priority floor does not apply to it.
	CVE string
}

// Match classifies every installed package against the database and
// returns the filtered results. Packages the database has no bucket for
// produce nothing: they are not known-affected by anything.
func Match(installed []*packages.Package, db *vulndb.Database, opts Options) []*Result {
	return Filter(Classify(installed, db), opts)
}

// Classify produces the full unfiltered classification. Output order
// follows the installed-package list; presentation ordering is the report
// assembler's job.
func Classify(installed []*packages.Package, db *vulndb.Database) []*Result {
	var results []*Result

	for _, p := range installed {
		for _, rec := range db.Records(p.Name) {
			results = append(results, &Result{
				Record:  rec,
				Package: p,
				Status:  classify(p, rec),
			})
		}
	}

	return results
}

func classify(p *packages.Package, rec *vulndb.Record) Status {
	// No fix exists: the package is affected no matter its version.
	if !rec.Fixed.Known() {
		return StatusUnresolved
	}

	if dpkg.LessThan(p.Version, rec.Fixed.Version()) {
		return StatusUnresolved
	}
	return StatusResolved
}

// Filter applies Options to an already classified result set.
func Filter(results []*Result, opts Options) []*Result {
	filtered := make([]*Result, 0, len(results))

	for _, r := range results {
		if opts.CVE != "" {
			if r.Record.CVE != opts.CVE {
				continue
			}
		} else if r.Record.Priority < opts.MinPriority {
			continue
		}
		if !opts.ShowResolved && r.Status == StatusResolved {
			continue
		}
		filtered = append(filtered, r)
	}

	return filtered
}
