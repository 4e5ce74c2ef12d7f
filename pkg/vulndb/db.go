// Package vulndb holds the in-memory model of the Ubuntu vulnerability
// database and the code that parses, serializes and downloads it.
package vulndb

import (
	"encoding/json"
	"time"
)

// Priority is the Ubuntu triage priority of a CVE. The zero value is
// Unknown so an unrecognized feed value never masquerades as a real rating.
type Priority int

const (
	PriorityUnknown Priority = iota
	PriorityNegligible
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityUnknown:    "unknown",
	PriorityNegligible: "negligible",
	PriorityLow:        "low",
	PriorityMedium:     "medium",
	PriorityHigh:       "high",
	PriorityCritical:   "critical",
}

var priorityValues = map[string]Priority{
	"unknown":    PriorityUnknown,
	"untriaged":  PriorityUnknown,
	"negligible": PriorityNegligible,
	"low":        PriorityLow,
	"medium":     PriorityMedium,
	"high":       PriorityHigh,
	"critical":   PriorityCritical,
}

func (p Priority) String() string {
	if s, ok := priorityNames[p]; ok {
		return s
	}
	return "unknown"
}

// ParsePriority maps a feed priority string to a Priority. Unrecognized
// values become PriorityUnknown rather than an error, so a new triage
// level in the feed never aborts a scan.
func ParsePriority(s string) (Priority, bool) {
	p, ok := priorityValues[s]
	return p, ok
}

// FixedVersion is either a concrete version that carries the fix, or the
// unresolved marker meaning no fix exists yet. The zero value is unresolved.
type FixedVersion struct {
	version string
	known   bool
}

// Unresolved marks a vulnerability without an available fix.
var Unresolved = FixedVersion{}

// Fixed returns the FixedVersion for a concrete fix version.
func Fixed(version string) FixedVersion {
	return FixedVersion{version: version, known: true}
}

// Known reports whether a fix version exists.
func (f FixedVersion) Known() bool { return f.known }

// Version returns the fix version; empty when unresolved.
func (f FixedVersion) Version() string { return f.version }

func (f FixedVersion) String() string {
	if !f.known {
		return "unresolved"
	}
	return f.version
}

// Record is one CVE entry for one source package.
type Record struct {
	CVE      string
	Package  string
	Priority Priority
	Fixed    FixedVersion
}

// Database is the parsed vulnerability database for one Ubuntu release.
// It is built once per scan and read-only afterwards.
type Database struct {
	Codename    string
	GeneratedAt time.Time

	// Packages maps a source package name to its CVE records. Every
	// record's Package field equals its key here, and a (CVE, package)
	// pair appears at most once.
	Packages map[string][]*Record
}

// Records returns the CVE records for a package, nil when the package is
// not known to the database.
func (db *Database) Records(name string) []*Record {
	return db.Packages[name]
}

// Len returns the total number of records across all packages.
func (db *Database) Len() int {
	n := 0
	for _, recs := range db.Packages {
		n += len(recs)
	}
	return n
}

type recordWire struct {
	CVE          string  `json:"cve"`
	Priority     string  `json:"priority"`
	FixedVersion *string `json:"fixed_version"`
}

type databaseWire struct {
	Codename    string                  `json:"codename"`
	GeneratedAt time.Time               `json:"generated_at"`
	Packages    map[string][]recordWire `json:"packages"`
}

// Serialize renders the database back into the feed's JSON shape, such
// that Parse(Serialize(db)) reproduces db.
func (db *Database) Serialize() ([]byte, error) {
	wire := databaseWire{
		Codename:    db.Codename,
		GeneratedAt: db.GeneratedAt,
		Packages:    make(map[string][]recordWire, len(db.Packages)),
	}

	for name, recs := range db.Packages {
		rows := make([]recordWire, 0, len(recs))
		for _, rec := range recs {
			row := recordWire{
				CVE:      rec.CVE,
				Priority: rec.Priority.String(),
			}
			if rec.Fixed.Known() {
				v := rec.Fixed.Version()
				row.FixedVersion = &v
			}
			rows = append(rows, row)
		}
		wire.Packages[name] = rows
	}

	return json.MarshalIndent(wire, "", "  ")
}
