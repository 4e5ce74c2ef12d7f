package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/cvescan/cvescan/internal/scanner"
)

// RenderCSV writes the assembled results as CSV with a header row.
func RenderCSV(w io.Writer, results []*scanner.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"cve", "priority", "package", "installed_version", "fixed_version", "status"}); err != nil {
		return err
	}

	for _, r := range Assemble(results) {
		row := []string{
			r.Record.CVE,
			r.Record.Priority.String(),
			r.Record.Package,
			r.Package.Version,
			r.Record.Fixed.String(),
			r.Status.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Meta labels a JSON report with what was scanned against.
type Meta struct {
	Codename    string    `json:"codename"`
	GeneratedAt time.Time `json:"database_generated_at"`
	ScannedAt   time.Time `json:"scanned_at"`
	Stale       bool      `json:"stale_database,omitempty"`
}

type jsonResult struct {
	CVE              string `json:"cve"`
	Priority         string `json:"priority"`
	Package          string `json:"package"`
	InstalledVersion string `json:"installed_version"`
	FixedVersion     string `json:"fixed_version,omitempty"`
	Status           string `json:"status"`
}

type jsonReport struct {
	Meta    Meta         `json:"meta"`
	Results []jsonResult `json:"results"`
}

// RenderJSON writes the assembled results plus scan metadata as indented
// JSON, the shape scripted consumers parse.
func RenderJSON(w io.Writer, meta Meta, results []*scanner.Result) error {
	out := jsonReport{Meta: meta, Results: []jsonResult{}}

	for _, r := range Assemble(results) {
		jr := jsonResult{
			CVE:              r.Record.CVE,
			Priority:         r.Record.Priority.String(),
			Package:          r.Record.Package,
			InstalledVersion: r.Package.Version,
			Status:           r.Status.String(),
		}
		if r.Record.Fixed.Known() {
			jr.FixedVersion = r.Record.Fixed.Version()
		}
		out.Results = append(out.Results, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
