package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/cvescan/cvescan/config"
	"github.com/cvescan/cvescan/internal/scanner"
	"github.com/cvescan/cvescan/pkg/vulndb"
)

const uctURL = "https://ubuntu.com/security/%s"

// RenderTable prints the assembled results as a colorized table preceded
// by a one-line summary.
func RenderTable(w io.Writer, results []*scanner.Result, uctLinks bool) {
	s := Summarize(results)

	fmt.Fprintf(w, "\nDetected %s unresolved CVEs | "+
		"Critical: %s High: %s Medium: %s Low: %s Negligible: %s Unknown: %d\n\n",
		config.Yellow(s.Unresolved),
		config.Red(s.ByPriority[vulndb.PriorityCritical]),
		config.Pink(s.ByPriority[vulndb.PriorityHigh]),
		config.Yellow(s.ByPriority[vulndb.PriorityMedium]),
		config.Green(s.ByPriority[vulndb.PriorityLow]),
		config.Green(s.ByPriority[vulndb.PriorityNegligible]),
		s.ByPriority[vulndb.PriorityUnknown])

	if len(results) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"CVE", "Priority", "Package", "Installed Version", "Fixed Version", "Status"})
	table.SetRowLine(true)
	table.SetAutoMergeCellsByColumnIndex([]int{2})

	for _, r := range Assemble(results) {
		cve := r.Record.CVE
		if uctLinks {
			cve = fmt.Sprintf(uctURL, cve)
		}

		table.Append([]string{
			cve,
			colorPriority(r.Record.Priority),
			r.Record.Package,
			r.Package.Version,
			r.Record.Fixed.String(),
			colorStatus(r.Status),
		})
	}

	table.Render()
}

func colorPriority(p vulndb.Priority) string {
	switch p {
	case vulndb.PriorityCritical:
		return config.Red(p.String())
	case vulndb.PriorityHigh:
		return config.Pink(p.String())
	case vulndb.PriorityMedium:
		return config.Yellow(p.String())
	case vulndb.PriorityLow, vulndb.PriorityNegligible:
		return config.Green(p.String())
	default:
		return p.String()
	}
}

func colorStatus(s scanner.Status) string {
	if s == scanner.StatusUnresolved {
		return config.Red(s.String())
	}
	return config.Green(s.String())
}

// Nagios exit codes.
const (
	NagiosOK       = 0
	NagiosWarning  = 1
	NagiosCritical = 2
	NagiosUnknown  = 3
)

// Nagios reduces results to a one-line service status and its exit code:
// CRITICAL when anything unresolved is rated high or above, WARNING for
// lower-rated unresolved CVEs, OK otherwise.
func Nagios(results []*scanner.Result) (string, int) {
	s := Summarize(results)

	urgent := s.ByPriority[vulndb.PriorityCritical] + s.ByPriority[vulndb.PriorityHigh]
	switch {
	case urgent > 0:
		return fmt.Sprintf("CRITICAL: %d unresolved CVEs, %d rated high or above", s.Unresolved, urgent), NagiosCritical
	case s.Unresolved > 0:
		return fmt.Sprintf("WARNING: %d unresolved CVEs", s.Unresolved), NagiosWarning
	default:
		return "OK: no unresolved CVEs", NagiosOK
	}
}
