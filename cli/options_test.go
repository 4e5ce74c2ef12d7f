package cli

import (
	"testing"

	"github.com/cvescan/cvescan/pkg/vulndb"
)

func resetFlags() {
	priority, cve, manifest, manifestFile, dbFile, format, outfile = "", "", "", "", "", "table", ""
	showAll, silent, nagios, uctLinks, experimental, refresh, offline = false, false, false, false, false, false, false
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		wantErr bool
	}{
		{
			name:  "defaults",
			setup: func() {},
		},
		{
			name:  "validCVE",
			setup: func() { cve = "CVE-2020-10735" },
		},
		{
			name:    "invalidCVE",
			setup:   func() { cve = "cve-123" },
			wantErr: true,
		},
		{
			name:    "fileWithoutManifest",
			setup:   func() { manifestFile = "pkgs.manifest" },
			wantErr: true,
		},
		{
			name:  "fileWithManifest",
			setup: func() { manifest = "jammy"; manifestFile = "pkgs.manifest" },
		},
		{
			name:    "silentWithoutCVE",
			setup:   func() { silent = true },
			wantErr: true,
		},
		{
			name:  "silentWithCVE",
			setup: func() { silent = true; cve = "CVE-2020-10735" },
		},
		{
			name:    "nagiosWithCVE",
			setup:   func() { nagios = true; cve = "CVE-2020-10735" },
			wantErr: true,
		},
		{
			name:    "nagiosWithShowAll",
			setup:   func() { nagios = true; showAll = true },
			wantErr: true,
		},
		{
			name:    "nagiosWithFormat",
			setup:   func() { nagios = true; format = "json" },
			wantErr: true,
		},
		{
			name:  "nagiosAlone",
			setup: func() { nagios = true },
		},
		{
			name:    "offlineRefresh",
			setup:   func() { offline = true; refresh = true },
			wantErr: true,
		},
		{
			name:    "badFormat",
			setup:   func() { format = "xml" },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			tt.setup()
			err := validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePriorityFloor(t *testing.T) {
	tests := []struct {
		name    string
		p       string
		want    vulndb.Priority
		wantErr bool
	}{
		{name: "all", p: "all", want: vulndb.PriorityUnknown},
		{name: "high", p: "high", want: vulndb.PriorityHigh},
		{name: "negligible", p: "negligible", want: vulndb.PriorityNegligible},
		{name: "bogus", p: "urgent", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePriorityFloor(tt.p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePriorityFloor(%q) error = %v, wantErr %v", tt.p, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("parsePriorityFloor(%q) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}
