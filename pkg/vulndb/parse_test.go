package vulndb

import (
	"errors"
	"os"
	"reflect"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	raw, err := os.ReadFile("testdata/jammy.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	db, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if db.Codename != "jammy" {
		t.Errorf("Codename = %q, want %q", db.Codename, "jammy")
	}

	wantTime := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	if !db.GeneratedAt.Equal(wantTime) {
		t.Errorf("GeneratedAt = %v, want %v", db.GeneratedAt, wantTime)
	}

	if db.Len() != 4 {
		t.Errorf("Len() = %d, want 4", db.Len())
	}

	wantOpenssl := []*Record{
		{CVE: "CVE-2020-1", Package: "openssl", Priority: PriorityHigh, Fixed: Fixed("1.1.1g")},
		{CVE: "CVE-2021-9", Package: "openssl", Priority: PriorityMedium, Fixed: Fixed("1.1.1f-1ubuntu2.2")},
	}
	if got := db.Records("openssl"); !reflect.DeepEqual(got, wantOpenssl) {
		t.Errorf("Records(openssl) = %v, want %v", got, wantOpenssl)
	}

	wantBash := []*Record{
		{CVE: "CVE-2020-2", Package: "bash", Priority: PriorityCritical, Fixed: Unresolved},
	}
	if got := db.Records("bash"); !reflect.DeepEqual(got, wantBash) {
		t.Errorf("Records(bash) = %v, want %v", got, wantBash)
	}

	// Duplicate (cve, package): last record wins, first position kept.
	wantVim := []*Record{
		{CVE: "CVE-2022-5", Package: "vim", Priority: PriorityMedium, Fixed: Fixed("2:8.2.3995-1ubuntu2.4")},
	}
	if got := db.Records("vim"); !reflect.DeepEqual(got, wantVim) {
		t.Errorf("Records(vim) = %v, want %v", got, wantVim)
	}

	if got := db.Records("no-such-package"); got != nil {
		t.Errorf("Records(no-such-package) = %v, want nil", got)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "notJSON",
			raw:  "<oval></oval>",
		},
		{
			name: "noCodename",
			raw:  `{"generated_at": "2024-03-01T06:00:00Z", "packages": {}}`,
		},
		{
			name: "noGeneratedAt",
			raw:  `{"codename": "jammy", "packages": {}}`,
		},
		{
			name: "badTimestamp",
			raw:  `{"codename": "jammy", "generated_at": "yesterday", "packages": {}}`,
		},
		{
			name: "noPackages",
			raw:  `{"codename": "jammy", "generated_at": "2024-03-01T06:00:00Z"}`,
		},
		{
			name: "recordWithoutCVE",
			raw: `{"codename": "jammy", "generated_at": "2024-03-01T06:00:00Z",
				"packages": {"bash": [{"priority": "high", "fixed_version": "5.0"}]}}`,
		},
		{
			name: "recordWithoutPriority",
			raw: `{"codename": "jammy", "generated_at": "2024-03-01T06:00:00Z",
				"packages": {"bash": [{"cve": "CVE-2020-2", "fixed_version": "5.0"}]}}`,
		},
		{
			name: "numericFixedVersion",
			raw: `{"codename": "jammy", "generated_at": "2024-03-01T06:00:00Z",
				"packages": {"bash": [{"cve": "CVE-2020-2", "priority": "high", "fixed_version": 5}]}}`,
		},
		{
			name: "recordsNotAList",
			raw: `{"codename": "jammy", "generated_at": "2024-03-01T06:00:00Z",
				"packages": {"bash": {"cve": "CVE-2020-2"}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if err == nil {
				t.Fatalf("Parse() error = nil, want malformed database")
			}
			if !errors.Is(err, ErrMalformedDatabase) {
				t.Errorf("Parse() error = %v, want ErrMalformedDatabase", err)
			}
		})
	}
}

func TestParseUnknownPriority(t *testing.T) {
	raw := `{"codename": "jammy", "generated_at": "2024-03-01T06:00:00Z",
		"packages": {"bash": [{"cve": "CVE-2020-2", "priority": "brand-new", "fixed_version": null}]}}`

	db, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := db.Records("bash")[0].Priority; got != PriorityUnknown {
		t.Errorf("Priority = %v, want PriorityUnknown", got)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	raw, err := os.ReadFile("testdata/jammy.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	db, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	out, err := db.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	again, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Serialize()) error = %v", err)
	}

	if again.Codename != db.Codename || !again.GeneratedAt.Equal(db.GeneratedAt) {
		t.Errorf("metadata changed in round trip: %v %v", again.Codename, again.GeneratedAt)
	}
	if !reflect.DeepEqual(again.Packages, db.Packages) {
		t.Errorf("records changed in round trip:\n got %v\nwant %v", again.Packages, db.Packages)
	}
}
