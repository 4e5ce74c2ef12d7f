package vulndb

import (
	"errors"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/xerrors"
)

// ErrMalformedDatabase reports a database payload that cannot safely be
// matched against: broken JSON, a missing required field, or a field of
// the wrong type. A corrupt database must abort the scan instead of
// silently under-reporting.
var ErrMalformedDatabase = errors.New("malformed vulnerability database")

// Parse validates and loads a raw database payload. Unknown fields are
// ignored for forward compatibility. A duplicate (cve, package) pair is
// not an error: the record seen last in input order wins, keeping the
// position of the first occurrence.
func Parse(raw []byte) (*Database, error) {
	if !gjson.ValidBytes(raw) {
		return nil, xerrors.Errorf("payload is not valid JSON: %w", ErrMalformedDatabase)
	}

	root := gjson.ParseBytes(raw)

	codename := root.Get("codename")
	if codename.Type != gjson.String || codename.String() == "" {
		return nil, xerrors.Errorf("missing release codename: %w", ErrMalformedDatabase)
	}

	generated := root.Get("generated_at")
	if generated.Type != gjson.String {
		return nil, xerrors.Errorf("missing generated_at: %w", ErrMalformedDatabase)
	}
	generatedAt, err := time.Parse(time.RFC3339, generated.String())
	if err != nil {
		return nil, xerrors.Errorf("bad generated_at %q: %w", generated.String(), ErrMalformedDatabase)
	}

	packs := root.Get("packages")
	if !packs.IsObject() {
		return nil, xerrors.Errorf("missing packages object: %w", ErrMalformedDatabase)
	}

	db := &Database{
		Codename:    codename.String(),
		GeneratedAt: generatedAt,
		Packages:    map[string][]*Record{},
	}

	var perr error
	packs.ForEach(func(name, list gjson.Result) bool {
		if name.String() == "" {
			perr = xerrors.Errorf("empty package name: %w", ErrMalformedDatabase)
			return false
		}
		if !list.IsArray() {
			perr = xerrors.Errorf("package %q: records are not a list: %w", name.String(), ErrMalformedDatabase)
			return false
		}

		var records []*Record
		seen := map[string]int{}

		list.ForEach(func(_, item gjson.Result) bool {
			rec, err := parseRecord(name.String(), item)
			if err != nil {
				perr = err
				return false
			}

			if i, ok := seen[rec.CVE]; ok {
				records[i] = rec
				return true
			}
			seen[rec.CVE] = len(records)
			records = append(records, rec)
			return true
		})

		db.Packages[name.String()] = records
		return perr == nil
	})
	if perr != nil {
		return nil, perr
	}

	return db, nil
}

func parseRecord(pkg string, item gjson.Result) (*Record, error) {
	cve := item.Get("cve")
	if cve.Type != gjson.String || cve.String() == "" {
		return nil, xerrors.Errorf("package %q: record without cve id: %w", pkg, ErrMalformedDatabase)
	}

	prio := item.Get("priority")
	if prio.Type != gjson.String {
		return nil, xerrors.Errorf("package %q: %s has no priority: %w", pkg, cve.String(), ErrMalformedDatabase)
	}
	// Unrecognized priorities map to unknown instead of failing, so a
	// new triage level in the feed never blocks a scan.
	priority, _ := ParsePriority(prio.String())

	fixed := Unresolved
	switch fv := item.Get("fixed_version"); fv.Type {
	case gjson.Null:
		// No fix available.
	case gjson.String:
		fixed = Fixed(fv.String())
	default:
		if fv.Exists() {
			return nil, xerrors.Errorf("package %q: %s has a non-string fixed_version: %w", pkg, cve.String(), ErrMalformedDatabase)
		}
	}

	return &Record{
		CVE:      cve.String(),
		Package:  pkg,
		Priority: priority,
		Fixed:    fixed,
	}, nil
}
