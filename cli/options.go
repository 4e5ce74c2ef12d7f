package cli

import (
	"regexp"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/cvescan/cvescan/config"
	"github.com/cvescan/cvescan/internal"
	"github.com/cvescan/cvescan/pkg/vulndb"
)

var cveRegex = regexp.MustCompile(`^CVE-[0-9]{4}-[0-9]{4,}$`)

// resolveOptions validates flag combinations and folds flags and the user
// config file into scan options.
func resolveOptions() (internal.ScanOptions, error) {
	opts := internal.ScanOptions{
		ShowAll:          showAll,
		CVE:              cve,
		Silent:           silent,
		Nagios:           nagios,
		UctLinks:         uctLinks,
		Experimental:     experimental,
		ManifestCodename: manifest,
		ManifestFile:     manifestFile,
		DBFile:           dbFile,
		Refresh:          refresh,
		Offline:          offline,
		Format:           format,
		Output:           outfile,
	}

	if err := validate(); err != nil {
		return opts, err
	}

	p := priority
	if p == "" {
		conf, _ := config.Load(afero.NewOsFs())
		p = conf.Priority
	}
	floor, err := parsePriorityFloor(p)
	if err != nil {
		return opts, err
	}
	opts.Priority = floor

	return opts, nil
}

func parsePriorityFloor(p string) (vulndb.Priority, error) {
	if p == "all" {
		return vulndb.PriorityUnknown, nil
	}
	floor, ok := vulndb.ParsePriority(p)
	if !ok {
		return floor, xerrors.Errorf("invalid priority %q: expecting negligible|low|medium|high|critical|all", p)
	}
	return floor, nil
}

func validate() error {
	if cve != "" && !cveRegex.MatchString(cve) {
		return xerrors.Errorf("invalid CVE id %q", cve)
	}

	if manifestFile != "" && manifest == "" {
		return xerrors.New("the -f|--file option requires -m|--manifest")
	}

	if silent && cve == "" {
		return xerrors.New("the -s|--silent option requires -c|--cve")
	}

	if nagios {
		incompatible := []struct {
			name string
			set  bool
		}{
			{"-c|--cve", cve != ""},
			{"--show-all", showAll},
			{"--uct-links", uctLinks},
			{"--format", format != "table"},
		}
		for _, f := range incompatible {
			if f.set {
				return xerrors.Errorf("the -n|--nagios and %s options are incompatible", f.name)
			}
		}
	}

	if offline && refresh {
		return xerrors.New("the --offline and --refresh options are incompatible")
	}

	switch format {
	case "table", "csv", "json":
	default:
		return xerrors.Errorf("invalid format %q: expecting table|csv|json", format)
	}

	return nil
}
