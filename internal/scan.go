package internal

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/cvescan/cvescan/config"
	"github.com/cvescan/cvescan/internal/report"
	"github.com/cvescan/cvescan/internal/scanner"
	"github.com/cvescan/cvescan/pkg/cache"
	"github.com/cvescan/cvescan/pkg/packages"
	"github.com/cvescan/cvescan/pkg/sysinfo"
	"github.com/cvescan/cvescan/pkg/vulndb"
)

// ScanOptions carries everything the CLI resolved from flags and config.
type ScanOptions struct {
	Priority     vulndb.Priority
	ShowAll      bool
	CVE          string
	Silent       bool
	Nagios       bool
	UctLinks     bool
	Experimental bool

	// Manifest mode: scan a named release's package manifest instead of
	// the local system.
	ManifestCodename string
	ManifestFile     string

	// DBFile bypasses the cache and feed entirely.
	DBFile string

	Refresh bool
	Offline bool

	Format string // table, csv or json
	Output string // file path; empty means stdout
}

// DoScan runs one scan end to end: acquire database, parse, read the
// package set, match, render. The returned code is the process exit code,
// which carries meaning in nagios and single-CVE modes.
func DoScan(ctx context.Context, opts ScanOptions) (int, error) {
	fsys := afero.NewOsFs()

	// Silent mode answers through the exit code alone.
	if opts.Silent {
		log.SetOutput(io.Discard)
	}

	// Failures before any verdict exit 1, or UNKNOWN under nagios.
	errCode := 1
	if opts.Nagios {
		errCode = report.NagiosUnknown
	}

	conf, err := config.Load(fsys)
	if err != nil {
		log.Printf("ignoring bad config file: %v", err)
	}

	codename := opts.ManifestCodename
	var host *sysinfo.SysInfo
	if codename == "" {
		host, err = sysinfo.Get(fsys)
		if err != nil {
			return errCode, err
		}
		codename = host.Codename
		log.Printf("Detected %s %s (%s)", host.Distrib, host.Release, codename)
	}

	installed, err := readPackages(ctx, fsys, opts, codename)
	if err != nil {
		return errCode, err
	}
	log.Printf("Scanning %d packages", len(installed))

	raw, warn, err := acquireDatabase(ctx, fsys, conf, opts, codename)
	if err != nil {
		return errCode, err
	}

	db, err := vulndb.Parse(raw)
	if err != nil {
		return errCode, err
	}
	if db.Codename != codename {
		log.Print(config.Yellow(fmt.Sprintf("database is for %s, scanning %s packages", db.Codename, codename)))
	}

	results := scanner.Match(installed, db, scanner.Options{
		MinPriority:  opts.Priority,
		ShowResolved: opts.ShowAll,
		CVE:          opts.CVE,
	})

	if warn != nil && !opts.Nagios {
		log.Print(config.Yellow(warn.Message()))
	}

	if opts.Nagios {
		line, code := report.Nagios(results)
		fmt.Println(line)
		return code, nil
	}

	if !opts.Silent {
		if err := render(opts, db, warn, results); err != nil {
			return 1, err
		}
	}

	// Single-CVE queries answer through the exit code as well.
	if opts.CVE != "" {
		for _, r := range results {
			if r.Status == scanner.StatusUnresolved {
				return 1, nil
			}
		}
	}

	return 0, nil
}

// DoRefresh force-updates the cached database for the given release.
func DoRefresh(ctx context.Context, codename string, experimental bool) error {
	fsys := afero.NewOsFs()

	conf, err := config.Load(fsys)
	if err != nil {
		log.Printf("ignoring bad config file: %v", err)
	}

	if codename == "" {
		host, err := sysinfo.Get(fsys)
		if err != nil {
			return err
		}
		codename = host.Codename
	}

	m, err := cache.Open(conf.CacheDir)
	if err != nil {
		return err
	}
	defer m.Close()
	m.Force = true

	f := vulndb.NewFetcher()
	f.Experimental = experimental

	log.Printf(config.Green("Updating vulnerability database for %s"), codename)
	if _, _, err := m.Acquire(ctx, f.Source(codename), conf.Freshness, func(ctx context.Context) ([]byte, error) {
		return f.Fetch(ctx, codename)
	}); err != nil {
		return err
	}

	log.Printf(config.Green("Vulnerability database is up to date"))
	return nil
}

func readPackages(ctx context.Context, fsys afero.Fs, opts ScanOptions, codename string) ([]*packages.Package, error) {
	switch {
	case opts.ManifestFile != "":
		return packages.ReadManifest(fsys, opts.ManifestFile)
	case opts.ManifestCodename != "":
		log.Printf("Downloading the %s cloud image manifest", codename)
		return packages.FetchManifest(ctx, vulndb.NewFetcher().Client, codename)
	default:
		return packages.ReadInstalled(fsys, packages.StatusPath)
	}
}

func acquireDatabase(ctx context.Context, fsys afero.Fs, conf *config.Config, opts ScanOptions, codename string) ([]byte, *cache.StaleDataWarning, error) {
	if opts.DBFile != "" {
		raw, err := afero.ReadFile(fsys, opts.DBFile)
		if err != nil {
			return nil, nil, xerrors.Errorf("failed to read database file: %w", err)
		}
		return raw, nil, nil
	}

	m, err := cache.Open(conf.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	defer m.Close()
	m.Force = opts.Refresh

	f := vulndb.NewFetcher()
	f.Experimental = opts.Experimental
	f.Quiet = opts.Silent || opts.Nagios || opts.Output == "" && opts.Format != "table"

	fetch := func(ctx context.Context) ([]byte, error) {
		return f.Fetch(ctx, codename)
	}
	if opts.Offline {
		// A refusing fetch makes Acquire fall back to whatever is
		// cached, with a staleness warning when it is old.
		fetch = func(ctx context.Context) ([]byte, error) {
			return nil, xerrors.New("offline mode, refusing to download")
		}
	}

	return m.Acquire(ctx, f.Source(codename), conf.Freshness, fetch)
}

func render(opts ScanOptions, db *vulndb.Database, warn *cache.StaleDataWarning, results []*scanner.Result) error {
	out := os.Stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return xerrors.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch opts.Format {
	case "csv":
		return report.RenderCSV(out, results)
	case "json":
		meta := report.Meta{
			Codename:    db.Codename,
			GeneratedAt: db.GeneratedAt,
			ScannedAt:   time.Now(),
			Stale:       warn != nil,
		}
		return report.RenderJSON(out, meta, results)
	default:
		report.RenderTable(out, results, opts.UctLinks)
		if opts.Output != "" {
			log.Printf("Report is saved in: %s", config.Yellow(opts.Output))
		}
		return nil
	}
}
