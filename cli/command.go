package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cvescan/cvescan/config"
	"github.com/cvescan/cvescan/internal"
)

var version = "0.9.0"

var (
	priority     string
	showAll      bool
	cve          string
	silent       bool
	nagios       bool
	uctLinks     bool
	experimental bool

	manifest     string
	manifestFile string

	dbFile  string
	refresh bool
	offline bool

	format  string
	outfile string
)

// Execute runs the command tree and returns the process exit code. Nagios
// and single-CVE modes report through the exit code, so it is threaded
// out instead of calling os.Exit here.
func Execute() (int, error) {
	var code int

	rootCmd := &cobra.Command{
		Use:   "cvescan [OPTIONS]",
		Short: "Scan an Ubuntu system for known CVEs",
		Long: `Cvescan reports which known security vulnerabilities affect the packages
installed on this machine, or listed in a cloud image manifest, using the
Ubuntu security vulnerability database.

Examples:
  # Scan the local system for unresolved CVEs of high priority and above
  $ cvescan

  # Show everything, including already-fixed CVEs
  $ cvescan -p all --show-all

  # Ask about one specific CVE
  $ cvescan -c CVE-2020-10735

  # Scan the jammy cloud image manifest instead of this machine
  $ cvescan -m jammy

  # Machine-readable output
  $ cvescan --format csv -o results.csv`,
		Args:          NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions()
			if err != nil {
				return err
			}

			code, err = internal.DoScan(config.Ctx, opts)
			return err
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&priority, "priority", "p", "", "minimal priority to report: negligible|low|medium|high|critical|all")
	flags.BoolVar(&showAll, "show-all", false, "also show CVEs the installed versions already fix")
	flags.StringVarP(&cve, "cve", "c", "", "report only the given CVE id")
	flags.BoolVarP(&silent, "silent", "s", false, "no output at all; answer through the exit code (requires -c)")
	flags.BoolVarP(&nagios, "nagios", "n", false, "produce Nagios plugin output and exit codes")
	flags.BoolVar(&uctLinks, "uct-links", false, "print Ubuntu CVE tracker links instead of bare ids")
	flags.BoolVarP(&experimental, "experimental", "x", false, "use the alpha channel of the vulnerability database")
	flags.StringVarP(&manifest, "manifest", "m", "", "scan the cloud image manifest of the given release codename")
	flags.StringVarP(&manifestFile, "file", "f", "", "path of a local manifest file (requires -m)")
	flags.StringVar(&dbFile, "db", "", "use a local vulnerability database file instead of downloading")
	flags.BoolVar(&refresh, "refresh", false, "force a database download even when the cache is fresh")
	flags.BoolVar(&offline, "offline", false, "never download; use the cached database only")
	flags.StringVar(&format, "format", "table", "output format: table|csv|json")
	flags.StringVarP(&outfile, "output", "o", "", "write the report to a file instead of stdout")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Update the cached vulnerability database",
		Args:  NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return internal.DoRefresh(config.Ctx, manifest, experimental)
		},
	}
	refreshCmd.Flags().StringVarP(&manifest, "release", "r", "", "release codename to refresh (default: the running system's)")
	refreshCmd.Flags().BoolVarP(&experimental, "experimental", "x", false, "use the alpha channel of the vulnerability database")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information and quit",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		return code, err
	}
	return code, nil
}
