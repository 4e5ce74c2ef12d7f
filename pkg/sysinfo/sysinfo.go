// Package sysinfo identifies the running Ubuntu release so the right
// vulnerability database feed can be selected.
package sysinfo

import (
	"strings"

	version "github.com/hashicorp/go-version"
	"github.com/shirou/gopsutil/host"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Reference https://manpages.ubuntu.com/manpages/jammy/man5/os-release.5.html
var osReleasePaths = []string{"/etc/os-release", "/usr/lib/os-release"}

// minRelease is the oldest Ubuntu release the security feed still covers.
const minRelease = "16.04"

// SysInfo describes the scanned host.
type SysInfo struct {
	Codename string `json:"codename"`
	Release  string `json:"release"`
	Distrib  string `json:"distrib"`
	Kernel   string `json:"kernel"`
	Arch     string `json:"architecture"`
}

// Get detects the local distribution. It fails on non-Ubuntu hosts and on
// releases older than the feed supports; manifest mode bypasses this
// entirely by naming a codename on the command line.
func Get(fsys afero.Fs) (*SysInfo, error) {
	info, err := host.Info()
	if err != nil {
		return nil, xerrors.Errorf("failed to read host info: %w", err)
	}

	si := &SysInfo{
		Distrib: info.Platform,
		Release: info.PlatformVersion,
		Kernel:  info.KernelVersion,
		Arch:    info.KernelArch,
	}

	if !strings.EqualFold(si.Distrib, "ubuntu") {
		return nil, xerrors.Errorf("unsupported distribution %q: this tool reads the Ubuntu security feed", si.Distrib)
	}

	if err := checkSupported(si.Release); err != nil {
		return nil, err
	}

	for _, p := range osReleasePaths {
		data, err := afero.ReadFile(fsys, p)
		if err != nil {
			continue
		}
		if cn := codename(string(data)); cn != "" {
			si.Codename = cn
			break
		}
	}
	if si.Codename == "" {
		return nil, xerrors.New("could not determine the Ubuntu release codename from os-release")
	}

	return si, nil
}

func checkSupported(release string) error {
	current, err := version.NewVersion(release)
	if err != nil {
		// Interim releases such as "25.04" always parse; give odd
		// strings the benefit of the doubt.
		return nil
	}

	oldest := version.Must(version.NewVersion(minRelease))
	if current.LessThan(oldest) {
		return xerrors.Errorf("Ubuntu %s is older than %s and no longer covered by the security feed", release, minRelease)
	}
	return nil
}

// codename pulls the release codename out of os-release content.
// VERSION_CODENAME wins; UBUNTU_CODENAME covers derivatives that keep it.
func codename(config string) string {
	kv := map[string]string{}
	for _, line := range strings.Split(config, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		kv[key] = strings.Trim(value, `"`)
	}

	if cn := kv["VERSION_CODENAME"]; cn != "" {
		return cn
	}
	return kv["UBUNTU_CODENAME"]
}
