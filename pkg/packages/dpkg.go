package packages

import (
	"bufio"
	"io"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// StatusPath is where dpkg keeps its installed-package database.
const StatusPath = "/var/lib/dpkg/status"

// ReadInstalled lists the packages installed on the local system from the
// dpkg status file. Only stanzas whose Status ends in "installed" count;
// removed-but-not-purged packages carry no files to be vulnerable.
func ReadInstalled(fsys afero.Fs, path string) ([]*Package, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open dpkg status file: %w", err)
	}
	defer f.Close()

	return parseStatus(f)
}

func parseStatus(r io.Reader) ([]*Package, error) {
	var packs []*Package
	seen := map[string]bool{}

	p := &Package{Source: System}
	installed := false

	flush := func() {
		if p.Name != "" && p.Version != "" && installed && !seen[p.Name] {
			seen[p.Name] = true
			packs = append(packs, p)
		}
		p = &Package{Source: System}
		installed = false
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			flush()
			continue
		}

		// Continuation lines and unknown fields are irrelevant here.
		key, value, ok := strings.Cut(line, ": ")
		if !ok || strings.HasPrefix(line, " ") {
			continue
		}

		switch key {
		case "Package":
			p.Name = value
		case "Version":
			p.Version = value
		case "Architecture":
			p.Arch = value
		case "Status":
			installed = strings.HasSuffix(value, " installed")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("failed to read dpkg status file: %w", err)
	}
	flush()

	return packs, nil
}
