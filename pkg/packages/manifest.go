package packages

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// manifestURL is where Canonical publishes the package manifest of the
// current cloud image for each release.
const manifestURL = "https://cloud-images.ubuntu.com/%s/current/%s-server-cloudimg-amd64.manifest"

// ReadManifest lists packages from an Ubuntu cloud-image manifest: one
// package per line, name and version separated by whitespace. Names may
// carry a ":<arch>" qualifier, which is split off into Arch. Blank lines
// and lines without a version are skipped; a duplicate name keeps the
// first occurrence.
func ReadManifest(fsys afero.Fs, path string) ([]*Package, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open manifest file: %w", err)
	}
	defer f.Close()

	return parseManifest(f)
}

// FetchManifest downloads and parses the current cloud-image manifest for
// a release, for manifest mode without a local file.
func FetchManifest(ctx context.Context, client *http.Client, codename string) ([]*Package, error) {
	url := ManifestURL(codename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("failed to download manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("manifest download returned %s for %s", resp.Status, url)
	}

	return parseManifest(resp.Body)
}

// ManifestURL returns the published cloud-image manifest URL for a release.
func ManifestURL(codename string) string {
	return fmt.Sprintf(manifestURL, codename, codename)
}

func parseManifest(r io.Reader) ([]*Package, error) {
	var packs []*Package
	seen := map[string]bool{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		name, arch, _ := strings.Cut(fields[0], ":")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		packs = append(packs, &Package{
			Name:    name,
			Version: fields[1],
			Arch:    arch,
			Source:  Manifest,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("failed to read manifest: %w", err)
	}

	return packs, nil
}
