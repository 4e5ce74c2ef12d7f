package vulndb

import (
	"bytes"
	"compress/bzip2"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/xerrors"
)

const (
	feedURL      = "https://security-metadata.canonical.com/cvescan/ubuntu-vuln-db-%s.json.bz2"
	alphaFeedURL = "https://security-metadata.canonical.com/cvescan/alpha/ubuntu-vuln-db-%s.json.bz2"
)

// fetchRetry is variable so tests can disable the backoff.
var fetchRetry = 3

// Fetcher downloads the vulnerability database feed for one Ubuntu
// release. It is the transport collaborator of the cache: the cache
// decides when to call it, the fetcher only knows how.
type Fetcher struct {
	Client *http.Client

	// Experimental switches to the alpha feed channel.
	Experimental bool

	// Quiet suppresses the download progress bar for machine-readable
	// output modes.
	Quiet bool

	// baseURL overrides the feed URL template in tests.
	baseURL string
}

func NewFetcher() *Fetcher {
	tr := &http.Transport{
		IdleConnTimeout:    60 * time.Second,
		DisableCompression: true,
	}

	return &Fetcher{
		Client: &http.Client{
			Transport: tr,
			Timeout:   10 * time.Minute,
		},
	}
}

// Source returns the cache source identifier for a release feed.
func (f *Fetcher) Source(codename string) string {
	if f.Experimental {
		return fmt.Sprintf("alpha-ubuntu-vuln-db-%s", codename)
	}
	return fmt.Sprintf("ubuntu-vuln-db-%s", codename)
}

// URL returns the feed URL for a release.
func (f *Fetcher) URL(codename string) string {
	tmpl := feedURL
	if f.Experimental {
		tmpl = alphaFeedURL
	}
	if f.baseURL != "" {
		tmpl = f.baseURL
	}
	return fmt.Sprintf(tmpl, codename)
}

// Fetch downloads and decompresses the database payload for a release,
// retrying transient failures with a quadratic backoff.
func (f *Fetcher) Fetch(ctx context.Context, codename string) ([]byte, error) {
	url := f.URL(codename)

	var data []byte
	var err error
	for i := 0; i <= fetchRetry; i++ {
		if i > 0 {
			wait := time.Duration(math.Pow(float64(i), 2)) * time.Second
			log.Printf("retrying database download in %v", wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err = f.fetch(ctx, url)
		if err == nil {
			return data, nil
		}
	}

	return nil, xerrors.Errorf("failed to fetch %s: %w", url, err)
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("unexpected response status %s", resp.Status)
	}

	body := resp.Body
	if !f.Quiet && resp.ContentLength > 0 {
		bar := pb.Full.Start64(resp.ContentLength)
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	// Fingerprint the payload as served, before decompression.
	log.Printf("database fingerprint: %x", sha256.Sum256(raw))

	if strings.HasSuffix(url, ".bz2") {
		raw, err = io.ReadAll(bzip2.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return nil, xerrors.Errorf("failed to decompress database: %w", err)
		}
	}

	return raw, nil
}
