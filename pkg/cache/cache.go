// Package cache keeps the last successfully fetched vulnerability database
// payload on disk, one file per source identifier, with entry metadata in a
// small sqlite index. The payload itself is opaque here.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// ErrDatabaseUnavailable reports that a fetch failed and no cached copy,
// not even a stale one, exists to fall back on.
var ErrDatabaseUnavailable = errors.New("vulnerability database unavailable")

// FetchFunc retrieves a raw database payload. It is supplied by the
// caller; the cache never performs transport I/O itself.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Entry is the metadata kept for one cached payload.
type Entry struct {
	Source    string
	FetchedAt time.Time
	SHA256    string
	Size      int64
}

// StaleDataWarning is returned alongside data when a fetch failed but a
// stale cached copy was served instead. It is informational, not an error:
// an outdated answer beats no answer.
type StaleDataWarning struct {
	Source    string
	FetchedAt time.Time
	Age       time.Duration
	Err       error
}

func (w *StaleDataWarning) Message() string {
	return fmt.Sprintf("using cached data for %s from %s (%s old); fetch failed: %v",
		w.Source, w.FetchedAt.Format("2006-01-02 15:04"), w.Age.Round(time.Minute), w.Err)
}

// Manager owns the cache directory and its metadata index. One Manager per
// scan; concurrent scans in separate processes may share the directory
// because payloads are only ever replaced atomically.
type Manager struct {
	fs  afero.Fs
	dir string
	db  *sql.DB

	// Now is the staleness clock, replaceable in tests.
	Now func() time.Time

	// Force makes the next Acquire fetch even when the entry is fresh.
	Force bool
}

const schema = `CREATE TABLE IF NOT EXISTS entries (
	"Source" TEXT NOT NULL PRIMARY KEY,
	"FetchedAt" INTEGER NOT NULL,
	"SHA256" TEXT NOT NULL,
	"Size" INTEGER NOT NULL);`

// Open sets up a Manager over a real directory, creating it and the
// metadata index as needed.
func Open(dir string) (*Manager, error) {
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, xerrors.Errorf("failed to create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, "cvescan.db"))
	if err != nil {
		return nil, xerrors.Errorf("failed to open cache index: %w", err)
	}

	return NewManager(fs, dir, db)
}

// NewManager wires a Manager from its parts. Tests pass a MemMapFs and an
// in-memory sqlite handle.
func NewManager(fs afero.Fs, dir string, db *sql.DB) (*Manager, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, xerrors.Errorf("failed to init cache index: %w", err)
	}

	return &Manager{
		fs:  fs,
		dir: dir,
		db:  db,
		Now: time.Now,
	}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// Entry looks up the metadata for a source identifier, nil when absent.
func (m *Manager) Entry(source string) (*Entry, error) {
	row := m.db.QueryRow(`SELECT "Source", "FetchedAt", "SHA256", "Size" FROM entries WHERE "Source" = ?`, source)

	e := &Entry{}
	var fetchedAt int64
	err := row.Scan(&e.Source, &fetchedAt, &e.SHA256, &e.Size)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, xerrors.Errorf("failed to read cache entry: %w", err)
	}

	e.FetchedAt = time.Unix(fetchedAt, 0)
	return e, nil
}

// Acquire returns the database payload for source, fetching when the
// cached copy is absent, older than window, or a refresh is forced. A
// failed fetch over an existing entry degrades to the stale payload plus
// a StaleDataWarning instead of failing the scan.
func (m *Manager) Acquire(ctx context.Context, source string, window time.Duration, fetch FetchFunc) ([]byte, *StaleDataWarning, error) {
	entry, err := m.Entry(source)
	if err != nil {
		return nil, nil, err
	}

	if entry != nil && !m.Force && m.Now().Sub(entry.FetchedAt) <= window {
		data, err := m.payload(source)
		if err == nil {
			return data, nil, nil
		}
		// Index row without a readable payload: treat as absent.
		entry = nil
	}

	raw, ferr := fetch(ctx)
	if ferr != nil {
		if entry != nil {
			data, err := m.payload(source)
			if err == nil {
				age := m.Now().Sub(entry.FetchedAt)
				return data, &StaleDataWarning{
					Source:    source,
					FetchedAt: entry.FetchedAt,
					Age:       age,
					Err:       ferr,
				}, nil
			}
		}
		return nil, nil, xerrors.Errorf("fetch of %s failed (%v): %w", source, ferr, ErrDatabaseUnavailable)
	}

	if err := m.store(source, raw); err != nil {
		return nil, nil, err
	}

	return raw, nil, nil
}

func (m *Manager) payloadPath(source string) string {
	return filepath.Join(m.dir, source+".json")
}

func (m *Manager) payload(source string) ([]byte, error) {
	return afero.ReadFile(m.fs, m.payloadPath(source))
}

// store replaces the payload atomically (write to a temporary file in the
// same directory, then rename over the target) so a concurrent reader
// never observes a half-written file, then updates the index row.
func (m *Manager) store(source string, raw []byte) error {
	tmp, err := afero.TempFile(m.fs, m.dir, source+".*.tmp")
	if err != nil {
		return xerrors.Errorf("failed to create temp payload: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		m.fs.Remove(tmp.Name())
		return xerrors.Errorf("failed to write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		m.fs.Remove(tmp.Name())
		return xerrors.Errorf("failed to write payload: %w", err)
	}

	if err := m.fs.Rename(tmp.Name(), m.payloadPath(source)); err != nil {
		m.fs.Remove(tmp.Name())
		return xerrors.Errorf("failed to replace payload: %w", err)
	}

	_, err = m.db.Exec(`INSERT INTO entries ("Source", "FetchedAt", "SHA256", "Size")
			VALUES (?, ?, ?, ?)
			ON CONFLICT("Source") DO UPDATE SET
			"FetchedAt" = excluded."FetchedAt",
			"SHA256" = excluded."SHA256",
			"Size" = excluded."Size"`,
		source, m.Now().Unix(), fmt.Sprintf("%x", sha256.Sum256(raw)), int64(len(raw)))
	if err != nil {
		return xerrors.Errorf("failed to update cache entry: %w", err)
	}

	return nil
}
