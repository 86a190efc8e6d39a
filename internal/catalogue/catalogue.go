// Package catalogue persists the workspace hash to canonical path
// mapping so a restarted daemon can rediscover previously indexed
// workspaces without rescanning the filesystem for index directories.
// It is backed by a single SQLite table (modernc.org/sqlite, pure Go, no
// cgo) rather than a flat file — transactional writes make the
// hash-collision check in Register race free without any extra locking
// of our own.
package catalogue

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	cserrors "github.com/cortexsearch/codesearch/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	hash TEXT PRIMARY KEY,
	path TEXT NOT NULL UNIQUE,
	index_path TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	last_opened_at INTEGER NOT NULL
);
`

// Entry is one catalogued workspace.
type Entry struct {
	Hash         string
	Path         string
	IndexPath    string
	CreatedAt    time.Time
	LastOpenedAt time.Time
}

// Catalogue wraps the sqlite-backed workspace table.
type Catalogue struct {
	db *sql.DB
}

// Open opens (creating if necessary) the catalogue database at dbPath.
// dbPath may be ":memory:" for tests.
func Open(dbPath string) (*Catalogue, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, cserrors.Internal("failed to open catalogue database", err)
	}
	// SQLite allows only one writer at a time; the catalogue is small and
	// low-frequency, so a single connection avoids SQLITE_BUSY entirely.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, cserrors.Internal("failed to create catalogue schema", err)
	}

	return &Catalogue{db: db}, nil
}

// Close releases the catalogue's database handle.
func (c *Catalogue) Close() error {
	return c.db.Close()
}

// Register inserts a new workspace entry, or refreshes last_opened_at if
// hash is already registered for the same canonical path. If hash is
// already registered for a *different* path, this is a truncated-hash
// collision: Register refuses the write and returns a typed internal
// error rather than silently overwriting another workspace's catalogue
// row (see DESIGN.md's collision-tiebreaker decision).
func (c *Catalogue) Register(hash, path, indexPath string, now time.Time) error {
	existing, err := c.Lookup(hash)
	if err != nil {
		return err
	}

	if existing != nil && existing.Path != path {
		return cserrors.New(cserrors.KindInternal,
			fmt.Sprintf("workspace hash %q already catalogued for a different path", hash), nil).
			WithDetail("existing_path", existing.Path).
			WithDetail("requested_path", path)
	}

	if existing != nil {
		_, err := c.db.Exec(
			`UPDATE workspaces SET last_opened_at = ? WHERE hash = ?`,
			now.Unix(), hash,
		)
		if err != nil {
			return cserrors.Internal("failed to refresh catalogue entry", err)
		}
		return nil
	}

	_, err = c.db.Exec(
		`INSERT INTO workspaces (hash, path, index_path, created_at, last_opened_at) VALUES (?, ?, ?, ?, ?)`,
		hash, path, indexPath, now.Unix(), now.Unix(),
	)
	if err != nil {
		return cserrors.Internal("failed to insert catalogue entry", err)
	}
	return nil
}

// Lookup returns the catalogued entry for hash, or nil if not present.
func (c *Catalogue) Lookup(hash string) (*Entry, error) {
	row := c.db.QueryRow(
		`SELECT hash, path, index_path, created_at, last_opened_at FROM workspaces WHERE hash = ?`,
		hash,
	)
	return scanEntry(row)
}

// LookupByPath returns the catalogued entry for path, or nil if not
// present. Used by initialise() to decide is_new without needing to
// recompute the hash from the caller's path twice.
func (c *Catalogue) LookupByPath(path string) (*Entry, error) {
	row := c.db.QueryRow(
		`SELECT hash, path, index_path, created_at, last_opened_at FROM workspaces WHERE path = ?`,
		path,
	)
	return scanEntry(row)
}

func scanEntry(row *sql.Row) (*Entry, error) {
	var e Entry
	var created, lastOpened int64
	err := row.Scan(&e.Hash, &e.Path, &e.IndexPath, &created, &lastOpened)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, cserrors.Internal("failed to read catalogue entry", err)
	}
	e.CreatedAt = time.Unix(created, 0)
	e.LastOpenedAt = time.Unix(lastOpened, 0)
	return &e, nil
}

// All returns every catalogued workspace, used by the CLI's health sweep
// command to enumerate workspaces without external input.
func (c *Catalogue) All() ([]*Entry, error) {
	rows, err := c.db.Query(
		`SELECT hash, path, index_path, created_at, last_opened_at FROM workspaces ORDER BY last_opened_at DESC`,
	)
	if err != nil {
		return nil, cserrors.Internal("failed to list catalogue entries", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var created, lastOpened int64
		if err := rows.Scan(&e.Hash, &e.Path, &e.IndexPath, &created, &lastOpened); err != nil {
			return nil, cserrors.Internal("failed to scan catalogue entry", err)
		}
		e.CreatedAt = time.Unix(created, 0)
		e.LastOpenedAt = time.Unix(lastOpened, 0)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Remove deletes the catalogue entry for hash, used when a workspace is
// force-rebuilt at a different path or its index directory is wiped.
func (c *Catalogue) Remove(hash string) error {
	_, err := c.db.Exec(`DELETE FROM workspaces WHERE hash = ?`, hash)
	if err != nil {
		return cserrors.Internal("failed to remove catalogue entry", err)
	}
	return nil
}
