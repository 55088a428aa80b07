// Package store implements row-level persistence for the bitemporal
// document-graph: node versions, edges, the full-text inverted index, and
// the vector index, plus the schema migration that keeps them all in sync.
// It hides the underlying engine from the rest of the system; callers only
// see Go structs and typed errors from internal/chronoerr.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vthunder/chronograph/internal/chronoerr"
	"github.com/vthunder/chronograph/internal/logging"
)

// MaxContentBytes is the documented per-document content ceiling (spec.md §3).
const MaxContentBytes = 2 * 1024 * 1024

// Store wraps the SQLite connection backing the document graph.
type Store struct {
	db           *sql.DB
	path         string
	ftsAvailable bool
	vecAvailable bool
}

// Open opens or creates the database file at statePath (a directory; the file
// itself is named graph.db inside it), running schema migration.
func Open(statePath string) (*Store, error) {
	if err := os.MkdirAll(statePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: create state dir: %w", err)
	}
	dbPath := filepath.Join(statePath, "graph.db")

	db, err := sql.Open(driverName, dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=off")
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, chronoerr.Wrap(chronoerr.KindMigrationError, err, "schema migration failed")
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		logging.Info("store", "sqlite-vec not available: %v — similarity search uses the Go-side scan", err)
	} else {
		logging.Info("store", "sqlite-vec %s loaded", vecVersion)
		s.vecAvailable = true
	}

	if err := s.checkFTS(); err != nil {
		logging.Info("store", "FTS5 not available: %v — searchContent falls back to substring scan", err)
	} else {
		s.ftsAvailable = true
	}

	return s, nil
}

func (s *Store) checkFTS() error {
	_, err := s.db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS __fts_probe USING fts5(x)`)
	if err != nil {
		return err
	}
	_, _ = s.db.Exec(`DROP TABLE __fts_probe`)
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// VecAvailable reports whether the vector index initialized successfully.
func (s *Store) VecAvailable() bool { return s.vecAvailable }

// FTSAvailable reports whether the FTS5 inverted index initialized successfully.
func (s *Store) FTSAvailable() bool { return s.ftsAvailable }

// DB exposes the raw connection for components that need ad-hoc queries
// (traversal, search) without duplicating connection management.
func (s *Store) DB() *sql.DB { return s.db }
