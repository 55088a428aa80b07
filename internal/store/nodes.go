package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vthunder/chronograph/internal/chronoerr"
)

// NodeRow is the raw persisted shape of one (id, version) row. Higher
// layers (internal/temporal) hydrate this into a Node with decoded
// RichMetadata; Store never interprets metadata_json itself.
type NodeRow struct {
	ID           string
	Version      int
	Type         string
	Content      string
	MetadataJSON sql.NullString
	CreatedAt    string
	ValidFrom    string
	ValidUntil   sql.NullString
	Supersedes   sql.NullString
}

const nodeColumns = `id, version, type, content, metadata_json, created_at, valid_from, valid_until, supersedes`

func scanNodeRow(scanner interface{ Scan(...any) error }) (*NodeRow, error) {
	var r NodeRow
	if err := scanner.Scan(&r.ID, &r.Version, &r.Type, &r.Content, &r.MetadataJSON,
		&r.CreatedAt, &r.ValidFrom, &r.ValidUntil, &r.Supersedes); err != nil {
		return nil, err
	}
	return &r, nil
}

// CurrentNode returns the row whose valid_until is NULL for id.
func (s *Store) CurrentNode(id string) (*NodeRow, error) {
	row := s.db.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE id = ? AND valid_until IS NULL`, id)
	r, err := scanNodeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, chronoerr.New(chronoerr.KindNotFound, "node %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: current node: %w", err)
	}
	return r, nil
}

// NodeAt returns the row valid at instant t (lexicographic ISO-8601
// comparison), choosing the highest version on ties.
func (s *Store) NodeAt(id, t string) (*NodeRow, error) {
	row := s.db.QueryRow(`
		SELECT `+nodeColumns+` FROM nodes
		WHERE id = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)
		ORDER BY version DESC
		LIMIT 1
	`, id, t, t)
	r, err := scanNodeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, chronoerr.New(chronoerr.KindNotFound, "node %q not found at %s", id, t)
	}
	if err != nil {
		return nil, fmt.Errorf("store: node at: %w", err)
	}
	return r, nil
}

// NodeVersion returns one specific (id, version) row.
func (s *Store) NodeVersion(id string, version int) (*NodeRow, error) {
	row := s.db.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE id = ? AND version = ?`, id, version)
	r, err := scanNodeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, chronoerr.New(chronoerr.KindNotFound, "node %q version %d not found", id, version)
	}
	if err != nil {
		return nil, fmt.Errorf("store: node version: %w", err)
	}
	return r, nil
}

// NodeVersions returns every version of id ordered by valid_from ascending.
func (s *Store) NodeVersions(id string) ([]*NodeRow, error) {
	rows, err := s.db.Query(`SELECT `+nodeColumns+` FROM nodes WHERE id = ? ORDER BY valid_from ASC, version ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("store: node versions: %w", err)
	}
	defer rows.Close()
	var out []*NodeRow
	for rows.Next() {
		r, err := scanNodeRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HasSuccessor reports whether version+1 exists for id, used by the
// timeline builder to distinguish "updated" from "deleted" per spec.md
// Design Notes (the last closed row is a deletion only if nothing
// succeeds it).
func (s *Store) HasSuccessor(id string, version int) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes WHERE id = ? AND version = ?`, id, version+1).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("store: has successor: %w", err)
	}
	return count > 0, nil
}

// CloseCurrentNode sets valid_until = until on the current row for id, if
// any. Returns the row as it was before closing (so callers can compute
// the next version number), or nil if id has no current row.
func (s *Store) CloseCurrentNode(tx *sql.Tx, id, until string) (*NodeRow, error) {
	row := tx.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE id = ? AND valid_until IS NULL`, id)
	r, err := scanNodeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: close current node: %w", err)
	}
	if _, err := tx.Exec(`UPDATE nodes SET valid_until = ? WHERE id = ? AND version = ?`, until, id, r.Version); err != nil {
		return nil, fmt.Errorf("store: close current node: %w", err)
	}
	return r, nil
}

// InsertNode inserts a new (id, version) row with valid_until = NULL.
func (s *Store) InsertNode(tx *sql.Tx, r *NodeRow) error {
	if len(r.Content) > MaxContentBytes {
		return chronoerr.New(chronoerr.KindContentTooLarge, "content is %d bytes, max %d", len(r.Content), MaxContentBytes)
	}
	_, err := tx.Exec(`
		INSERT INTO nodes (id, version, type, content, metadata_json, created_at, valid_from, valid_until, supersedes)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)
	`, r.ID, r.Version, r.Type, r.Content, r.MetadataJSON, r.CreatedAt, r.ValidFrom, r.Supersedes)
	if err != nil {
		return chronoerr.Wrap(chronoerr.KindConflict, err, "insert node %q version %d", r.ID, r.Version)
	}
	return nil
}

// UpdateCurrentMetadata rewrites metadata_json on the current row in
// place, without creating a new version. Used by the tag/metadata
// operations (spec.md §4.5), which are documented as a deliberate
// divergence from the append-only model.
func (s *Store) UpdateCurrentMetadata(tx *sql.Tx, id string, metadataJSON string) error {
	res, err := tx.Exec(`UPDATE nodes SET metadata_json = ? WHERE id = ? AND valid_until IS NULL`, metadataJSON, id)
	if err != nil {
		return fmt.Errorf("store: update metadata: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return chronoerr.New(chronoerr.KindNotFound, "node %q not found", id)
	}
	return nil
}

// ListCurrentNodes returns the most recent current rows, newest first.
func (s *Store) ListCurrentNodes(limit int) ([]*NodeRow, error) {
	rows, err := s.db.Query(`
		SELECT `+nodeColumns+` FROM nodes
		WHERE valid_until IS NULL
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list current nodes: %w", err)
	}
	defer rows.Close()
	return scanNodeRows(rows)
}

// SnapshotNodes returns every row whose validity interval contains t.
func (s *Store) SnapshotNodes(t string) ([]*NodeRow, error) {
	rows, err := s.db.Query(`
		SELECT `+nodeColumns+` FROM nodes
		WHERE valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)
	`, t, t)
	if err != nil {
		return nil, fmt.Errorf("store: snapshot nodes: %w", err)
	}
	defer rows.Close()
	return scanNodeRows(rows)
}

// NodesCreatedBetween returns current-or-historical rows whose valid_from
// falls within [start, end].
func (s *Store) NodesCreatedBetween(start, end string) ([]*NodeRow, error) {
	rows, err := s.db.Query(`
		SELECT `+nodeColumns+` FROM nodes
		WHERE valid_from >= ? AND valid_from <= ?
		ORDER BY valid_from ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("store: nodes created between: %w", err)
	}
	defer rows.Close()
	return scanNodeRows(rows)
}

// NodesModifiedBetween returns version>1 rows whose valid_from falls in
// [start, end] (i.e. update events, not initial creation).
func (s *Store) NodesModifiedBetween(start, end string) ([]*NodeRow, error) {
	rows, err := s.db.Query(`
		SELECT `+nodeColumns+` FROM nodes
		WHERE version > 1 AND valid_from >= ? AND valid_from <= ?
		ORDER BY valid_from ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("store: nodes modified between: %w", err)
	}
	defer rows.Close()
	return scanNodeRows(rows)
}

// NodesDeletedBetween returns closed rows (valid_until set) whose
// valid_until falls in [start, end]. Whether each is an "update" or a
// true "deletion" is a temporal-layer classification (HasSuccessor).
func (s *Store) NodesDeletedBetween(start, end string) ([]*NodeRow, error) {
	rows, err := s.db.Query(`
		SELECT `+nodeColumns+` FROM nodes
		WHERE valid_until IS NOT NULL AND valid_until >= ? AND valid_until <= ?
		ORDER BY valid_until ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("store: nodes deleted between: %w", err)
	}
	defer rows.Close()
	return scanNodeRows(rows)
}

// CountNodes returns the number of current node rows.
func (s *Store) CountNodes() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes WHERE valid_until IS NULL`).Scan(&n)
	return n, err
}

// DeleteNodeAll removes every version row for id. Cascading edge removal
// is the caller's responsibility (internal/temporal.DeleteHard).
func (s *Store) DeleteNodeAll(tx *sql.Tx, id string) error {
	_, err := tx.Exec(`DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete node: %w", err)
	}
	return nil
}

func scanNodeRows(rows *sql.Rows) ([]*NodeRow, error) {
	var out []*NodeRow
	for rows.Next() {
		r, err := scanNodeRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
