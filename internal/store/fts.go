package store

import (
	"fmt"

	"github.com/vthunder/chronograph/internal/chronoerr"
)

// IndexContent upserts id's content into the FTS5 inverted index. FTS5
// external-content triggers don't fit our composite-key nodes table, so
// the index is kept in sync from application code instead: delete then
// insert, since nodes_fts has no natural unique key to upsert against.
func (s *Store) IndexContent(id, content string) error {
	if !s.ftsAvailable {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: index content: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM nodes_fts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: index content delete: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO nodes_fts(id, content) VALUES (?, ?)`, id, content); err != nil {
		return fmt.Errorf("store: index content insert: %w", err)
	}
	return tx.Commit()
}

// RemoveFromFTS deletes id's entry from the inverted index.
func (s *Store) RemoveFromFTS(id string) error {
	if !s.ftsAvailable {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM nodes_fts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: remove from fts: %w", err)
	}
	return nil
}

// FTSMatch runs a MATCH query against the inverted index, returning
// matching ids ordered by relevance (best first). Returns
// chronoerr.MalformedQuery if the query string fails to parse as FTS5
// syntax; callers are expected to fall back to SubstringScan on that
// error (spec.md §4.4).
func (s *Store) FTSMatch(query string, limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT id FROM nodes_fts WHERE nodes_fts MATCH ? ORDER BY rank LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, chronoerr.Wrap(chronoerr.KindMalformedQuery, err, "fts match %q", query)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: fts match scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SubstringScan is the non-FTS fallback: a LIKE scan over current content
// ordered by created_at desc, used when FTS5 is unavailable or the query
// fails to parse.
func (s *Store) SubstringScan(query string, limit int) ([]*NodeRow, error) {
	rows, err := s.db.Query(`
		SELECT `+nodeColumns+` FROM nodes
		WHERE valid_until IS NULL AND content LIKE '%' || ? || '%'
		ORDER BY created_at DESC
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: substring scan: %w", err)
	}
	defer rows.Close()
	return scanNodeRows(rows)
}

// RebuildFTSIndex re-derives the inverted index from current rows,
// discarding whatever was there before. Used by the rebuild_search_index
// maintenance operation.
func (s *Store) RebuildFTSIndex() (int, error) {
	if !s.ftsAvailable {
		return 0, nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: rebuild fts: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM nodes_fts`); err != nil {
		return 0, fmt.Errorf("store: rebuild fts clear: %w", err)
	}
	res, err := tx.Exec(`
		INSERT INTO nodes_fts(id, content)
		SELECT id, content FROM nodes WHERE valid_until IS NULL
	`)
	if err != nil {
		return 0, fmt.Errorf("store: rebuild fts populate: %w", err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: rebuild fts commit: %w", err)
	}
	return int(n), nil
}
