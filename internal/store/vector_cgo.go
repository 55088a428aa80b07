//go:build !nocgo

package store

import (
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/vthunder/chronograph/internal/chronoerr"
)

// upsertANN refreshes rowid's entry in the vec0 ANN index.
func (s *Store) upsertANN(tx *sql.Tx, rowid int64, normalized []float32) error {
	serialized, err := sqlite_vec.SerializeFloat32(normalized)
	if err != nil {
		return fmt.Errorf("serialize embedding: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM vec_nodes WHERE rowid = ?`, rowid); err != nil {
		return fmt.Errorf("delete old ann entry: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO vec_nodes (rowid, embedding) VALUES (?, ?)`, rowid, serialized); err != nil {
		return fmt.Errorf("insert ann entry: %w", err)
	}
	return nil
}

// removeANN deletes rowid's entry from the vec0 ANN index.
func (s *Store) removeANN(tx *sql.Tx, rowid int64) error {
	_, err := tx.Exec(`DELETE FROM vec_nodes WHERE rowid = ?`, rowid)
	return err
}

// VectorKNN returns the k nearest rows to emb (ascending distance),
// excluding excludeID, via the vec0 ANN index.
func (s *Store) VectorKNN(emb []float32, k int, excludeID string) ([]VectorSimilarRow, error) {
	if !s.vecAvailable {
		return nil, chronoerr.VectorUnavailable
	}
	serialized, err := sqlite_vec.SerializeFloat32(NormalizeFloat32(emb))
	if err != nil {
		return nil, fmt.Errorf("store: serialize query embedding: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT vec_map.id, vec_nodes.distance
		FROM vec_nodes
		JOIN vec_map ON vec_map.rowid = vec_nodes.rowid
		WHERE vec_nodes.embedding MATCH ? AND k = ?
		ORDER BY vec_nodes.distance ASC
	`, serialized, k+1) // +1 to absorb the query row itself if present
	if err != nil {
		return nil, fmt.Errorf("store: vector knn: %w", err)
	}
	defer rows.Close()

	var out []VectorSimilarRow
	for rows.Next() {
		var r VectorSimilarRow
		if err := rows.Scan(&r.ID, &r.Distance); err != nil {
			return nil, fmt.Errorf("store: vector knn scan: %w", err)
		}
		if r.ID == excludeID {
			continue
		}
		out = append(out, r)
		if len(out) >= k {
			break
		}
	}
	return out, rows.Err()
}
