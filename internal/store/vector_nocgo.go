//go:build nocgo

package store

import (
	"database/sql"

	"github.com/vthunder/chronograph/internal/chronoerr"
)

// upsertANN is a no-op under nocgo: there is no vec0 index to maintain, the
// plain vec_map.embedding column written by UpsertVector is the only
// storage FindSimilar's Go-side cosine scan needs.
func (s *Store) upsertANN(tx *sql.Tx, rowid int64, normalized []float32) error {
	return nil
}

// removeANN is a no-op under nocgo, mirroring upsertANN.
func (s *Store) removeANN(tx *sql.Tx, rowid int64) error {
	return nil
}

// VectorKNN has no ANN index to query under nocgo. Callers (search.FindSimilar)
// treat VectorUnavailable as a signal to fall back to AllVectors' Go-side scan.
func (s *Store) VectorKNN(emb []float32, k int, excludeID string) ([]VectorSimilarRow, error) {
	return nil, chronoerr.VectorUnavailable
}
