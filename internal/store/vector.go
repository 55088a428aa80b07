package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/vthunder/chronograph/internal/chronoerr"
)

// NormalizeFloat32 returns a unit-length copy of v. Storing normalized
// vectors in vec0 makes its native L2 distance equivalent to cosine
// distance (cosine_dist = L2_dist² / 2 for unit vectors), so similarity
// search never needs a custom distance function.
func NormalizeFloat32(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// L2ToCosineSimilarity converts an L2 distance between two unit vectors
// into a cosine similarity in [-1, 1].
func L2ToCosineSimilarity(l2dist float64) float64 {
	return 1.0 - (l2dist*l2dist)/2.0
}

// encodeFloat32Blob serializes v as a little-endian float32 array, the same
// layout sqlite-vec's SerializeFloat32 produces, so the plain vec_map
// fallback column and the vec0 ANN index can share one set of bytes.
func encodeFloat32Blob(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(x))
	}
	return out
}

// UpsertVector writes id's normalized embedding into vec_map's plain
// embedding column, the data source for the Go-side cosine scan, reusing
// its existing rowid if present. When the build has sqlite-vec available it
// also upserts the vec0 ANN index, so FindSimilar can use either path
// without caring which one populated the data (spec.md §4.1). Per spec.md
// §4.1, this happens after the row transaction commits and is idempotent: a
// crash between the row write and this call leaves an orphan node with no
// embedding until RebuildVectorIndex re-derives it.
func (s *Store) UpsertVector(id string, emb []float32) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: upsert vector: %w", err)
	}
	defer tx.Rollback()

	var rowid int64
	err = tx.QueryRow(`SELECT rowid FROM vec_map WHERE id = ?`, id).Scan(&rowid)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(`INSERT INTO vec_map (id) VALUES (?)`, id)
		if err != nil {
			return fmt.Errorf("store: upsert vector map: %w", err)
		}
		rowid, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: upsert vector map rowid: %w", err)
		}
	case err != nil:
		return fmt.Errorf("store: upsert vector lookup: %w", err)
	}

	normalized := NormalizeFloat32(emb)
	if _, err := tx.Exec(`UPDATE vec_map SET embedding = ? WHERE rowid = ?`, encodeFloat32Blob(normalized), rowid); err != nil {
		return fmt.Errorf("store: upsert vector embedding: %w", err)
	}

	if s.vecAvailable {
		if err := s.upsertANN(tx, rowid, normalized); err != nil {
			return fmt.Errorf("store: upsert ann index: %w", err)
		}
	}

	return tx.Commit()
}

// RemoveVector deletes id's rowid mapping, embedding, and (when available)
// its vec0 ANN entry, if present.
func (s *Store) RemoveVector(id string) error {
	var rowid int64
	err := s.db.QueryRow(`SELECT rowid FROM vec_map WHERE id = ?`, id).Scan(&rowid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: remove vector lookup: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: remove vector: %w", err)
	}
	defer tx.Rollback()
	if s.vecAvailable {
		if err := s.removeANN(tx, rowid); err != nil {
			return fmt.Errorf("store: remove vector ann index: %w", err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM vec_map WHERE rowid = ?`, rowid); err != nil {
		return fmt.Errorf("store: remove vector map: %w", err)
	}
	return tx.Commit()
}

// VectorRowID returns id's embedding rowid (for excluding the query id from
// its own neighbor search).
func (s *Store) VectorRowID(id string) (int64, error) {
	var rowid int64
	err := s.db.QueryRow(`SELECT rowid FROM vec_map WHERE id = ?`, id).Scan(&rowid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, chronoerr.New(chronoerr.KindNotFound, "no embedding for %q", id)
	}
	if err != nil {
		return 0, fmt.Errorf("store: vector rowid: %w", err)
	}
	return rowid, nil
}

// VectorSimilarRow is one k-NN result: an id and its L2 distance in the
// normalized embedding space.
type VectorSimilarRow struct {
	ID       string
	Distance float64
}

// VectorKNN, upsertANN, and removeANN are defined per build tag
// (vector_cgo.go / vector_nocgo.go): the nocgo build has no ANN index, so
// VectorKNN always reports VectorUnavailable there, which callers treat as
// "fall back to AllVectors' Go-side scan".

// AllVectors returns every stored (id, embedding) pair from vec_map's plain
// embedding column, independent of whether the vec0 ANN index is available,
// for the Go-side fallback cosine scan.
func (s *Store) AllVectors() (map[string][]byte, error) {
	rows, err := s.db.Query(`SELECT id, embedding FROM vec_map WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("store: all vectors: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var id string
		var emb []byte
		if err := rows.Scan(&id, &emb); err != nil {
			return nil, fmt.Errorf("store: all vectors scan: %w", err)
		}
		out[id] = emb
	}
	return out, rows.Err()
}

// RebuildVectorIndex re-derives the vector index from current rows using
// embed to compute each vector. Returns the count of rows reindexed. Runs
// regardless of vec0 availability: UpsertVector always refreshes the plain
// fallback column, and additionally refreshes the ANN index when present.
func (s *Store) RebuildVectorIndex(embed func(id, content string) ([]float32, error)) (int, error) {
	nodes, err := s.ListCurrentNodes(1 << 30)
	if err != nil {
		return 0, fmt.Errorf("store: rebuild vector index: %w", err)
	}
	count := 0
	for _, n := range nodes {
		emb, err := embed(n.ID, n.Content)
		if err != nil {
			continue // best-effort: leave this id unindexed, matching the upsert-after-commit tolerance
		}
		if err := s.UpsertVector(n.ID, emb); err != nil {
			continue
		}
		count++
	}
	return count, nil
}
