package temporal

import (
	"database/sql"
	"fmt"

	"github.com/vthunder/chronograph/internal/chronoerr"
	"github.com/vthunder/chronograph/internal/embedding"
	"github.com/vthunder/chronograph/internal/logging"
	"github.com/vthunder/chronograph/internal/store"
)

// Engine implements the bitemporal put/get/edge/delete/snapshot
// operations of spec.md §4.2 over a Store and an embedding Provider.
type Engine struct {
	store    *store.Store
	embedder embedding.Provider
}

// New creates an Engine. embedder may be nil; in that case Put skips
// vector indexing (useful for tests that don't exercise similarity
// search).
func New(s *store.Store, embedder embedding.Provider) *Engine {
	return &Engine{store: s, embedder: embedder}
}

// Put creates or updates a node per spec.md §4.2. If validFrom is "",
// Now() is used. The call is not idempotent: re-putting identical content
// still increments the version (spec.md §8 boundary properties).
func (e *Engine) Put(id, content string, meta Metadata, validFrom string) (*Node, error) {
	if len(content) > store.MaxContentBytes {
		return nil, chronoerr.New(chronoerr.KindContentTooLarge, "content is %d bytes, max %d", len(content), store.MaxContentBytes)
	}
	t := validFrom
	if t == "" {
		t = Now()
	}

	metaJSON, err := encodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("temporal: encode metadata: %w", err)
	}

	docType := meta.String("type")
	if docType == "" {
		docType = "content"
	}

	var inserted *store.NodeRow
	err = e.withTx(func(tx *sql.Tx) error {
		prev, err := e.store.CloseCurrentNode(tx, id, t)
		if err != nil {
			return err
		}
		version := 1
		var supersedes sql.NullString
		if prev != nil {
			version = prev.Version + 1
			supersedes = sql.NullString{String: id, Valid: true}
		}
		row := &store.NodeRow{
			ID:           id,
			Version:      version,
			Type:         docType,
			Content:      content,
			MetadataJSON: nullableString(metaJSON),
			CreatedAt:    Now(),
			ValidFrom:    t,
			Supersedes:   supersedes,
		}
		if err := e.store.InsertNode(tx, row); err != nil {
			return err
		}
		inserted = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.store.IndexContent(id, content); err != nil {
		logging.Info("temporal", "fts index for %q failed: %v", id, err)
	}

	if e.embedder != nil {
		emb, err := e.embedder.Embed(content)
		if err != nil {
			logging.Info("temporal", "embedding for %q failed: %v", id, err)
		} else if err := e.store.UpsertVector(id, emb); err != nil {
			logging.Info("temporal", "vector upsert for %q failed: %v", id, err)
		}
	}

	return hydrateNode(inserted)
}

// Get returns the current version of id.
func (e *Engine) Get(id string) (*Node, error) {
	row, err := e.store.CurrentNode(id)
	if err != nil {
		return nil, err
	}
	return hydrateNode(row)
}

// GetAt returns the version of id valid at instant t.
func (e *Engine) GetAt(id, t string) (*Node, error) {
	row, err := e.store.NodeAt(id, t)
	if err != nil {
		return nil, err
	}
	return hydrateNode(row)
}

// GetVersion returns a specific (id, version) row.
func (e *Engine) GetVersion(id string, version int) (*Node, error) {
	row, err := e.store.NodeVersion(id, version)
	if err != nil {
		return nil, err
	}
	return hydrateNode(row)
}

// PutEdge creates or updates the current edge between from and to,
// enforcing the temporal-existence and causality checks of spec.md §4.2.
func (e *Engine) PutEdge(from, to, relation string, weight float64, meta Metadata, validFrom string) (*Edge, error) {
	t := validFrom
	if t == "" {
		t = Now()
	}
	if relation == "" {
		relation = "related"
	}
	if weight == 0 {
		weight = 1.0
	}

	fromNode, err := e.GetAt(from, t)
	if err != nil {
		return nil, chronoerr.Wrap(chronoerr.KindTemporalViolation, err, "source %q does not exist at %s", from, t)
	}
	toNode, err := e.GetAt(to, t)
	if err != nil {
		return nil, chronoerr.Wrap(chronoerr.KindTemporalViolation, err, "target %q does not exist at %s", to, t)
	}

	if t < fromNode.ValidFrom || t < toNode.ValidFrom {
		return nil, chronoerr.New(chronoerr.KindCausalityViolation,
			"edge valid_from %s precedes an endpoint's valid_from (from=%s, to=%s)", t, fromNode.ValidFrom, toNode.ValidFrom)
	}

	metaJSON, err := encodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("temporal: encode edge metadata: %w", err)
	}

	row := &store.EdgeRow{
		FromNode:       from,
		ToNode:         to,
		Relation:       relation,
		Weight:         weight,
		MetadataJSON:   nullableString(metaJSON),
		CreatedAt:      Now(),
		ValidFrom:      t,
		TemporalWeight: 1.0,
	}

	err = e.withTx(func(tx *sql.Tx) error {
		if err := e.store.CloseCurrentEdge(tx, from, to, t); err != nil {
			return err
		}
		return e.store.InsertEdge(tx, row)
	})
	if err != nil {
		return nil, err
	}
	return hydrateEdge(row)
}

// DeleteHard removes every version of id and every edge incident to it,
// plus its FTS and vector index entries. This is a maintenance operation
// that breaks history (spec.md §3 Lifecycle).
func (e *Engine) DeleteHard(id string) error {
	err := e.withTx(func(tx *sql.Tx) error {
		if err := e.store.DeleteEdgesIncident(tx, id); err != nil {
			return err
		}
		return e.store.DeleteNodeAll(tx, id)
	})
	if err != nil {
		return err
	}
	if err := e.store.RemoveFromFTS(id); err != nil {
		logging.Info("temporal", "fts removal for %q failed: %v", id, err)
	}
	if err := e.store.RemoveVector(id); err != nil {
		logging.Info("temporal", "vector removal for %q failed: %v", id, err)
	}
	return nil
}

// Snapshot returns every node and edge valid at instant t (spec.md §4.2).
func (e *Engine) Snapshot(t string) (*Snapshot, error) {
	nodeRows, err := e.store.SnapshotNodes(t)
	if err != nil {
		return nil, err
	}
	nodes, err := hydrateNodes(nodeRows)
	if err != nil {
		return nil, err
	}

	edgeRows, err := e.store.SnapshotEdges(t)
	if err != nil {
		return nil, err
	}
	edges, err := hydrateEdges(edgeRows)
	if err != nil {
		return nil, err
	}

	return &Snapshot{At: t, Nodes: nodes, Edges: edges}, nil
}

func (e *Engine) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := e.store.DB().Begin()
	if err != nil {
		return fmt.Errorf("temporal: begin tx: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("temporal: commit tx: %w", err)
	}
	return nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
