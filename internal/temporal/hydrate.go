package temporal

import (
	"time"

	"github.com/vthunder/chronograph/internal/store"
)

// nowFunc is overridable in tests so put() timestamps are deterministic.
var nowFunc = time.Now

// Now returns the current instant as an ISO-8601 UTC string with a
// trailing Z, the wire format spec.md §6 mandates for all temporal fields.
func Now() string {
	return FormatTime(nowFunc())
}

// FormatTime renders t in the canonical ISO-8601 UTC wire format.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999999Z")
}

func hydrateNode(r *store.NodeRow) (*Node, error) {
	meta, err := decodeMetadata(r.MetadataJSON.String)
	if err != nil {
		return nil, err
	}
	n := &Node{
		ID:        r.ID,
		Version:   r.Version,
		Type:      r.Type,
		Content:   r.Content,
		Metadata:  meta,
		ValidFrom: r.ValidFrom,
	}
	if r.ValidUntil.Valid {
		vu := r.ValidUntil.String
		n.ValidUntil = &vu
	}
	if r.Supersedes.Valid {
		sup := r.Supersedes.String
		n.Supersedes = &sup
	}
	if t, err := time.Parse(time.RFC3339Nano, r.CreatedAt); err == nil {
		n.CreatedAt = t
	} else if t, err := time.Parse("2006-01-02 15:04:05", r.CreatedAt); err == nil {
		n.CreatedAt = t
	}
	return n, nil
}

func hydrateNodes(rows []*store.NodeRow) ([]*Node, error) {
	out := make([]*Node, 0, len(rows))
	for _, r := range rows {
		n, err := hydrateNode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func hydrateEdge(r *store.EdgeRow) (*Edge, error) {
	meta, err := decodeMetadata(r.MetadataJSON.String)
	if err != nil {
		return nil, err
	}
	e := &Edge{
		FromNode:       r.FromNode,
		ToNode:         r.ToNode,
		Relation:       r.Relation,
		Weight:         r.Weight,
		Metadata:       meta,
		ValidFrom:      r.ValidFrom,
		TemporalWeight: r.TemporalWeight,
	}
	if r.ValidUntil.Valid {
		vu := r.ValidUntil.String
		e.ValidUntil = &vu
	}
	if t, err := time.Parse(time.RFC3339Nano, r.CreatedAt); err == nil {
		e.CreatedAt = t
	} else if t, err := time.Parse("2006-01-02 15:04:05", r.CreatedAt); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}

func hydrateEdges(rows []*store.EdgeRow) ([]*Edge, error) {
	out := make([]*Edge, 0, len(rows))
	for _, r := range rows {
		e, err := hydrateEdge(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// HydrateEdges converts raw store rows into temporal Edges, decoding
// metadata and validity fields. Exported for packages that assemble
// edge sets directly from the store (traversal's Explore and Map).
func HydrateEdges(rows []*store.EdgeRow) ([]*Edge, error) {
	return hydrateEdges(rows)
}

// HydrateNodes converts raw store rows into temporal Nodes. Exported
// for the same reason as HydrateEdges.
func HydrateNodes(rows []*store.NodeRow) ([]*Node, error) {
	return hydrateNodes(rows)
}
