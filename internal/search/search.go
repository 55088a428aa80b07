// Package search implements full-text, filtered, and vector similarity
// search over current node rows (spec.md §4.4).
package search

import (
	"encoding/binary"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/tsawler/prose/v3"

	"github.com/vthunder/chronograph/internal/chronoerr"
	"github.com/vthunder/chronograph/internal/logging"
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/temporal"
)

// Search composes the store's FTS index, metadata filters, and vector
// index into the Search Layer operations.
type Search struct {
	store *store.Store
}

// New creates a Search layer.
func New(s *store.Store) *Search {
	return &Search{store: s}
}

// SearchContent runs the FTS MATCH query, falling back to a tokenized
// substring scan on parse failure (spec.md §4.4).
func (s *Search) SearchContent(query string, limit int) ([]*temporal.Node, error) {
	if limit <= 0 {
		limit = 10
	}

	ids, err := s.store.FTSMatch(query, limit)
	if err == nil {
		return s.hydrateByIDs(ids)
	}

	logging.Info("search", "fts match failed, falling back to substring scan: %v", err)
	rows, ferr := s.store.SubstringScan(primaryTerm(query), limit)
	if ferr != nil {
		return nil, ferr
	}
	return temporal.HydrateNodes(rows)
}

// primaryTerm tokenizes query with prose and returns its longest token,
// used as the LIKE pattern for the substring fallback so a malformed
// multi-word FTS query still yields a useful scan.
func primaryTerm(query string) string {
	doc, err := prose.NewDocument(query)
	if err != nil {
		return query
	}
	best := ""
	for _, tok := range doc.Tokens() {
		if len(tok.Text) > len(best) {
			best = tok.Text
		}
	}
	if best == "" {
		return query
	}
	return best
}

func (s *Search) hydrateByIDs(ids []string) ([]*temporal.Node, error) {
	out := make([]*temporal.Node, 0, len(ids))
	for _, id := range ids {
		row, err := s.store.CurrentNode(id)
		if err != nil {
			continue // FTS entry for a node that has since been deleted/superseded
		}
		n, err := temporal.HydrateNodes([]*store.NodeRow{row})
		if err != nil {
			return nil, err
		}
		out = append(out, n...)
	}
	return out, nil
}

// Filters is the composable metadata predicate Search and the tag
// layer's document_filter both apply (spec.md §4.4, §4.5).
type Filters struct {
	Tags       []string
	Keywords   []string
	PathPrefix []string
	Emoji      string
	Type       string
	Author     string
	Other      map[string]string
}

func (f Filters) matches(n *temporal.Node) bool {
	if !containsAll(n.Metadata.Tags(), f.Tags) {
		return false
	}
	if !containsAll(n.Metadata.Keywords(), f.Keywords) {
		return false
	}
	if !containsAll(n.Metadata.Path(), f.PathPrefix) {
		return false
	}
	if f.Emoji != "" && n.Metadata.String("emoji") != f.Emoji {
		return false
	}
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.Author != "" && n.Metadata.String("author") != f.Author {
		return false
	}
	for key, want := range f.Other {
		if n.Metadata.String(key) != want {
			return false
		}
	}
	return true
}

func containsAll(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

// Apply filters an already-hydrated node set, exported for callers
// (map_graph's filtered scope, tags' document_filter) that assemble
// their own candidate set before narrowing it.
func Apply(nodes []*temporal.Node, f Filters) []*temporal.Node {
	out := make([]*temporal.Node, 0, len(nodes))
	for _, n := range nodes {
		if f.matches(n) {
			out = append(out, n)
		}
	}
	return out
}

// Options configures a composite Search call.
type Options struct {
	Query     string
	Filters   Filters
	Limit     int
	SortBy    string // "created_at" | "id"
	SortOrder string // "asc" | "desc"
}

// SmartSearch composes an optional FTS restriction with a metadata
// filter over current versions, then sorts and limits (spec.md §4.4).
func (s *Search) SmartSearch(opts Options) ([]*temporal.Node, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	var candidates []*temporal.Node
	if strings.TrimSpace(opts.Query) != "" {
		matched, err := s.SearchContent(opts.Query, limit*10)
		if err != nil {
			return nil, err
		}
		candidates = matched
	} else {
		rows, err := s.store.ListCurrentNodes(1 << 30)
		if err != nil {
			return nil, err
		}
		nodes, err := temporal.HydrateNodes(rows)
		if err != nil {
			return nil, err
		}
		candidates = nodes
	}

	filtered := Apply(candidates, opts.Filters)
	sortNodes(filtered, opts.SortBy, opts.SortOrder)

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func sortNodes(nodes []*temporal.Node, sortBy, sortOrder string) {
	asc := sortOrder == "asc"
	less := func(i, j int) bool {
		var lt bool
		switch sortBy {
		case "id":
			lt = nodes[i].ID < nodes[j].ID
		default:
			lt = nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		}
		if asc {
			return lt
		}
		return !lt
	}
	sort.SliceStable(nodes, less)
}

// SimilarResult is one findSimilar hit.
type SimilarResult struct {
	ID         string
	Content    string
	Similarity float64
	Metadata   temporal.Metadata
}

// FindSimilar looks up id's own stored embedding and runs cosine k-NN
// against the vector index, falling back to a Go-side scan when
// sqlite-vec is unavailable. Fails with VectorUnavailable if id has no
// stored embedding (spec.md §4.4).
func (s *Search) FindSimilar(id string, limit int) ([]SimilarResult, error) {
	if limit <= 0 {
		limit = 10
	}

	vectors, err := s.store.AllVectors()
	if err != nil {
		return nil, chronoerr.Wrap(chronoerr.KindVectorUnavailable, err, "load vector index")
	}
	queryBlob, ok := vectors[id]
	if !ok {
		return nil, chronoerr.New(chronoerr.KindVectorUnavailable, "no embedding stored for %q", id)
	}
	queryVec := decodeFloat32Blob(queryBlob)

	if s.store.VecAvailable() {
		hits, err := s.store.VectorKNN(queryVec, limit, id)
		if err == nil {
			return s.hydrateSimilar(hits)
		}
		if !errors.Is(err, chronoerr.VectorUnavailable) {
			return nil, err
		}
	}

	type scored struct {
		id   string
		dist float64
	}
	var scores []scored
	for otherID, blob := range vectors {
		if otherID == id {
			continue
		}
		vec := decodeFloat32Blob(blob)
		if len(vec) != len(queryVec) {
			continue
		}
		scores = append(scores, scored{id: otherID, dist: l2Distance(queryVec, vec)})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].dist < scores[j].dist })
	if len(scores) > limit {
		scores = scores[:limit]
	}

	hits := make([]store.VectorSimilarRow, len(scores))
	for i, sc := range scores {
		hits[i] = store.VectorSimilarRow{ID: sc.id, Distance: sc.dist}
	}
	return s.hydrateSimilar(hits)
}

// decodeFloat32Blob parses a little-endian float32 blob in the format
// sqlite_vec.SerializeFloat32 produces.
func decodeFloat32Blob(blob []byte) []float32 {
	out := make([]float32, len(blob)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

func (s *Search) hydrateSimilar(hits []store.VectorSimilarRow) ([]SimilarResult, error) {
	out := make([]SimilarResult, 0, len(hits))
	for _, h := range hits {
		row, err := s.store.CurrentNode(h.ID)
		if err != nil {
			continue
		}
		nodes, err := temporal.HydrateNodes([]*store.NodeRow{row})
		if err != nil || len(nodes) == 0 {
			continue
		}
		out = append(out, SimilarResult{
			ID:         h.ID,
			Content:    nodes[0].Content,
			Similarity: store.L2ToCosineSimilarity(h.Distance),
			Metadata:   nodes[0].Metadata,
		})
	}
	return out, nil
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
