package traversal

import (
	"testing"

	"github.com/vthunder/chronograph/internal/embedding"
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/temporal"
)

func newTestTraversal(t *testing.T) (*Traversal, *temporal.Engine) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	engine := temporal.New(s, embedding.NewDeterministicHasher())
	return New(s, engine), engine
}

// buildChain creates a -> b -> c -> d, each edge "related", all nodes
// valid from t0.
func buildChain(t *testing.T, e *temporal.Engine) {
	t.Helper()
	const t0 = "2026-01-01T00:00:00Z"
	const t1 = "2026-01-02T00:00:00Z"
	for _, id := range []string{"a", "b", "c", "d"} {
		if _, err := e.Put(id, "content "+id, nil, t0); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}
	pairs := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}}
	for _, p := range pairs {
		if _, err := e.PutEdge(p[0], p[1], "related", 1.0, nil, t1); err != nil {
			t.Fatalf("PutEdge %s->%s: %v", p[0], p[1], err)
		}
	}
}

// TestFindPathScenario covers spec.md §8 Scenario C: a temporal path
// query finds the first directed path within bounds.
func TestFindPathScenario(t *testing.T) {
	tr, e := newTestTraversal(t)
	buildChain(t, e)

	path, err := tr.FindPath("a", "d", 5, nil)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if path == nil {
		t.Fatal("expected a path from a to d")
	}
	want := []string{"a", "b", "c", "d"}
	if len(path.Path) != len(want) {
		t.Fatalf("expected path %v, got %v", want, path.Path)
	}
	for i, id := range want {
		if path.Path[i] != id {
			t.Fatalf("expected path %v, got %v", want, path.Path)
		}
	}
	if path.Length != 3 {
		t.Fatalf("expected length 3, got %d", path.Length)
	}
}

func TestFindPathRespectsMaxDepth(t *testing.T) {
	tr, e := newTestTraversal(t)
	buildChain(t, e)

	path, err := tr.FindPath("a", "d", 2, nil)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if path != nil {
		t.Fatalf("expected no path within 2 hops, got %v", path)
	}
}

func TestFindPathSameNode(t *testing.T) {
	tr, e := newTestTraversal(t)
	buildChain(t, e)
	path, err := tr.FindPath("a", "a", 5, nil)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if path.Length != 0 || len(path.Path) != 1 {
		t.Fatalf("expected trivial zero-length path, got %+v", path)
	}
}

func TestNeighborsDirectionAndDepth(t *testing.T) {
	tr, e := newTestTraversal(t)
	buildChain(t, e)

	out, err := tr.Neighbors("b", store.DirOutgoing, NeighborOptions{Depth: 1})
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(out) != 1 || out[0].ID != "c" {
		t.Fatalf("expected outgoing neighbor c, got %+v", out)
	}

	in, err := tr.Neighbors("b", store.DirIncoming, NeighborOptions{Depth: 1})
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(in) != 1 || in[0].ID != "a" {
		t.Fatalf("expected incoming neighbor a, got %+v", in)
	}

	both2, err := tr.Neighbors("b", store.DirBoth, NeighborOptions{Depth: 2})
	if err != nil {
		t.Fatalf("Neighbors depth 2: %v", err)
	}
	if len(both2) == 0 {
		t.Fatal("expected at least one neighbor within depth 2")
	}
}

func TestExploreBoundedBFS(t *testing.T) {
	tr, e := newTestTraversal(t)
	buildChain(t, e)

	res, err := tr.Explore("a", ExploreOptions{MaxDepth: 2, MaxNodes: 100})
	if err != nil {
		t.Fatalf("Explore: %v", err)
	}
	if res.Root != "a" {
		t.Fatalf("expected root a, got %s", res.Root)
	}
	// depth 0: a, depth 1: b, depth 2: c — d is out of range.
	if len(res.Nodes) != 3 {
		t.Fatalf("expected 3 nodes within depth 2, got %d: %+v", len(res.Nodes), res.Nodes)
	}
	if res.Stats.MaxDepthReached != 2 {
		t.Fatalf("expected max depth reached 2, got %d", res.Stats.MaxDepthReached)
	}
}

func TestExploreMaxNodesTruncates(t *testing.T) {
	tr, e := newTestTraversal(t)
	buildChain(t, e)

	res, err := tr.Explore("a", ExploreOptions{MaxDepth: 10, MaxNodes: 2})
	if err != nil {
		t.Fatalf("Explore: %v", err)
	}
	if len(res.Nodes) != 2 {
		t.Fatalf("expected truncation to 2 nodes, got %d", len(res.Nodes))
	}
	if !res.Stats.Truncated {
		t.Fatal("expected Truncated to be true")
	}
}

func TestExploreFiltersRejectStartNode(t *testing.T) {
	tr, e := newTestTraversal(t)
	buildChain(t, e)

	_, err := tr.Explore("a", ExploreOptions{Filters: ExploreFilters{Type: "nonexistent-type"}})
	if err == nil {
		t.Fatal("expected an error when the start node fails its own filter")
	}
}

func TestMapScopeAll(t *testing.T) {
	tr, e := newTestTraversal(t)
	buildChain(t, e)

	res, err := tr.Map(MapOptions{Scope: ScopeAll, MaxNodes: 100, MaxEdges: 100})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(res.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(res.Nodes))
	}
	if len(res.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(res.Edges))
	}
	if res.Stats.RelationCounts["related"] != 3 {
		t.Fatalf("expected 3 related edges counted, got %d", res.Stats.RelationCounts["related"])
	}
}

func TestMapScopeSubgraph(t *testing.T) {
	tr, e := newTestTraversal(t)
	buildChain(t, e)

	res, err := tr.Map(MapOptions{Scope: ScopeSubgraph, Focus: []string{"b"}, Radius: 1, MaxNodes: 100, MaxEdges: 100})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	// radius 1 from b reaches a and c.
	if len(res.Nodes) != 3 {
		t.Fatalf("expected 3 nodes (b, a, c), got %d: %+v", len(res.Nodes), res.Nodes)
	}
}

func TestMapScopeSubgraphRequiresFocus(t *testing.T) {
	tr, _ := newTestTraversal(t)
	_, err := tr.Map(MapOptions{Scope: ScopeSubgraph})
	if err == nil {
		t.Fatal("expected an error when subgraph scope has no focus nodes")
	}
}

func TestMapScopeTemporalSliceRequiresAtTime(t *testing.T) {
	tr, _ := newTestTraversal(t)
	_, err := tr.Map(MapOptions{Scope: ScopeTemporalSlice})
	if err == nil {
		t.Fatal("expected an error when temporal_slice scope has no at_time")
	}
}

func TestMapScopeTemporalSlice(t *testing.T) {
	tr, e := newTestTraversal(t)
	buildChain(t, e)

	at := "2026-01-01T12:00:00Z" // before any edges were added
	res, err := tr.Map(MapOptions{Scope: ScopeTemporalSlice, AtTime: &at, MaxNodes: 100, MaxEdges: 100})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(res.Nodes) != 4 {
		t.Fatalf("expected 4 nodes valid before edges, got %d", len(res.Nodes))
	}
	if len(res.Edges) != 0 {
		t.Fatalf("expected 0 edges valid before they were added, got %d", len(res.Edges))
	}
}
