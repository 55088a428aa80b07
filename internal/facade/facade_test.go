package facade

import (
	"strings"
	"testing"

	"github.com/vthunder/chronograph/internal/embedding"
	"github.com/vthunder/chronograph/internal/search"
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/temporal"
	"github.com/vthunder/chronograph/internal/traversal"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, embedding.NewDeterministicHasher())
}

func TestAddGetUpdateDeleteDocument(t *testing.T) {
	f := newTestFacade(t)

	n, err := f.AddDocument("doc1", "hello", temporal.Metadata{"tags": []string{"a"}}, "2026-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if n.Version != 1 {
		t.Fatalf("expected version 1, got %d", n.Version)
	}

	got, err := f.GetDocument("doc1", nil)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Content != "hello" {
		t.Fatalf("expected content %q, got %q", "hello", got.Content)
	}

	newContent := "updated content"
	updated, err := f.UpdateDocument("doc1", UpdateDocumentOptions{
		Content:       &newContent,
		Metadata:      temporal.Metadata{"status": "final"},
		MergeMetadata: true,
		ValidFrom:     "2026-01-02T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.Version)
	}
	if len(updated.Metadata.Tags()) != 1 || updated.Metadata.Tags()[0] != "a" {
		t.Fatalf("expected merged metadata to retain original tags, got %v", updated.Metadata)
	}
	if updated.Metadata.String("status") != "final" {
		t.Fatalf("expected merged status field, got %v", updated.Metadata)
	}

	if err := f.DeleteDocument("doc1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := f.GetDocument("doc1", nil); err == nil {
		t.Fatal("expected document to be gone after delete")
	}
}

func TestListDocumentsDefaultLimit(t *testing.T) {
	f := newTestFacade(t)
	f.AddDocument("a", "x", nil, "2026-01-01T00:00:00Z")
	f.AddDocument("b", "y", nil, "2026-01-02T00:00:00Z")

	docs, err := f.ListDocuments(0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
}

func TestGraphOperationsEndToEnd(t *testing.T) {
	f := newTestFacade(t)
	f.AddDocument("a", "content a", nil, "2026-01-01T00:00:00Z")
	f.AddDocument("b", "content b", nil, "2026-01-01T00:00:00Z")

	if _, err := f.AddRelationship("a", "b", "related", 1.0, nil, "2026-01-02T00:00:00Z"); err != nil {
		t.Fatalf("AddRelationship: %v", err)
	}

	neighbors, err := f.GetNeighbors("a", store.DirOutgoing, traversal.NeighborOptions{Depth: 1})
	if err != nil {
		t.Fatalf("GetNeighbors: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].ID != "b" {
		t.Fatalf("expected neighbor b, got %+v", neighbors)
	}

	path, err := f.FindPath("a", "b", 5, nil)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if path == nil || len(path.Path) != 2 {
		t.Fatalf("expected a 2-node path, got %+v", path)
	}
}

func TestExploreGraphCoercesUnknownStrategy(t *testing.T) {
	f := newTestFacade(t)
	f.AddDocument("a", "content a", nil, "2026-01-01T00:00:00Z")

	res, err := f.ExploreGraph("a", traversal.ExploreOptions{Strategy: "depth-first"})
	if err != nil {
		t.Fatalf("ExploreGraph: %v", err)
	}
	if res.Strategy != "breadth" {
		t.Fatalf("expected unsupported strategy to fall back to breadth, got %q", res.Strategy)
	}
}

func TestMapGraphMermaidFormat(t *testing.T) {
	f := newTestFacade(t)
	f.AddDocument("a", "content a", temporal.Metadata{"type": "note"}, "2026-01-01T00:00:00Z")
	f.AddDocument("b", "content b", temporal.Metadata{"type": "note"}, "2026-01-01T00:00:00Z")
	f.AddRelationship("a", "b", "related", 1.0, nil, "2026-01-02T00:00:00Z")

	out, err := f.MapGraph(traversal.MapOptions{Scope: traversal.ScopeAll, MaxNodes: 100, MaxEdges: 100}, search.Filters{}, MapFormatMermaid)
	if err != nil {
		t.Fatalf("MapGraph: %v", err)
	}
	if out.Diagram == "" {
		t.Fatal("expected a non-empty mermaid diagram")
	}
	if !strings.HasPrefix(out.Diagram, "graph TD") {
		t.Fatalf("expected mermaid diagram to start with %q, got %q", "graph TD", out.Diagram)
	}
}

func TestMapGraphFilteredScopeUsesFacadeFilters(t *testing.T) {
	f := newTestFacade(t)
	f.AddDocument("a", "content a", temporal.Metadata{"type": "contract"}, "2026-01-01T00:00:00Z")
	f.AddDocument("b", "content b", temporal.Metadata{"type": "note"}, "2026-01-01T00:00:00Z")

	out, err := f.MapGraph(traversal.MapOptions{Scope: traversal.ScopeFiltered, MaxNodes: 100, MaxEdges: 100},
		search.Filters{Type: "contract"}, MapFormatJSON)
	if err != nil {
		t.Fatalf("MapGraph: %v", err)
	}
	if len(out.Result.Nodes) != 1 || out.Result.Nodes[0].ID != "a" {
		t.Fatalf("expected only the contract-typed node, got %+v", out.Result.Nodes)
	}
}

func TestTagsRequestDispatch(t *testing.T) {
	f := newTestFacade(t)
	f.AddDocument("doc1", "content", temporal.Metadata{"tags": []string{"a"}}, "2026-01-01T00:00:00Z")

	if _, err := f.Tags(TagsRequest{Action: TagsAdd, DocumentID: "doc1", Values: []string{"b"}}); err != nil {
		t.Fatalf("Tags add: %v", err)
	}
	resp, err := f.Tags(TagsRequest{Action: TagsGet, DocumentID: "doc1"})
	if err != nil {
		t.Fatalf("Tags get: %v", err)
	}
	if len(resp.Tags) != 2 {
		t.Fatalf("expected 2 tags after add, got %v", resp.Tags)
	}

	if _, err := f.Tags(TagsRequest{Action: TagsAction("bogus")}); err == nil {
		t.Fatal("expected an error for an unknown tags action")
	}
}

func TestStatsAndIntegrity(t *testing.T) {
	f := newTestFacade(t)
	f.AddDocument("a", "content a", nil, "2026-01-01T00:00:00Z")
	f.AddDocument("b", "content b", nil, "2026-01-01T00:00:00Z")
	f.AddRelationship("a", "b", "related", 1.0, nil, "2026-01-02T00:00:00Z")

	stats, err := f.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.NodeCount != 2 || stats.EdgeCount != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	report, err := f.Integrity()
	if err != nil {
		t.Fatalf("Integrity: %v", err)
	}
	if len(report.OrphanedNodes) != 0 {
		t.Fatalf("expected no orphaned nodes, got %v", report.OrphanedNodes)
	}
}

func TestIntegrityFindsOrphanedNode(t *testing.T) {
	f := newTestFacade(t)
	f.AddDocument("isolated", "content", nil, "2026-01-01T00:00:00Z")

	report, err := f.Integrity()
	if err != nil {
		t.Fatalf("Integrity: %v", err)
	}
	if len(report.OrphanedNodes) != 1 || report.OrphanedNodes[0] != "isolated" {
		t.Fatalf("expected isolated to be reported orphaned, got %v", report.OrphanedNodes)
	}
}
