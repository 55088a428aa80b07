package store

import (
	"errors"
	"testing"

	"github.com/vthunder/chronograph/internal/chronoerr"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertNode(t *testing.T, s *Store, id string, version int, validFrom string) *NodeRow {
	t.Helper()
	row := &NodeRow{
		ID:        id,
		Version:   version,
		Type:      "content",
		Content:   "hello world",
		CreatedAt: validFrom,
		ValidFrom: validFrom,
	}
	tx, err := s.DB().Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.InsertNode(tx, row); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return row
}

func TestCurrentNodeNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.CurrentNode("missing")
	var cErr *chronoerr.Error
	if !errors.As(err, &cErr) || cErr.Kind != chronoerr.KindNotFound {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestInsertAndCloseCurrentNode(t *testing.T) {
	s := openTestStore(t)
	insertNode(t, s, "doc1", 1, "2026-01-01T00:00:00Z")

	row, err := s.CurrentNode("doc1")
	if err != nil {
		t.Fatalf("CurrentNode: %v", err)
	}
	if row.Version != 1 {
		t.Fatalf("expected version 1, got %d", row.Version)
	}

	tx, err := s.DB().Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	prev, err := s.CloseCurrentNode(tx, "doc1", "2026-01-02T00:00:00Z")
	if err != nil {
		t.Fatalf("CloseCurrentNode: %v", err)
	}
	if prev == nil || prev.Version != 1 {
		t.Fatalf("expected previous version 1, got %+v", prev)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := s.CurrentNode("doc1"); err == nil {
		t.Fatal("expected no current row after closing")
	}
}

func TestEdgePartialUniqueIndexEnforcesOneCurrent(t *testing.T) {
	s := openTestStore(t)
	insertNode(t, s, "a", 1, "2026-01-01T00:00:00Z")
	insertNode(t, s, "b", 1, "2026-01-01T00:00:00Z")

	edge := &EdgeRow{
		FromNode:       "a",
		ToNode:         "b",
		Relation:       "related",
		Weight:         1.0,
		CreatedAt:      "2026-01-02T00:00:00Z",
		ValidFrom:      "2026-01-02T00:00:00Z",
		TemporalWeight: 1.0,
	}
	tx, err := s.DB().Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.InsertEdge(tx, edge); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// A second current edge for the same (from, to) without closing the
	// first must violate the partial unique index.
	tx2, err := s.DB().Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx2.Rollback()
	edge2 := *edge
	edge2.ValidFrom = "2026-01-03T00:00:00Z"
	if err := s.InsertEdge(tx2, &edge2); err == nil {
		t.Fatal("expected a uniqueness violation inserting a second current edge")
	}
}

func TestEdgeHistoryRetainedAfterClose(t *testing.T) {
	s := openTestStore(t)
	insertNode(t, s, "a", 1, "2026-01-01T00:00:00Z")
	insertNode(t, s, "b", 1, "2026-01-01T00:00:00Z")

	edge := &EdgeRow{
		FromNode: "a", ToNode: "b", Relation: "related", Weight: 1.0,
		CreatedAt: "2026-01-02T00:00:00Z", ValidFrom: "2026-01-02T00:00:00Z", TemporalWeight: 1.0,
	}
	tx, _ := s.DB().Begin()
	if err := s.InsertEdge(tx, edge); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	tx.Commit()

	tx2, _ := s.DB().Begin()
	if err := s.CloseCurrentEdge(tx2, "a", "b", "2026-01-03T00:00:00Z"); err != nil {
		t.Fatalf("CloseCurrentEdge: %v", err)
	}
	edge2 := &EdgeRow{
		FromNode: "a", ToNode: "b", Relation: "supersedes", Weight: 2.0,
		CreatedAt: "2026-01-03T00:00:00Z", ValidFrom: "2026-01-03T00:00:00Z", TemporalWeight: 1.0,
	}
	if err := s.InsertEdge(tx2, edge2); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	tx2.Commit()

	hist, err := s.EdgesFor("a", DirOutgoing, nil, nil)
	if err != nil {
		t.Fatalf("EdgesFor: %v", err)
	}
	if len(hist) != 1 || hist[0].Relation != "supersedes" {
		t.Fatalf("expected exactly one current edge (supersedes), got %+v", hist)
	}

	at, err := s.EdgeAt("a", "b", "2026-01-02T12:00:00Z")
	if err != nil {
		t.Fatalf("EdgeAt (historical instant): %v", err)
	}
	if at.Relation != "related" {
		t.Fatalf("expected historical relation %q, got %q", "related", at.Relation)
	}
}

func TestListCurrentNodesNoLimitSentinel(t *testing.T) {
	s := openTestStore(t)
	insertNode(t, s, "a", 1, "2026-01-01T00:00:00Z")
	insertNode(t, s, "b", 1, "2026-01-01T00:00:00Z")

	rows, err := s.ListCurrentNodes(1 << 30)
	if err != nil {
		t.Fatalf("ListCurrentNodes: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows with pseudo-unlimited sentinel, got %d", len(rows))
	}

	zero, err := s.ListCurrentNodes(0)
	if err != nil {
		t.Fatalf("ListCurrentNodes(0): %v", err)
	}
	if len(zero) != 0 {
		t.Fatalf("LIMIT 0 must return zero rows (SQLite semantics), got %d", len(zero))
	}
}

func TestDeleteNodeAllAndIncidentEdges(t *testing.T) {
	s := openTestStore(t)
	insertNode(t, s, "a", 1, "2026-01-01T00:00:00Z")
	insertNode(t, s, "b", 1, "2026-01-01T00:00:00Z")
	edge := &EdgeRow{
		FromNode: "a", ToNode: "b", Relation: "related", Weight: 1.0,
		CreatedAt: "2026-01-02T00:00:00Z", ValidFrom: "2026-01-02T00:00:00Z", TemporalWeight: 1.0,
	}
	tx, _ := s.DB().Begin()
	s.InsertEdge(tx, edge)
	tx.Commit()

	tx2, err := s.DB().Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.DeleteEdgesIncident(tx2, "a"); err != nil {
		t.Fatalf("DeleteEdgesIncident: %v", err)
	}
	if err := s.DeleteNodeAll(tx2, "a"); err != nil {
		t.Fatalf("DeleteNodeAll: %v", err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := s.CurrentNode("a"); err == nil {
		t.Fatal("expected node a to be fully deleted")
	}
	edges, err := s.AllCurrentEdges()
	if err != nil {
		t.Fatalf("AllCurrentEdges: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("expected no edges left incident to deleted node, got %d", len(edges))
	}
}

func TestUpdateCurrentMetadataNotFound(t *testing.T) {
	s := openTestStore(t)
	tx, _ := s.DB().Begin()
	defer tx.Rollback()
	err := s.UpdateCurrentMetadata(tx, "missing", `{"tags":["x"]}`)
	var cErr *chronoerr.Error
	if !errors.As(err, &cErr) || cErr.Kind != chronoerr.KindNotFound {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestFTSMatchFallsBackOnMalformedQuery(t *testing.T) {
	s := openTestStore(t)
	insertNode(t, s, "a", 1, "2026-01-01T00:00:00Z")
	if err := s.IndexContent("a", "hello world"); err != nil {
		t.Fatalf("IndexContent: %v", err)
	}

	// An unterminated string is invalid FTS5 syntax, so FTSMatch should surface an
	// error rather than silently returning zero rows; callers fall back
	// to SubstringScan on this.
	if _, err := s.FTSMatch(`"unterminated`, 10); err == nil {
		t.Fatal("expected malformed FTS5 query to error")
	}

	rows, err := s.SubstringScan("hello", 10)
	if err != nil {
		t.Fatalf("SubstringScan: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row from substring fallback, got %d", len(rows))
	}
}
