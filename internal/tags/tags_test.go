package tags

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vthunder/chronograph/internal/chronoerr"
	"github.com/vthunder/chronograph/internal/search"
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/temporal"
)

func newTestTags(t *testing.T) (*Tags, *temporal.Engine) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	engine := temporal.New(s, nil)
	return New(s), engine
}

func TestAddTagsUnionsWithoutDuplication(t *testing.T) {
	tg, e := newTestTags(t)
	e.Put("doc1", "content", temporal.Metadata{"tags": []string{"a", "b"}}, "2026-01-01T00:00:00Z")

	n, err := tg.Add("doc1", nil, []string{"b", "c"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 document updated, got %d", n)
	}

	got, err := tg.Get("doc1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestAddTagsDoesNotCreateNewVersion(t *testing.T) {
	tg, e := newTestTags(t)
	node, err := e.Put("doc1", "content", nil, "2026-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := tg.Add("doc1", nil, []string{"x"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	after, err := e.Get("doc1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if after.Version != node.Version {
		t.Fatalf("expected tag add to leave version unchanged, was %d now %d", node.Version, after.Version)
	}
}

func TestRemoveTags(t *testing.T) {
	tg, e := newTestTags(t)
	e.Put("doc1", "content", temporal.Metadata{"tags": []string{"a", "b", "c"}}, "2026-01-01T00:00:00Z")

	if _, err := tg.Remove("doc1", nil, []string{"b"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, err := tg.Get("doc1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []string{"a", "c"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestRenameTagScenario covers spec.md §8 Scenario E: renaming a tag
// replaces it everywhere it occurs, across every current document.
func TestRenameTagScenario(t *testing.T) {
	tg, e := newTestTags(t)
	e.Put("doc1", "content", temporal.Metadata{"tags": []string{"old", "x"}}, "2026-01-01T00:00:00Z")
	e.Put("doc2", "content", temporal.Metadata{"tags": []string{"old"}}, "2026-01-01T00:00:00Z")
	e.Put("doc3", "content", temporal.Metadata{"tags": []string{"unrelated"}}, "2026-01-01T00:00:00Z")

	updated, err := tg.Rename("old", "new")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 documents updated, got %d", updated)
	}

	got1, _ := tg.Get("doc1")
	got2, _ := tg.Get("doc2")
	got3, _ := tg.Get("doc3")

	if !hasTag(got1, "new") || hasTag(got1, "old") {
		t.Fatalf("doc1 expected renamed tag, got %v", got1)
	}
	if !hasTag(got2, "new") || hasTag(got2, "old") {
		t.Fatalf("doc2 expected renamed tag, got %v", got2)
	}
	if !hasTag(got3, "unrelated") {
		t.Fatalf("doc3 should be untouched, got %v", got3)
	}
}

func TestListAggregatesCounts(t *testing.T) {
	tg, e := newTestTags(t)
	e.Put("doc1", "content", temporal.Metadata{"tags": []string{"a", "b"}}, "2026-01-01T00:00:00Z")
	e.Put("doc2", "content", temporal.Metadata{"tags": []string{"a"}}, "2026-01-01T00:00:00Z")

	counts, err := tg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 distinct tags, got %d", len(counts))
	}
	if counts[0].Tag != "a" || counts[0].Count != 2 {
		t.Fatalf("expected 'a' to rank first with count 2, got %+v", counts[0])
	}
}

// TestAddExceedsBulkLimitRaises covers spec.md §7: a document_filter bulk
// call matching more than MaxBulkDocuments documents raises
// BulkLimitExceeded instead of silently truncating the affected set.
func TestAddExceedsBulkLimitRaises(t *testing.T) {
	tg, e := newTestTags(t)
	for i := 0; i < MaxBulkDocuments+1; i++ {
		id := fmt.Sprintf("doc%d", i)
		if _, err := e.Put(id, "content", temporal.Metadata{"tags": []string{"bulk"}}, "2026-01-01T00:00:00Z"); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	_, err := tg.Add("", &search.Filters{Tags: []string{"bulk"}}, []string{"x"})
	if err == nil {
		t.Fatal("expected an error when the matched set exceeds the bulk limit")
	}
	if kind, ok := chronoerr.KindOf(err); !ok || kind != chronoerr.KindBulkLimitExceeded {
		t.Fatalf("expected KindBulkLimitExceeded, got %v", err)
	}
	if !errors.Is(err, chronoerr.BulkLimitExceeded) {
		t.Fatalf("expected errors.Is to match BulkLimitExceeded sentinel, got %v", err)
	}
}

func TestGetReturnsEmptySliceNotNil(t *testing.T) {
	tg, e := newTestTags(t)
	e.Put("doc1", "content", nil, "2026-01-01T00:00:00Z")

	got, err := tg.Get("doc1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected an empty slice, not nil, for a document with no tags")
	}
	if len(got) != 0 {
		t.Fatalf("expected no tags, got %v", got)
	}
}
