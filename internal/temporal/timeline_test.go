package temporal

import "testing"

func TestTimelineClassifiesTransitions(t *testing.T) {
	e := newTestEngine(t)
	e.Put("doc1", "v1 content", Metadata{"tags": []string{"draft"}}, "2026-01-01T00:00:00Z")
	e.Put("doc1", "v2 content", Metadata{"tags": []string{"final"}}, "2026-01-02T00:00:00Z")

	entries, err := e.Timeline("doc1")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 timeline entries, got %d", len(entries))
	}
	if entries[0].Event != "created" {
		t.Fatalf("expected first entry to be %q, got %q", "created", entries[0].Event)
	}
	if entries[1].Event != "updated" {
		t.Fatalf("expected second entry to be %q, got %q", "updated", entries[1].Event)
	}
	found := false
	for _, c := range entries[1].Changes {
		if c == "Tags updated" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected tag change to be reported, got %v", entries[1].Changes)
	}
}

func TestTimelineAfterDeleteHardIsEmpty(t *testing.T) {
	e := newTestEngine(t)
	e.Put("doc1", "v1", nil, "2026-01-01T00:00:00Z")
	if err := e.DeleteHard("doc1"); err != nil {
		t.Fatalf("DeleteHard: %v", err)
	}
	// DeleteHard removes rows entirely, so there is no timeline left to
	// classify as "deleted" via HasSuccessor; the timeline comes back empty.
	entries, err := e.Timeline("doc1")
	if err != nil {
		t.Fatalf("Timeline on deleted doc should return empty, not error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no timeline entries after DeleteHard, got %v", entries)
	}
}

func TestCompareVersionsDiff(t *testing.T) {
	e := newTestEngine(t)
	e.Put("doc1", "short", Metadata{"tags": []string{"a"}, "status": "draft"}, "2026-01-01T00:00:00Z")
	e.Put("doc1", "a much longer body", Metadata{"tags": []string{"a", "b"}, "status": "final"}, "2026-01-02T00:00:00Z")

	diff, err := e.Diff("doc1", 1, 2)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !diff.ContentChanged {
		t.Fatal("expected ContentChanged to be true")
	}
	if diff.LengthChange != diff.V2Length-diff.V1Length {
		t.Fatalf("LengthChange mismatch: %d vs computed %d", diff.LengthChange, diff.V2Length-diff.V1Length)
	}
	if len(diff.ChangedKeys) == 0 {
		t.Fatal("expected at least one changed metadata key")
	}
}
