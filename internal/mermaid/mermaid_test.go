package mermaid

import (
	"strings"
	"testing"

	"github.com/vthunder/chronograph/internal/temporal"
)

func TestRenderBasicDiagram(t *testing.T) {
	nodes := []*temporal.Node{
		{ID: "contract-1", Version: 2, Type: "contract", Metadata: temporal.Metadata{"status": "final"}},
		{ID: "email-1", Version: 1, Type: "email"},
	}
	edges := []*temporal.Edge{
		{FromNode: "contract-1", ToNode: "email-1", Relation: "references"},
	}

	out := Render(nodes, edges)
	if !strings.HasPrefix(out, "graph TD\n") {
		t.Fatalf("expected diagram to start with %q, got %q", "graph TD\n", out)
	}
	if !strings.Contains(out, "📄") {
		t.Fatal("expected the contract emoji in the output")
	}
	if !strings.Contains(out, "contract_1 -->|references| email_1") {
		t.Fatalf("expected a sanitized edge line, got %q", out)
	}
	if !strings.Contains(out, "style contract_1 fill:#90EE90") {
		t.Fatalf("expected a fill style line for the final contract, got %q", out)
	}
}

func TestRenderUrgentTagAddsStroke(t *testing.T) {
	nodes := []*temporal.Node{
		{ID: "n1", Version: 1, Type: "note", Metadata: temporal.Metadata{"tags": []string{"urgent"}}},
	}
	out := Render(nodes, nil)
	if !strings.Contains(out, "stroke:#FF6B6B") {
		t.Fatalf("expected urgent stroke color in styling, got %q", out)
	}
}

func TestSanitizeReplacesNonIdentifierChars(t *testing.T) {
	nodes := []*temporal.Node{{ID: "doc/with spaces.md", Version: 1, Type: "note"}}
	out := Render(nodes, nil)
	if strings.Contains(out, "doc/with spaces.md[") {
		t.Fatal("expected id to be sanitized before use as a mermaid identifier")
	}
	if !strings.Contains(out, "doc_with_spaces_md[") {
		t.Fatalf("expected sanitized identifier in output, got %q", out)
	}
}

func TestRenderFallsBackToVersionWhenNoStatus(t *testing.T) {
	nodes := []*temporal.Node{{ID: "n1", Version: 3, Type: "unknown-type"}}
	out := Render(nodes, nil)
	if !strings.Contains(out, "v3") {
		t.Fatalf("expected version fallback label, got %q", out)
	}
	if !strings.Contains(out, "📄") {
		t.Fatal("expected the generic document emoji fallback for an unrecognized type")
	}
}
