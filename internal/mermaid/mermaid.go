// Package mermaid renders a graph map as a Mermaid flowchart diagram
// (spec.md §6 Mermaid Format).
package mermaid

import (
	"fmt"
	"strings"

	"github.com/vthunder/chronograph/internal/temporal"
)

// typeEmoji maps recognized node types to the glyph prefixed onto the
// node label. Unrecognized types fall back to a generic document glyph.
var typeEmoji = map[string]string{
	"contract": "📄",
	"email":    "✉️",
	"note":     "📝",
	"draft":    "📃",
	"review":   "🔍",
	"final":    "✅",
}

// fillPalette maps type/status keywords to a Mermaid fill style,
// fixed per spec.md §6.
var fillPalette = map[string]string{
	"contract": "#90EE90",
	"email":    "#87CEEB",
	"note":     "#FFB6C1",
	"draft":    "#FFDAB9",
	"review":   "#F0E68C",
	"final":    "#90EE90",
	"urgent":   "#FF6B6B",
}

// Render produces a Mermaid flowchart string for the given nodes and
// edges. Node ids are sanitized for Mermaid's identifier syntax;
// labels carry the node's version or status, styled by type/status,
// with a thick red stroke on any node tagged urgent.
func Render(nodes []*temporal.Node, edges []*temporal.Edge) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	for _, n := range nodes {
		b.WriteString("    ")
		b.WriteString(renderNodeLine(n))
		b.WriteString("\n")
	}
	for _, e := range edges {
		b.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", sanitize(e.FromNode), e.Relation, sanitize(e.ToNode)))
	}
	for _, n := range nodes {
		if style := styleLine(n); style != "" {
			b.WriteString(style)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func renderNodeLine(n *temporal.Node) string {
	emoji := typeEmoji[n.Type]
	if emoji == "" {
		emoji = "📄"
	}
	id := sanitize(n.ID)

	var suffix string
	if status := n.Metadata.String("status"); status != "" {
		suffix = status
	} else {
		suffix = fmt.Sprintf("v%d", n.Version)
	}

	return fmt.Sprintf(`%s["%s %s<br/>%s"]`, id, emoji, n.ID, suffix)
}

func styleLine(n *temporal.Node) string {
	id := sanitize(n.ID)
	key := n.Metadata.String("status")
	if key == "" {
		key = n.Type
	}
	fill, ok := fillPalette[key]

	urgent := false
	for _, tag := range n.Metadata.Tags() {
		if tag == "urgent" {
			urgent = true
			break
		}
	}

	switch {
	case !ok && !urgent:
		return ""
	case ok && urgent:
		return fmt.Sprintf("    style %s fill:%s,stroke:%s,stroke-width:4px", id, fill, fillPalette["urgent"])
	case ok:
		return fmt.Sprintf("    style %s fill:%s", id, fill)
	default:
		return fmt.Sprintf("    style %s stroke:%s,stroke-width:4px", id, fillPalette["urgent"])
	}
}

// sanitize replaces every character outside [A-Za-z0-9_] with an
// underscore, producing a valid Mermaid node identifier.
func sanitize(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
