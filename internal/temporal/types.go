// Package temporal implements the bitemporal versioning rules over
// internal/store's raw rows: put/update, as-of resolution, causality-gated
// edge creation, snapshots, timelines, and version diffs (spec.md §4.2).
package temporal

import (
	"encoding/json"
	"time"
)

// Metadata is the open RichMetadata JSON object (spec.md §3). Recognized
// keys (tags, keywords, path, emoji, type, author, date, status,
// vocabulary, map) are read through the helpers below; everything else
// passes through unchanged, satisfying the round-trip invariant.
type Metadata map[string]any

// Tags returns the metadata's "tags" list, or nil if absent or malformed.
func (m Metadata) Tags() []string { return m.stringList("tags") }

// Keywords returns the metadata's "keywords" list.
func (m Metadata) Keywords() []string { return m.stringList("keywords") }

// Path returns the metadata's "path" hierarchy list.
func (m Metadata) Path() []string { return m.stringList("path") }

func (m Metadata) stringList(key string) []string {
	if m == nil {
		return nil
	}
	raw, ok := m[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// String returns metadata[key] as a string, or "" if absent or non-string.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// WithTags returns a shallow copy of m with "tags" replaced.
func (m Metadata) WithTags(tags []string) Metadata {
	out := m.clone()
	anyTags := make([]any, len(tags))
	for i, t := range tags {
		anyTags[i] = t
	}
	out["tags"] = anyTags
	return out
}

func (m Metadata) clone() Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge shallow-merges other over m, returning a new Metadata (used by
// update_document's merge_metadata option).
func (m Metadata) Merge(other Metadata) Metadata {
	out := m.clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

func decodeMetadata(raw string) (Metadata, error) {
	if raw == "" {
		return nil, nil
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func encodeMetadata(m Metadata) (string, error) {
	if m == nil {
		return "", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeMetadata marshals m to its JSON wire form. Exported for
// packages outside temporal (tags) that mutate a node's current
// metadata in place without going through Put.
func EncodeMetadata(m Metadata) (string, error) {
	return encodeMetadata(m)
}

// DecodeMetadata parses raw into a Metadata value. Exported for the
// same reason as EncodeMetadata.
func DecodeMetadata(raw string) (Metadata, error) {
	return decodeMetadata(raw)
}

// Node is the hydrated form of one (id, version) row (spec.md §3).
type Node struct {
	ID         string
	Version    int
	Type       string
	Content    string
	Metadata   Metadata
	CreatedAt  time.Time
	ValidFrom  string
	ValidUntil *string
	Supersedes *string
}

// IsCurrent reports whether this version is presently authoritative.
func (n *Node) IsCurrent() bool { return n.ValidUntil == nil }

// Edge is the hydrated form of one relationship validity interval (spec.md §3).
type Edge struct {
	FromNode       string
	ToNode         string
	Relation       string
	Weight         float64
	Metadata       Metadata
	CreatedAt      time.Time
	ValidFrom      string
	ValidUntil     *string
	TemporalWeight float64
}

// IsCurrent reports whether this edge interval is presently authoritative.
func (e *Edge) IsCurrent() bool { return e.ValidUntil == nil }

// Snapshot is the set of nodes and edges valid at a given instant (spec.md §4.3).
type Snapshot struct {
	At    string
	Nodes []*Node
	Edges []*Edge
}

// TimelineEntry describes one version transition for get_document_timeline.
type TimelineEntry struct {
	Timestamp      string
	Event          string // "created" | "updated" | "deleted"
	Version        int
	ContentPreview string
	Changes        []string
}

// Diff is the structural delta between two versions of the same document
// (compare_versions, spec.md §4.2).
type Diff struct {
	V1             *Node
	V2             *Node
	ContentChanged bool
	LengthChange   int
	V1Length       int
	V2Length       int
	ChangedKeys    []string
}
