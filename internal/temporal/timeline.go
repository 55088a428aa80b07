package temporal

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/vthunder/chronograph/internal/logging"
)

const previewLen = 80

// Timeline returns every version of id in validity order, classifying
// each transition as created/updated/deleted and summarizing what
// changed relative to the prior version (spec.md §4.2).
func (e *Engine) Timeline(id string) ([]TimelineEntry, error) {
	rows, err := e.store.NodeVersions(id)
	if err != nil {
		return nil, err
	}
	nodes, err := hydrateNodes(rows)
	if err != nil {
		return nil, err
	}

	entries := make([]TimelineEntry, 0, len(nodes))
	var prev *Node
	for _, n := range nodes {
		entry := TimelineEntry{
			Timestamp:      n.ValidFrom,
			Version:        n.Version,
			ContentPreview: logging.Truncate(n.Content, previewLen),
		}

		switch {
		case n.Version == 1:
			entry.Event = "created"
			entry.Changes = []string{"Initial version"}
		case n.ValidUntil == nil:
			entry.Event = "updated"
			entry.Changes = diffChanges(prev, n)
		default:
			hasSuccessor, err := e.store.HasSuccessor(id, n.Version)
			if err != nil {
				return nil, err
			}
			if hasSuccessor {
				entry.Event = "updated"
			} else {
				entry.Event = "deleted"
			}
			entry.Changes = diffChanges(prev, n)
		}

		entries = append(entries, entry)
		prev = n
	}
	return entries, nil
}

// diffChanges produces the terse change summary spec.md §4.2 Timeline
// describes, comparing n against the immediately preceding version.
func diffChanges(prev, n *Node) []string {
	if prev == nil {
		return []string{"Initial version"}
	}

	var changes []string
	if prev.Content != n.Content {
		changes = append(changes, "Content modified")
	}
	if !stringSliceEqual(prev.Metadata.Tags(), n.Metadata.Tags()) {
		changes = append(changes, "Tags updated")
	}
	if s1, s2 := prev.Metadata.String("status"), n.Metadata.String("status"); s1 != s2 && (s1 != "" || s2 != "") {
		changes = append(changes, fmt.Sprintf("Status: %s → %s", s1, s2))
	}
	if t1, t2 := prev.Metadata.String("type"), n.Metadata.String("type"); t1 != t2 && (t1 != "" || t2 != "") {
		changes = append(changes, fmt.Sprintf("Type: %s → %s", t1, t2))
	}

	handled := map[string]bool{"tags": true, "status": true, "type": true}
	for key, v2 := range n.Metadata {
		if handled[key] {
			continue
		}
		v1, ok := prev.Metadata[key]
		if !ok || !reflect.DeepEqual(v1, v2) {
			changes = append(changes, fmt.Sprintf("%s changed", key))
		}
	}
	for key := range prev.Metadata {
		if handled[key] {
			continue
		}
		if _, ok := n.Metadata[key]; !ok {
			changes = append(changes, fmt.Sprintf("%s changed", key))
		}
	}

	if len(changes) == 0 {
		return []string{"Minor update"}
	}
	return changes
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Diff returns the structural delta between two versions of id
// (compare_versions, spec.md §4.2).
func (e *Engine) Diff(id string, v1, v2 int) (*Diff, error) {
	n1, err := e.GetVersion(id, v1)
	if err != nil {
		return nil, err
	}
	n2, err := e.GetVersion(id, v2)
	if err != nil {
		return nil, err
	}

	d := &Diff{
		V1:             n1,
		V2:             n2,
		ContentChanged: n1.Content != n2.Content,
		V1Length:       len(n1.Content),
		V2Length:       len(n2.Content),
	}
	d.LengthChange = d.V2Length - d.V1Length

	for key, v := range n2.Metadata {
		if other, ok := n1.Metadata[key]; !ok || !jsonEqual(v, other) {
			d.ChangedKeys = append(d.ChangedKeys, key)
		}
	}
	for key := range n1.Metadata {
		if _, ok := n2.Metadata[key]; !ok {
			d.ChangedKeys = append(d.ChangedKeys, key)
		}
	}

	return d, nil
}

// jsonEqual compares two decoded-JSON values by structural (not pointer)
// equality; metadata round-trips through interface{} so reflect.DeepEqual
// is sufficient once both sides share the same decoding.
func jsonEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	// Fall back to a JSON round-trip comparison for numeric type drift
	// (e.g. json.Number vs float64) between differently-sourced values.
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ab) == string(bb)
}
