package traversal

import (
	"github.com/vthunder/chronograph/internal/store"
)

// Neighbor is one result of a Neighbors call (spec.md §4.3).
type Neighbor struct {
	ID        string
	Relation  string
	Direction string
	Depth     *int
}

// NeighborOptions configures a Neighbors call. Depth defaults to 1 when
// zero. MaxResults of 0 means unlimited.
type NeighborOptions struct {
	Depth          int
	MaxResults     int
	RelationFilter []string
	AtTime         *string
}

// Neighbors returns the nodes reachable from id within Depth hops,
// honoring direction, relation filter, and temporal window (spec.md §4.3).
// Depth 1 is a direct lookup; depth > 1 is breadth-first with a visited
// set, tying on insertion order of the frontier. Always returns a
// non-nil slice.
func (tr *Traversal) Neighbors(id string, dir store.EdgeDirection, opts NeighborOptions) ([]Neighbor, error) {
	depth := opts.Depth
	if depth <= 0 {
		depth = 1
	}

	results := make([]Neighbor, 0)
	visited := map[string]bool{id: true}
	frontier := []string{id}

	for d := 1; d <= depth; d++ {
		var next []string
		for _, cur := range frontier {
			edges, err := tr.store.EdgesFor(cur, dir, opts.AtTime, opts.RelationFilter)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				var neighborID, edgeDir string
				switch {
				case e.FromNode == cur && e.ToNode != cur:
					neighborID, edgeDir = e.ToNode, "outgoing"
				case e.ToNode == cur && e.FromNode != cur:
					neighborID, edgeDir = e.FromNode, "incoming"
				case dir == store.DirOutgoing:
					neighborID, edgeDir = e.ToNode, "outgoing"
				default:
					neighborID, edgeDir = e.FromNode, "incoming"
				}
				if visited[neighborID] {
					continue
				}
				visited[neighborID] = true

				depthCopy := d
				n := Neighbor{ID: neighborID, Relation: e.Relation, Direction: edgeDir}
				if depth > 1 {
					n.Depth = &depthCopy
				}
				results = append(results, n)
				next = append(next, neighborID)

				if opts.MaxResults > 0 && len(results) >= opts.MaxResults {
					return results, nil
				}
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}

	return results, nil
}
