package traversal

import (
	"github.com/vthunder/chronograph/internal/chronoerr"
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/temporal"
)

// MapScope selects one of the four node-selection strategies for
// map_graph (spec.md §4.3).
type MapScope string

const (
	ScopeAll           MapScope = "all"
	ScopeFiltered      MapScope = "filtered"
	ScopeSubgraph      MapScope = "subgraph"
	ScopeTemporalSlice MapScope = "temporal_slice"
)

// MapOptions configures a map_graph call.
type MapOptions struct {
	Scope      MapScope
	MaxNodes   int
	MaxEdges   int
	AtTime     *string
	Focus      []string // subgraph scope: focus node ids
	Radius     int      // subgraph scope: per-focus explore depth
	Filters    ExploreFilters
	Filter     func([]*temporal.Node) ([]*temporal.Node, error) // filtered scope: delegates to the search layer's metadata filter
}

// MapStats carries the optional aggregate statistics map_graph may
// attach to its JSON output.
type MapStats struct {
	TypeCounts     map[string]int
	RelationCounts map[string]int
	TagCounts      map[string]int
	VersionCounts  map[int]int
}

// MapResult is the structured output of map_graph, rendered either as
// JSON (by the facade) or as a Mermaid diagram (see the mermaid package).
type MapResult struct {
	Scope MapScope
	Nodes []*temporal.Node
	Edges []*temporal.Edge
	Stats MapStats
}

// Map assembles a bounded subgraph per one of the four scopes, fetches
// incident edges among the selected nodes, and computes aggregate
// statistics over the result (spec.md §4.3).
func (tr *Traversal) Map(opts MapOptions) (*MapResult, error) {
	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = 100
	}
	maxEdges := opts.MaxEdges
	if maxEdges <= 0 {
		maxEdges = 200
	}

	nodes, err := tr.selectScopeNodes(opts, maxNodes)
	if err != nil {
		return nil, err
	}
	if len(nodes) > maxNodes {
		nodes = nodes[:maxNodes]
	}

	ids := make([]string, len(nodes))
	nodeSet := map[string]bool{}
	for i, n := range nodes {
		ids[i] = n.ID
		nodeSet[n.ID] = true
	}

	edgeRows, err := tr.store.EdgesAmong(ids, opts.AtTime, maxEdges)
	if err != nil {
		return nil, err
	}
	edges, err := temporal.HydrateEdges(edgeRows)
	if err != nil {
		return nil, err
	}

	return &MapResult{
		Scope: opts.Scope,
		Nodes: nodes,
		Edges: edges,
		Stats: computeMapStats(nodes, edges),
	}, nil
}

func (tr *Traversal) selectScopeNodes(opts MapOptions, maxNodes int) ([]*temporal.Node, error) {
	switch opts.Scope {
	case ScopeAll, "":
		rows, err := tr.store.ListCurrentNodes(maxNodes)
		if err != nil {
			return nil, err
		}
		return temporal.HydrateNodes(rows)

	case ScopeFiltered:
		rows, err := tr.store.ListCurrentNodes(maxNodes * 4)
		if err != nil {
			return nil, err
		}
		nodes, err := temporal.HydrateNodes(rows)
		if err != nil {
			return nil, err
		}
		if opts.Filter != nil {
			return opts.Filter(nodes)
		}
		return nodes, nil

	case ScopeSubgraph:
		if len(opts.Focus) == 0 {
			return nil, chronoerr.New(chronoerr.KindMalformedQuery, "subgraph scope requires at least one focus node")
		}
		radius := opts.Radius
		if radius <= 0 {
			radius = 1
		}
		seen := map[string]bool{}
		var out []*temporal.Node
		for _, f := range opts.Focus {
			res, err := tr.Explore(f, ExploreOptions{
				MaxDepth: radius,
				MaxNodes: maxNodes,
				Filters:  opts.Filters,
				AtTime:   opts.AtTime,
			})
			if err != nil {
				continue // unresolvable focus node does not fail the whole map
			}
			for _, en := range res.Nodes {
				if seen[en.Node.ID] {
					continue
				}
				seen[en.Node.ID] = true
				out = append(out, en.Node)
				if len(out) >= maxNodes {
					return out, nil
				}
			}
		}
		return out, nil

	case ScopeTemporalSlice:
		if opts.AtTime == nil {
			return nil, chronoerr.New(chronoerr.KindMalformedQuery, "temporal_slice scope requires at_time")
		}
		nodeRows, _, err := tr.snapshotRows(*opts.AtTime)
		if err != nil {
			return nil, err
		}
		nodes, err := temporal.HydrateNodes(nodeRows)
		if err != nil {
			return nil, err
		}
		if len(nodes) > maxNodes {
			nodes = nodes[:maxNodes]
		}
		return nodes, nil

	default:
		return nil, chronoerr.New(chronoerr.KindMalformedQuery, "unknown map scope %q", opts.Scope)
	}
}

// snapshotRows fetches the raw node and edge rows valid at t, mirroring
// the engine's Snapshot but returning store rows so Map can apply its
// own node limit before hydration.
func (tr *Traversal) snapshotRows(t string) ([]*store.NodeRow, []*store.EdgeRow, error) {
	nodeRows, err := tr.store.SnapshotNodes(t)
	if err != nil {
		return nil, nil, err
	}
	edgeRows, err := tr.store.SnapshotEdges(t)
	if err != nil {
		return nil, nil, err
	}
	return nodeRows, edgeRows, nil
}

func computeMapStats(nodes []*temporal.Node, edges []*temporal.Edge) MapStats {
	stats := MapStats{
		TypeCounts:     map[string]int{},
		RelationCounts: map[string]int{},
		TagCounts:      map[string]int{},
		VersionCounts:  map[int]int{},
	}
	for _, n := range nodes {
		if n.Type != "" {
			stats.TypeCounts[n.Type]++
		}
		stats.VersionCounts[n.Version]++
		for _, tag := range n.Metadata.Tags() {
			stats.TagCounts[tag]++
		}
	}
	for _, e := range edges {
		stats.RelationCounts[e.Relation]++
	}
	return stats
}
