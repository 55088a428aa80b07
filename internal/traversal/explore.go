package traversal

import (
	"github.com/vthunder/chronograph/internal/chronoerr"
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/temporal"
)

// ExploreFilters restricts which visited nodes survive into the result
// (spec.md §4.3). A node must contain every listed tag and match Type
// exactly, when those fields are non-empty.
type ExploreFilters struct {
	Tags []string
	Type string
}

func (f ExploreFilters) matches(n *temporal.Node) bool {
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if len(f.Tags) > 0 {
		have := map[string]bool{}
		for _, t := range n.Metadata.Tags() {
			have[t] = true
		}
		for _, want := range f.Tags {
			if !have[want] {
				return false
			}
		}
	}
	return true
}

// ExploreOptions configures a bounded BFS exploration.
type ExploreOptions struct {
	Strategy        string
	MaxDepth        int
	MaxNodes        int
	FollowRelations []string
	Filters         ExploreFilters
	AtTime          *string
}

// ExploredNode pairs a hydrated node with its BFS discovery depth.
type ExploredNode struct {
	Node  *temporal.Node
	Depth int
}

// ExploreStats summarizes a bounded exploration's coverage.
type ExploreStats struct {
	TotalNodes      int
	MaxDepthReached int
	Truncated       bool
}

// ExploreResult is the output of a bounded BFS exploration (spec.md §4.3).
type ExploreResult struct {
	Root     string
	Strategy string
	Nodes    []ExploredNode
	Edges    []*temporal.Edge
	Stats    ExploreStats
}

// Explore performs a bounded breadth-first exploration from start. Only
// "breadth" is a real strategy; any other value falls back to breadth
// with a warning logged by the caller (the Facade), per spec.md §4.3.
func (tr *Traversal) Explore(start string, opts ExploreOptions) (*ExploreResult, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 2
	}
	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = 100
	}

	startNode, err := tr.resolveAt(start, opts.AtTime)
	if err != nil {
		return nil, err
	}
	if !opts.Filters.matches(startNode) {
		return nil, chronoerr.New(chronoerr.KindNotFound, "start node %q does not match explore filters", start)
	}

	visited := map[string]bool{start: true}
	result := []ExploredNode{{Node: startNode, Depth: 0}}
	edgeSet := map[edgeKey]*store.EdgeRow{}
	frontier := []string{start}
	maxDepthReached := 0
	truncated := false

outer:
	for depth := 1; depth <= maxDepth; depth++ {
		var next []string
		for _, cur := range frontier {
			edges, err := tr.store.EdgesFor(cur, store.DirBoth, opts.AtTime, opts.FollowRelations)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				edgeSet[edgeKey{e.FromNode, e.ToNode}] = e

				neighborID := e.ToNode
				if neighborID == cur {
					neighborID = e.FromNode
				}
				if visited[neighborID] {
					continue
				}

				n, err := tr.resolveAt(neighborID, opts.AtTime)
				if err != nil {
					continue // endpoint no longer resolvable at this instant; skip rather than fail the whole exploration
				}
				if !opts.Filters.matches(n) {
					continue
				}

				visited[neighborID] = true
				result = append(result, ExploredNode{Node: n, Depth: depth})
				maxDepthReached = depth
				if len(result) >= maxNodes {
					truncated = true
					break outer
				}
				next = append(next, neighborID)
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}

	edgeRows := make([]*store.EdgeRow, 0, len(edgeSet))
	for _, e := range edgeSet {
		if visited[e.FromNode] && visited[e.ToNode] {
			edgeRows = append(edgeRows, e)
		}
	}
	edges, err := temporal.HydrateEdges(edgeRows)
	if err != nil {
		return nil, err
	}

	return &ExploreResult{
		Root:     start,
		Strategy: "breadth",
		Nodes:    result,
		Edges:    edges,
		Stats: ExploreStats{
			TotalNodes:      len(result),
			MaxDepthReached: maxDepthReached,
			Truncated:       truncated || len(result) >= maxNodes,
		},
	}, nil
}

type edgeKey struct{ from, to string }
