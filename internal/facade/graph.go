package facade

import (
	"github.com/vthunder/chronograph/internal/logging"
	"github.com/vthunder/chronograph/internal/mermaid"
	"github.com/vthunder/chronograph/internal/search"
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/temporal"
	"github.com/vthunder/chronograph/internal/traversal"
)

// AddRelationship creates or updates the current edge between from and
// to, enforcing temporal-existence and causality checks (add_relationship,
// spec.md §6).
func (f *Facade) AddRelationship(from, to, relation string, weight float64, meta temporal.Metadata, validFrom string) (*temporal.Edge, error) {
	return f.engine.PutEdge(from, to, relation, weight, meta, validFrom)
}

// GetNeighbors returns the nodes reachable from id within the given
// options (get_neighbors, spec.md §6).
func (f *Facade) GetNeighbors(id string, dir store.EdgeDirection, opts traversal.NeighborOptions) ([]traversal.Neighbor, error) {
	return f.traversal.Neighbors(id, dir, opts)
}

// FindPath returns the first directed path from -> to within maxDepth
// hops, or nil if none exists (find_path, spec.md §6).
func (f *Facade) FindPath(from, to string, maxDepth int, atTime *string) (*traversal.Path, error) {
	return f.traversal.FindPath(from, to, maxDepth, atTime)
}

// FindSimilar runs cosine k-NN similarity search against id's stored
// embedding (find_similar, spec.md §6).
func (f *Facade) FindSimilar(id string, limit int) ([]search.SimilarResult, error) {
	return f.search.FindSimilar(id, limit)
}

// ExploreGraph performs a bounded BFS exploration from start, falling
// back to the breadth strategy for any unrecognized Strategy value
// (explore_graph, spec.md §6, §4.3).
func (f *Facade) ExploreGraph(start string, opts traversal.ExploreOptions) (*traversal.ExploreResult, error) {
	if opts.Strategy != "" && opts.Strategy != "breadth" {
		logging.Info("facade", "explore strategy %q is not supported, falling back to breadth", opts.Strategy)
		opts.Strategy = "breadth"
	}
	return f.traversal.Explore(start, opts)
}

// MapGraphFormat selects map_graph's output rendering.
type MapGraphFormat string

const (
	MapFormatJSON    MapGraphFormat = "json"
	MapFormatMermaid MapGraphFormat = "mermaid"
)

// MapGraphOutput is map_graph's result: exactly one of Result or
// Diagram is populated, selected by the requested format.
type MapGraphOutput struct {
	Result  *traversal.MapResult
	Diagram string
}

// MapGraph assembles a bounded subgraph per opts.Scope and renders it
// as structured JSON or a Mermaid diagram (map_graph, spec.md §6, §4.3).
// filters is only consulted for ScopeFiltered, delegating node selection
// to the search layer's metadata predicate with no text query.
func (f *Facade) MapGraph(opts traversal.MapOptions, filters search.Filters, format MapGraphFormat) (*MapGraphOutput, error) {
	if opts.Scope == traversal.ScopeFiltered {
		opts.Filter = func(nodes []*temporal.Node) ([]*temporal.Node, error) {
			return search.Apply(nodes, filters), nil
		}
	}

	result, err := f.traversal.Map(opts)
	if err != nil {
		return nil, err
	}
	if format == MapFormatMermaid {
		return &MapGraphOutput{Diagram: mermaid.Render(result.Nodes, result.Edges)}, nil
	}
	return &MapGraphOutput{Result: result}, nil
}
