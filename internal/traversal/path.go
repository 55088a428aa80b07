package traversal

import "github.com/vthunder/chronograph/internal/store"

// Path is the result of a shortest-path search (spec.md §4.3).
type Path struct {
	Path   []string
	Length int
}

// FindPath returns the first directed path from -> to found by BFS over
// current (or as-of) edges, bounded by maxDepth hops. Cycle avoidance
// tracks the concatenated path so far and never revisits a node. Returns
// nil (no error) if no path exists within maxDepth.
func (tr *Traversal) FindPath(from, to string, maxDepth int, atTime *string) (*Path, error) {
	if from == to {
		return &Path{Path: []string{from}, Length: 0}, nil
	}
	if maxDepth <= 0 {
		maxDepth = 1
	}

	type frontierEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{from: true}
	frontier := []frontierEntry{{id: from, path: []string{from}}}

	for hop := 0; hop < maxDepth; hop++ {
		var next []frontierEntry
		for _, cur := range frontier {
			edges, err := tr.store.EdgesFor(cur.id, store.DirOutgoing, atTime, nil)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				if e.ToNode == cur.id {
					continue // ignore self-loops
				}
				newPath := append(append([]string{}, cur.path...), e.ToNode)
				if e.ToNode == to {
					return &Path{Path: newPath, Length: len(newPath) - 1}, nil
				}
				if visited[e.ToNode] {
					continue
				}
				visited[e.ToNode] = true
				next = append(next, frontierEntry{id: e.ToNode, path: newPath})
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}

	return nil, nil
}
