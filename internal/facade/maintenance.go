package facade

import "math"

// GraphStats is the facade-level stats() summary: node/edge counts and
// average degree (spec.md §4.6).
type GraphStats struct {
	NodeCount int
	EdgeCount int
	AvgDegree float64
}

// Stats returns nodeCount, edgeCount, and avgDegree = 2*edgeCount/nodeCount
// rounded to 2 decimals, or 0 when there are no nodes (stats, spec.md §4.6).
func (f *Facade) Stats() (*GraphStats, error) {
	nodeCount, err := f.store.CountNodes()
	if err != nil {
		return nil, err
	}
	edgeCount, err := f.store.CountEdges()
	if err != nil {
		return nil, err
	}

	var avgDegree float64
	if nodeCount > 0 {
		avgDegree = round2(2 * float64(edgeCount) / float64(nodeCount))
	}

	return &GraphStats{NodeCount: nodeCount, EdgeCount: edgeCount, AvgDegree: avgDegree}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// IntegrityReport is the check_integrity auditor's result (spec.md §4.6).
type IntegrityReport struct {
	OrphanedNodes     []string
	MissingDocuments  []string
	InconsistentEdges []string
}

// Integrity audits the store for isolated nodes, edges whose endpoints
// no longer have a current document, and edges whose valid_from
// precedes an endpoint's valid_from (check_integrity, spec.md §4.6).
func (f *Facade) Integrity() (*IntegrityReport, error) {
	nodes, err := f.store.ListCurrentNodes(1 << 30)
	if err != nil {
		return nil, err
	}
	edges, err := f.store.AllCurrentEdges()
	if err != nil {
		return nil, err
	}

	incident := make(map[string]bool, len(edges)*2)
	for _, e := range edges {
		incident[e.FromNode] = true
		incident[e.ToNode] = true
	}

	report := &IntegrityReport{}
	for _, n := range nodes {
		if !incident[n.ID] {
			report.OrphanedNodes = append(report.OrphanedNodes, n.ID)
		}
	}

	missingSeen := map[string]bool{}
	for _, e := range edges {
		fromNode, fromErr := f.store.CurrentNode(e.FromNode)
		toNode, toErr := f.store.CurrentNode(e.ToNode)

		if fromErr != nil && !missingSeen[e.FromNode] {
			missingSeen[e.FromNode] = true
			report.MissingDocuments = append(report.MissingDocuments, e.FromNode)
		}
		if toErr != nil && !missingSeen[e.ToNode] {
			missingSeen[e.ToNode] = true
			report.MissingDocuments = append(report.MissingDocuments, e.ToNode)
		}
		if fromErr != nil || toErr != nil {
			continue
		}
		if e.ValidFrom < fromNode.ValidFrom || e.ValidFrom < toNode.ValidFrom {
			report.InconsistentEdges = append(report.InconsistentEdges, e.FromNode+"->"+e.ToNode)
		}
	}

	return report, nil
}

// RebuildSearchIndex re-derives the FTS and vector indices from current
// rows (rebuild_search_index, spec.md §6). Vector reindexing uses the
// embedder the Facade was constructed with; it is skipped (vecCount stays
// 0) when the Facade was built without one.
func (f *Facade) RebuildSearchIndex() (ftsCount, vecCount int, err error) {
	ftsCount, err = f.store.RebuildFTSIndex()
	if err != nil {
		return 0, 0, err
	}
	if f.embedder != nil {
		vecCount, err = f.store.RebuildVectorIndex(func(id, content string) ([]float32, error) {
			return f.embedder.Embed(content)
		})
		if err != nil {
			return ftsCount, 0, err
		}
	}
	return ftsCount, vecCount, nil
}
