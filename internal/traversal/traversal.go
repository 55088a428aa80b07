// Package traversal implements neighbor lookup, shortest path, bounded
// BFS exploration, and graph-map assembly over the temporal store
// (spec.md §4.3).
package traversal

import (
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/temporal"
)

// Traversal composes a Store (for edge/row access) and a temporal Engine
// (for as-of node hydration), mirroring the Facade's own composition.
type Traversal struct {
	store  *store.Store
	engine *temporal.Engine
}

// New creates a Traversal.
func New(s *store.Store, engine *temporal.Engine) *Traversal {
	return &Traversal{store: s, engine: engine}
}

func (tr *Traversal) resolveAt(id string, atTime *string) (*temporal.Node, error) {
	if atTime == nil {
		return tr.engine.Get(id)
	}
	return tr.engine.GetAt(id, *atTime)
}
