// Package facade exposes the stable operation surface the RPC
// dispatcher binds to: one method per tool in spec.md §6, composing
// the store, temporal engine, traversal, search, and tag layers.
package facade

import (
	"github.com/vthunder/chronograph/internal/embedding"
	"github.com/vthunder/chronograph/internal/search"
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/tags"
	"github.com/vthunder/chronograph/internal/temporal"
	"github.com/vthunder/chronograph/internal/traversal"
)

// Facade composes the engine's sublayers into the full set of
// operations described in spec.md §4 and §6.
type Facade struct {
	store     *store.Store
	engine    *temporal.Engine
	traversal *traversal.Traversal
	search    *search.Search
	tags      *tags.Tags
	embedder  embedding.Provider
}

// New wires a Facade over an opened Store and an optional embedding
// Provider (nil disables similarity indexing and find_similar).
func New(s *store.Store, embedder embedding.Provider) *Facade {
	engine := temporal.New(s, embedder)
	return &Facade{
		store:     s,
		engine:    engine,
		traversal: traversal.New(s, engine),
		search:    search.New(s),
		tags:      tags.New(s),
		embedder:  embedder,
	}
}

// Store exposes the underlying Store for maintenance operations that
// need it directly (rebuild_search_index, check_integrity).
func (f *Facade) Store() *store.Store { return f.store }
