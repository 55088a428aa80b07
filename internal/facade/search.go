package facade

import (
	"github.com/vthunder/chronograph/internal/search"
	"github.com/vthunder/chronograph/internal/temporal"
)

// Search runs the composite smart-search operation (search, spec.md §6,
// §4.4).
func (f *Facade) Search(opts search.Options) ([]*temporal.Node, error) {
	return f.search.SmartSearch(opts)
}

// SearchContent runs the narrower full-text-only search (searchContent,
// spec.md §4.4), exposed for callers that don't need metadata filtering.
func (f *Facade) SearchContent(query string, limit int) ([]*temporal.Node, error) {
	return f.search.SearchContent(query, limit)
}
