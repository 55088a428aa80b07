package facade

import (
	"github.com/vthunder/chronograph/internal/temporal"
)

// AddDocument creates or updates a versioned node (add_document,
// spec.md §6).
func (f *Facade) AddDocument(id, content string, meta temporal.Metadata, validFrom string) (*temporal.Node, error) {
	return f.engine.Put(id, content, meta, validFrom)
}

// GetDocument returns the current row, or the row valid at atTime when
// given (get_document, spec.md §6).
func (f *Facade) GetDocument(id string, atTime *string) (*temporal.Node, error) {
	if atTime == nil {
		return f.engine.Get(id)
	}
	return f.engine.GetAt(id, *atTime)
}

// UpdateDocumentOptions configures update_document. Content is a
// pointer so a caller can distinguish "unchanged" from "set to empty";
// a nil Metadata keeps the current metadata.
type UpdateDocumentOptions struct {
	Content       *string
	Metadata      temporal.Metadata
	MergeMetadata bool
	ValidFrom     string
}

// UpdateDocument creates a new version of id, optionally shallow-merging
// the supplied metadata over the current metadata instead of replacing
// it (update_document, spec.md §6).
func (f *Facade) UpdateDocument(id string, opts UpdateDocumentOptions) (*temporal.Node, error) {
	current, err := f.engine.Get(id)
	if err != nil {
		return nil, err
	}

	content := current.Content
	if opts.Content != nil {
		content = *opts.Content
	}

	meta := opts.Metadata
	if opts.MergeMetadata {
		meta = current.Metadata.Merge(opts.Metadata)
	} else if meta == nil {
		meta = current.Metadata
	}

	return f.engine.Put(id, content, meta, opts.ValidFrom)
}

// DeleteDocument hard-deletes every version of id and its incident
// edges (delete_document, spec.md §6).
func (f *Facade) DeleteDocument(id string) error {
	return f.engine.DeleteHard(id)
}

// ListDocuments returns the most recent current versions, newest first
// (list_documents, spec.md §6).
func (f *Facade) ListDocuments(limit int) ([]*temporal.Node, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := f.store.ListCurrentNodes(limit)
	if err != nil {
		return nil, err
	}
	return temporal.HydrateNodes(rows)
}

// GetDocumentTimeline returns id's version history with per-transition
// event classification (get_document_timeline, spec.md §6).
func (f *Facade) GetDocumentTimeline(id string) ([]temporal.TimelineEntry, error) {
	return f.engine.Timeline(id)
}

// CompareVersions returns the structural delta between two versions of
// id (compare_versions, spec.md §6).
func (f *Facade) CompareVersions(id string, v1, v2 int) (*temporal.Diff, error) {
	return f.engine.Diff(id, v1, v2)
}

// GetCreatedBetween returns nodes whose valid_from falls in [start, end]
// (spec.md §6).
func (f *Facade) GetCreatedBetween(start, end string) ([]*temporal.Node, error) {
	rows, err := f.store.NodesCreatedBetween(start, end)
	if err != nil {
		return nil, err
	}
	return temporal.HydrateNodes(rows)
}

// GetModifiedBetween returns nodes with version > 1 whose valid_from
// falls in [start, end] (spec.md §6).
func (f *Facade) GetModifiedBetween(start, end string) ([]*temporal.Node, error) {
	rows, err := f.store.NodesModifiedBetween(start, end)
	if err != nil {
		return nil, err
	}
	return temporal.HydrateNodes(rows)
}

// GetDeletedBetween returns nodes whose valid_until falls in
// [start, end] (spec.md §6).
func (f *Facade) GetDeletedBetween(start, end string) ([]*temporal.Node, error) {
	rows, err := f.store.NodesDeletedBetween(start, end)
	if err != nil {
		return nil, err
	}
	return temporal.HydrateNodes(rows)
}

// Snapshot returns every node and edge valid at instant t (snapshot,
// spec.md §4.2).
func (f *Facade) Snapshot(t string) (*temporal.Snapshot, error) {
	return f.engine.Snapshot(t)
}
