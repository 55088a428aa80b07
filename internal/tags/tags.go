// Package tags implements the atomic tag and metadata-statistics
// operations that mutate a node's current JSON payload in place,
// without creating a new temporal version (spec.md §4.5).
package tags

import (
	"sort"

	"github.com/vthunder/chronograph/internal/chronoerr"
	"github.com/vthunder/chronograph/internal/search"
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/temporal"
)

// MaxBulkDocuments caps the number of documents a document_filter bulk
// call may touch in one invocation (spec.md §4.5).
const MaxBulkDocuments = 1000

// Tags composes the store's current-row metadata mutation with the
// search layer's filter predicate for document_filter-scoped calls.
type Tags struct {
	store *store.Store
}

// New creates a Tags layer.
func New(s *store.Store) *Tags {
	return &Tags{store: s}
}

// resolveTargets returns the node ids a bulk call should act on, either
// a single explicit id or every current node matching filters. Fails
// with BulkLimitExceeded when more than MaxBulkDocuments nodes match.
func (t *Tags) resolveTargets(id string, filters *search.Filters) ([]string, error) {
	if id != "" {
		return []string{id}, nil
	}
	if filters == nil {
		return nil, chronoerr.New(chronoerr.KindMalformedQuery, "tag operation requires a document id or document_filter")
	}

	rows, err := t.store.ListCurrentNodes(1 << 30)
	if err != nil {
		return nil, err
	}
	nodes, err := temporal.HydrateNodes(rows)
	if err != nil {
		return nil, err
	}
	matched := search.Apply(nodes, *filters)
	if len(matched) > MaxBulkDocuments {
		return nil, chronoerr.New(chronoerr.KindBulkLimitExceeded,
			"document_filter matched %d documents, exceeding the bulk limit of %d", len(matched), MaxBulkDocuments)
	}
	ids := make([]string, len(matched))
	for i, n := range matched {
		ids[i] = n.ID
	}
	return ids, nil
}

func (t *Tags) mutate(id string, f func(current []string) []string) error {
	row, err := t.store.CurrentNode(id)
	if err != nil {
		return err
	}
	meta, err := temporal.DecodeMetadata(row.MetadataJSON.String)
	if err != nil {
		return err
	}
	if meta == nil {
		meta = temporal.Metadata{}
	}

	updated := meta.WithTags(f(meta.Tags()))
	encoded, err := temporal.EncodeMetadata(updated)
	if err != nil {
		return err
	}

	tx, err := t.store.DB().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := t.store.UpdateCurrentMetadata(tx, id, encoded); err != nil {
		return err
	}
	return tx.Commit()
}

// Add unions tags into id's (or every matching document's) tag list,
// preserving order and dropping duplicates. Returns the number of
// documents touched.
func (t *Tags) Add(id string, filters *search.Filters, newTags []string) (int, error) {
	targets, err := t.resolveTargets(id, filters)
	if err != nil {
		return 0, err
	}
	for _, target := range targets {
		err := t.mutate(target, func(current []string) []string {
			return unionPreserveOrder(current, newTags)
		})
		if err != nil {
			return 0, err
		}
	}
	return len(targets), nil
}

// Remove set-subtracts tags from id's (or every matching document's)
// tag list. Returns the number of documents touched.
func (t *Tags) Remove(id string, filters *search.Filters, removeTags []string) (int, error) {
	targets, err := t.resolveTargets(id, filters)
	if err != nil {
		return 0, err
	}
	remove := make(map[string]bool, len(removeTags))
	for _, tag := range removeTags {
		remove[tag] = true
	}
	for _, target := range targets {
		err := t.mutate(target, func(current []string) []string {
			out := make([]string, 0, len(current))
			for _, tag := range current {
				if !remove[tag] {
					out = append(out, tag)
				}
			}
			return out
		})
		if err != nil {
			return 0, err
		}
	}
	return len(targets), nil
}

// Rename replaces every occurrence of from with to across all current
// documents that carry it. Returns the number of documents updated
// (spec.md §8 Scenario E: rename("draft", "final") returns {updated: 2}).
func (t *Tags) Rename(from, to string) (int, error) {
	rows, err := t.store.ListCurrentNodes(1 << 30)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, row := range rows {
		meta, err := temporal.DecodeMetadata(row.MetadataJSON.String)
		if err != nil {
			return updated, err
		}
		if !hasTag(meta.Tags(), from) {
			continue
		}
		err = t.mutate(row.ID, func(current []string) []string {
			out := make([]string, len(current))
			for i, tag := range current {
				if tag == from {
					out[i] = to
				} else {
					out[i] = tag
				}
			}
			return out
		})
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// TagCount is one {tag, count} aggregate result (list, spec.md §4.5).
type TagCount struct {
	Tag   string
	Count int
}

// List aggregates tag usage across all current documents, sorted by
// count descending then tag ascending for a stable tie-break.
func (t *Tags) List() ([]TagCount, error) {
	rows, err := t.store.ListCurrentNodes(1 << 30)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, row := range rows {
		meta, err := temporal.DecodeMetadata(row.MetadataJSON.String)
		if err != nil {
			return nil, err
		}
		for _, tag := range meta.Tags() {
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		out = append(out, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

// Get returns id's current tag list, or an empty slice if it has none.
func (t *Tags) Get(id string) ([]string, error) {
	row, err := t.store.CurrentNode(id)
	if err != nil {
		return nil, err
	}
	meta, err := temporal.DecodeMetadata(row.MetadataJSON.String)
	if err != nil {
		return nil, err
	}
	tags := meta.Tags()
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func unionPreserveOrder(current, add []string) []string {
	seen := make(map[string]bool, len(current)+len(add))
	out := make([]string, 0, len(current)+len(add))
	for _, tag := range current {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	for _, tag := range add {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

func hasTag(tags []string, target string) bool {
	for _, tag := range tags {
		if tag == target {
			return true
		}
	}
	return false
}
