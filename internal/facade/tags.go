package facade

import (
	"github.com/vthunder/chronograph/internal/chronoerr"
	"github.com/vthunder/chronograph/internal/search"
	"github.com/vthunder/chronograph/internal/tags"
)

// TagsAction selects one of the tag operations multiplexed behind the
// single `tags` tool entry (spec.md §6, §4.5).
type TagsAction string

const (
	TagsAdd    TagsAction = "add"
	TagsRemove TagsAction = "remove"
	TagsRename TagsAction = "rename"
	TagsList   TagsAction = "list"
	TagsGet    TagsAction = "get"
)

// TagsRequest carries every field any tag action might need; callers
// populate only what their chosen Action requires.
type TagsRequest struct {
	Action         TagsAction
	DocumentID     string
	DocumentFilter *search.Filters
	Values         []string
	RenameFrom     string
	RenameTo       string
}

// TagsResponse carries whichever result field the requested Action
// populates. Updated holds the number of documents touched by add,
// remove, or rename (spec.md §8 Scenario E).
type TagsResponse struct {
	Tags    []string
	List    []tags.TagCount
	Updated int
}

// Tags dispatches a tags tool call to the corresponding operation
// (spec.md §6).
func (f *Facade) Tags(req TagsRequest) (*TagsResponse, error) {
	switch req.Action {
	case TagsAdd:
		updated, err := f.tags.Add(req.DocumentID, req.DocumentFilter, req.Values)
		if err != nil {
			return nil, err
		}
		return &TagsResponse{Updated: updated}, nil
	case TagsRemove:
		updated, err := f.tags.Remove(req.DocumentID, req.DocumentFilter, req.Values)
		if err != nil {
			return nil, err
		}
		return &TagsResponse{Updated: updated}, nil
	case TagsRename:
		updated, err := f.tags.Rename(req.RenameFrom, req.RenameTo)
		if err != nil {
			return nil, err
		}
		return &TagsResponse{Updated: updated}, nil
	case TagsList:
		counts, err := f.tags.List()
		if err != nil {
			return nil, err
		}
		return &TagsResponse{List: counts}, nil
	case TagsGet:
		list, err := f.tags.Get(req.DocumentID)
		if err != nil {
			return nil, err
		}
		return &TagsResponse{Tags: list}, nil
	default:
		return nil, chronoerr.New(chronoerr.KindMalformedQuery, "unknown tags action %q", req.Action)
	}
}

// MetadataStats returns the aggregate metadata statistics (stats() in
// spec.md §4.5, distinct from the facade-level Stats()).
func (f *Facade) MetadataStats() (*tags.MetadataStats, error) {
	return f.tags.Stats()
}
