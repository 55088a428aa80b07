package tags

import (
	"sort"
	"strings"

	"github.com/vthunder/chronograph/internal/temporal"
)

// MetadataStats aggregates recognized metadata keys across every
// current document (stats, spec.md §4.5).
type MetadataStats struct {
	TagCounts     map[string]int
	KeywordCounts map[string]int
	EmojiCounts   map[string]int
	TypeCounts    map[string]int
	Paths         []string
}

// Stats computes the aggregate metadata statistics over all current
// documents.
func (t *Tags) Stats() (*MetadataStats, error) {
	rows, err := t.store.ListCurrentNodes(1 << 30)
	if err != nil {
		return nil, err
	}

	stats := &MetadataStats{
		TagCounts:     map[string]int{},
		KeywordCounts: map[string]int{},
		EmojiCounts:   map[string]int{},
		TypeCounts:    map[string]int{},
	}
	pathSeen := map[string]bool{}

	for _, row := range rows {
		meta, err := temporal.DecodeMetadata(row.MetadataJSON.String)
		if err != nil {
			return nil, err
		}
		for _, tag := range meta.Tags() {
			stats.TagCounts[tag]++
		}
		for _, kw := range meta.Keywords() {
			stats.KeywordCounts[kw]++
		}
		if emoji := meta.String("emoji"); emoji != "" {
			stats.EmojiCounts[emoji]++
		}
		if row.Type != "" {
			stats.TypeCounts[row.Type]++
		}
		if path := meta.Path(); len(path) > 0 {
			joined := strings.Join(path, "/")
			if !pathSeen[joined] {
				pathSeen[joined] = true
				stats.Paths = append(stats.Paths, joined)
			}
		}
	}

	sort.Strings(stats.Paths)
	return stats, nil
}
