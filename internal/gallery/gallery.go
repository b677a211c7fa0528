// Package gallery provides the read-only, filterable view over saved and
// sample stories.
package gallery

import (
	"slices"
	"strings"

	"github.com/jonathan/story-master/internal/types"
)

// AllCategories is the filter value that matches every category.
const AllCategories = "All"

// Stats are the aggregates shown above the gallery.
type Stats struct {
	Stories    int
	Words      int
	Categories int
}

// Gallery merges store stories with bundled samples. Stories are already in
// canonical shape; legacy records are normalized by the store client.
type Gallery struct {
	stories []types.Story
}

// New merges stories and samples, store stories first.
func New(stories, samples []types.Story) *Gallery {
	merged := make([]types.Story, 0, len(stories)+len(samples))
	merged = append(merged, stories...)
	merged = append(merged, samples...)
	return &Gallery{stories: merged}
}

// Stories returns every story in display order.
func (g *Gallery) Stories() []types.Story {
	return slices.Clone(g.stories)
}

// Len is the number of stories.
func (g *Gallery) Len() int { return len(g.stories) }

// Categories returns "All" followed by the distinct categories present, in
// order of first appearance.
func (g *Gallery) Categories() []string {
	out := []string{AllCategories}
	seen := make(map[string]bool)
	for _, s := range g.stories {
		if s.Category == "" || seen[s.Category] {
			continue
		}
		seen[s.Category] = true
		out = append(out, s.Category)
	}
	return out
}

// Filter returns the stories whose title or text contains query
// (case-insensitive) and whose category matches. An empty query or a
// category of "" or "All" does not filter.
func (g *Gallery) Filter(query, category string) []types.Story {
	q := strings.ToLower(strings.TrimSpace(query))
	all := category == "" || category == AllCategories

	var out []types.Story
	for _, s := range g.stories {
		if !all && s.Category != category {
			continue
		}
		if q != "" && !matches(s, q) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func matches(s types.Story, q string) bool {
	if strings.Contains(strings.ToLower(s.Title), q) {
		return true
	}
	for _, p := range s.Parts() {
		if strings.Contains(strings.ToLower(p), q) {
			return true
		}
	}
	return false
}

// WordCount resolves a story's word count: the stored count when positive,
// otherwise the count of its text.
func WordCount(s types.Story) int {
	if s.WordCount > 0 {
		return s.WordCount
	}
	return types.JoinedWordCount(s.Introduction, s.Middle, s.Conclusion)
}

// Aggregate computes Stats over the given stories.
func Aggregate(stories []types.Story) Stats {
	st := Stats{Stories: len(stories)}
	cats := make(map[string]bool)
	for _, s := range stories {
		st.Words += WordCount(s)
		if s.Category != "" {
			cats[s.Category] = true
		}
	}
	st.Categories = len(cats)
	return st
}

// Stats aggregates the whole gallery.
func (g *Gallery) Stats() Stats {
	return Aggregate(g.stories)
}

// Find returns the story with the given id.
func (g *Gallery) Find(id string) (types.Story, bool) {
	for _, s := range g.stories {
		if s.ID == id {
			return s, true
		}
	}
	return types.Story{}, false
}
