package gallery

import (
	"testing"

	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStories() []types.Story {
	return []types.Story{
		{
			ID:           "a",
			Title:        "The Map",
			Category:     "Adventure",
			Introduction: "Emma found a map.",
			Middle:       "She followed it through the forest.",
			Conclusion:   "She found treasure and shared it.",
			WordCount:    16,
		},
		{
			ID:           "b",
			Title:        "Dragon Day",
			Category:     "Fantasy",
			Introduction: "A dragon came to school.",
			Middle:       "Everyone was scared.",
			Conclusion:   "It just wanted lunch.",
		},
	}
}

func TestCategories(t *testing.T) {
	g := New(testStories(), catalog.MustDefault().SampleStories)

	cats := g.Categories()
	require.NotEmpty(t, cats)
	assert.Equal(t, AllCategories, cats[0])
	assert.Equal(t, []string{"All", "Adventure", "Fantasy", "Friendship", "Mystery"}, cats)
}

func TestFilter(t *testing.T) {
	g := New(testStories(), catalog.MustDefault().SampleStories)

	tests := []struct {
		name     string
		query    string
		category string
		wantIDs  []string
	}{
		{"no filter", "", AllCategories, []string{"a", "b", "sample-1", "sample-2", "sample-3"}},
		{"title match", "map", "", []string{"a"}},
		{"case insensitive body", "DRAGON", "", []string{"b"}},
		{"legacy content via introduction", "sunflower", "", []string{"sample-1"}},
		{"category only", "", "Fantasy", []string{"b", "sample-1"}},
		{"query and category", "garden", "Fantasy", []string{"sample-1"}},
		{"no match", "spaceship", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, s := range g.Filter(tt.query, tt.category) {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestWordCount_Resolution(t *testing.T) {
	stories := testStories()
	assert.Equal(t, 16, WordCount(stories[0]))
	assert.Equal(t, 12, WordCount(stories[1]), "computed from stage text")
	assert.Equal(t, 0, WordCount(types.Story{}))
}

func TestStats(t *testing.T) {
	g := New(testStories(), nil)

	assert.Equal(t, Stats{Stories: 2, Words: 28, Categories: 2}, g.Stats())
	assert.Equal(t, Stats{}, Aggregate(nil))
}

func TestStats_WithSamples(t *testing.T) {
	g := New(nil, catalog.MustDefault().SampleStories)

	st := g.Stats()
	assert.Equal(t, 3, st.Stories)
	assert.Equal(t, 65+58+62, st.Words)
	assert.Equal(t, 3, st.Categories)
}

func TestFind(t *testing.T) {
	g := New(testStories(), nil)

	s, ok := g.Find("b")
	require.True(t, ok)
	assert.Equal(t, "Dragon Day", s.Title)
	_, ok = g.Find("zzz")
	assert.False(t, ok)
}

func TestStoriesIsCopy(t *testing.T) {
	g := New(testStories(), nil)
	list := g.Stories()
	list[0].Title = "changed"

	s, _ := g.Find("a")
	assert.Equal(t, "The Map", s.Title)
}
