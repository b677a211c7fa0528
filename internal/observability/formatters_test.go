package observability

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProgress(&types.Progress{LessonCompleted: true, StoriesCount: 3, TotalWords: 120, CurrentStreak: 2})
	output := buf.String()

	assert.Contains(t, output, "YOUR PROGRESS")
	assert.Contains(t, output, "Lesson:   done")
	assert.Contains(t, output, "Stories:  3")
	assert.Contains(t, output, "Words:    120")
	assert.Contains(t, output, "Streak:   2 day(s)")
	assert.Contains(t, output, "Guided writing is unlocked")
}

func TestPrintProgress_Locked(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgress(&types.Progress{})

	assert.Contains(t, buf.String(), "Lesson:   not yet")
	assert.Contains(t, buf.String(), "Complete the lesson")
}

func TestPrintProgress_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgress(nil)

	assert.Empty(t, buf.String())
}

func TestPrintStories(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStories([]types.Story{
		{ID: "1", Title: "The Map", Category: "Adventure", Introduction: "Emma found a map.", DateCompleted: "2024-12-20", WordCount: 16},
		{ID: "2", Title: "Dragon Day", Category: "Fantasy", Introduction: "A dragon came."},
	})
	output := buf.String()

	assert.Contains(t, output, "STORIES")
	assert.Contains(t, output, "2 stories, 19 words, 2 categories")
	assert.Contains(t, output, "The Map")
	assert.Contains(t, output, "Adventure · 16 words · 2024-12-20")
	assert.Contains(t, output, "id: 2")
}

func TestPrintStories_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStories(nil)

	assert.Equal(t, "No stories yet.\n", buf.String())
}

func TestPrintStories_Truncated(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var stories []types.Story
	for i := 0; i < maxItemsToShow+3; i++ {
		stories = append(stories, types.Story{ID: fmt.Sprint(i), Title: fmt.Sprintf("Story %d", i), Category: "Mystery"})
	}
	p.PrintStories(stories)

	assert.Contains(t, buf.String(), "... and 3 more stories")
}

func TestPrintStory(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStory(&types.Story{
		Title:           "The Map",
		Category:        "Adventure",
		Introduction:    "Emma found a map.",
		Middle:          "She followed it through the forest.",
		Conclusion:      "She found treasure and shared it.",
		DateCompleted:   "2024-12-20",
		StudentName:     "Emma",
		TeacherFeedback: "Lovely ending!",
	})
	output := buf.String()

	assert.Contains(t, output, "THE MAP")
	assert.Contains(t, output, "Words:    16")
	assert.Contains(t, output, "Author:   Emma")
	assert.Contains(t, output, "Main Story:")
	assert.Contains(t, output, "She followed it through the forest.")
	assert.Contains(t, output, "Lovely ending!")
}

func TestPrintStory_BoxLinesAligned(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStory(&types.Story{
		Title:        "Long",
		Category:     "Fantasy",
		Introduction: strings.Repeat("wonderful ", 30),
	})

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), "line %q", line)
	}
}

func TestPrintCatalog(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintCatalog(catalog.MustDefault())
	output := buf.String()

	assert.Contains(t, output, "CATALOG")
	assert.Contains(t, output, "Adventure")
	assert.Contains(t, output, "Samples:  3")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, wrap("one  two three", 8))
	assert.Nil(t, wrap("   ", 10))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
