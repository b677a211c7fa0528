package lesson

import (
	"testing"

	"github.com/jonathan/story-master/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLesson() catalog.Lesson {
	return catalog.Lesson{
		Title: "Story Structure",
		Parts: []catalog.LessonPart{
			{Key: "introduction", Name: "Introduction"},
			{Key: "middle", Name: "Middle"},
			{Key: "conclusion", Name: "Conclusion"},
		},
	}
}

func TestWalkthrough_Steps(t *testing.T) {
	w := New(testLesson(), nil)

	assert.Equal(t, Step{Kind: KindIntro}, w.Current())
	_, ok := w.CurrentPart()
	assert.False(t, ok)

	assert.Equal(t, Step{Kind: KindPart, Part: 0}, w.Advance())
	part, ok := w.CurrentPart()
	require.True(t, ok)
	assert.Equal(t, "introduction", part.Key)

	w.Advance()
	w.Advance()
	assert.Equal(t, Step{Kind: KindOutro}, w.Advance())
	assert.Equal(t, Step{Kind: KindOutro}, w.Advance(), "advance clamps at the outro")

	pos, total := w.Progress()
	assert.Equal(t, 5, pos)
	assert.Equal(t, 5, total)
}

func TestWalkthrough_RetreatFloorsAtIntro(t *testing.T) {
	w := New(testLesson(), nil)

	assert.Equal(t, Step{Kind: KindIntro}, w.Retreat())
	w.Advance()
	w.Advance()
	assert.Equal(t, Step{Kind: KindPart, Part: 0}, w.Retreat())
	assert.Equal(t, Step{Kind: KindIntro}, w.Retreat())
	assert.Equal(t, Step{Kind: KindIntro}, w.Retreat())
}

func TestWalkthrough_Seen(t *testing.T) {
	w := New(testLesson(), nil)

	assert.False(t, w.Seen(Step{Kind: KindIntro}))
	w.Advance()
	assert.True(t, w.Seen(Step{Kind: KindIntro}))
	assert.False(t, w.Seen(Step{Kind: KindPart, Part: 0}))

	w.Advance()
	w.Retreat()
	assert.True(t, w.Seen(Step{Kind: KindPart, Part: 0}), "retreat keeps seen marks")
}

func TestWalkthrough_CompleteOnlyAtOutroAndOnce(t *testing.T) {
	calls := 0
	w := New(testLesson(), func() { calls++ })

	assert.False(t, w.Complete(), "cannot complete from the intro")
	for i := 0; i < 4; i++ {
		w.Advance()
	}
	require.Equal(t, KindOutro, w.Current().Kind)

	assert.True(t, w.Complete())
	assert.False(t, w.Complete())
	assert.Equal(t, 1, calls)
	assert.True(t, w.Completed())
	assert.True(t, w.Seen(Step{Kind: KindOutro}))
}

func TestWalkthrough_DefaultLesson(t *testing.T) {
	l := catalog.MustDefault().Lesson
	w := New(l, nil)

	for range l.Parts {
		w.Advance()
	}
	assert.Equal(t, KindPart, w.Current().Kind)
	assert.Equal(t, KindOutro, w.Advance().Kind)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "intro", KindIntro.String())
	assert.Equal(t, "outro", KindOutro.String())
}
