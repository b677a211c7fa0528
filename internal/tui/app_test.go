package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/guided"
	"github.com/jonathan/story-master/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu          sync.Mutex
	progress    types.Progress
	stories     []types.Story
	progressErr error
	listErr     error
	createErr   error
	updateErr   error
	created     []types.StoryCreateRequest
	updates     []types.ProgressUpdate
}

func (f *fakeBackend) GetProgress(context.Context) (*types.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.progressErr != nil {
		return nil, f.progressErr
	}
	p := f.progress
	return &p, nil
}

func (f *fakeBackend) UpdateProgress(_ context.Context, u types.ProgressUpdate) (*types.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if u.LessonCompleted != nil {
		f.progress.LessonCompleted = *u.LessonCompleted
	}
	p := f.progress
	return &p, nil
}

func (f *fakeBackend) ListStories(context.Context) ([]types.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]types.Story(nil), f.stories...), nil
}

func (f *fakeBackend) CreateStory(_ context.Context, req *types.StoryCreateRequest) (*types.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	s := types.Story{
		ID:            "new-1",
		Title:         req.Title,
		Category:      req.Category,
		Introduction:  req.Introduction,
		Middle:        req.Middle,
		Conclusion:    req.Conclusion,
		DateCompleted: req.DateCompleted,
		WordCount:     req.WordCount,
	}
	f.stories = append([]types.Story{s}, f.stories...)
	f.progress.StoriesCount++
	f.progress.TotalWords += req.WordCount
	return &s, nil
}

func fixedNow() time.Time { return time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC) }

func newTestApp(t *testing.T, backend *fakeBackend) *App {
	t.Helper()
	app, err := NewApp(Config{
		Backend: backend,
		Catalog: catalog.MustDefault(),
		Samples: catalog.MustDefault().SampleStories,
		Now:     fixedNow,
	})
	require.NoError(t, err)
	t.Cleanup(app.closeWrite)
	return app
}

// load runs the startup load synchronously.
func load(t *testing.T, app *App) {
	t.Helper()
	msg := app.loadCmd()()
	app.Update(msg)
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(app *App, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, m := range msgs {
		_, cmd = app.Update(m)
	}
	return cmd
}

// drainNotices returns the titles of queued workflow notices.
func drainNotices(app *App) []string {
	var titles []string
	for {
		select {
		case msg := <-app.events:
			if n, ok := msg.(noticeMsg); ok {
				titles = append(titles, n.notice.Title)
			}
		default:
			return titles
		}
	}
}

func TestNewApp_RequiresBackend(t *testing.T) {
	_, err := NewApp(Config{})
	assert.Error(t, err)
}

func TestLoad_Success(t *testing.T) {
	backend := &fakeBackend{
		progress: types.Progress{LessonCompleted: true, StoriesCount: 1, TotalWords: 16, CurrentStreak: 1},
		stories:  []types.Story{{ID: "s1", Title: "The Map", Category: "Adventure", WordCount: 16}},
	}
	app := newTestApp(t, backend)
	assert.Contains(t, app.View(), "Loading")

	load(t, app)

	assert.False(t, app.loading)
	assert.NoError(t, app.loadErr)
	assert.True(t, app.progress.LessonCompleted)
	require.Len(t, app.stories, 1)
	assert.Equal(t, 4, app.gallery.g.Len(), "stories plus samples")
	assert.Contains(t, app.View(), "Writing tips")
}

func TestLoad_FailureCanRetry(t *testing.T) {
	backend := &fakeBackend{listErr: errors.New("connection refused")}
	app := newTestApp(t, backend)

	load(t, app)

	require.Error(t, app.loadErr)
	assert.Contains(t, app.loadErr.Error(), "load stories")
	assert.Contains(t, app.View(), "Press r to try again")

	backend.mu.Lock()
	backend.listErr = nil
	backend.mu.Unlock()

	cmd := press(app, runes("r"))
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.NoError(t, app.loadErr)
}

func TestLesson_CompletionUpdatesProgress(t *testing.T) {
	backend := &fakeBackend{}
	app := newTestApp(t, backend)
	load(t, app)

	press(app, key(tea.KeyEnter))
	require.Equal(t, screenLesson, app.screen)

	parts := len(app.catalog.Lesson.Parts)
	for i := 0; i <= parts; i++ {
		press(app, key(tea.KeyEnter))
	}
	assert.Contains(t, app.View(), "Press enter to finish the lesson")

	cmd := press(app, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, screenHome, app.screen)

	app.Update(cmd())
	assert.True(t, app.progress.LessonCompleted)
	require.Len(t, backend.updates, 1)
	assert.True(t, *backend.updates[0].LessonCompleted)
	require.NotNil(t, app.notice)
	assert.Equal(t, "Lesson complete!", app.notice.Title)
}

func TestLesson_UpdateFailureShowsNotice(t *testing.T) {
	backend := &fakeBackend{updateErr: errors.New("server down")}
	app := newTestApp(t, backend)
	load(t, app)

	app.open(screenLesson)
	for i := 0; i <= len(app.catalog.Lesson.Parts); i++ {
		press(app, key(tea.KeyRight))
	}
	cmd := press(app, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.False(t, app.progress.LessonCompleted)
	require.NotNil(t, app.notice)
	assert.Equal(t, "Could not save your progress", app.notice.Title)
}

func TestWrite_GatedUntilLessonDone(t *testing.T) {
	app := newTestApp(t, &fakeBackend{})
	load(t, app)

	app.open(screenWrite)
	assert.Equal(t, guided.PhaseGated, app.write.wf.Phase())
	assert.Contains(t, app.View(), "Complete the lesson first!")
	assert.Contains(t, drainNotices(app), "Complete the lesson first!")

	press(app, runes("1"))
	assert.Equal(t, guided.PhaseGated, app.write.wf.Phase())

	press(app, runes("l"))
	assert.Equal(t, screenLesson, app.screen)
	assert.Nil(t, app.write)
}

func writeStory(t *testing.T, app *App) {
	t.Helper()
	app.open(screenWrite)
	press(app, runes("1"))
	require.Equal(t, guided.PhaseWriting, app.write.wf.Phase())

	press(app, runes("The Map"), key(tea.KeyTab), runes("Emma found a map."))
	press(app, key(tea.KeyCtrlN))
	require.Equal(t, guided.StageMiddle, app.write.wf.Snapshot().Stage)
	press(app, runes("She followed it through the forest."), key(tea.KeyCtrlN))
	require.Equal(t, guided.StageConclusion, app.write.wf.Snapshot().Stage)
	press(app, runes("She found treasure and shared it."))
}

func TestWrite_EndToEnd(t *testing.T) {
	backend := &fakeBackend{progress: types.Progress{LessonCompleted: true}}
	app := newTestApp(t, backend)
	load(t, app)

	writeStory(t, app)
	assert.Contains(t, app.View(), "ctrl+s finish story")

	cmd := press(app, key(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	app.Update(cmd())

	require.Len(t, backend.created, 1)
	assert.Equal(t, types.StoryCreateRequest{
		Title:         "The Map",
		Category:      "Adventure",
		Introduction:  "Emma found a map.",
		Middle:        "She followed it through the forest.",
		Conclusion:    "She found treasure and shared it.",
		DateCompleted: "2024-12-20",
		WordCount:     16,
	}, backend.created[0])

	require.Len(t, app.stories, 1)
	assert.Equal(t, "new-1", app.stories[0].ID)
	_, ok := app.gallery.g.Find("new-1")
	assert.True(t, ok)
	assert.Equal(t, guided.PhaseSelectCategory, app.write.wf.Phase())
	assert.Empty(t, app.write.body.Value())

	press(app, key(tea.KeyEsc))
	assert.Equal(t, screenHome, app.screen)
	assert.Contains(t, drainNotices(app), "Story Complete!")
}

func TestWrite_EmptyStageBlocksAdvance(t *testing.T) {
	app := newTestApp(t, &fakeBackend{progress: types.Progress{LessonCompleted: true}})
	load(t, app)

	app.open(screenWrite)
	press(app, key(tea.KeyEnter))
	require.Equal(t, guided.PhaseWriting, app.write.wf.Phase())

	press(app, key(tea.KeyCtrlN))
	assert.Equal(t, guided.StageIntroduction, app.write.wf.Snapshot().Stage)
	assert.Contains(t, drainNotices(app), "Write something first!")
}

func TestWrite_SubmitFailureKeepsDraft(t *testing.T) {
	backend := &fakeBackend{progress: types.Progress{LessonCompleted: true}, createErr: errors.New("boom")}
	app := newTestApp(t, backend)
	load(t, app)

	writeStory(t, app)
	cmd := press(app, key(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Empty(t, app.stories)
	d := app.write.wf.Snapshot()
	assert.Equal(t, "The Map", d.Title)
	assert.Equal(t, guided.StageConclusion, d.Stage)
	assert.Equal(t, "She found treasure and shared it.", app.write.body.Value())
	assert.False(t, app.write.submitting)
	assert.Contains(t, drainNotices(app), "Could not save your story")
}

func TestWrite_StaleSubmissionIgnored(t *testing.T) {
	app := newTestApp(t, &fakeBackend{progress: types.Progress{LessonCompleted: true}})
	load(t, app)
	app.open(screenWrite)

	app.Update(submitDoneMsg{wf: nil, story: &types.Story{ID: "late"}})
	assert.Empty(t, app.stories)
}

func TestWrite_BackRestoresText(t *testing.T) {
	app := newTestApp(t, &fakeBackend{progress: types.Progress{LessonCompleted: true}})
	load(t, app)

	writeStory(t, app)
	press(app, key(tea.KeyCtrlB))
	assert.Equal(t, guided.StageMiddle, app.write.wf.Snapshot().Stage)
	assert.Equal(t, "She followed it through the forest.", app.write.body.Value())
}

func TestWrite_HintsAndPreview(t *testing.T) {
	app := newTestApp(t, &fakeBackend{progress: types.Progress{LessonCompleted: true}})
	load(t, app)
	writeStory(t, app)

	press(app, key(tea.KeyCtrlT))
	hint, ok := app.write.wf.Hint()
	require.True(t, ok)
	assert.Contains(t, app.View(), "Hint: "+hint)

	press(app, key(tea.KeyCtrlP))
	assert.Contains(t, app.View(), "Your story so far")
}

func TestGallery_FilterAndRead(t *testing.T) {
	backend := &fakeBackend{stories: []types.Story{
		{ID: "s1", Title: "Dragon Day", Category: "Fantasy", Introduction: "A dragon came to school."},
	}}
	app := newTestApp(t, backend)
	load(t, app)

	app.open(screenGallery)
	v := app.gallery
	assert.Len(t, v.visible(), 4)
	assert.Contains(t, app.View(), "Dragon Day")

	press(app, key(tea.KeyTab))
	assert.Equal(t, "Fantasy", v.category())
	assert.Len(t, v.visible(), 2)

	press(app, runes("/"), runes("dragon"), key(tea.KeyEnter))
	require.Len(t, v.visible(), 1)

	press(app, key(tea.KeyEnter))
	assert.True(t, v.detail)
	assert.NotEmpty(t, v.viewport.View())

	press(app, key(tea.KeyEsc))
	assert.False(t, v.detail)
	press(app, key(tea.KeyEsc))
	assert.Equal(t, screenHome, app.screen)
}

func TestStoryMarkdown(t *testing.T) {
	md := storyMarkdown(types.Story{
		Title:           "The Map",
		Category:        "Adventure",
		Introduction:    "Emma found a map.",
		Conclusion:      "The end.",
		DateCompleted:   "2024-12-20",
		StudentName:     "Emma",
		TeacherFeedback: "Great job!",
	})

	assert.True(t, strings.HasPrefix(md, "# The Map\n"))
	assert.Contains(t, md, "*Adventure · 6 words · 2024-12-20 · by Emma*")
	assert.Contains(t, md, "## Introduction\n\nEmma found a map.")
	assert.NotContains(t, md, "## Main Story")
	assert.Contains(t, md, "**Teacher feedback:** Great job!")
}

func TestNotice_ClearedOnlyByLatestTick(t *testing.T) {
	app := newTestApp(t, &fakeBackend{})

	app.Update(noticeMsg{notice: guided.Notice{Title: "first"}})
	app.Update(noticeMsg{notice: guided.Notice{Title: "second"}})
	require.NotNil(t, app.notice)

	app.Update(clearNoticeMsg{seq: 1})
	require.NotNil(t, app.notice)
	assert.Equal(t, "second", app.notice.Title)

	app.Update(clearNoticeMsg{seq: 2})
	assert.Nil(t, app.notice)
}

func TestPost_DropsWhenFull(t *testing.T) {
	app := newTestApp(t, &fakeBackend{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBuffer*2; i++ {
			app.post(noticeMsg{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("post blocked")
	}
	assert.Len(t, app.events, eventBuffer)
}

func TestCtrlCQuits(t *testing.T) {
	app := newTestApp(t, &fakeBackend{})
	cmd := press(app, key(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
