// Package tui is the terminal front end of Story Master. It loads progress
// and stories from the story API, then routes between the home screen, the
// story structure lesson, guided writing and the gallery.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/guided"
	"github.com/jonathan/story-master/internal/logging"
	"github.com/jonathan/story-master/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// screen is the active top-level view.
type screen int

const (
	screenHome screen = iota
	screenLesson
	screenWrite
	screenGallery
)

const (
	noticeTTL     = 5 * time.Second
	eventBuffer   = 32
	defaultWidth  = 80
	defaultHeight = 24
)

// Backend is the story API as seen by the app.
type Backend interface {
	GetProgress(ctx context.Context) (*types.Progress, error)
	UpdateProgress(ctx context.Context, update types.ProgressUpdate) (*types.Progress, error)
	ListStories(ctx context.Context) ([]types.Story, error)
	CreateStory(ctx context.Context, req *types.StoryCreateRequest) (*types.Story, error)
}

// Config holds what the app needs to run.
type Config struct {
	Backend      Backend
	Catalog      *catalog.Catalog
	Samples      []types.Story
	PromptPolicy guided.PromptPolicy
	ReactiveGate bool
	// Timeout bounds each backend call made by the app itself. Zero leaves
	// timeouts to the backend's transport.
	Timeout time.Duration
	Logger  *zap.Logger
	// Now overrides the clock used for story dates.
	Now func() time.Time
}

type loadedMsg struct {
	progress *types.Progress
	stories  []types.Story
	err      error
}

type progressMsg struct {
	progress *types.Progress
	err      error
}

type progressRefreshedMsg struct{ progress types.Progress }

type noticeMsg struct{ notice guided.Notice }

type clearNoticeMsg struct{ seq int }

type menuItem struct {
	title  string
	desc   string
	target screen
	quit   bool
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// App is the root bubbletea model.
type App struct {
	backend  Backend
	catalog  *catalog.Catalog
	samples  []types.Story
	policy   guided.PromptPolicy
	reactive bool
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger

	screen screen
	width  int
	height int

	loading  bool
	loadErr  error
	progress types.Progress
	stories  []types.Story

	menu    list.Model
	lesson  *lessonView
	write   *writeView
	gallery *galleryView

	// events carries messages from workflow callbacks, which run off the
	// bubbletea goroutine.
	events    chan tea.Msg
	notice    *guided.Notice
	noticeSeq int
}

// NewApp builds the app. The catalog defaults to the embedded one.
func NewApp(cfg Config) (*App, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("tui: backend is required")
	}
	cat := cfg.Catalog
	if cat == nil {
		var err error
		if cat, err = catalog.Default(); err != nil {
			return nil, err
		}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	items := []list.Item{
		menuItem{title: "📖 Learn Story Structure", desc: "Discover the beginning, middle and end", target: screenLesson},
		menuItem{title: "✏️  Write a Story", desc: "Guided writing, one part at a time", target: screenWrite},
		menuItem{title: "🖼  Story Gallery", desc: "Read your stories and some samples", target: screenGallery},
		menuItem{title: "👋 Quit", desc: "See you next time", quit: true},
	}
	menu := list.New(items, list.NewDefaultDelegate(), defaultWidth, 12)
	menu.Title = "What would you like to do?"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	menu.SetShowHelp(false)

	a := &App{
		backend:  cfg.Backend,
		catalog:  cat,
		samples:  cfg.Samples,
		policy:   cfg.PromptPolicy,
		reactive: cfg.ReactiveGate,
		timeout:  cfg.Timeout,
		now:      now,
		logger:   logging.OrNop(cfg.Logger),
		width:    defaultWidth,
		height:   defaultHeight,
		loading:  true,
		menu:     menu,
		events:   make(chan tea.Msg, eventBuffer),
	}
	a.gallery = newGalleryView(nil, a.samples, a.width, a.height)
	return a, nil
}

// Init starts the initial load and the event listener.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadCmd(), a.listen())
}

func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

// loadCmd fetches progress and stories concurrently.
func (a *App) loadCmd() tea.Cmd {
	backend, timeout := a.backend, a.timeout
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)
		var (
			progress *types.Progress
			stories  []types.Story
		)
		g.Go(func() error {
			p, err := backend.GetProgress(ctx)
			if err != nil {
				return fmt.Errorf("load progress: %w", err)
			}
			progress = p
			return nil
		})
		g.Go(func() error {
			s, err := backend.ListStories(ctx)
			if err != nil {
				return fmt.Errorf("load stories: %w", err)
			}
			stories = s
			return nil
		})
		if err := g.Wait(); err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{progress: progress, stories: stories}
	}
}

// completeLessonCmd records lesson completion in the progress store.
func (a *App) completeLessonCmd() tea.Cmd {
	backend, timeout := a.backend, a.timeout
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		p, err := backend.UpdateProgress(ctx, types.ProgressUpdate{LessonCompleted: types.Bool(true)})
		return progressMsg{progress: p, err: err}
	}
}

func (a *App) listen() tea.Cmd {
	events := a.events
	return func() tea.Msg { return <-events }
}

// post hands a message to the event loop without blocking the caller.
func (a *App) post(msg tea.Msg) {
	select {
	case a.events <- msg:
	default:
		a.logger.Warn("ui event dropped", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (a *App) showNotice(n guided.Notice) tea.Cmd {
	a.noticeSeq++
	seq := a.noticeSeq
	a.notice = &n
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

// Update handles messages for every screen.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.menu.SetSize(msg.Width, max(msg.Height-14, 8))
		a.gallery.resize(msg.Width, msg.Height)
		if a.write != nil {
			a.write.resize(msg.Width, msg.Height)
		}
		return a, nil

	case loadedMsg:
		a.loading = false
		if msg.err != nil {
			a.loadErr = msg.err
			a.logger.Warn("initial load failed", zap.Error(msg.err))
			return a, nil
		}
		a.loadErr = nil
		if msg.progress != nil {
			a.progress = *msg.progress
		}
		a.stories = msg.stories
		a.gallery.setStories(a.stories, a.samples)
		return a, nil

	case progressMsg:
		if msg.err != nil {
			a.logger.Warn("progress update failed", zap.Error(msg.err))
			return a, a.showNotice(guided.Notice{
				Kind:        guided.NoticeError,
				Title:       "Could not save your progress",
				Description: msg.err.Error(),
			})
		}
		a.observeProgress(*msg.progress)
		return a, a.showNotice(guided.Notice{
			Kind:        guided.NoticeSuccess,
			Title:       "Lesson complete!",
			Description: "You're ready to write your own story.",
		})

	case progressRefreshedMsg:
		a.progress = msg.progress
		return a, a.listen()

	case noticeMsg:
		return a, tea.Batch(a.listen(), a.showNotice(msg.notice))

	case clearNoticeMsg:
		if msg.seq == a.noticeSeq {
			a.notice = nil
		}
		return a, nil

	case submitDoneMsg:
		return a, a.handleSubmitDone(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.closeWrite()
			return a, tea.Quit
		}
		switch a.screen {
		case screenHome:
			return a.updateHome(msg)
		case screenLesson:
			return a.updateLesson(msg)
		case screenWrite:
			return a.updateWrite(msg)
		case screenGallery:
			return a.updateGallery(msg)
		}
	}

	if a.screen == screenWrite && a.write != nil {
		return a, a.write.updateInputs(msg)
	}
	return a, nil
}

func (a *App) observeProgress(p types.Progress) {
	a.progress = p
	if a.write != nil {
		a.write.wf.ObserveProgress(p)
	}
}

func (a *App) open(s screen) tea.Cmd {
	a.screen = s
	switch s {
	case screenLesson:
		a.lesson = newLessonView(a.catalog.Lesson, a.logger)
	case screenWrite:
		a.closeWrite()
		a.write = newWriteView(a.newWorkflow(), a.catalog, a.width, a.height)
		return a.write.focusCmd()
	case screenGallery:
		a.gallery.reset()
	}
	return nil
}

func (a *App) goHome() {
	a.closeWrite()
	a.screen = screenHome
}

func (a *App) closeWrite() {
	if a.write != nil {
		a.write.wf.Close()
		a.write = nil
	}
}

func (a *App) newWorkflow() *guided.Workflow {
	progress := a.progress
	return guided.New(&progress, a.catalog, a.backend,
		guided.WithNotifier(guided.NotifierFunc(func(n guided.Notice) {
			a.post(noticeMsg{notice: n})
		})),
		guided.WithProgressRefresher(a.backend, func(p types.Progress) {
			a.post(progressRefreshedMsg{progress: p})
		}),
		guided.WithPromptPolicy(a.policy),
		guided.WithReactiveGate(a.reactive),
		guided.WithClock(a.now),
		guided.WithLogger(a.logger.Named("guided")),
	)
}

func (a *App) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "r":
		if a.loadErr != nil {
			a.loading = true
			return a, a.loadCmd()
		}
		return a, nil
	case "enter":
		item, ok := a.menu.SelectedItem().(menuItem)
		if !ok {
			return a, nil
		}
		if item.quit {
			return a, tea.Quit
		}
		return a, a.open(item.target)
	}

	var cmd tea.Cmd
	a.menu, cmd = a.menu.Update(msg)
	return a, cmd
}

// View renders the active screen.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(appTitleStyle.Render("✨ Story Master"))
	b.WriteString("\n\n")

	switch a.screen {
	case screenHome:
		b.WriteString(a.viewHome())
	case screenLesson:
		b.WriteString(a.lesson.view())
	case screenWrite:
		b.WriteString(a.write.view())
	case screenGallery:
		b.WriteString(a.gallery.view())
	}

	if a.notice != nil {
		b.WriteString("\n\n")
		b.WriteString(noticeStyle(a.notice.Kind).Render(a.notice.Title))
		if a.notice.Description != "" {
			b.WriteString(" " + subtleStyle.Render(a.notice.Description))
		}
	}
	return b.String()
}

func (a *App) viewHome() string {
	var b strings.Builder

	switch {
	case a.loading:
		b.WriteString(subtleStyle.Render("Loading your stories..."))
	case a.loadErr != nil:
		b.WriteString(errorStyle.Render("Could not reach the story server."))
		b.WriteString("\n" + subtleStyle.Render(a.loadErr.Error()))
		b.WriteString("\n" + subtleStyle.Render("Press r to try again."))
	default:
		b.WriteString(a.viewStats())
	}
	b.WriteString("\n\n")
	b.WriteString(a.menu.View())
	b.WriteString("\n")

	if tips := a.catalog.WritingTips; len(tips) > 0 {
		b.WriteString("\n" + headingStyle.Render("Writing tips") + "\n")
		for _, tip := range tips {
			b.WriteString("  • " + tip + "\n")
		}
	}
	b.WriteString("\n" + subtleStyle.Render("↑/↓ choose · enter open · q quit"))
	return b.String()
}

func (a *App) viewStats() string {
	lesson := "Not yet"
	if a.progress.LessonCompleted {
		lesson = "Done ✓"
	}
	boxes := []string{
		statStyle.Render(fmt.Sprintf("Lesson\n%s", lesson)),
		statStyle.Render(fmt.Sprintf("Stories\n%d", a.progress.StoriesCount)),
		statStyle.Render(fmt.Sprintf("Words\n%d", a.progress.TotalWords)),
		statStyle.Render(fmt.Sprintf("Streak\n%d 🔥", a.progress.CurrentStreak)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}
