package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/jonathan/story-master/internal/gallery"
	"github.com/jonathan/story-master/internal/types"
)

type galleryView struct {
	g *gallery.Gallery

	search    textinput.Model
	searching bool
	catIdx    int
	cursor    int

	detail   bool
	viewport viewport.Model
	width    int
}

func newGalleryView(stories, samples []types.Story, width, height int) *galleryView {
	search := textinput.New()
	search.Placeholder = "Search stories"
	search.Prompt = "🔍 "

	v := &galleryView{
		g:        gallery.New(stories, samples),
		search:   search,
		viewport: viewport.New(width, max(height-8, 5)),
	}
	v.resize(width, height)
	return v
}

func (v *galleryView) resize(width, height int) {
	v.width = width
	v.search.Width = max(width-10, 10)
	v.viewport.Width = width
	v.viewport.Height = max(height-8, 5)
}

func (v *galleryView) setStories(stories, samples []types.Story) {
	v.g = gallery.New(stories, samples)
	if v.catIdx >= len(v.g.Categories()) {
		v.catIdx = 0
	}
	v.cursor = 0
}

func (v *galleryView) reset() {
	v.detail = false
	v.searching = false
	v.search.Blur()
	v.cursor = 0
}

func (v *galleryView) category() string {
	cats := v.g.Categories()
	return cats[v.catIdx%len(cats)]
}

func (v *galleryView) visible() []types.Story {
	return v.g.Filter(v.search.Value(), v.category())
}

func (a *App) updateGallery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := a.gallery
	key := msg.String()

	if v.detail {
		if key == "esc" || key == "q" {
			v.detail = false
			return a, nil
		}
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return a, cmd
	}

	if v.searching {
		switch key {
		case "esc", "enter":
			v.searching = false
			v.search.Blur()
			return a, nil
		}
		var cmd tea.Cmd
		v.search, cmd = v.search.Update(msg)
		v.cursor = 0
		return a, cmd
	}

	n := len(v.visible())
	switch key {
	case "esc", "q":
		a.goHome()
	case "/":
		v.searching = true
		return a, v.search.Focus()
	case "tab":
		v.catIdx = (v.catIdx + 1) % len(v.g.Categories())
		v.cursor = 0
	case "shift+tab":
		cats := len(v.g.Categories())
		v.catIdx = (v.catIdx - 1 + cats) % cats
		v.cursor = 0
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < n-1 {
			v.cursor++
		}
	case "enter":
		if n > 0 {
			v.open(v.visible()[v.cursor])
		}
	}
	return a, nil
}

func (v *galleryView) open(s types.Story) {
	v.detail = true
	v.viewport.SetContent(renderStory(s, v.width))
	v.viewport.GotoTop()
}

// storyMarkdown formats a story for reading.
func storyMarkdown(s types.Story) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	meta := []string{s.Category, fmt.Sprintf("%d words", gallery.WordCount(s))}
	if s.DateCompleted != "" {
		meta = append(meta, s.DateCompleted)
	}
	if s.StudentName != "" {
		meta = append(meta, "by "+s.StudentName)
	}
	fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " · "))

	names := [3]string{"Introduction", "Main Story", "Conclusion"}
	for i, part := range s.Parts() {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", names[i], part)
	}
	if s.TeacherFeedback != "" {
		fmt.Fprintf(&b, "> **Teacher feedback:** %s\n", s.TeacherFeedback)
	}
	return b.String()
}

// renderStory renders the story markdown for the terminal, falling back to
// the raw markdown when the renderer fails.
func renderStory(s types.Story, width int) string {
	md := storyMarkdown(s)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (v *galleryView) view() string {
	if v.detail {
		return v.viewport.View() + "\n" + subtleStyle.Render("↑/↓ scroll · esc back")
	}

	var b strings.Builder
	st := v.g.Stats()
	b.WriteString(headingStyle.Render("Story Gallery") + "  ")
	b.WriteString(subtleStyle.Render(fmt.Sprintf("%d stories · %d words · %d categories", st.Stories, st.Words, st.Categories)))
	b.WriteString("\n\n" + v.search.View() + "\n")

	cats := v.g.Categories()
	labels := make([]string, len(cats))
	for i, c := range cats {
		if i == v.catIdx {
			labels[i] = selectedStyle.Render("[" + c + "]")
		} else {
			labels[i] = subtleStyle.Render(c)
		}
	}
	b.WriteString(strings.Join(labels, " ") + "\n\n")

	stories := v.visible()
	if len(stories) == 0 {
		b.WriteString(subtleStyle.Render("No stories match.") + "\n")
	}
	for i, s := range stories {
		line := fmt.Sprintf("%s  %s · %d words", s.Title, s.Category, gallery.WordCount(s))
		if i == v.cursor {
			b.WriteString(selectedStyle.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n" + subtleStyle.Render("/ search · tab category · enter read · esc home"))
	return b.String()
}
