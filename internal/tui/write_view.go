package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/guided"
	"github.com/jonathan/story-master/internal/types"
)

type submitDoneMsg struct {
	wf    *guided.Workflow
	story *types.Story
	err   error
}

type writeView struct {
	wf      *guided.Workflow
	catalog *catalog.Catalog

	title      textinput.Model
	body       textarea.Model
	titleFocus bool
	cursor     int
	preview    bool
	submitting bool
	lastStage  guided.Stage
}

func newWriteView(wf *guided.Workflow, cat *catalog.Catalog, width, height int) *writeView {
	title := textinput.New()
	title.Placeholder = "Give your story a title"
	title.CharLimit = 200

	body := textarea.New()
	body.ShowLineNumbers = false
	body.CharLimit = 0

	v := &writeView{wf: wf, catalog: cat, title: title, body: body}
	v.resize(width, height)
	v.resetInputs()
	return v
}

func (v *writeView) resize(width, height int) {
	w := max(width-6, 20)
	v.title.Width = w
	v.body.SetWidth(w)
	v.body.SetHeight(max(height-22, 4))
}

// resetInputs loads the inputs from the workflow's draft.
func (v *writeView) resetInputs() {
	d := v.wf.Snapshot()
	v.title.SetValue(d.Title)
	v.body.SetValue(d.Parts[d.Stage])
	v.lastStage = d.Stage
	v.titleFocus = d.Stage == guided.StageIntroduction && d.Title == ""
	v.body.Placeholder = fmt.Sprintf("Write your %s here...", strings.ToLower(d.Stage.Name()))
}

func (v *writeView) focusCmd() tea.Cmd {
	if v.titleFocus {
		v.body.Blur()
		return v.title.Focus()
	}
	v.title.Blur()
	return v.body.Focus()
}

// sync pushes the input values into the draft.
func (v *writeView) sync() {
	d := v.wf.Snapshot()
	if d.Stage == guided.StageIntroduction {
		_ = v.wf.SetTitle(v.title.Value())
	}
	_ = v.wf.SetText(v.body.Value())
}

// stageChanged reloads the editor after the workflow moved stages.
func (v *writeView) stageChanged() tea.Cmd {
	d := v.wf.Snapshot()
	if d.Stage == v.lastStage {
		return nil
	}
	v.resetInputs()
	v.titleFocus = false
	return v.focusCmd()
}

func (v *writeView) updateInputs(msg tea.Msg) tea.Cmd {
	if v.wf.Phase() != guided.PhaseWriting || v.wf.Saving() {
		return nil
	}
	var cmd tea.Cmd
	if v.titleFocus {
		v.title, cmd = v.title.Update(msg)
	} else {
		v.body, cmd = v.body.Update(msg)
	}
	return cmd
}

func (v *writeView) submitCmd() tea.Cmd {
	wf := v.wf
	v.submitting = true
	return func() tea.Msg {
		story, err := wf.Submit(context.Background())
		return submitDoneMsg{wf: wf, story: story, err: err}
	}
}

func (a *App) handleSubmitDone(msg submitDoneMsg) tea.Cmd {
	v := a.write
	if v == nil || v.wf != msg.wf {
		a.logger.Debug("submission finished after leaving the writing screen")
		return nil
	}
	v.submitting = false
	if msg.err != nil {
		return nil
	}
	a.stories = append([]types.Story{*msg.story}, a.stories...)
	a.gallery.setStories(a.stories, a.samples)
	v.cursor = 0
	v.preview = false
	v.resetInputs()
	return nil
}

func (a *App) updateWrite(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := a.write
	if msg.String() == "esc" {
		a.goHome()
		return a, nil
	}

	switch v.wf.Phase() {
	case guided.PhaseGated:
		if msg.String() == "l" {
			a.closeWrite()
			return a, a.open(screenLesson)
		}
		return a, nil

	case guided.PhaseSelectCategory:
		return a, v.updateSelect(msg)
	}

	if v.submitting || v.wf.Saving() {
		return a, nil
	}
	return a, v.updateWriting(msg)
}

func (v *writeView) updateSelect(msg tea.KeyMsg) tea.Cmd {
	n := len(v.catalog.Categories)
	switch key := msg.String(); key {
	case "up", "k":
		v.cursor = (v.cursor - 1 + n) % n
	case "down", "j":
		v.cursor = (v.cursor + 1) % n
	case "enter":
		return v.selectCategory(v.cursor)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < n {
				return v.selectCategory(i)
			}
		}
	}
	return nil
}

func (v *writeView) selectCategory(i int) tea.Cmd {
	if err := v.wf.SelectCategory(v.catalog.Categories[i].Name); err != nil {
		return nil
	}
	v.cursor = i
	v.resetInputs()
	return v.focusCmd()
}

func (v *writeView) updateWriting(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		if v.wf.Snapshot().Stage == guided.StageIntroduction {
			v.titleFocus = !v.titleFocus
			return v.focusCmd()
		}
		return nil
	case "ctrl+n":
		v.sync()
		if err := v.wf.Advance(); err != nil {
			return nil
		}
		return v.stageChanged()
	case "ctrl+b":
		v.sync()
		if err := v.wf.Back(); err != nil {
			return nil
		}
		return v.stageChanged()
	case "ctrl+s":
		v.sync()
		if !v.wf.Snapshot().Stage.Last() {
			if err := v.wf.Advance(); err != nil {
				return nil
			}
			return v.stageChanged()
		}
		return v.submitCmd()
	case "ctrl+t":
		_, _ = v.wf.ToggleHints()
		return nil
	case "ctrl+g":
		v.wf.NextHint()
		return nil
	case "ctrl+r":
		_, _ = v.wf.RerollPrompt()
		return nil
	case "ctrl+p":
		v.preview = !v.preview
		return nil
	case "ctrl+x":
		if err := v.wf.ChangeTheme(); err == nil {
			v.cursor = 0
			v.resetInputs()
		}
		return nil
	}

	cmd := v.updateInputs(msg)
	v.sync()
	return cmd
}

func (v *writeView) view() string {
	switch v.wf.Phase() {
	case guided.PhaseGated:
		return panelStyle.Render(
			errorStyle.Render("🔒 Complete the lesson first!") + "\n\n" +
				"Learn about story structure before you start writing.\n\n" +
				subtleStyle.Render("l open the lesson · esc home"),
		)
	case guided.PhaseSelectCategory:
		return v.viewSelect()
	}
	return v.viewWriting()
}

func (v *writeView) viewSelect() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Choose your story theme") + "\n\n")
	for i, c := range v.catalog.Categories {
		line := fmt.Sprintf("%d. %s %s", i+1, icon(c.Icon), c.Name)
		if i == v.cursor {
			b.WriteString(selectedStyle.Render("▸ "+line) + "\n")
			if c.Description != "" {
				b.WriteString("     " + subtleStyle.Render(c.Description) + "\n")
			}
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n" + subtleStyle.Render("↑/↓ choose · enter start · esc home"))
	return panelStyle.Render(b.String())
}

func (v *writeView) viewWriting() string {
	d := v.wf.Snapshot()
	var b strings.Builder

	b.WriteString(v.viewStages(d) + "\n\n")
	b.WriteString(headingStyle.Render(fmt.Sprintf("%s %s · %s", icon(d.Category.Icon), d.Category.Name, d.Stage.Name())))
	b.WriteString("  " + subtleStyle.Render(fmt.Sprintf("%d words", d.WordCount())) + "\n")
	if p := v.wf.Prompt(); p != "" {
		b.WriteString(promptStyle.Render("💡 "+p) + "\n")
	}
	b.WriteString("\n")

	if d.Stage == guided.StageIntroduction {
		b.WriteString("Title: " + v.title.View() + "\n\n")
	} else {
		b.WriteString(subtleStyle.Render("Title: "+d.Title) + "\n\n")
	}
	b.WriteString(v.body.View() + "\n")

	if hint, ok := v.wf.Hint(); ok {
		b.WriteString("\n" + infoStyle.Render("Hint: "+hint) + "\n")
	}
	if v.preview {
		b.WriteString("\n" + v.viewPreview())
	}
	if v.submitting {
		b.WriteString("\n" + subtleStyle.Render("Saving your story..."))
	}

	action := "ctrl+n next part"
	if d.Stage.Last() {
		action = "ctrl+s finish story"
	}
	b.WriteString("\n" + subtleStyle.Render(action+" · ctrl+b back · ctrl+t hints · ctrl+g next hint · ctrl+p preview · ctrl+x new theme · esc home"))
	return b.String()
}

func (v *writeView) viewStages(d guided.Draft) string {
	parts := make([]string, 0, guided.NumStages)
	for _, s := range guided.Stages {
		mark := "○"
		if d.Completed(s) {
			mark = "●"
		}
		label := fmt.Sprintf("%s %s", mark, s.Name())
		switch {
		case s == d.Stage:
			parts = append(parts, selectedStyle.Render(label))
		case d.Completed(s):
			parts = append(parts, successStyle.Render(label))
		default:
			parts = append(parts, subtleStyle.Render(label))
		}
	}
	return strings.Join(parts, subtleStyle.Render("  →  "))
}

func (v *writeView) viewPreview() string {
	parts := v.wf.Preview()
	if len(parts) == 0 {
		return subtleStyle.Render("Nothing written yet.")
	}
	var b strings.Builder
	b.WriteString(headingStyle.Render("Your story so far") + "\n")
	for _, p := range parts {
		b.WriteString(subtleStyle.Render(p.Name+":") + " " + p.Text + "\n")
	}
	return panelStyle.Render(strings.TrimSuffix(b.String(), "\n"))
}
