package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/lesson"
	"go.uber.org/zap"
)

type lessonView struct {
	walk *lesson.Walkthrough
}

func newLessonView(l catalog.Lesson, logger *zap.Logger) *lessonView {
	return &lessonView{
		walk: lesson.New(l, func() { logger.Info("lesson completed") }),
	}
}

func (a *App) updateLesson(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	walk := a.lesson.walk
	switch msg.String() {
	case "esc", "q":
		a.goHome()
	case "left", "h", "backspace":
		walk.Retreat()
	case "right", "l", " ":
		walk.Advance()
	case "enter":
		if walk.Current().Kind != lesson.KindOutro {
			walk.Advance()
			return a, nil
		}
		if !walk.Complete() {
			return a, nil
		}
		a.goHome()
		if a.progress.LessonCompleted {
			return a, nil
		}
		return a, a.completeLessonCmd()
	}
	return a, nil
}

func (v *lessonView) view() string {
	l := v.walk.Lesson()
	step := v.walk.Current()
	var b strings.Builder

	switch step.Kind {
	case lesson.KindIntro:
		b.WriteString(headingStyle.Render(l.Title) + "\n\n")
		b.WriteString(l.Introduction + "\n\n")
		for _, p := range l.Parts {
			b.WriteString(fmt.Sprintf("  %s %s\n", icon(p.Icon), p.Name))
		}
	case lesson.KindPart:
		p := l.Parts[step.Part]
		b.WriteString(headingStyle.Render(fmt.Sprintf("%s %s", icon(p.Icon), p.Name)) + "\n")
		b.WriteString(subtleStyle.Render(p.Description) + "\n\n")
		b.WriteString(p.Details + "\n")
		if len(p.Tips) > 0 {
			b.WriteString("\n" + headingStyle.Render("Tips") + "\n")
			for _, tip := range p.Tips {
				b.WriteString("  • " + tip + "\n")
			}
		}
		if len(p.Examples) > 0 {
			b.WriteString("\n" + headingStyle.Render("Examples") + "\n")
			for _, ex := range p.Examples {
				b.WriteString("  " + promptStyle.Render(ex) + "\n")
			}
		}
	case lesson.KindOutro:
		b.WriteString(headingStyle.Render("You did it! 🎉") + "\n\n")
		b.WriteString("Every great story has an introduction, a middle and a conclusion.\n")
		b.WriteString("Now it's your turn to write one.\n\n")
		if v.walk.Completed() {
			b.WriteString(successStyle.Render("Lesson complete ✓"))
		} else {
			b.WriteString(selectedStyle.Render("Press enter to finish the lesson"))
		}
	}

	pos, total := v.walk.Progress()
	b.WriteString("\n\n" + subtleStyle.Render(fmt.Sprintf("step %d/%d · ←/→ navigate · esc home", pos, total)))
	return panelStyle.Render(b.String())
}
