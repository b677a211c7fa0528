// Package observability provides formatted terminal output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/gallery"
	"github.com/jonathan/story-master/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

var (
	titleColor = color.New(color.FgHiCyan, color.Bold)
	okColor    = color.New(color.FgHiGreen)
	warnColor  = color.New(color.FgYellow)
	dimColor   = color.New(color.FgHiBlack)
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// padded pads by rune count so box borders line up with non-ASCII text.
func padded(s string, width int) string {
	s = truncate(s, width)
	return s + strings.Repeat(" ", width-utf8.RuneCountInString(s))
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", titleColor.Sprint(padded(title, boxWidth-4)))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", padded(line, boxWidth-4))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap breaks text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && utf8.RuneCountInString(cur.String())+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// PrintProgress outputs the learner's progress counters.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(progress *types.Progress) {
	if progress == nil {
		return
	}

	lesson := "not yet"
	if progress.LessonCompleted {
		lesson = "done"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Lesson:   %s\n", lesson))
	sb.WriteString(fmt.Sprintf("Stories:  %d\n", progress.StoriesCount))
	sb.WriteString(fmt.Sprintf("Words:    %d\n", progress.TotalWords))
	sb.WriteString(fmt.Sprintf("Streak:   %d day(s)", progress.CurrentStreak))

	p.printBox("YOUR PROGRESS", sb.String())
	if progress.LessonCompleted {
		okColor.Fprintln(p.out, "✓ Guided writing is unlocked")
	} else {
		warnColor.Fprintln(p.out, "⚠ Complete the lesson to unlock guided writing")
	}
}

// PrintStories outputs a summary list of stories with aggregate stats.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStories(stories []types.Story) {
	if len(stories) == 0 {
		dimColor.Fprintln(p.out, "No stories yet.")
		return
	}

	st := gallery.Aggregate(stories)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d stories, %d words, %d categories\n\n", st.Stories, st.Words, st.Categories))

	count := min(len(stories), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := stories[i]
		sb.WriteString(fmt.Sprintf("• %s\n", truncate(s.Title, 50)))
		sb.WriteString(fmt.Sprintf("  %s · %d words · %s\n", s.Category, gallery.WordCount(s), s.DateCompleted))
		sb.WriteString(fmt.Sprintf("  id: %s", s.ID))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(stories) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n\n... and %d more stories", len(stories)-maxItemsToShow))
	}

	p.printBox("STORIES", sb.String())
}

// PrintStory outputs a single story with its three parts.
func (p *Printer) PrintStory(s *types.Story) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Category: %s\n", s.Category))
	sb.WriteString(fmt.Sprintf("Date:     %s\n", s.DateCompleted))
	sb.WriteString(fmt.Sprintf("Words:    %d\n", gallery.WordCount(*s)))
	if s.StudentName != "" {
		sb.WriteString(fmt.Sprintf("Author:   %s\n", s.StudentName))
	}

	names := []string{"Introduction", "Main Story", "Conclusion"}
	for i, part := range s.Parts() {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s:\n", names[i]))
		for _, line := range wrap(part, boxWidth-6) {
			sb.WriteString("  " + line + "\n")
		}
	}
	if s.TeacherFeedback != "" {
		sb.WriteString("\nTeacher feedback:\n")
		for _, line := range wrap(s.TeacherFeedback, boxWidth-6) {
			sb.WriteString("  " + line + "\n")
		}
	}

	p.printBox(strings.ToUpper(s.Title), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCatalog outputs a summary of the content catalog.
func (p *Printer) PrintCatalog(c *catalog.Catalog) {
	if c == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Lesson:   %s (%d parts)\n", c.Lesson.Title, len(c.Lesson.Parts)))
	sb.WriteString(fmt.Sprintf("Samples:  %d\n", len(c.SampleStories)))
	sb.WriteString(fmt.Sprintf("Tips:     %d\n\n", len(c.WritingTips)))
	sb.WriteString("Categories:\n")
	for _, cat := range c.Categories {
		sb.WriteString(fmt.Sprintf("  %-12s %s\n", cat.Name, truncate(cat.Description, 40)))
	}

	p.printBox("CATALOG", strings.TrimSuffix(sb.String(), "\n"))
}
