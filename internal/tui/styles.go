package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jonathan/story-master/internal/guided"
)

var (
	appTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8700")).Bold(true)
	promptStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#D7AF5F"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#5F5F87")).
			Padding(0, 2).
			Align(lipgloss.Center)
)

func noticeStyle(k guided.NoticeKind) lipgloss.Style {
	switch k {
	case guided.NoticeSuccess:
		return successStyle
	case guided.NoticeError:
		return errorStyle
	default:
		return infoStyle
	}
}

// icons maps catalog icon names to terminal glyphs.
var icons = map[string]string{
	"compass":      "🧭",
	"sparkles":     "✨",
	"heart":        "💖",
	"home":         "🏠",
	"search":       "🔎",
	"cat":          "🐱",
	"play-circle":  "▶️",
	"zap":          "⚡",
	"check-circle": "✅",
}

func icon(name string) string {
	if g, ok := icons[name]; ok {
		return g
	}
	return "•"
}
