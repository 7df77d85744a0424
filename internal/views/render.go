package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// DefaultWidth is used until the terminal reports its size.
const DefaultWidth = 120

// Frame is one full dashboard screen.
type Frame struct {
	Title   string
	Badge   string
	Banner  string
	Tasks   string
	Side    string
	Status  string
	IsError bool
	Keys    string
	Width   int
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	badgeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("13")).Padding(0, 1)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	paneStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	keysStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")).Border(lipgloss.DoubleBorder()).Padding(0, 2)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// paneWidths splits the screen 3:2 between the task pane and the side pane,
// leaving room for both borders.
func paneWidths(total int) (taskW, sideW int) {
	if total <= 0 {
		total = DefaultWidth
	}
	inner := total - 8
	if inner < 40 {
		inner = 40
	}
	taskW = inner * 3 / 5
	return taskW, inner - taskW
}

// RenderFrame lays out title bar, level-up banner, the two panes, the status
// line and the key hints from top to bottom.
func RenderFrame(f Frame) string {
	taskW, sideW := paneWidths(f.Width)

	top := titleStyle.Render(f.Title)
	if f.Badge != "" {
		top = lipgloss.JoinHorizontal(lipgloss.Center, top, "  ", badgeStyle.Render(f.Badge))
	}
	out := []string{top}
	if f.Banner != "" {
		out = append(out, bannerStyle.Render(f.Banner))
	}
	out = append(out, lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Width(taskW).Render(f.Tasks),
		paneStyle.Width(sideW).Render(f.Side),
	))

	switch {
	case f.IsError:
		out = append(out, errorStyle.Render("! "+f.Status))
	case f.Status != "":
		out = append(out, okStyle.Render(f.Status))
	}
	if f.Keys != "" {
		out = append(out, keysStyle.Render(f.Keys))
	}
	return strings.Join(out, "\n")
}

// RenderMarkdown renders md for a terminal of the given width, falling back
// to the raw text when glamour cannot.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func section(title string) string {
	return sectionStyle.Render(title)
}
