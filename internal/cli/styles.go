package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/chatroom-go/internal/models"
	"golang.org/x/term"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Title   lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Title:   lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Warning: lipgloss.Color("#FFAF00"), // amber
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) sentimentStyle(s models.Sentiment) lipgloss.Style {
	switch s {
	case models.SentimentPositive:
		return lipgloss.NewStyle().Foreground(t.Success)
	case models.SentimentNegative:
		return lipgloss.NewStyle().Foreground(t.Error)
	case models.SentimentFlagged:
		return lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(t.Hint)
	}
}

// printer writes either styled text (terminals) or plain text, and JSON on request.
type printer struct {
	w      io.Writer
	styled bool
	theme  Theme
}

func newPrinter(w io.Writer) printer {
	return printer{w: w, styled: isTerminal(w), theme: defaultTheme}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p printer) title(s string) string {
	return p.render(p.theme.titleStyle(), s)
}

func (p printer) hint(s string) string {
	return p.render(p.theme.hintStyle(), s)
}

func (p printer) sentiment(s models.Sentiment) string {
	return p.render(p.theme.sentimentStyle(s), string(s))
}

func (p printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
