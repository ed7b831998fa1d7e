package layout

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sentrypath/internal/ui/theme"
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// RenderHeader renders a title line with an optional dimmed subtitle.
func RenderHeader(title, subtitle string) string {
	s := theme.Title.Render(title)
	if subtitle != "" {
		s += "\n" + theme.Subtitle.Render(subtitle)
	}
	return s
}

// RenderFooter renders the footer with key hints.
func RenderFooter(hints []KeyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		part := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key) +
			" " +
			theme.Subtitle.Render(h.Description)
		parts = append(parts, part)
	}
	return theme.Footer.Render(strings.Join(parts, "   "))
}

// RenderFrame stacks header, content and footer with blank lines between.
func RenderFrame(header, content, footer string) string {
	return strings.Join([]string{header, content, footer}, "\n\n")
}
