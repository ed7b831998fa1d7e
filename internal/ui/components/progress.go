package components

import (
	"fmt"
	"strings"

	"github.com/abhisek/sentrypath/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     int // 0-100
	ShowPercent bool
	Width       int
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result = theme.Body.Render(p.Label) + "  "
	}

	barWidth := p.Width
	if barWidth < 4 {
		barWidth = 4
	}
	filled := barWidth * min(max(p.Percent, 0), 100) / 100
	result += theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))

	if p.ShowPercent {
		result += theme.Subtitle.Render(fmt.Sprintf("  %d%%", p.Percent))
	}
	return result
}
