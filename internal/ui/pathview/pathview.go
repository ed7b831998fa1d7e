// Package pathview renders resolved learning paths for the terminal.
package pathview

import (
	"fmt"
	"strings"

	"github.com/abhisek/sentrypath/internal/catalog"
	"github.com/abhisek/sentrypath/internal/learnpath"
	"github.com/abhisek/sentrypath/internal/progress"
	"github.com/abhisek/sentrypath/internal/ui/components"
	"github.com/abhisek/sentrypath/internal/ui/theme"
)

// Step markers.
const (
	markCompleted = "✓"
	markCurrent   = "▸"
	markUnlocked  = "○"
	markLocked    = "·"
)

// Render draws the path with a summary bar. A nil path renders a prompt to
// pick a role.
func Render(cat *catalog.Catalog, path *learnpath.Path, p progress.UserProgress) string {
	if path == nil {
		return theme.Hint.Render("No role selected. Run `sentrypath onboard` or `sentrypath role <role>`.") + "\n"
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(cat.RoleName(path.Role) + " path"))
	b.WriteString("\n")

	sum := path.Summary()
	bar := components.ProgressBar{
		Label:       fmt.Sprintf("%d/%d steps", sum.Completed, sum.Total),
		Percent:     sum.Percent,
		ShowPercent: true,
		Width:       24,
	}
	b.WriteString(bar.View())
	b.WriteString("\n\n")

	var currentID string
	if cur := path.CurrentStep(); cur != nil {
		currentID = cur.ID
	}
	for _, s := range path.Steps {
		b.WriteString(renderStep(s, s.ID == currentID, p))
		b.WriteString("\n")
	}
	return b.String()
}

func renderStep(s learnpath.Step, current bool, p progress.UserProgress) string {
	mark, style := markLocked, theme.StepLocked
	switch {
	case s.IsCompleted:
		mark, style = markCompleted, theme.StepCompleted
	case current:
		mark, style = markCurrent, theme.StepCurrent
	case s.IsUnlocked:
		mark, style = markUnlocked, theme.StepUnlocked
	}

	line := style.Render(fmt.Sprintf(" %s %d. %s", mark, s.Priority, s.ID))
	if s.EstimatedTime != "" {
		line += "  " + theme.Hint.Render(s.EstimatedTime)
	}
	if !s.IsCompleted && len(s.Modules) > 1 {
		done := 0
		for _, m := range s.Modules {
			if p.HasModule(m) {
				done++
			}
		}
		line += "  " + theme.Subtitle.Render(fmt.Sprintf("(%d/%d modules)", done, len(s.Modules)))
	}
	return line
}

// RenderRecommendation draws the next recommended step, or a completion
// message when rec is nil.
func RenderRecommendation(rec *learnpath.Recommendation) string {
	if rec == nil {
		return theme.StepCompleted.Render("Nothing left to unlock on this path.") + "\n"
	}
	var b strings.Builder
	b.WriteString(theme.Title.Render("Next: " + rec.StepID))
	b.WriteString("\n")
	b.WriteString(theme.Body.Render(rec.Reasoning))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("module %s · priority %d · %s", rec.ModuleID, rec.Priority, rec.TimeEstimate)))
	b.WriteString("\n")
	return b.String()
}

// RenderStatus draws a one-screen overview of the record.
func RenderStatus(cat *catalog.Catalog, p progress.UserProgress, authenticated bool) string {
	var b strings.Builder

	role := "none"
	if p.HasRole() {
		role = cat.RoleName(p.Role)
	}
	mode := "local only"
	if authenticated {
		mode = "synced"
	}
	b.WriteString(theme.Title.Render("sentrypath"))
	b.WriteString("  " + theme.Subtitle.Render(mode))
	b.WriteString("\n")

	rows := [][2]string{
		{"Role", role},
		{"Onboarding", doneLabel(p.OnboardingCompleted)},
		{"Content", string(p.PreferredContentType)},
		{"Steps", fmt.Sprintf("%d completed", len(p.CompletedSteps))},
		{"Modules", fmt.Sprintf("%d completed", len(p.CompletedModules))},
		{"Features", fmt.Sprintf("%d known", len(p.CompletedFeatures))},
	}
	if !p.LastActiveDate.IsZero() {
		rows = append(rows, [2]string{"Last active", p.LastActiveDate.Local().Format("2006-01-02 15:04")})
	}
	for _, r := range rows {
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("  %-12s", r[0])))
		b.WriteString(theme.Body.Render(r[1]))
		b.WriteString("\n")
	}
	return b.String()
}

func doneLabel(ok bool) string {
	if ok {
		return "done"
	}
	return "pending"
}
