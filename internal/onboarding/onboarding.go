// Package onboarding is the interactive role and feature picker.
package onboarding

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sentrypath/internal/catalog"
	"github.com/abhisek/sentrypath/internal/ui/components"
	"github.com/abhisek/sentrypath/internal/ui/layout"
	"github.com/abhisek/sentrypath/internal/ui/theme"
)

type stage int

const (
	stageRole stage = iota
	stageFeatures
)

// Result is what the learner picked.
type Result struct {
	Role     catalog.Role
	Selected []string
	OK       bool // false when the learner quit
}

// Model is the two-stage picker: choose a role, then tick the features
// already in use.
type Model struct {
	cat   *catalog.Catalog
	roles []catalog.Role
	known map[catalog.Feature]bool

	stage    stage
	menu     components.Menu
	features components.Checklist
	filter   components.FilterInput

	result Result
	done   bool
}

// New creates the picker. current preselects a role; known pre-ticks
// features.
func New(cat *catalog.Catalog, current catalog.Role, known []catalog.Feature) Model {
	roles := cat.Roles()
	items := make([]components.MenuItem, len(roles))
	for i, r := range roles {
		path, _ := cat.PathFor(r)
		items[i] = components.MenuItem{
			Label:  cat.RoleName(r),
			Detail: fmt.Sprintf("%d steps", len(path.Steps)),
		}
	}
	menu := components.NewMenu(items)
	for i, r := range roles {
		if r == current {
			menu.Selected = i
		}
	}

	k := make(map[catalog.Feature]bool, len(known))
	for _, f := range known {
		k[f] = true
	}

	return Model{
		cat:   cat,
		roles: roles,
		known: k,
		menu:  menu,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if kmsg.String() == "ctrl+c" {
		return m.finish(false)
	}

	switch m.stage {
	case stageRole:
		return m.updateRole(kmsg)
	default:
		return m.updateFeatures(kmsg)
	}
}

func (m Model) updateRole(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" || msg.String() == "q" {
		return m.finish(false)
	}
	m.menu, _ = m.menu.Update(msg)
	if m.menu.Chosen < 0 {
		return m, nil
	}

	role := m.roles[m.menu.Chosen]
	m.result.Role = role
	m.features = m.checklistFor(role)
	m.filter = components.NewFilterInput("type to filter", 40)
	m.stage = stageFeatures
	return m, nil
}

func (m Model) checklistFor(role catalog.Role) components.Checklist {
	infos := m.cat.FeaturesForRole(role)
	items := make([]components.ChecklistItem, len(infos))
	for i, f := range infos {
		items[i] = components.ChecklistItem{Key: string(f.ID), Label: f.Name}
	}
	c := components.NewChecklist(items)
	for i, f := range infos {
		if m.known[f.ID] {
			c.Toggle(i)
		}
	}
	return c
}

func (m Model) updateFeatures(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stage = stageRole
		m.menu.Chosen = -1
		m.result.Role = ""
		return m, nil
	case "enter":
		m.result.Selected = m.features.Checked()
		return m.finish(true)
	case "up", "down", "tab":
		m.features, _ = m.features.Update(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.features.SetFilter(m.filter.Value())
	return m, cmd
}

func (m Model) finish(ok bool) (tea.Model, tea.Cmd) {
	m.result.OK = ok
	if !ok {
		m.result = Result{}
	}
	m.done = true
	return m, tea.Quit
}

// Result returns the outcome once the program has quit.
func (m Model) Result() Result {
	return m.result
}

func (m Model) View() tea.View {
	return tea.NewView(m.render())
}

func (m Model) render() string {
	if m.done {
		return ""
	}

	var header, content string
	var hints []layout.KeyHint
	switch m.stage {
	case stageRole:
		header = layout.RenderHeader("What do you work on?", "Pick the role closest to your day-to-day.")
		content = m.menu.View()
		hints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Esc", Description: "Quit"},
		}
	default:
		header = layout.RenderHeader(
			"Which features do you already use?",
			"Known features mark their steps on the "+m.cat.RoleName(m.result.Role)+" path as done.",
		)
		content = m.filter.View() + "\n\n" + m.features.View()
		if n := len(m.features.Checked()); n > 0 {
			content += "\n" + theme.Hint.Render(fmt.Sprintf("%d selected", n))
		}
		hints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Tab", Description: "Toggle"},
			{Key: "Enter", Description: "Confirm"},
			{Key: "Esc", Description: "Back"},
		}
	}

	frame := layout.RenderFrame(header, strings.TrimRight(content, "\n"), layout.RenderFooter(hints))
	return frame + "\n"
}

// Run shows the picker and returns the learner's choice.
func Run(ctx context.Context, cat *catalog.Catalog, current catalog.Role, known []catalog.Feature) (Result, error) {
	p := tea.NewProgram(New(cat, current, known), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return Result{}, fmt.Errorf("run onboarding: %w", err)
	}
	return final.(Model).Result(), nil
}
