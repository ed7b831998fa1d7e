package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sentrypath/internal/ui/theme"
)

// ChecklistItem is one toggleable entry.
type ChecklistItem struct {
	Key   string
	Label string
}

// Checklist is a multi-select list with an optional substring filter.
// Tab toggles the item under the cursor.
type Checklist struct {
	Items   []ChecklistItem
	Cursor  int // index into Visible()
	checked []bool
	filter  string
}

// NewChecklist creates a checklist with nothing checked.
func NewChecklist(items []ChecklistItem) Checklist {
	return Checklist{
		Items:   items,
		checked: make([]bool, len(items)),
	}
}

// SetFilter narrows the visible items to those whose label or key contains
// f, ignoring case.
func (c *Checklist) SetFilter(f string) {
	c.filter = strings.ToLower(strings.TrimSpace(f))
	if n := len(c.Visible()); c.Cursor >= n {
		c.Cursor = max(n-1, 0)
	}
}

// Visible returns the indices of items that match the filter.
func (c Checklist) Visible() []int {
	var out []int
	for i, it := range c.Items {
		if c.filter == "" ||
			strings.Contains(strings.ToLower(it.Label), c.filter) ||
			strings.Contains(strings.ToLower(it.Key), c.filter) {
			out = append(out, i)
		}
	}
	return out
}

// Toggle flips the item at index i of Items.
func (c *Checklist) Toggle(i int) {
	if i >= 0 && i < len(c.checked) {
		c.checked[i] = !c.checked[i]
	}
}

// Checked returns the keys of checked items in item order.
func (c Checklist) Checked() []string {
	var out []string
	for i, ok := range c.checked {
		if ok {
			out = append(out, c.Items[i].Key)
		}
	}
	return out
}

// Update handles cursor movement and toggling.
func (c Checklist) Update(msg tea.Msg) (Checklist, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	visible := c.Visible()
	switch kmsg.String() {
	case "up":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down":
		if c.Cursor < len(visible)-1 {
			c.Cursor++
		}
	case "tab":
		if c.Cursor < len(visible) {
			c.Toggle(visible[c.Cursor])
		}
	}
	return c, nil
}

// View renders the visible items.
func (c Checklist) View() string {
	visible := c.Visible()
	if len(visible) == 0 {
		return theme.Hint.Render("  no matches") + "\n"
	}

	var b strings.Builder
	for n, i := range visible {
		box := "[ ]"
		if c.checked[i] {
			box = "[x]"
		}
		prefix := "  "
		style := theme.Unselected
		if n == c.Cursor {
			prefix = "▸ "
			style = theme.Selected
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%s %s", prefix, box, c.Items[i].Label)))
		b.WriteString("\n")
	}
	return b.String()
}
