package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// FilterInput wraps bubbles/textinput as a one-line search box.
type FilterInput struct {
	Model textinput.Model
}

// NewFilterInput creates a focused filter input.
func NewFilterInput(placeholder string, limit int) FilterInput {
	ti := textinput.New()
	ti.Prompt = "filter: "
	ti.Placeholder = placeholder
	if limit > 0 {
		ti.CharLimit = limit
	}
	ti.Focus()
	return FilterInput{Model: ti}
}

// Update forwards printable input. Navigation keys belong to the list
// beside the input and are ignored here.
func (f FilterInput) Update(msg tea.Msg) (FilterInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "up", "down", "tab", "enter", "esc":
			return f, nil
		}
	}
	var cmd tea.Cmd
	f.Model, cmd = f.Model.Update(msg)
	return f, cmd
}

// View renders the input.
func (f FilterInput) View() string {
	return f.Model.View()
}

// Value returns the current text.
func (f FilterInput) Value() string {
	return f.Model.Value()
}

// Reset clears the text.
func (f *FilterInput) Reset() {
	f.Model.Reset()
}
