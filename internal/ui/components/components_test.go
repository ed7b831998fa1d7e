package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func key(s string) tea.KeyPressMsg {
	switch s {
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

func TestMenu_SkipsDisabledAndChooses(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "a", Disabled: true},
		{Label: "b"},
		{Label: "c", Disabled: true},
		{Label: "d"},
	})
	if m.Selected != 1 {
		t.Fatalf("Selected = %d, want 1", m.Selected)
	}

	m, _ = m.Update(key("down"))
	if m.Selected != 3 {
		t.Errorf("after down Selected = %d, want 3", m.Selected)
	}
	m, _ = m.Update(key("up"))
	if m.Selected != 1 {
		t.Errorf("after up Selected = %d, want 1", m.Selected)
	}
	if m.Chosen != -1 {
		t.Errorf("Chosen = %d before enter", m.Chosen)
	}
	m, _ = m.Update(key("enter"))
	if m.Chosen != 1 {
		t.Errorf("Chosen = %d, want 1", m.Chosen)
	}
	if !strings.Contains(m.View(), "▸ b") {
		t.Errorf("view missing cursor:\n%s", m.View())
	}
}

func TestChecklist_ToggleAndFilter(t *testing.T) {
	c := NewChecklist([]ChecklistItem{
		{Key: "logging", Label: "Logging"},
		{Key: "session-replay", Label: "Session Replay"},
		{Key: "distributed-tracing", Label: "Distributed Tracing"},
	})

	c, _ = c.Update(key("tab"))
	c, _ = c.Update(key("down"))
	c, _ = c.Update(key("down"))
	c, _ = c.Update(key("tab"))
	if got := strings.Join(c.Checked(), ","); got != "logging,distributed-tracing" {
		t.Errorf("Checked = %q", got)
	}

	c.SetFilter("REPLAY")
	if v := c.Visible(); len(v) != 1 || v[0] != 1 {
		t.Fatalf("Visible = %v, want [1]", v)
	}
	if c.Cursor != 0 {
		t.Errorf("cursor not clamped: %d", c.Cursor)
	}
	c, _ = c.Update(key("tab"))
	if got := strings.Join(c.Checked(), ","); got != "logging,session-replay,distributed-tracing" {
		t.Errorf("Checked after filtered toggle = %q", got)
	}

	c.SetFilter("zzz")
	if !strings.Contains(c.View(), "no matches") {
		t.Errorf("view = %q", c.View())
	}
	c, _ = c.Update(key("tab")) // no-op with nothing visible
	if len(c.Checked()) != 3 {
		t.Errorf("toggle with empty view changed selection")
	}
}

func TestFilterInput_IgnoresNavigation(t *testing.T) {
	f := NewFilterInput("type to filter", 0)
	for _, k := range []string{"l", "o", "g", "tab", "down"} {
		f, _ = f.Update(key(k))
	}
	if f.Value() != "log" {
		t.Errorf("Value = %q, want log", f.Value())
	}
	f.Reset()
	if f.Value() != "" {
		t.Errorf("Value after reset = %q", f.Value())
	}
}

func TestProgressBar_Clamps(t *testing.T) {
	for _, pct := range []int{-10, 0, 50, 100, 150} {
		bar := ProgressBar{Percent: pct, Width: 10}
		if got := len([]rune(stripANSI(bar.View()))); got != 10 {
			t.Errorf("percent %d: bar width = %d, want 10", pct, got)
		}
	}
}

// stripANSI removes CSI escape sequences.
func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			i += 2
			for i < len(s) && (s[i] < 0x40 || s[i] > 0x7e) {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
