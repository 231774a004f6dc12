package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/imprint/pkg/template"
)

func testRegistry(n int) *template.Registry {
	specs := map[string]template.Spec{}
	for i := 0; i < n; i++ {
		id := string(rune('a'+i)) + ".png"
		specs[id] = template.Spec{FontSize: 20, Align: template.AlignLeft}
	}
	return template.New(specs)
}

func press(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "down", "up", "enter", "esc":
		msg = tea.KeyMsg{Type: map[string]tea.KeyType{
			"down": tea.KeyDown, "up": tea.KeyUp, "enter": tea.KeyEnter, "esc": tea.KeyEsc,
		}[key]}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next
}

func TestTemplateListSelect(t *testing.T) {
	var m tea.Model = newTemplateListModel(testRegistry(3))
	for _, k := range []string{"down", "down", "down", "up", "enter"} {
		m = press(m, k)
	}
	if got := m.(TemplateListModel).Selected; got != "b.png" {
		t.Errorf("Selected = %q, want b.png", got)
	}
}

func TestTemplateListQuit(t *testing.T) {
	var m tea.Model = newTemplateListModel(testRegistry(2))
	m = press(m, "q")
	if got := m.(TemplateListModel).Selected; got != "" {
		t.Errorf("Selected = %q after quit, want empty", got)
	}
}

func TestTemplateListScrolls(t *testing.T) {
	m := newTemplateListModel(testRegistry(10))
	m.Height = 3
	var tm tea.Model = m
	for i := 0; i < 5; i++ {
		tm = press(tm, "j")
	}
	got := tm.(TemplateListModel)
	if got.Cursor != 5 || got.Offset != 3 {
		t.Errorf("Cursor, Offset = %d, %d, want 5, 3", got.Cursor, got.Offset)
	}
	if view := got.View(); !strings.Contains(view, "f.png") || strings.Contains(view, "a.png") {
		t.Errorf("View does not show the scrolled window:\n%s", view)
	}
}
