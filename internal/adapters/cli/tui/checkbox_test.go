package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m tea.Model, key tea.KeyMsg) tea.Model {
	next, _ := m.Update(key)
	return next
}

func TestCheckboxToggleAndConfirm(t *testing.T) {
	var m tea.Model = NewCheckboxModel("Extras", []CheckboxOption{
		{Label: "Text", Value: "text"},
		{Label: "Archive", Value: "archive", Checked: true},
	}, 0)

	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	cb := m.(CheckboxModel)
	if cb.Cancelled() {
		t.Fatal("Cancelled() = true after enter")
	}
	got := cb.Selected()
	if len(got) != 1 || got[0] != "text" {
		t.Errorf("Selected() = %v, want [text]", got)
	}
}

func TestCheckboxMinSelect(t *testing.T) {
	var m tea.Model = NewCheckboxModel("Pick", []CheckboxOption{{Label: "A", Value: "a"}}, 1)

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.(CheckboxModel).Cancelled() {
		t.Error("enter should be ignored until minSelect options are checked")
	}
}

func TestMenuSelect(t *testing.T) {
	var m tea.Model = NewMenuModel("Export slides as?", []MenuOption{
		{Label: "PDF", Value: "pdf"},
		{Label: "HTML", Value: "html"},
	})

	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := m.(MenuModel).Selected(); got != "html" {
		t.Errorf("Selected() = %q, want html", got)
	}
}
