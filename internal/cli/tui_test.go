package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dbauto/orgchart/pkg/org"
)

func testTree() *org.Node {
	root := &org.Node{Employee: org.Employee{ID: "ceo", Name: "Avery Quinn", Title: "CEO"}}
	vp := &org.Node{Employee: org.Employee{ID: "vp", Name: "Blake Reyes", Title: "VP"}}
	eng := &org.Node{Employee: org.Employee{ID: "eng", Name: "Cam Diaz", Title: "Engineer"}}
	vp.Children = []*org.Node{eng}
	root.Children = []*org.Node{vp}
	return root
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTreeModelShowsTopLevels(t *testing.T) {
	m := NewTreeModel(testTree())

	// Root and first level start expanded, so all three rows are visible.
	if len(m.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(m.rows))
	}

	view := m.View()
	for _, name := range []string{"Avery Quinn", "Blake Reyes", "Cam Diaz"} {
		if !strings.Contains(view, name) {
			t.Errorf("view missing %q", name)
		}
	}
}

func TestTreeModelNavigation(t *testing.T) {
	m := NewTreeModel(testTree())

	next, _ := m.Update(key("j"))
	m = next.(TreeModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", m.cursor)
	}

	next, _ = m.Update(key("k"))
	m = next.(TreeModel)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up, want 0", m.cursor)
	}

	// Up at the top stays put.
	next, _ = m.Update(key("k"))
	m = next.(TreeModel)
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestTreeModelCollapse(t *testing.T) {
	m := NewTreeModel(testTree())

	// Move to the VP row and collapse it; the engineer row disappears.
	next, _ := m.Update(key("j"))
	m = next.(TreeModel)
	next, _ = m.Update(key(" "))
	m = next.(TreeModel)

	if len(m.rows) != 2 {
		t.Fatalf("rows = %d after collapse, want 2", len(m.rows))
	}
	if strings.Contains(m.View(), "Cam Diaz") {
		t.Error("collapsed subtree still visible")
	}

	// Collapsed rows show the hidden headcount.
	if !strings.Contains(m.View(), "[1]") {
		t.Error("collapsed row missing headcount badge")
	}

	// Expand again.
	next, _ = m.Update(key(" "))
	m = next.(TreeModel)
	if len(m.rows) != 3 {
		t.Errorf("rows = %d after expand, want 3", len(m.rows))
	}
}

func TestTreeModelLeftJumpsToParent(t *testing.T) {
	m := NewTreeModel(testTree())

	next, _ := m.Update(key("j"))
	m = next.(TreeModel)
	next, _ = m.Update(key("j"))
	m = next.(TreeModel)
	if m.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", m.cursor)
	}

	// Left on a leaf moves to its parent.
	next, _ = m.Update(key("h"))
	m = next.(TreeModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d after left, want 1 (parent)", m.cursor)
	}
}

func TestTreeModelEmpty(t *testing.T) {
	m := NewTreeModel(nil)
	if len(m.rows) != 0 {
		t.Fatalf("rows = %d for nil tree, want 0", len(m.rows))
	}
	if !strings.Contains(m.View(), "empty tree") {
		t.Error("empty tree view missing placeholder")
	}
}
