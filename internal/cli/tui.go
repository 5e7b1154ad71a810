package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dbauto/orgchart/pkg/org"
)

// browseCommand creates the browse command for the terminal tree viewer.
func (c *CLI) browseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "browse",
		Aliases: []string{"tui"},
		Short:   "Browse the org tree in the terminal",
		Long: `Browse the org tree in the terminal.

Arrow keys move the cursor, enter or space expands and collapses a
subtree, and q quits. The viewer reads the stored snapshot; run
'orgchart refresh' first if there is none.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			snap, err := runner.Store.Load(cmd.Context())
			if err != nil {
				return err
			}

			model := NewTreeModel(snap.Tree)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	return cmd
}

// treeRow is one visible line of the tree viewer.
type treeRow struct {
	node  *org.Node
	depth int
}

// TreeModel is the bubbletea model for the interactive tree viewer.
type TreeModel struct {
	root     *org.Node
	expanded map[string]bool
	rows     []treeRow
	cursor   int
	offset   int
	height   int
}

// NewTreeModel creates a viewer over root with the top two levels open.
func NewTreeModel(root *org.Node) TreeModel {
	m := TreeModel{
		root:     root,
		expanded: make(map[string]bool),
		height:   20,
	}
	if root != nil {
		m.expanded[root.ID] = true
		for _, child := range root.Children {
			m.expanded[child.ID] = true
		}
	}
	m.rebuild()
	return m
}

// rebuild flattens the expanded portion of the tree into rows.
func (m *TreeModel) rebuild() {
	m.rows = m.rows[:0]
	seen := make(map[string]bool)
	var walk func(n *org.Node, depth int)
	walk = func(n *org.Node, depth int) {
		if n == nil || seen[n.ID] {
			return
		}
		seen[n.ID] = true
		m.rows = append(m.rows, treeRow{node: n, depth: depth})
		if m.expanded[n.ID] {
			for _, c := range n.Children {
				walk(c, depth+1)
			}
		}
	}
	walk(m.root, 0)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ", "right", "l":
			if row := m.current(); row != nil && len(row.node.Children) > 0 {
				m.expanded[row.node.ID] = !m.expanded[row.node.ID]
				m.rebuild()
			}
		case "left", "h":
			if row := m.current(); row != nil {
				if m.expanded[row.node.ID] {
					m.expanded[row.node.ID] = false
					m.rebuild()
				} else {
					m.moveToParent(row)
				}
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 7
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m *TreeModel) current() *treeRow {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return &m.rows[m.cursor]
}

// moveToParent puts the cursor on the nearest shallower row above it.
func (m *TreeModel) moveToParent(row *treeRow) {
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].depth < row.depth {
			m.cursor = i
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
			return
		}
	}
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Org Chart"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ expand/collapse  ← parent  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  (empty tree)"))
		return b.String()
	}

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		n := row.node

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		marker := "  "
		if len(n.Children) > 0 {
			if m.expanded[n.ID] {
				marker = "▾ "
			} else {
				marker = "▸ "
			}
		}

		label := n.Name
		if n.Title != "" {
			label += "  " + listDimStyle.Render(n.Title)
		}
		if len(n.Children) > 0 && !m.expanded[n.ID] {
			label += listDimStyle.Render(fmt.Sprintf("  [%d]", n.Count()-1))
		}

		line := cursor + strings.Repeat("  ", row.depth) + marker + label
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if row := (&m).current(); row != nil {
		b.WriteString(renderDetail(row.node.Employee))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))

	return b.String()
}

// renderDetail shows the cursor employee's contact line.
func renderDetail(e org.Employee) string {
	parts := []string{}
	if e.Email != "" {
		parts = append(parts, e.Email)
	}
	if e.Department != "" {
		parts = append(parts, e.Department)
	}
	if e.Location != "" {
		parts = append(parts, e.Location)
	}
	if len(parts) == 0 {
		return ""
	}
	detail := lipgloss.NewStyle().Foreground(colorGray)
	return "  " + detail.Render(strings.Join(parts, "  ·  "))
}
