package layout

import "github.com/dbauto/orgchart/pkg/org"

// Placed is one positioned node in a pass result. X and Y are the box
// center in final chart coordinates; PrevX and PrevY carry the position
// from the previous pass so renderers can animate the transition.
type Placed struct {
	ID       string       `json:"id"`
	Employee org.Employee `json:"employee"`
	Depth    int          `json:"depth"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`

	PrevX float64 `json:"prevX"`
	PrevY float64 `json:"prevY"`

	// Collapsed marks a node whose children exist but are not in this
	// pass, so the renderer can show an expand affordance.
	Collapsed  bool `json:"collapsed"`
	ChildCount int  `json:"childCount"`
}

// Result is the complete output of one layout pass. It is self-contained:
// positions, connector geometry, and the bounding box of everything drawn.
type Result struct {
	Nodes      []Placed    `json:"nodes"`
	Connectors []Connector `json:"connectors"`
	Bounds     Rect        `json:"bounds"`
}

// ExportOptions controls a non-interactive full-tree pass.
type ExportOptions struct {
	// IncludeCollapsed lays out collapsed subtrees as if expanded.
	// Hidden subtrees are always excluded; hiding is an explicit edit,
	// collapse is just a viewing convenience.
	IncludeCollapsed bool
}

// Compute runs one full layout pass over the visible tree and records the
// resulting positions for the next pass's animations.
func (s *Session) Compute() Result {
	res := s.compute(s.collapsed)
	s.rememberPositions(res.Nodes)
	return res
}

// ComputeExport runs a pass for a static render target. It never touches
// the session's animation bookkeeping, so an export between two interactive
// passes does not disturb the on-screen animation.
func (s *Session) ComputeExport(opts ExportOptions) Result {
	collapsed := s.collapsed
	if opts.IncludeCollapsed {
		collapsed = map[string]bool{}
	}
	return s.compute(collapsed)
}

func (s *Session) compute(collapsed map[string]bool) Result {
	root := buildVisible(s.root, collapsed, s.hidden)
	if root == nil {
		return Result{}
	}

	e := newEngine(s.settings)
	e.tidy(root)
	groups := e.pack(root)
	e.compact(groups)
	connectors := e.route(root, groups)

	horizontal := s.settings.Orientation == Horizontal
	if horizontal {
		transposeAll(root, connectors)
	}

	var nodes []Placed
	var walk func(n *lnode)
	walk = func(n *lnode) {
		prev, hasPrev := s.prev[n.src.ID]
		p := Placed{
			ID:         n.src.ID,
			Employee:   n.src.Employee,
			Depth:      n.depth,
			X:          n.x,
			Y:          n.y,
			W:          s.settings.NodeWidth,
			H:          s.settings.NodeHeight,
			Collapsed:  n.collapsed,
			ChildCount: len(n.src.Children),
		}
		if hasPrev {
			p.PrevX, p.PrevY = prev.X, prev.Y
		} else {
			// First appearance: enter in place instead of flying in
			// from the origin.
			p.PrevX, p.PrevY = n.x, n.y
		}
		nodes = append(nodes, p)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)

	return Result{
		Nodes:      nodes,
		Connectors: connectors,
		Bounds:     bounds(nodes, connectors),
	}
}

// transposeAll swaps the axes of every position and connector point,
// turning the vertical-space result into a horizontal chart.
func transposeAll(root *lnode, connectors []Connector) {
	var walk func(n *lnode)
	walk = func(n *lnode) {
		n.x, n.y = n.y, n.x
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
	for i := range connectors {
		for _, line := range connectors[i].Lines {
			for j := range line {
				line[j] = line[j].transpose()
			}
		}
	}
}

func bounds(nodes []Placed, connectors []Connector) Rect {
	var r Rect
	first := true
	grow := func(b Rect) {
		if first {
			r = b
			first = false
			return
		}
		r = r.union(b)
	}
	for _, n := range nodes {
		grow(Rect{
			MinX: n.X - n.W/2, MinY: n.Y - n.H/2,
			MaxX: n.X + n.W/2, MaxY: n.Y + n.H/2,
		})
	}
	for _, c := range connectors {
		for _, line := range c.Lines {
			for _, p := range line {
				grow(Rect{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y})
			}
		}
	}
	return r
}
