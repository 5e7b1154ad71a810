package layout

import "math"

// ConnectorKind distinguishes the two edge drawing styles.
type ConnectorKind string

const (
	// ConnectorSimple is an orthogonal elbow from one parent to one child.
	ConnectorSimple ConnectorKind = "simple"
	// ConnectorBus is a trunk-and-spine connector from one parent to a
	// grid-packed child group.
	ConnectorBus ConnectorKind = "bus"
)

// Connector is the drawn geometry for one parent's edges. Simple
// connectors carry exactly one child; bus connectors carry the whole
// packed group. Lines are polylines in final chart coordinates, replaced
// wholesale every pass.
type Connector struct {
	Kind     ConnectorKind `json:"kind"`
	ParentID string        `json:"parentId"`
	ChildIDs []string      `json:"childIds"`
	Lines    [][]Point     `json:"lines"`
}

// route computes connector geometry from final node positions. It needs to
// know only which parents are packed; everything else derives from the
// positions themselves.
func (e *engine) route(root *lnode, groups []*packGroup) []Connector {
	if root == nil {
		return nil
	}
	packed := make(map[*lnode]*packGroup, len(groups))
	for _, g := range groups {
		packed[g.parent] = g
	}

	var connectors []Connector
	var walk func(n *lnode)
	walk = func(n *lnode) {
		if g, ok := packed[n]; ok && len(n.children) > 0 {
			connectors = append(connectors, e.busConnector(g))
		} else {
			for _, c := range n.children {
				connectors = append(connectors, e.elbowConnector(n, c))
			}
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
	return connectors
}

// elbowConnector bends at the vertical midpoint between the parent's
// bottom edge and the child's top edge. When parent and child share the
// sibling coordinate the elbow degenerates to a straight segment.
func (e *engine) elbowConnector(p, c *lnode) Connector {
	from := Point{X: p.x, Y: p.y + e.h/2}
	to := Point{X: c.x, Y: c.y - e.h/2}

	var line []Point
	if p.x == c.x {
		line = []Point{from, to}
	} else {
		midY := (from.Y + to.Y) / 2
		line = []Point{from, {X: from.X, Y: midY}, {X: to.X, Y: midY}, to}
	}
	return Connector{
		Kind:     ConnectorSimple,
		ParentID: p.src.ID,
		ChildIDs: []string{c.src.ID},
		Lines:    [][]Point{line},
	}
}

// busConnector wires a packed group: one trunk drops from the parent
// through every row level; each row gets a spine spanning its outermost
// members (and the trunk), and each member a short stub from the spine
// down to its box. Zero-length pieces (a single-member row sitting
// exactly on the trunk) are skipped rather than emitted as empty paths.
func (e *engine) busConnector(g *packGroup) Connector {
	p := g.parent
	var lines [][]Point
	childIDs := make([]string, 0, len(p.children))

	lastSpineY := p.y + e.h/2
	for r, row := range g.rows {
		rowY := p.y + float64(r+1)*e.set.LevelGap
		spineY := rowY - e.set.LevelGap/2
		lastSpineY = spineY

		minX, maxX := rowSpan(row)
		spineMin := math.Min(minX, p.x)
		spineMax := math.Max(maxX, p.x)
		if spineMax > spineMin {
			lines = append(lines, []Point{{X: spineMin, Y: spineY}, {X: spineMax, Y: spineY}})
		}

		for _, c := range row {
			childIDs = append(childIDs, c.src.ID)
			lines = append(lines, []Point{{X: c.x, Y: spineY}, {X: c.x, Y: c.y - e.h/2}})
		}
	}

	// Trunk last so renderers can draw it over the spines.
	trunk := []Point{{X: p.x, Y: p.y + e.h/2}, {X: p.x, Y: lastSpineY}}
	lines = append(lines, trunk)

	return Connector{
		Kind:     ConnectorBus,
		ParentID: p.src.ID,
		ChildIDs: childIDs,
		Lines:    lines,
	}
}
