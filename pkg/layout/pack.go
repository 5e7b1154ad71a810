package layout

import "math"

// packGroup is the transient record for one parent whose children were
// reflowed into a grid this pass. It is rebuilt on every pass and never
// persisted.
type packGroup struct {
	parent *lnode
	rows   [][]*lnode
	nRows  int
	nCols  int
}

// GridDims returns the grid shape used to pack n children: columns start
// at ceil(sqrt(n)), rows follow, and columns are then re-derived from the
// row count so the final row is never sparser than it has to be.
func GridDims(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	cols = (n + rows - 1) / rows
	return rows, cols
}

// pack reflows the children of every parent at or over the threshold into
// a grid. Children keep their pass order, filling rows left to right, and
// each child's own subtree moves rigidly with it. Each row is centered
// under the parent independently, so a partial final row centers by its
// own member count. Row pitch is the level gap; column pitch is the node
// footprint plus the (wider) packed gap.
//
// Packing operates on currently visible children: a subtree hidden by the
// user is not a grid member and does not influence grid dimensions.
func (e *engine) pack(root *lnode) []*packGroup {
	if root == nil || !e.set.PackingEnabled {
		return nil
	}

	var groups []*packGroup
	var walk func(n *lnode)
	walk = func(n *lnode) {
		for _, c := range n.children {
			walk(c)
		}
		if len(n.children) >= e.set.PackThreshold {
			groups = append(groups, e.packChildren(n))
		}
	}
	walk(root)
	return groups
}

// packChildren moves n's children onto grid cells below n.
func (e *engine) packChildren(n *lnode) *packGroup {
	kids := n.children
	nRows, nCols := GridDims(len(kids))
	colPitch := e.w + e.set.PackedGap

	g := &packGroup{parent: n, nRows: nRows, nCols: nCols}
	for r := 0; r < nRows; r++ {
		lo := r * nCols
		hi := min(lo+nCols, len(kids))
		row := kids[lo:hi]
		g.rows = append(g.rows, row)

		rowWidth := float64(len(row)-1) * colPitch
		startX := n.x - rowWidth/2
		rowY := n.y + float64(r+1)*e.set.LevelGap

		for j, c := range row {
			dx := startX + float64(j)*colPitch - c.x
			dy := rowY - c.y
			shiftSubtree(c, dx, dy)
		}
	}
	return g
}

// rowSpan returns the sibling-axis extent of one grid row's member centers.
func rowSpan(row []*lnode) (minX, maxX float64) {
	minX, maxX = row[0].x, row[0].x
	for _, c := range row[1:] {
		minX = math.Min(minX, c.x)
		maxX = math.Max(maxX, c.x)
	}
	return minX, maxX
}
