package layout

import (
	"sort"
)

// compact repairs the tidy layout after packing changed subtree extents.
// Every ancestor of a packed group is re-spaced, deepest first, so that a
// grandparent's pass already sees corrected child extents:
//
//   - each child subtree is treated as a rigid block spanning its full
//     sibling-axis extent;
//   - blocks are laid out in their current center order, separated by the
//     subtree gap, and centered as a whole on the ancestor's previous
//     center;
//   - the ancestor is then recentered at the midpoint of its children's
//     combined extent, so asymmetric packing does not leave it off to
//     one side.
func (e *engine) compact(groups []*packGroup) {
	if len(groups) == 0 {
		return
	}

	// Distinct ancestors of all packed parents, deepest first. The packed
	// parent itself needs no respacing (rows are centered on it by
	// construction) but is recentered by its own parent's pass.
	seen := make(map[*lnode]bool)
	var ancestors []*lnode
	for _, g := range groups {
		for a := g.parent.parent; a != nil; a = a.parent {
			if seen[a] {
				continue
			}
			seen[a] = true
			ancestors = append(ancestors, a)
		}
	}
	sort.SliceStable(ancestors, func(i, j int) bool {
		return ancestors[i].depth > ancestors[j].depth
	})

	for _, a := range ancestors {
		e.respace(a)
	}
}

// respace lays out a's child subtrees as rigid blocks and recenters a.
func (e *engine) respace(a *lnode) {
	if len(a.children) == 0 {
		return
	}

	if len(a.children) >= 2 {
		// Current center order, not slice order: packing or earlier
		// respacing may have moved centers, and reordering blocks would
		// cross connectors.
		order := make([]*lnode, len(a.children))
		copy(order, a.children)
		sort.SliceStable(order, func(i, j int) bool { return order[i].x < order[j].x })

		type block struct {
			node       *lnode
			minX, maxX float64
		}
		blocks := make([]block, len(order))
		total := 0.0
		for i, c := range order {
			minX, maxX := e.subtreeExtent(c)
			blocks[i] = block{node: c, minX: minX, maxX: maxX}
			total += maxX - minX
		}
		total += e.set.SubtreeGap * float64(len(blocks)-1)

		cursor := a.x - total/2
		for _, b := range blocks {
			width := b.maxX - b.minX
			// Shift is all-or-nothing for the whole subtree; connector
			// routing depends on it.
			shiftSubtree(b.node, cursor-b.minX, 0)
			cursor += width + e.set.SubtreeGap
		}
	}

	// Recenter on the combined child extent midpoint, not the sibling
	// spacing midpoint.
	minX, maxX := e.subtreeExtent(a.children[0])
	for _, c := range a.children[1:] {
		cMin, cMax := e.subtreeExtent(c)
		if cMin < minX {
			minX = cMin
		}
		if cMax > maxX {
			maxX = cMax
		}
	}
	a.x = (minX + maxX) / 2
}
