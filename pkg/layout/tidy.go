package layout

import (
	"math"

	"github.com/dbauto/orgchart/pkg/org"
)

// lnode wraps one visible employee with pass-local position state.
// Coordinates are in "vertical space" during the pass: x is the sibling
// axis, y the depth axis. Horizontal orientation transposes at the end.
type lnode struct {
	src      *org.Node
	parent   *lnode
	children []*lnode
	depth    int

	x, y float64

	// collapsed marks a node whose children exist but are not visible
	// this pass. The renderer draws these with an expand affordance.
	collapsed bool
}

// engine carries the settings for one pass in vertical-space terms.
// w and h are the node footprint along the sibling and depth axes, which
// swap when the orientation is horizontal.
type engine struct {
	set  Settings
	w, h float64
}

func newEngine(set Settings) *engine {
	e := &engine{set: set, w: set.NodeWidth, h: set.NodeHeight}
	if set.Orientation == Horizontal {
		e.w, e.h = e.h, e.w
	}
	return e
}

// buildVisible projects the employee tree onto the visible subset: hidden
// subtrees contribute nothing, collapsed nodes contribute themselves but
// none of their descendants. A visited set makes traversal terminate on
// malformed (cyclic) input; the repeated subtree is dropped.
func buildVisible(root *org.Node, collapsed, hidden map[string]bool) *lnode {
	if root == nil || hidden[root.ID] {
		return nil
	}
	seen := make(map[string]bool)
	var build func(n *org.Node, parent *lnode, depth int) *lnode
	build = func(n *org.Node, parent *lnode, depth int) *lnode {
		if n == nil || seen[n.ID] || hidden[n.ID] {
			return nil
		}
		seen[n.ID] = true
		ln := &lnode{src: n, parent: parent, depth: depth}
		if collapsed[n.ID] {
			ln.collapsed = len(n.Children) > 0
			return ln
		}
		for _, c := range n.Children {
			if child := build(c, ln, depth+1); child != nil {
				ln.children = append(ln.children, child)
			}
		}
		return ln
	}
	return build(root, nil, 0)
}

// contour records, per depth, the leftmost and rightmost node centers of a
// subtree. Two subtrees may be placed side by side once their contours
// clear each other at every shared depth.
type contour map[int]contourSpan

type contourSpan struct{ min, max float64 }

func (c contour) add(depth int, x float64) {
	span, ok := c[depth]
	if !ok {
		c[depth] = contourSpan{min: x, max: x}
		return
	}
	c[depth] = contourSpan{min: math.Min(span.min, x), max: math.Max(span.max, x)}
}

func (c contour) merge(other contour) {
	for d, span := range other {
		c.add(d, span.min)
		c.add(d, span.max)
	}
}

func (c contour) shift(dx float64) {
	for d, span := range c {
		c[d] = contourSpan{min: span.min + dx, max: span.max + dx}
	}
}

// tidy assigns every node in the visible tree its tidy-tree position:
// depth determines y, siblings are laid out left to right with the
// configured gaps, and each parent is centered over its children.
func (e *engine) tidy(root *lnode) {
	if root == nil {
		return
	}
	e.placeSubtree(root)
}

// placeSubtree lays out n's subtree in absolute coordinates, with the
// subtree's own leftmost branch near x=0, and returns the subtree contour.
// Parents are placed at the midpoint of their first and last child.
func (e *engine) placeSubtree(n *lnode) contour {
	n.y = float64(n.depth) * e.set.LevelGap

	if len(n.children) == 0 {
		n.x = 0
		return contour{n.depth: {0, 0}}
	}

	var merged contour
	for i, c := range n.children {
		ct := e.placeSubtree(c)
		if i == 0 {
			merged = ct
			continue
		}
		dx := e.clearance(merged, ct, c.depth)
		shiftSubtree(c, dx, 0)
		ct.shift(dx)
		merged.merge(ct)
	}

	n.x = (n.children[0].x + n.children[len(n.children)-1].x) / 2
	merged.add(n.depth, n.x)
	return merged
}

// clearance computes how far the right subtree must shift so that, at every
// depth both subtrees occupy, the boxes do not collide. At the children's
// own depth the sibling gap applies; at deeper levels the nodes belong to
// different subtrees and get the larger subtree gap.
func (e *engine) clearance(left, right contour, childDepth int) float64 {
	dx := math.Inf(-1)
	for d, r := range right {
		l, ok := left[d]
		if !ok {
			continue
		}
		gap := e.set.SubtreeGap
		if d == childDepth {
			gap = e.set.SiblingGap
		}
		if need := l.max + e.w + gap - r.min; need > dx {
			dx = need
		}
	}
	if math.IsInf(dx, -1) {
		return 0
	}
	return dx
}

// shiftSubtree translates a node and every visible descendant rigidly.
// The shift is applied eagerly to the whole subtree so callers never
// observe a partially moved subtree.
func shiftSubtree(n *lnode, dx, dy float64) {
	n.x += dx
	n.y += dy
	for _, c := range n.children {
		shiftSubtree(c, dx, dy)
	}
}

// subtreeExtent returns the sibling-axis span [min,max] of the boxes in
// n's subtree, including the half-width overhang of each box.
func (e *engine) subtreeExtent(n *lnode) (minX, maxX float64) {
	minX, maxX = n.x-e.w/2, n.x+e.w/2
	for _, c := range n.children {
		cMin, cMax := e.subtreeExtent(c)
		minX = math.Min(minX, cMin)
		maxX = math.Max(maxX, cMax)
	}
	return minX, maxX
}
