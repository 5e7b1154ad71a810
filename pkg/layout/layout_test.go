package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbauto/orgchart/pkg/org"
)

func emp(id string, children ...*org.Node) *org.Node {
	return &org.Node{
		Employee: org.Employee{ID: id, Name: "Employee " + id, Title: "Title " + id},
		Children: children,
	}
}

// fan returns a parent with n leaf children, IDs prefix-0..prefix-(n-1).
func fan(id string, n int) *org.Node {
	p := emp(id)
	for i := 0; i < n; i++ {
		p.Children = append(p.Children, emp(fmt.Sprintf("%s-%d", id, i)))
	}
	return p
}

func expandedSettings() Settings {
	s := DefaultSettings()
	s.CollapseDepth = 0
	return s
}

func newTestSession(t *testing.T, root *org.Node, set Settings) *Session {
	t.Helper()
	s, err := NewSession(root, set)
	require.NoError(t, err)
	return s
}

func positions(res Result) map[string]Point {
	m := make(map[string]Point, len(res.Nodes))
	for _, n := range res.Nodes {
		m[n.ID] = Point{X: n.X, Y: n.Y}
	}
	return m
}

func TestGridDims(t *testing.T) {
	cases := []struct {
		n, rows, cols int
	}{
		{1, 1, 1},
		{2, 1, 2},
		{4, 2, 2},
		{5, 2, 3},
		{9, 3, 3},
		{12, 3, 4},
		{20, 4, 5},
		{21, 5, 5},
		{25, 5, 5},
	}
	for _, tc := range cases {
		rows, cols := GridDims(tc.n)
		assert.Equal(t, tc.rows, rows, "rows for n=%d", tc.n)
		assert.Equal(t, tc.cols, cols, "cols for n=%d", tc.n)
		assert.GreaterOrEqual(t, rows*cols, tc.n)
		assert.Less(t, rows*(cols-1), tc.n, "grid for n=%d has an empty column", tc.n)
	}
}

func TestPackThresholdIsInclusive(t *testing.T) {
	set := expandedSettings()
	set.PackThreshold = 20

	s := newTestSession(t, fan("boss", 20), set)
	res := s.Compute()

	rowYs := make(map[float64]int)
	for _, n := range res.Nodes {
		if n.ID == "boss" {
			continue
		}
		rowYs[n.Y]++
	}
	require.Len(t, rowYs, 4, "20 children at threshold 20 should pack into 4 rows")
	for _, count := range rowYs {
		assert.Equal(t, 5, count)
	}
}

func TestBelowThresholdStaysFlat(t *testing.T) {
	set := expandedSettings()
	set.PackThreshold = 20

	s := newTestSession(t, fan("boss", 19), set)
	res := s.Compute()

	rowYs := make(map[float64]bool)
	for _, n := range res.Nodes {
		if n.ID != "boss" {
			rowYs[n.Y] = true
		}
	}
	assert.Len(t, rowYs, 1, "19 children stay on a single row")
	for _, c := range res.Connectors {
		assert.Equal(t, ConnectorSimple, c.Kind)
	}
}

func TestPackingDisabled(t *testing.T) {
	set := expandedSettings()
	set.PackThreshold = 10
	s := newTestSession(t, fan("boss", 25), set)
	s.SetPackingEnabled(false)

	res := s.Compute()
	rowYs := make(map[float64]bool)
	for _, n := range res.Nodes {
		if n.ID != "boss" {
			rowYs[n.Y] = true
		}
	}
	assert.Len(t, rowYs, 1)
}

func TestPackedRowOrderIsRowMajor(t *testing.T) {
	set := expandedSettings()
	set.PackThreshold = 9
	s := newTestSession(t, fan("boss", 9), set)
	res := s.Compute()

	pos := positions(res)
	// 3x3 grid: child i sits at row i/3, column i%3, in input order.
	for i := 0; i < 9; i++ {
		for j := i + 1; j < 9; j++ {
			pi := pos[fmt.Sprintf("boss-%d", i)]
			pj := pos[fmt.Sprintf("boss-%d", j)]
			if pi.Y == pj.Y {
				assert.Less(t, pi.X, pj.X, "child %d left of child %d within a row", i, j)
			} else {
				assert.Less(t, pi.Y, pj.Y, "child %d above child %d", i, j)
			}
		}
	}
}

func TestUniquePositions(t *testing.T) {
	root := emp("ceo",
		fan("eng", 25),
		fan("sales", 7),
		emp("ops", emp("ops-1", emp("ops-1-1"))),
	)
	set := expandedSettings()
	s := newTestSession(t, root, set)
	res := s.Compute()

	seen := make(map[Point]string)
	for _, n := range res.Nodes {
		p := Point{X: n.X, Y: n.Y}
		prev, dup := seen[p]
		require.False(t, dup, "%s and %s share position %+v", prev, n.ID, p)
		seen[p] = n.ID
	}
	assert.Len(t, seen, 1+26+8+3)
}

func TestNoBoxOverlap(t *testing.T) {
	root := emp("ceo",
		fan("eng", 25),
		fan("sales", 12),
		fan("ops", 3),
	)
	s := newTestSession(t, root, expandedSettings())
	res := s.Compute()

	boxes := make([]Rect, 0, len(res.Nodes))
	ids := make([]string, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		boxes = append(boxes, Rect{
			MinX: n.X - n.W/2, MinY: n.Y - n.H/2,
			MaxX: n.X + n.W/2, MaxY: n.Y + n.H/2,
		})
		ids = append(ids, n.ID)
	}
	for i := range boxes {
		for j := i + 1; j < len(boxes); j++ {
			assert.False(t, boxes[i].overlaps(boxes[j]),
				"%s overlaps %s", ids[i], ids[j])
		}
	}
}

func TestSymmetricTreeCentersParents(t *testing.T) {
	root := emp("r",
		emp("a", emp("a1"), emp("a2")),
		emp("b", emp("b1"), emp("b2")),
	)
	s := newTestSession(t, root, expandedSettings())
	res := s.Compute()
	pos := positions(res)

	assert.InDelta(t, (pos["a1"].X+pos["a2"].X)/2, pos["a"].X, 1e-9)
	assert.InDelta(t, (pos["b1"].X+pos["b2"].X)/2, pos["b"].X, 1e-9)
	assert.InDelta(t, (pos["a"].X+pos["b"].X)/2, pos["r"].X, 1e-9)

	// Mirror symmetry about the root.
	assert.InDelta(t, pos["r"].X-pos["a"].X, pos["b"].X-pos["r"].X, 1e-9)
	assert.InDelta(t, pos["r"].X-pos["a1"].X, pos["b2"].X-pos["r"].X, 1e-9)
}

func TestCollapseExpandRoundTrip(t *testing.T) {
	root := emp("ceo", fan("eng", 6), fan("sales", 4))
	s := newTestSession(t, root, expandedSettings())

	first := positions(s.Compute())

	require.NoError(t, s.ToggleCollapse("eng"))
	mid := s.Compute()
	for _, n := range mid.Nodes {
		assert.NotContains(t, n.ID, "eng-", "collapsed children must not be placed")
	}
	engNode := mid.Nodes[0]
	for _, n := range mid.Nodes {
		if n.ID == "eng" {
			engNode = n
		}
	}
	assert.True(t, engNode.Collapsed)
	assert.Equal(t, 6, engNode.ChildCount)

	require.NoError(t, s.ToggleCollapse("eng"))
	last := positions(s.Compute())
	require.Equal(t, len(first), len(last))
	for id, p := range first {
		assert.InDelta(t, p.X, last[id].X, 1e-9, "x of %s", id)
		assert.InDelta(t, p.Y, last[id].Y, 1e-9, "y of %s", id)
	}
}

func TestHideShowRetainsSubtree(t *testing.T) {
	root := emp("ceo", fan("eng", 4), fan("sales", 3))
	s := newTestSession(t, root, expandedSettings())

	before := positions(s.Compute())

	require.NoError(t, s.ToggleHidden("eng"))
	hiddenPass := positions(s.Compute())
	assert.NotContains(t, hiddenPass, "eng")
	assert.NotContains(t, hiddenPass, "eng-0")
	assert.Contains(t, hiddenPass, "sales")

	require.NoError(t, s.ToggleHidden("eng"))
	after := positions(s.Compute())
	require.Equal(t, len(before), len(after))
	for id := range before {
		assert.Contains(t, after, id)
	}
}

func TestToggleUnknownEmployee(t *testing.T) {
	s := newTestSession(t, emp("ceo"), expandedSettings())
	assert.Error(t, s.ToggleCollapse("ghost"))
	assert.Error(t, s.ToggleHidden("ghost"))
}

func TestOrientationTransposes(t *testing.T) {
	root := emp("ceo", fan("eng", 25), fan("ops", 3))
	s := newTestSession(t, root, expandedSettings())

	vertical := positions(s.Compute())

	// Horizontal charts grow along X and space siblings by node height,
	// so only the depth axis and the sibling ordering carry over exactly.
	require.NoError(t, s.SetOrientation(Horizontal))
	horizontal := s.Compute()
	for _, n := range horizontal.Nodes {
		v := vertical[n.ID]
		assert.InDelta(t, v.Y, n.X, 1e-9, "depth axis of %s", n.ID)
		assert.Equal(t, s.Settings().NodeWidth, n.W)
		assert.Equal(t, s.Settings().NodeHeight, n.H)
	}
	for _, a := range horizontal.Nodes {
		for _, b := range horizontal.Nodes {
			if a.Depth != b.Depth {
				continue
			}
			va, vb := vertical[a.ID], vertical[b.ID]
			if va.X < vb.X {
				assert.Less(t, a.Y, b.Y, "sibling order of %s and %s", a.ID, b.ID)
			}
		}
	}

	require.NoError(t, s.SetOrientation(Vertical))
	restored := positions(s.Compute())
	for id, p := range vertical {
		assert.InDelta(t, p.X, restored[id].X, 1e-9)
		assert.InDelta(t, p.Y, restored[id].Y, 1e-9)
	}
}

func TestBusConnectorGeometry(t *testing.T) {
	set := expandedSettings()
	set.PackThreshold = 9
	s := newTestSession(t, fan("boss", 9), set)
	res := s.Compute()

	var bus *Connector
	for i := range res.Connectors {
		if res.Connectors[i].Kind == ConnectorBus {
			require.Nil(t, bus, "exactly one bus connector expected")
			bus = &res.Connectors[i]
		}
	}
	require.NotNil(t, bus)
	assert.Equal(t, "boss", bus.ParentID)
	assert.Len(t, bus.ChildIDs, 9)

	pos := positions(res)
	h := set.NodeHeight

	// Every child gets a stub that lands on its top edge.
	stubTops := make(map[Point]bool)
	for _, line := range bus.Lines {
		require.GreaterOrEqual(t, len(line), 2)
		for i := 1; i < len(line); i++ {
			a, b := line[i-1], line[i]
			assert.True(t, a.X == b.X || a.Y == b.Y, "connector segments are orthogonal")
			assert.False(t, a == b, "zero-length segment")
		}
		end := line[len(line)-1]
		stubTops[end] = true
	}
	for _, id := range bus.ChildIDs {
		p := pos[id]
		assert.True(t, stubTops[Point{X: p.X, Y: p.Y - h/2}],
			"no stub reaches the top of %s", id)
	}

	// The trunk hangs from the parent's bottom edge.
	boss := pos["boss"]
	foundTrunk := false
	for _, line := range bus.Lines {
		if line[0] == (Point{X: boss.X, Y: boss.Y + h/2}) {
			foundTrunk = true
		}
	}
	assert.True(t, foundTrunk)
}

func TestElbowConnectors(t *testing.T) {
	root := emp("r", emp("a"), emp("b"))
	s := newTestSession(t, root, expandedSettings())
	res := s.Compute()

	require.Len(t, res.Connectors, 2)
	for _, c := range res.Connectors {
		assert.Equal(t, ConnectorSimple, c.Kind)
		assert.Equal(t, "r", c.ParentID)
		require.Len(t, c.Lines, 1)
		line := c.Lines[0]
		require.Len(t, line, 4)
		assert.Equal(t, line[1].Y, line[2].Y, "elbow bend is horizontal")
	}
}

func TestExportIncludesCollapsedSubtrees(t *testing.T) {
	root := emp("ceo", fan("eng", 5))
	s := newTestSession(t, root, expandedSettings())
	require.NoError(t, s.ToggleCollapse("eng"))

	interactive := s.Compute()
	assert.Len(t, interactive.Nodes, 2)

	export := s.ComputeExport(ExportOptions{IncludeCollapsed: true})
	assert.Len(t, export.Nodes, 7)

	// The export pass must not disturb interactive animation state.
	next := s.Compute()
	pos := positions(interactive)
	for _, n := range next.Nodes {
		p := pos[n.ID]
		assert.InDelta(t, p.X, n.PrevX, 1e-9)
		assert.InDelta(t, p.Y, n.PrevY, 1e-9)
	}
}

func TestPrevPositionsTrackPasses(t *testing.T) {
	root := emp("ceo", fan("eng", 4), fan("sales", 4))
	s := newTestSession(t, root, expandedSettings())

	first := s.Compute()
	for _, n := range first.Nodes {
		assert.Equal(t, n.X, n.PrevX, "first pass enters in place")
		assert.Equal(t, n.Y, n.PrevY)
	}

	firstPos := positions(first)
	require.NoError(t, s.ToggleHidden("sales"))
	second := s.Compute()
	for _, n := range second.Nodes {
		p := firstPos[n.ID]
		assert.InDelta(t, p.X, n.PrevX, 1e-9, "prev x of %s", n.ID)
		assert.InDelta(t, p.Y, n.PrevY, 1e-9, "prev y of %s", n.ID)
	}
}

func TestInitialCollapseDepth(t *testing.T) {
	root := emp("ceo", emp("vp", emp("dir", emp("mgr"))))
	set := DefaultSettings()
	set.CollapseDepth = 2
	s := newTestSession(t, root, set)

	res := s.Compute()
	pos := positions(res)
	assert.Contains(t, pos, "ceo")
	assert.Contains(t, pos, "vp")
	assert.Contains(t, pos, "dir")
	assert.NotContains(t, pos, "mgr")

	s.ExpandAll()
	assert.Len(t, s.Compute().Nodes, 4)
}

func TestEmptyTree(t *testing.T) {
	s := newTestSession(t, nil, DefaultSettings())
	res := s.Compute()
	assert.Empty(t, res.Nodes)
	assert.Empty(t, res.Connectors)
}

func TestCyclicInputTerminates(t *testing.T) {
	a := emp("a")
	b := emp("b")
	a.Children = []*org.Node{b}
	b.Children = []*org.Node{a}

	s := newTestSession(t, a, expandedSettings())
	res := s.Compute()
	assert.Len(t, res.Nodes, 2)
}

func TestSettingsValidation(t *testing.T) {
	bad := DefaultSettings()
	bad.NodeWidth = 0
	_, err := NewSession(nil, bad)
	assert.Error(t, err)

	bad = DefaultSettings()
	bad.PackThreshold = 0
	_, err = NewSession(nil, bad)
	assert.Error(t, err)

	bad = DefaultSettings()
	bad.Orientation = "diagonal"
	_, err = NewSession(nil, bad)
	assert.Error(t, err)

	s := newTestSession(t, nil, DefaultSettings())
	assert.Error(t, s.SetPackThreshold(-1))
	assert.NoError(t, s.SetPackThreshold(5))
}

func TestBoundsCoverEverything(t *testing.T) {
	root := emp("ceo", fan("eng", 25))
	s := newTestSession(t, root, expandedSettings())
	res := s.Compute()

	for _, n := range res.Nodes {
		assert.GreaterOrEqual(t, n.X-n.W/2, res.Bounds.MinX)
		assert.LessOrEqual(t, n.X+n.W/2, res.Bounds.MaxX)
		assert.GreaterOrEqual(t, n.Y-n.H/2, res.Bounds.MinY)
		assert.LessOrEqual(t, n.Y+n.H/2, res.Bounds.MaxY)
	}
	assert.False(t, math.IsInf(res.Bounds.MinX, 0))
}

func TestVisibleRoot(t *testing.T) {
	root := emp("ceo", emp("vp"))
	s := newTestSession(t, root, expandedSettings())

	assert.Equal(t, root, s.VisibleRoot())

	require.NoError(t, s.ToggleHidden("ceo"))
	assert.Nil(t, s.VisibleRoot())
	assert.Empty(t, s.Compute().Nodes)

	require.NoError(t, s.ToggleHidden("ceo"))
	assert.Equal(t, root, s.VisibleRoot())

	empty := newTestSession(t, nil, DefaultSettings())
	assert.Nil(t, empty.VisibleRoot())
}

func TestHiddenChildrenExemptFromPacking(t *testing.T) {
	set := expandedSettings()
	set.PackThreshold = 20

	s := newTestSession(t, fan("boss", 21), set)
	require.NoError(t, s.ToggleHidden("boss-3"))
	require.NoError(t, s.ToggleHidden("boss-7"))

	// 19 visible children are under the threshold: one flat row, no bus.
	res := s.Compute()
	require.Len(t, res.Nodes, 20)

	rowYs := make(map[float64]bool)
	for _, n := range res.Nodes {
		if n.ID != "boss" {
			rowYs[n.Y] = true
		}
	}
	assert.Len(t, rowYs, 1)
	for _, c := range res.Connectors {
		assert.Equal(t, ConnectorSimple, c.Kind)
	}

	// Re-showing one child crosses the threshold again and packs.
	require.NoError(t, s.ToggleHidden("boss-3"))
	packed := s.Compute()
	rowYs = make(map[float64]bool)
	for _, n := range packed.Nodes {
		if n.ID != "boss" {
			rowYs[n.Y] = true
		}
	}
	assert.Len(t, rowYs, 4, "20 visible children pack into 4 rows")
}

func TestPackedPartialLastRowCentered(t *testing.T) {
	set := expandedSettings()
	set.PackThreshold = 20

	s := newTestSession(t, fan("boss", 21), set)
	res := s.Compute()
	pos := positions(res)

	rows := make(map[float64][]float64)
	for _, n := range res.Nodes {
		if n.ID == "boss" {
			continue
		}
		rows[n.Y] = append(rows[n.Y], n.X)
	}
	require.Len(t, rows, 5, "21 children at threshold 20 should pack into 5 rows")

	var lastY float64 = math.Inf(-1)
	for y := range rows {
		if y > lastY {
			lastY = y
		}
	}
	require.Len(t, rows[lastY], 1, "last row holds the single leftover child")

	// The lone last-row child sits centered under the parent.
	assert.InDelta(t, pos["boss"].X, rows[lastY][0], 1e-9)
}
