// Package layout computes chart geometry for an organization tree.
//
// The pipeline has four stages, run in order on every pass:
//
//  1. tidy: assign every visible node a position with a contour-based
//     tidy-tree algorithm (same-depth nodes aligned, subtrees centered
//     under their parent, no overlap).
//  2. pack: reflow the children of any parent at or over the pack
//     threshold into a grid instead of one wide row.
//  3. compact: re-space and re-center every ancestor of a packed group,
//     deepest first, so sibling subtrees neither overlap nor drift apart.
//  4. route: produce connector paths, elbows for ordinary parent/child
//     pairs, trunk-and-spine bus connectors for packed groups.
//
// All stages are pure functions of (tree, visibility state, settings):
// a pass is synchronous, deterministic, and cheap enough to re-run in full
// on every expand/collapse, orientation switch, or threshold change. There
// is no incremental layout and therefore no stale-state bookkeeping.
//
// State lives in an explicit Session so independent render targets (the
// interactive view and a full-tree export) never contaminate each other.
package layout

import (
	"github.com/dbauto/orgchart/pkg/errors"
	"github.com/dbauto/orgchart/pkg/org"
)

// Session holds the mutable view state for one render target: which nodes
// are collapsed, which subtrees the user hid, and the active settings.
// Collapsed and hidden nodes are retained, not discarded, so re-expanding
// needs no data refetch.
//
// Session is not safe for concurrent use. The expected caller is a single
// event loop that runs one pass at a time.
type Session struct {
	root     *org.Node
	settings Settings

	collapsed map[string]bool
	hidden    map[string]bool

	// prev remembers each node's position from the previous pass so the
	// renderer can animate between passes. Keyed by employee ID.
	prev map[string]Point
}

// NewSession validates the settings and prepares view state for root.
// Nodes deeper than settings.CollapseDepth start collapsed (a depth of
// zero keeps the whole tree expanded). A nil root is allowed and lays
// out as an empty chart.
func NewSession(root *org.Node, settings Settings) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		root:      root,
		settings:  settings,
		collapsed: make(map[string]bool),
		hidden:    make(map[string]bool),
		prev:      make(map[string]Point),
	}
	if settings.CollapseDepth > 0 {
		s.collapseBelow(settings.CollapseDepth)
	}
	return s, nil
}

// Root returns the underlying tree. It is shared, not copied; callers must
// treat it as immutable for the life of the session.
func (s *Session) Root() *org.Node { return s.root }

// Settings returns the active settings.
func (s *Session) Settings() Settings { return s.settings }

// SetOrientation switches the depth axis. Takes effect on the next pass.
func (s *Session) SetOrientation(o Orientation) error {
	next := s.settings
	next.Orientation = o
	if err := next.Validate(); err != nil {
		return err
	}
	s.settings = next
	return nil
}

// SetPackThreshold changes the packing threshold. Values below 1 are a
// configuration error.
func (s *Session) SetPackThreshold(n int) error {
	next := s.settings
	next.PackThreshold = n
	if err := next.Validate(); err != nil {
		return err
	}
	s.settings = next
	return nil
}

// SetPackingEnabled toggles overflow packing globally.
func (s *Session) SetPackingEnabled(enabled bool) {
	s.settings.PackingEnabled = enabled
}

// ToggleCollapse flips the expand/collapse state of one node. Collapsing a
// node keeps its subtree in the session; it just contributes nothing to the
// next pass until re-expanded.
func (s *Session) ToggleCollapse(id string) error {
	if s.root == nil || s.root.Find(id) == nil {
		return errors.New(errors.ErrCodeEmployeeNotFound, "no employee %q in tree", id)
	}
	if s.collapsed[id] {
		delete(s.collapsed, id)
	} else {
		s.collapsed[id] = true
	}
	return nil
}

// ToggleHidden flips the user-hidden state of one subtree. Hidden subtrees
// are removed from the positioned output but stay in the underlying tree,
// so re-showing restores them without a refetch.
func (s *Session) ToggleHidden(id string) error {
	if s.root == nil || s.root.Find(id) == nil {
		return errors.New(errors.ErrCodeEmployeeNotFound, "no employee %q in tree", id)
	}
	if s.hidden[id] {
		delete(s.hidden, id)
	} else {
		s.hidden[id] = true
	}
	return nil
}

// VisibleRoot returns the root of the positioned output: nil when the
// tree is empty or the root itself is hidden, otherwise the root.
func (s *Session) VisibleRoot() *org.Node {
	if s.root == nil || s.hidden[s.root.ID] {
		return nil
	}
	return s.root
}

// IsCollapsed reports whether the node's children are currently hidden by
// collapse state.
func (s *Session) IsCollapsed(id string) bool { return s.collapsed[id] }

// IsHidden reports whether the subtree is hidden by an explicit user action.
func (s *Session) IsHidden(id string) bool { return s.hidden[id] }

// ExpandAll clears all collapse state. Hidden subtrees stay hidden.
func (s *Session) ExpandAll() {
	s.collapsed = make(map[string]bool)
}

// ExpandToDepth expands everything at or above depth and collapses
// everything below, mirroring the initial-collapse-depth setting.
func (s *Session) ExpandToDepth(depth int) {
	s.collapsed = make(map[string]bool)
	if depth > 0 {
		s.collapseBelow(depth)
	}
}

// collapseBelow marks nodes at the given depth and deeper as collapsed.
func (s *Session) collapseBelow(depth int) {
	if s.root == nil {
		return
	}
	seen := make(map[string]bool)
	var walk func(n *org.Node, d int)
	walk = func(n *org.Node, d int) {
		if n == nil || seen[n.ID] {
			return
		}
		seen[n.ID] = true
		if d >= depth && len(n.Children) > 0 {
			s.collapsed[n.ID] = true
		}
		for _, c := range n.Children {
			walk(c, d+1)
		}
	}
	walk(s.root, 0)
}

// rememberPositions records the pass result for enter animations on the
// following pass. Export passes never call this.
func (s *Session) rememberPositions(nodes []Placed) {
	for _, p := range nodes {
		s.prev[p.ID] = Point{X: p.X, Y: p.Y}
	}
}
