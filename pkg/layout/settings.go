package layout

import "github.com/dbauto/orgchart/pkg/errors"

// Orientation selects which axis carries depth.
type Orientation string

const (
	// Vertical lays the tree out top-down: depth on Y, siblings on X.
	Vertical Orientation = "vertical"
	// Horizontal lays the tree out left-right: depth on X, siblings on Y.
	Horizontal Orientation = "horizontal"
)

// Default geometry constants, in chart units (CSS pixels at zoom 1).
const (
	DefaultNodeWidth     = 160.0
	DefaultNodeHeight    = 72.0
	DefaultSiblingGap    = 24.0  // between boxes of same-parent siblings
	DefaultSubtreeGap    = 48.0  // between boxes of adjacent subtrees
	DefaultLevelGap      = 120.0 // depth pitch, box center to box center
	DefaultPackedGap     = 40.0  // column gap inside packed grids
	DefaultPackThreshold = 20
	DefaultCollapseDepth = 2
)

// Settings parameterizes one layout pass. The zero value is not usable;
// start from DefaultSettings.
type Settings struct {
	NodeWidth  float64 `json:"nodeWidth"`
	NodeHeight float64 `json:"nodeHeight"`

	// SiblingGap separates boxes that share a parent; SubtreeGap separates
	// boxes belonging to different subtrees. SubtreeGap should be the
	// larger of the two so sibling groups read as groups.
	SiblingGap float64 `json:"siblingGap"`
	SubtreeGap float64 `json:"subtreeGap"`

	// LevelGap is the center-to-center distance between depths. Packed grid
	// rows use the same pitch.
	LevelGap float64 `json:"levelGap"`

	// PackedGap is the extra horizontal spacing between packed grid columns,
	// leaving room for bus connector stubs.
	PackedGap float64 `json:"packedGap"`

	// PackThreshold is the visible-children count at which a parent's
	// children reflow into a grid. Inclusive: exactly PackThreshold
	// children triggers packing. Must be >= 1.
	PackThreshold  int  `json:"packThreshold"`
	PackingEnabled bool `json:"packingEnabled"`

	Orientation Orientation `json:"orientation"`

	// CollapseDepth is the depth below which new sessions start collapsed.
	// Zero keeps everything expanded.
	CollapseDepth int `json:"collapseDepth"`
}

// DefaultSettings returns the stock chart geometry: vertical orientation,
// packing enabled at 20 children.
func DefaultSettings() Settings {
	return Settings{
		NodeWidth:      DefaultNodeWidth,
		NodeHeight:     DefaultNodeHeight,
		SiblingGap:     DefaultSiblingGap,
		SubtreeGap:     DefaultSubtreeGap,
		LevelGap:       DefaultLevelGap,
		PackedGap:      DefaultPackedGap,
		PackThreshold:  DefaultPackThreshold,
		PackingEnabled: true,
		Orientation:    Vertical,
		CollapseDepth:  DefaultCollapseDepth,
	}
}

// Validate rejects configurations the engine has no defined behavior for.
// A pack threshold below 1 is a configuration error, not a request to
// pack everything.
func (s Settings) Validate() error {
	if s.NodeWidth <= 0 || s.NodeHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "node dimensions must be positive (got %gx%g)", s.NodeWidth, s.NodeHeight)
	}
	if s.LevelGap <= 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "level gap must be positive (got %g)", s.LevelGap)
	}
	if s.SiblingGap < 0 || s.SubtreeGap < 0 || s.PackedGap < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "spacing gaps must not be negative")
	}
	if s.PackThreshold < 1 {
		return errors.New(errors.ErrCodeInvalidSettings, "pack threshold must be >= 1 (got %d)", s.PackThreshold)
	}
	switch s.Orientation {
	case Vertical, Horizontal:
	default:
		return errors.New(errors.ErrCodeInvalidSettings, "orientation must be %q or %q (got %q)", Vertical, Horizontal, s.Orientation)
	}
	if s.CollapseDepth < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "collapse depth must not be negative (got %d)", s.CollapseDepth)
	}
	return nil
}
