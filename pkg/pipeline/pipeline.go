// Package pipeline orchestrates the two core flows of the application:
//
//  1. Refresh: fetch the directory → apply filters → build the hierarchy
//     → persist the snapshot.
//  2. Render: load the snapshot → lay out the chart → render artifacts.
//
// Both the HTTP server and the CLI run through the same [Runner], so
// caching, timing, and error behavior stay identical across entry points.
package pipeline

import (
	"encoding/json"
	"time"

	"github.com/dbauto/orgchart/pkg/cache"
	"github.com/dbauto/orgchart/pkg/config"
	"github.com/dbauto/orgchart/pkg/errors"
	"github.com/dbauto/orgchart/pkg/layout"
	"github.com/dbauto/orgchart/pkg/org"
	"github.com/dbauto/orgchart/pkg/store"
)

// Cache TTLs per stage. Snapshots are refreshed nightly anyway; layouts
// and artifacts are cheap to keep longer since their keys chain off the
// snapshot hash and go stale with it.
const (
	TTLSnapshot = time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Output formats for rendered artifacts. FormatDOTSVG runs the DOT text
// through Graphviz for a node-link rendering instead of the chart SVG.
const (
	FormatSVG    = "svg"
	FormatPNG    = "png"
	FormatDOT    = "dot"
	FormatDOTSVG = "dot-svg"
	FormatXLSX   = "xlsx"
	FormatJSON   = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:    true,
	FormatPNG:    true,
	FormatDOT:    true,
	FormatDOTSVG: true,
	FormatXLSX:   true,
	FormatJSON:   true,
}

// DefaultScale is the PNG device scale used when none is given.
const DefaultScale = 2.0

// Options configures one pipeline run. The zero value plus
// ValidateAndSetDefaults renders the full chart as SVG with default
// settings.
type Options struct {
	// Settings drive filtering, hierarchy root selection, and layout.
	Settings config.ChartSettings `json:"settings"`

	// Formats lists the artifacts to render.
	Formats []string `json:"formats,omitempty"`

	// Full lays out the whole tree regardless of collapse depth.
	Full bool `json:"full,omitempty"`

	// Scale is the PNG device scale factor.
	Scale float64 `json:"scale,omitempty"`

	// Title is drawn above exported charts when set.
	Title string `json:"title,omitempty"`

	// Refresh bypasses layout and artifact caches.
	Refresh bool `json:"refresh,omitempty"`

	// Source labels the directory source in cache keys.
	Source string `json:"source,omitempty"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Settings.Layout == (layout.Settings{}) {
		o.Settings = config.DefaultChartSettings()
	}
	if err := o.Settings.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	for _, f := range o.Formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat,
				"invalid format %q (must be one of: svg, png, dot, dot-svg, xlsx, json)", f)
		}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Source == "" {
		o.Source = "graph"
	}
	o.validated = true
	return nil
}

// FilterHash fingerprints everything that changes which employees land in
// the snapshot, for the snapshot cache key.
func (o *Options) FilterHash() string {
	data, _ := json.Marshal(struct {
		Filters      org.FilterOptions
		TopUserEmail string
		TopUserID    string
		NewHireDays  int
	}{o.Settings.Filters, o.Settings.TopUserEmail, o.Settings.TopUserID, o.Settings.NewHireDays})
	return cache.Hash(data)
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Settings:         o.Settings.Layout,
		IncludeCollapsed: o.Full,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format, Title: o.Title}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the directory snapshot the run worked from.
	Snapshot *store.Snapshot

	// SnapshotHash is the content hash of the snapshot employees.
	SnapshotHash string

	// Layout is the computed chart geometry.
	Layout layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EmployeeCount int
	VisibleCount  int
	FetchTime     time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}
