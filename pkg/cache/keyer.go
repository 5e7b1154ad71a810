package cache

import "github.com/dbauto/orgchart/pkg/layout"

// LayoutKeyOpts captures everything that changes layout geometry for a
// given snapshot. Two layouts share a key only if all of it matches.
type LayoutKeyOpts struct {
	Settings         layout.Settings
	IncludeCollapsed bool
}

// ArtifactKeyOpts captures rendering parameters for exported artifacts.
type ArtifactKeyOpts struct {
	Format string
	Scale  float64
	Title  string
}

// Keyer generates cache keys for the three pipeline stages. Keys chain:
// the snapshot hash feeds the layout key, the layout hash the artifact
// key, so an upstream change invalidates everything downstream.
type Keyer interface {
	// SnapshotKey keys a fetched directory snapshot by source identity
	// and the active filter configuration.
	SnapshotKey(source, filterHash string) string
	// LayoutKey keys a computed layout by snapshot content and settings.
	LayoutKey(snapshotHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys a rendered export by layout content and format.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes all key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

func (k *DefaultKeyer) SnapshotKey(source, filterHash string) string {
	return hashKey("snapshot", source, filterHash)
}

func (k *DefaultKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", snapshotHash, opts)
}

func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// ScopedKeyer prefixes every key, isolating tenants that share one cache
// backend (several org charts behind one Redis).
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SnapshotKey(source, filterHash string) string {
	return k.prefix + k.inner.SnapshotKey(source, filterHash)
}

func (k *ScopedKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(snapshotHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
