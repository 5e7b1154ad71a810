// Package store persists directory snapshots between refreshes. A
// snapshot is the fetched employee list plus the assembled tree, so the
// server can start serving immediately from the last refresh instead of
// blocking on the identity provider.
package store

import (
	"context"
	"time"

	"github.com/dbauto/orgchart/pkg/org"
)

// Snapshot is one persisted refresh result.
type Snapshot struct {
	Employees []org.Employee `json:"employees" bson:"employees"`
	Tree      *org.Node      `json:"tree,omitempty" bson:"tree,omitempty"`
	Source    string         `json:"source" bson:"source"`
	FetchedAt time.Time      `json:"fetchedAt" bson:"fetched_at"`
}

// Store saves and loads the current snapshot. Implementations keep
// exactly one snapshot; history is not a concern here, the cache layer
// keyed by content hash covers comparisons.
type Store interface {
	// Save replaces the current snapshot.
	Save(ctx context.Context, s *Snapshot) error
	// Load returns the current snapshot. A missing snapshot is reported
	// with code SNAPSHOT_NOT_FOUND.
	Load(ctx context.Context) (*Snapshot, error)
	// Stamp returns the FetchedAt of the current snapshot without
	// loading the full payload.
	Stamp(ctx context.Context) (time.Time, error)
	Close(ctx context.Context) error
}
