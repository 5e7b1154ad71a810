package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dbauto/orgchart/pkg/errors"
)

const snapshotFile = "snapshot.json"

// FileStore keeps the snapshot as one JSON file. Writes go through a
// temp file and rename so a crashed refresh never leaves a half-written
// snapshot behind.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path() string { return filepath.Join(s.dir, snapshotFile) }

// Save writes the snapshot atomically.
func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, snapshotFile+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path())
}

// Load reads the current snapshot.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeSnapshotNotFound, "no snapshot in %s", s.dir)
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Stamp returns the snapshot's fetch time. The file is small enough that
// decoding it fully costs nothing worth optimizing.
func (s *FileStore) Stamp(ctx context.Context) (time.Time, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return snap.FetchedAt, nil
}

// Close does nothing for the file store.
func (s *FileStore) Close(ctx context.Context) error { return nil }

var _ Store = (*FileStore)(nil)
