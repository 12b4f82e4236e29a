package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/binquery/binq/types"
)

// snapshot is the on-disk form of the cache: the descriptor list plus a
// format version for forward compatibility.
type snapshot struct {
	Version int                     `json:"version"`
	Indexes []types.IndexDescriptor `json:"indexes"`
}

const snapshotVersion = 1

// SaveSnapshot writes the cache contents to path, guarded by a lock file
// so concurrent processes sharing the snapshot never interleave writes.
// The write goes through a temp file and rename so readers never observe
// a partial snapshot.
func (c *Cache) SaveSnapshot(path string) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("index: locking snapshot %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("index: snapshot %s is locked by another process", path)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(snapshot{Version: snapshotVersion, Indexes: c.All()}, "", "  ")
	if err != nil {
		return fmt.Errorf("index: encoding snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("index: creating snapshot directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("index: writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("index: replacing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot replaces the cache contents with a previously saved
// snapshot, so cold starts have statistics before the first refresh. A
// missing file is not an error: the cache simply starts empty.
func (c *Cache) LoadSnapshot(path string) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryRLock()
	if err != nil {
		return fmt.Errorf("index: locking snapshot %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("index: snapshot %s is locked by another process", path)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("index: reading snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("index: decoding snapshot %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("index: snapshot %s has unsupported version %d", path, snap.Version)
	}
	c.Replace(snap.Indexes)
	return nil
}
