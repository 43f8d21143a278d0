// Package depstore provides a file-backed DependencyStore, persisting the
// dependency snapshot that tracks which token pointers changed since the
// last build (spec §4.3, §6).
package depstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// FileStore implements usecases.DependencyStore against a single JSON file.
// Writes are atomic: content is written to a ".tmp" file, then renamed onto
// the target path, so a crash mid-write never corrupts the prior snapshot.
type FileStore struct {
	path string
}

// NewFileStore creates a DependencyStore backed by the snapshot file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Evaluate compares snapshot against the previously committed snapshot on
// disk. A missing or unreadable prior snapshot means every pointer in
// snapshot is reported changed (spec §4.3 "cold cache" fallback). A prior
// snapshot with an unsupported Version is a fatal configuration error
// (spec §6 "Readers must refuse unknown versions").
func (s *FileStore) Evaluate(ctx context.Context, snapshot entities.DependencySnapshot) (entities.DependencyDiff, error) {
	prior, found, err := s.load()
	if err != nil {
		return entities.DependencyDiff{}, err
	}

	changed := make(map[entities.Pointer]bool, len(snapshot.Entries))
	removed := make(map[entities.Pointer]bool)

	if !found {
		for _, e := range snapshot.Entries {
			changed[e.Pointer] = true
		}
		return entities.DependencyDiff{Snapshot: snapshot, Changed: changed}, nil
	}

	priorByPointer := prior.ByPointer()
	nextByPointer := snapshot.ByPointer()

	for _, e := range snapshot.Entries {
		old, existed := priorByPointer[e.Pointer]
		if !existed || old.Hash != e.Hash {
			changed[e.Pointer] = true
		}
	}
	for p := range priorByPointer {
		if _, stillPresent := nextByPointer[p]; !stillPresent {
			removed[p] = true
		}
	}

	return entities.DependencyDiff{Snapshot: snapshot, Changed: changed, Removed: removed}, nil
}

// Commit atomically overwrites the persisted snapshot file.
func (s *FileStore) Commit(ctx context.Context, snapshot entities.DependencySnapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating dependency store directory: %w", err)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshaling dependency snapshot: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temporary dependency snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomically replacing dependency snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) load() (entities.DependencySnapshot, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entities.DependencySnapshot{}, false, nil
		}
		// Unreadable prior snapshot: treated like a missing one (cold cache).
		return entities.DependencySnapshot{}, false, nil
	}

	var snapshot entities.DependencySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// Unparseable prior snapshot: treated like a missing one (cold cache).
		return entities.DependencySnapshot{}, false, nil
	}
	if snapshot.Version != entities.DependencySnapshotVersion {
		return entities.DependencySnapshot{}, false, fmt.Errorf("%w: got version %d, want %d",
			entities.ErrUnsupportedSnapshotVersion, snapshot.Version, entities.DependencySnapshotVersion)
	}
	return snapshot, true, nil
}
