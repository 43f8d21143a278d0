package transformcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// ContentStore is a content-addressed, directory-backed TransformCache
// matching spec §6's "Persisted transform cache entry": the value is
// stored as opaque bytes addressed by sha256(key), with a sidecar JSON
// metadata file carrying {writtenAt, ttl}. Keeping value and metadata in
// separate files lets the value bytes be inspected or consumed directly
// without parsing a metadata envelope first.
type ContentStore struct {
	dir string
}

// NewContentStore creates a ContentStore rooted at dir. The directory is
// created lazily on first Set.
func NewContentStore(dir string) *ContentStore {
	return &ContentStore{dir: dir}
}

// addressFor returns the sha256 hex digest of key, used as the filename
// stem for both the value file and its sidecar metadata (spec §6).
func addressFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (c *ContentStore) valuePath(address string) string {
	return filepath.Join(c.dir, address+".bin")
}

func (c *ContentStore) metaPath(address string) string {
	return filepath.Join(c.dir, address+".meta.json")
}

type sidecarMetadata struct {
	WrittenAt int64          `json:"writtenAt"`
	TTL       int64          `json:"ttl,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Get reads the entry stored for key, honoring TTL (0 means no expiry).
func (c *ContentStore) Get(ctx context.Context, key string) (entities.TransformCacheEntry, bool, error) {
	address := addressFor(key)

	metaBytes, err := os.ReadFile(c.metaPath(address))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entities.TransformCacheEntry{}, false, nil
		}
		return entities.TransformCacheEntry{}, false, fmt.Errorf("reading transform cache metadata %q: %w", key, err)
	}
	var meta sidecarMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return entities.TransformCacheEntry{}, false, fmt.Errorf("parsing transform cache metadata %q: %w", key, err)
	}

	if meta.TTL > 0 {
		age := time.Duration(time.Now().UnixNano()-meta.WrittenAt) * time.Nanosecond
		if age > time.Duration(meta.TTL)*time.Second {
			c.remove(address)
			return entities.TransformCacheEntry{}, false, nil
		}
	}

	valueBytes, err := os.ReadFile(c.valuePath(address))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entities.TransformCacheEntry{}, false, nil
		}
		return entities.TransformCacheEntry{}, false, fmt.Errorf("reading transform cache value %q: %w", key, err)
	}
	var value any
	if err := json.Unmarshal(valueBytes, &value); err != nil {
		return entities.TransformCacheEntry{}, false, fmt.Errorf("parsing transform cache value %q: %w", key, err)
	}

	return entities.TransformCacheEntry{
		Key:       key,
		Value:     value,
		WrittenAt: meta.WrittenAt,
		TTL:       meta.TTL,
		Metadata:  meta.Metadata,
	}, true, nil
}

// Set writes entry's value and sidecar metadata atomically (write-then-rename
// for each file).
func (c *ContentStore) Set(ctx context.Context, key string, entry entities.TransformCacheEntry) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating transform cache directory: %w", err)
	}

	address := addressFor(key)

	valueBytes, err := json.Marshal(entry.Value)
	if err != nil {
		return fmt.Errorf("marshaling transform cache value %q: %w", key, err)
	}
	if err := writeAtomic(c.valuePath(address), valueBytes); err != nil {
		return fmt.Errorf("writing transform cache value %q: %w", key, err)
	}

	metaBytes, err := json.Marshal(sidecarMetadata{
		WrittenAt: entry.WrittenAt,
		TTL:       entry.TTL,
		Metadata:  entry.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshaling transform cache metadata %q: %w", key, err)
	}
	if err := writeAtomic(c.metaPath(address), metaBytes); err != nil {
		return fmt.Errorf("writing transform cache metadata %q: %w", key, err)
	}

	return nil
}

func (c *ContentStore) remove(address string) {
	_ = os.Remove(c.valuePath(address))
	_ = os.Remove(c.metaPath(address))
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
