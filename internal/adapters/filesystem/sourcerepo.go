// Package filesystem provides file system implementations of the core ports.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lapidist/tokenforge/internal/core/entities"
	"github.com/lapidist/tokenforge/internal/core/usecases"
)

// SourceRepository discovers token documents from JSON files on disk
// matched by glob patterns, rejecting any match that escapes RootDir
// through a symlink (spec §9 "Symlink safety").
type SourceRepository struct{}

// NewSourceRepository creates a file-glob Source Repository.
func NewSourceRepository() *SourceRepository {
	return &SourceRepository{}
}

// Discover implements usecases.SourceRepository.
func (r *SourceRepository) Discover(ctx context.Context, layer entities.LayerConfig, source entities.SourceConfig) (usecases.DiscoverResult, error) {
	var result usecases.DiscoverResult

	root, err := filepath.Abs(source.RootDir)
	if err != nil {
		return result, fmt.Errorf("resolving root dir %q: %w", source.RootDir, err)
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return result, fmt.Errorf("resolving root dir %q: %w", root, err)
	}

	matches := make(map[string]bool)
	for _, pattern := range source.Patterns {
		found, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return result, fmt.Errorf("glob pattern %q: %w", pattern, err)
		}
		for _, m := range found {
			matches[m] = true
		}
	}

	for path := range matches {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if isIgnored(path, root, source.Ignore) {
			continue
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			result.Issues = append(result.Issues, entities.RepositoryIssue{SourceID: source.ID, URI: path, Message: err.Error()})
			continue
		}
		if !withinRoot(realRoot, realPath) {
			result.Issues = append(result.Issues, entities.RepositoryIssue{
				SourceID: source.ID,
				URI:      path,
				Message:  "symlink escapes source root directory, refusing to read",
			})
			continue
		}

		data, err := os.ReadFile(realPath)
		if err != nil {
			result.Issues = append(result.Issues, entities.RepositoryIssue{SourceID: source.ID, URI: path, Message: err.Error()})
			continue
		}

		var document any
		if err := json.Unmarshal(data, &document); err != nil {
			result.Issues = append(result.Issues, entities.RepositoryIssue{
				SourceID: source.ID, URI: path, Message: fmt.Sprintf("invalid JSON: %s", err.Error()),
			})
			continue
		}

		result.Documents = append(result.Documents, usecases.DiscoveredDocument{
			URI:      path,
			Document: document,
		})
	}

	return result, nil
}

func isIgnored(path, root string, ignore []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range ignore {
		if entities.NewGlobMatcher(pattern).Match(rel) {
			return true
		}
	}
	return false
}

func withinRoot(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
