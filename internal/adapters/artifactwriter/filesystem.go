// Package artifactwriter writes formatter output artifacts to disk
// (spec §4.5, §6 "Artifact Writer"). It is the only component in the
// pipeline that touches the filesystem for formatter output.
package artifactwriter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lapidist/tokenforge/internal/core/entities"
	"github.com/lapidist/tokenforge/internal/core/usecases"
)

// Filesystem implements usecases.ArtifactWriter by creating parent
// directories and writing each artifact's contents under baseDir.
type Filesystem struct{}

// Compile-time interface check.
var _ usecases.ArtifactWriter = (*Filesystem)(nil)

// New creates a Filesystem artifact writer.
func New() *Filesystem {
	return &Filesystem{}
}

// Write resolves each artifact's path relative to baseDir, rejecting any
// path that would escape it, creates parent directories, and writes the
// contents (spec §4.5 "File artifact layout").
func (f *Filesystem) Write(ctx context.Context, executionID string, baseDir string, artifacts []entities.FileArtifact) ([]string, error) {
	written := make([]string, 0, len(artifacts))

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	for _, artifact := range artifacts {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		target := filepath.Join(absBase, artifact.Path)
		rel, err := filepath.Rel(absBase, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return written, fmt.Errorf("artifact path %q escapes output directory", artifact.Path)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, fmt.Errorf("creating directory for %s: %w", artifact.Path, err)
		}

		tmp := target + ".tmp"
		if err := os.WriteFile(tmp, artifact.Contents, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", artifact.Path, err)
		}
		if err := os.Rename(tmp, target); err != nil {
			_ = os.Remove(tmp)
			return written, fmt.Errorf("atomically replacing %s: %w", artifact.Path, err)
		}
		written = append(written, target)
	}

	return written, nil
}
