package artifactwriter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

func TestFilesystemWritesNestedArtifacts(t *testing.T) {
	dir := t.TempDir()
	writer := New()

	written, err := writer.Write(context.Background(), "exec-1", dir, []entities.FileArtifact{
		{Path: "css/tokens.css", Contents: []byte(":root {}")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(written) != 1 {
		t.Fatalf("expected one written path, got %d", len(written))
	}

	contents, err := os.ReadFile(filepath.Join(dir, "css", "tokens.css"))
	if err != nil {
		t.Fatalf("expected the artifact to exist on disk: %v", err)
	}
	if string(contents) != ":root {}" {
		t.Errorf("unexpected contents: %s", contents)
	}
}

func TestFilesystemRejectsEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	writer := New()

	_, err := writer.Write(context.Background(), "exec-1", dir, []entities.FileArtifact{
		{Path: "../escape.css", Contents: []byte("bad")},
	})
	if err == nil {
		t.Fatal("expected an error for a path escaping the output directory")
	}
}

func TestFilesystemRejectsParentTraversalDeeper(t *testing.T) {
	dir := t.TempDir()
	writer := New()

	_, err := writer.Write(context.Background(), "exec-1", dir, []entities.FileArtifact{
		{Path: "css/../../escape.css", Contents: []byte("bad")},
	})
	if err == nil {
		t.Fatal("expected an error for a nested path escaping the output directory")
	}
}

func TestFilesystemStopsOnCanceledContext(t *testing.T) {
	dir := t.TempDir()
	writer := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := writer.Write(ctx, "exec-1", dir, []entities.FileArtifact{
		{Path: "tokens.css", Contents: []byte("x")},
	})
	if err == nil {
		t.Fatal("expected a canceled context to abort the write")
	}
}
