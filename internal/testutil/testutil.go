// Package testutil provides shared test helpers for building content trees.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/folio/internal/storage"
)

// ContentDir creates a temporary content directory with a storage.Provider.
func ContentDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes content to rel under dir, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	abs := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Fixture is the two-post tree used across package tests: a.md is tagged x;
// b.md is newer, featured and tagged X and y, so x folds to a count of two.
var Fixture = map[string]string{
	"a.md": "---\ntitle: A\ndate: 2024-01-01\ntags: [x]\ndraft: false\n---\nAlpha body about gophers.\n",
	"b.md": "---\ntitle: B\ndate: 2024-06-01\ntags: [X, y]\nfeatured: true\n---\nBeta body about channels.\n",
}

// WriteFixture writes files into dir.
func WriteFixture(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		WriteFile(t, dir, rel, content)
	}
}
