package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newWatcher(t *testing.T, dir string, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(append([]Option{WithDebounce(50 * time.Millisecond)}, opts...)...)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	if err := w.WatchDir(dir); err != nil {
		t.Fatalf("watch dir: %v", err)
	}
	return w
}

func TestWatcherDetectsChanges(t *testing.T) {
	tmpDir := t.TempDir()
	w := newWatcher(t, tmpDir)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events := w.Events(ctx)

	if err := os.WriteFile(filepath.Join(tmpDir, "test_api.py"), []byte("def test(): pass\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case <-events:
	case <-ctx.Done():
		t.Fatal("timeout waiting for file change event")
	}
}

func TestWatcherIgnoresBuildOutput(t *testing.T) {
	tmpDir := t.TempDir()
	for _, dir := range []string{"node_modules", "target", ".git"} {
		if err := os.Mkdir(filepath.Join(tmpDir, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	w := newWatcher(t, tmpDir)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	events := w.Events(ctx)

	for _, dir := range []string{"node_modules", "target", ".git"} {
		if err := os.WriteFile(filepath.Join(tmpDir, dir, "out.txt"), []byte("x"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}

	select {
	case <-events:
		t.Fatal("should not receive events from ignored directories")
	case <-ctx.Done():
	}
}

func TestWatcherIgnoresTestArtifacts(t *testing.T) {
	tmpDir := t.TempDir()
	w := newWatcher(t, tmpDir)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	events := w.Events(ctx)

	artifacts := []string{
		filepath.Join("demo.egg-info", "PKG-INFO"),
		filepath.Join("TestResults", "coverage.cobertura.xml"),
		filepath.Join("coverage", "lcov-report.html"),
		"coverage.xml",
		"junit-report.xml",
	}
	for _, rel := range artifacts {
		path := filepath.Join(tmpDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}

	select {
	case <-events:
		t.Fatal("should not receive events for test run artifacts")
	case <-ctx.Done():
	}
}

func TestWatcherSkipped(t *testing.T) {
	w := newWatcher(t, t.TempDir(), WithIgnore("generated", "*.snap"))

	tests := []struct {
		name string
		want bool
	}{
		{"src", false},
		{"main.py", false},
		{".git", true},
		{"node_modules", true},
		{"ngr_demo.egg-info", true},
		{"TestResults", true},
		{"generated", true},
		{"view.snap", true},
		{"snapshot.go", false},
	}
	for _, tt := range tests {
		if got := w.skipped(tt.name); got != tt.want {
			t.Errorf("skipped(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWatcherWithExtensions(t *testing.T) {
	tmpDir := t.TempDir()
	w := newWatcher(t, tmpDir, WithExtensions(".rs"))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	events := w.Events(ctx)

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case <-events:
		t.Fatal("should not receive event for filtered extension")
	case <-ctx.Done():
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	w := newWatcher(t, tmpDir)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	events := w.Events(ctx)

	sub := filepath.Join(tmpDir, "src")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// give the watcher time to register the new directory
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "lib.rs"), []byte("fn main() {}"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case <-events:
	case <-ctx.Done():
		t.Fatal("timeout waiting for event in new directory")
	}
}

func TestWatcherCloseEndsEvents(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	events := w.Events(context.Background())
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}
