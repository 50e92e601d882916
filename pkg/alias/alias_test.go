package alias

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAliasFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write alias file: %v", err)
	}
}

func TestLoadAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	writeAliasFile(t, path, "default: espeak-ng.en\nfast: flite.kal16\n")

	l := NewLoader(path)
	if err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := l.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
	if got := l.Resolve("default"); got != "espeak-ng.en" {
		t.Errorf("Resolve(default) = %q", got)
	}
	if got := l.Resolve("fast"); got != "flite.kal16" {
		t.Errorf("Resolve(fast) = %q", got)
	}
	// Unknown names pass through so full voice names still work.
	if got := l.Resolve("nanotts.de-DE"); got != "nanotts.de-DE" {
		t.Errorf("Resolve(nanotts.de-DE) = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))
	if err := l.Load(); err == nil {
		t.Error("Load accepted missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	writeAliasFile(t, path, "default: [not\na mapping\n")

	l := NewLoader(path)
	if err := l.Load(); err == nil {
		t.Error("Load accepted malformed YAML")
	}
}

func TestLoadReplacesAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	writeAliasFile(t, path, "a: x.1\nb: x.2\n")

	l := NewLoader(path)
	if err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	writeAliasFile(t, path, "a: y.9\n")
	if err := l.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if got := l.Resolve("a"); got != "y.9" {
		t.Errorf("Resolve(a) = %q, want y.9", got)
	}
	// Dropped aliases stop resolving.
	if got := l.Resolve("b"); got != "b" {
		t.Errorf("Resolve(b) = %q, want pass-through", got)
	}
}

func TestWatchAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	writeAliasFile(t, path, "default: espeak-ng.en\n")

	l := NewLoader(path)
	if err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	done := make(chan struct{})
	defer close(done)
	watchErr := make(chan error, 1)
	go func() { watchErr <- l.WatchAndReload(done) }()

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	writeAliasFile(t, path, "default: nanotts.en-US\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if l.Resolve("default") == "nanotts.en-US" {
			return
		}
		select {
		case err := <-watchErr:
			t.Fatalf("WatchAndReload: %v", err)
		default:
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("alias never reloaded, Resolve(default) = %q", l.Resolve("default"))
}
