// Package alias maps short voice names onto full <engine>.<voice>
// names, loaded from a YAML file that can be hot-reloaded.
package alias

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader loads and optionally hot-reloads a voice alias file.
type Loader struct {
	path string

	mu      sync.RWMutex
	aliases map[string]string
}

// NewLoader creates a loader for the given YAML file.
func NewLoader(path string) *Loader {
	return &Loader{
		path:    path,
		aliases: make(map[string]string),
	}
}

// Load reads the alias file. The file is a flat mapping of alias name
// to full voice name:
//
//	default: espeak-ng.en
//	fast: flite.kal16
func (l *Loader) Load() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("read alias file %q: %w", l.path, err)
	}

	aliases := make(map[string]string)
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return fmt.Errorf("parse alias file %q: %w", l.path, err)
	}

	l.mu.Lock()
	l.aliases = aliases
	l.mu.Unlock()

	return nil
}

// Resolve maps an alias to its full voice name. Unknown names pass
// through unchanged.
func (l *Loader) Resolve(name string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if full, ok := l.aliases[name]; ok {
		return full
	}
	return name
}

// Len returns the number of loaded aliases.
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.aliases)
}

// WatchAndReload watches the alias file's directory and reloads on
// change. It blocks until the done channel is closed.
func (l *Loader) WatchAndReload(done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file so editors that replace
	// the file on save keep the watch alive.
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		return fmt.Errorf("watch %q: %w", filepath.Dir(l.path), err)
	}

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != l.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				_ = l.Load()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
