// Package watch triggers rebuilds when files in a workspace change.
//
// A Watcher observes the manifest directory and every project root
// recursively through fsnotify. Bursts of events are debounced into a single
// Change, and Run invokes a rebuild per Change. Each rebuild is an
// independent build invocation with freshly constructed hooks.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/Iron-Ham/weft/internal/logging"
	"github.com/Iron-Ham/weft/internal/workspace"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Change is a debounced batch of filesystem events.
type Change struct {
	// Paths holds the changed paths relative to the watcher root, sorted.
	Paths []string
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Ignore lists glob patterns matched against slash-separated paths
	// relative to the root.
	Ignore []string
	Logger *logging.Logger
}

// Watcher debounces filesystem events below a root directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	ignore   []glob.Glob
	debounce time.Duration
	logger   *logging.Logger

	changes  chan Change
	stopCh   chan struct{}
	stopOnce sync.Once
	started  sync.Once
}

// New creates a watcher rooted at root. Nothing is watched until Add or
// AddWorkspace is called.
func New(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	ignore := make([]glob.Glob, 0, len(opts.Ignore))
	for _, p := range opts.Ignore {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		ignore = append(ignore, g)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	return &Watcher{
		watcher:  fw,
		root:     abs,
		ignore:   ignore,
		debounce: debounce,
		logger:   logger,
		changes:  make(chan Change, 1),
		stopCh:   make(chan struct{}),
	}, nil
}

// AddWorkspace watches the manifest directory and every project root.
func (w *Watcher) AddWorkspace(ws *workspace.Workspace) error {
	if err := w.Add(ws.Root); err != nil {
		return err
	}
	for _, p := range ws.Projects() {
		if err := w.Add(p.Root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p.Name, err)
		}
	}
	return nil
}

// Add watches dir and its subdirectories, skipping ignored ones.
func (w *Watcher) Add(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path %s is not a directory", dir)
	}
	return w.addRecursive(dir)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path, true) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// ignored reports whether path matches an ignore pattern. Directories also
// match patterns that only cover their contents, such as "node_modules/**".
func (w *Watcher) ignored(path string, dir bool) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range w.ignore {
		if g.Match(rel) || (dir && g.Match(rel+"/")) {
			return true
		}
	}
	return false
}

// Changes returns the channel debounced changes are delivered on.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins processing filesystem events. It is safe to call more than
// once.
func (w *Watcher) Start() {
	w.started.Do(func() { go w.watchLoop() })
}

// Stop stops the watcher and releases the underlying fsnotify watcher. It
// is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) watchLoop() {
	// Editors emit several events for a single save.
	timer := time.NewTimer(0)
	<-timer.C

	pending := make(map[string]bool)

	for {
		select {
		case <-w.stopCh:
			timer.Stop()
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			isDir := false
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					isDir = true
					if !w.ignored(ev.Name, true) {
						_ = w.addRecursive(ev.Name)
					}
				}
			}
			if w.ignored(ev.Name, isDir) {
				continue
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				rel = ev.Name
			}
			pending[filepath.ToSlash(rel)] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			change := Change{Paths: make([]string, 0, len(pending))}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			sort.Strings(change.Paths)

			select {
			case w.changes <- change:
				pending = make(map[string]bool)
			default:
				// The consumer is still busy with the previous change; keep
				// accumulating and retry.
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err.Error())
		}
	}
}

// RebuildFunc runs one build for a change.
type RebuildFunc func(ctx context.Context, change Change) error

// Run starts w and calls rebuild for every change until ctx is done. A
// failed rebuild is logged and watching continues. Run stops w before
// returning.
func Run(ctx context.Context, w *Watcher, rebuild RebuildFunc) error {
	w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-w.Changes():
			w.logger.Info("change detected, rebuilding", "paths", change.Paths)
			if err := rebuild(ctx, change); err != nil {
				w.logger.Warn("rebuild failed", "error", err.Error())
			}
		}
	}
}
