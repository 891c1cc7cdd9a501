package posts

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/storage"
)

// DefaultDebounce is how long Watch waits after the last change before it
// refreshes the index.
const DefaultDebounce = 200 * time.Millisecond

// Watch follows root with fsnotify and refreshes idx after content files or
// directories change, until ctx is cancelled. Bursts of events are coalesced
// into one refresh per debounce window. While root does not exist, Watch
// follows its nearest existing ancestor and starts watching root as soon as
// it appears, so a root that is created late or recreated is picked up.
func Watch(ctx context.Context, idx *Index, root string, debounce time.Duration, logger *slog.Logger) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	rw := &rootWatch{w: w, root: filepath.Clean(root), logger: logger}
	rw.follow()

	logger.Info("watcher: started", slog.String("root", root), slog.Duration("debounce", debounce))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			if _, err := idx.Refresh(ctx); err != nil {
				logger.Warn("watcher: refresh failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// Root missing, or root itself removed or moved away.
			if !rw.watchingRoot || (ev.Name == rw.root && ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0) {
				was := rw.watchingRoot
				rw.follow()
				if was != rw.watchingRoot {
					schedule()
				}
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					schedule()
					continue
				}
			}

			// A removed or renamed directory carries no content extension.
			if !storage.IsContentFile(ev.Name) && ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// rootWatch tracks whether the watcher follows the content root or, while
// the root is missing, its nearest existing ancestor.
type rootWatch struct {
	w      *fsnotify.Watcher
	root   string
	logger *slog.Logger

	watchingRoot bool
	parent       string // watched ancestor; empty while watchingRoot
}

// follow points the watcher at root when it exists and at its nearest
// existing ancestor otherwise.
func (rw *rootWatch) follow() {
	if info, err := os.Stat(rw.root); err == nil && info.IsDir() {
		if rw.watchingRoot {
			return
		}
		if rw.parent != "" {
			_ = rw.w.Remove(rw.parent)
			rw.parent = ""
		}
		if err := addDirsRecursive(rw.w, rw.root); err != nil {
			rw.logger.Warn("watcher: add content root failed",
				slog.String("root", rw.root),
				slog.String("error", err.Error()))
			return
		}
		rw.watchingRoot = true
		rw.logger.Debug("watcher: watching content root", slog.String("root", rw.root))
		return
	}

	if rw.watchingRoot {
		// Watches on a moved tree would keep reporting under old names.
		for _, p := range rw.w.WatchList() {
			_ = rw.w.Remove(p)
		}
		rw.watchingRoot = false
	}

	anc := nearestDir(filepath.Dir(rw.root))
	if anc == rw.parent {
		return
	}
	if rw.parent != "" {
		_ = rw.w.Remove(rw.parent)
		rw.parent = ""
	}
	if err := rw.w.Add(anc); err != nil {
		rw.logger.Warn("watcher: watch ancestor failed",
			slog.String("path", anc),
			slog.String("error", err.Error()))
		return
	}
	rw.parent = anc
	rw.logger.Warn("watcher: content root missing, waiting for it",
		slog.String("root", rw.root),
		slog.String("watching", anc))

	// The root may have appeared before the ancestor watch was in place.
	if _, err := os.Stat(rw.root); err == nil {
		rw.follow()
	}
}

// nearestDir returns dir or its closest existing ancestor directory.
func nearestDir(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
