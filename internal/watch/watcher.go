package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"reportship/internal/model"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher turns fsnotify events for a set of recursively watched roots into
// create and remove FileEvents. Directories created under a root after
// startup are watched as they appear.
type Watcher struct {
	fw      *fsnotify.Watcher
	log     *zap.Logger
	eventCh chan model.FileEvent
	doneCh  chan struct{}

	mu    sync.Mutex
	roots []string

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewWatcher(bufferSize int, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		fw:      fw,
		log:     log,
		eventCh: make(chan model.FileEvent, bufferSize),
		doneCh:  make(chan struct{}),
	}, nil
}

// Add registers root and every directory below it.
func (w *Watcher) Add(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if info, err := os.Stat(absRoot); err != nil {
		return fmt.Errorf("watched root not found: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("watched root is not a directory: %s", absRoot)
	}

	if err := w.addRecursive(absRoot); err != nil {
		return err
	}

	w.mu.Lock()
	w.roots = append(w.roots, absRoot)
	w.mu.Unlock()

	w.log.Info("added watcher",
		zap.String("root", absRoot))
	return nil
}

func (w *Watcher) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if err := w.fw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			w.log.Debug("watching directory",
				zap.String("path", path))
		}

		return nil
	})
}

// Start launches the event loop. Calling it more than once has no effect.
func (w *Watcher) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

func (w *Watcher) run() {
	defer close(w.eventCh)

	for {
		select {
		case <-w.doneCh:
			w.log.Info("watcher stopping")
			return

		case fsEvent, ok := <-w.fw.Events:
			if !ok {
				return
			}

			for _, event := range w.translate(fsEvent) {
				// Blocking send: dropping a create would lose a report.
				select {
				case w.eventCh <- event:
				case <-w.doneCh:
					return
				}
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}

			w.log.Error("watcher error",
				zap.Error(err))
		}
	}
}

// translate maps one fsnotify event to FileEvents. A new directory is
// watched and then scanned, so entries created inside it before the watch
// took effect still produce Create events.
func (w *Watcher) translate(fsEvent fsnotify.Event) []model.FileEvent {
	switch {
	case fsEvent.Op.Has(fsnotify.Create):
		info, err := os.Stat(fsEvent.Name)
		if err != nil || !info.IsDir() {
			return []model.FileEvent{newEvent(model.EventCreate, fsEvent.Name, false)}
		}

		if err := w.addRecursive(fsEvent.Name); err != nil {
			w.log.Warn("failed to watch new directory",
				zap.String("path", fsEvent.Name),
				zap.Error(err))
			return []model.FileEvent{newEvent(model.EventCreate, fsEvent.Name, true)}
		}

		w.log.Debug("added new directory to watch",
			zap.String("path", fsEvent.Name))

		return append([]model.FileEvent{newEvent(model.EventCreate, fsEvent.Name, true)}, w.scan(fsEvent.Name)...)

	case fsEvent.Op.Has(fsnotify.Remove):
		return []model.FileEvent{newEvent(model.EventRemove, fsEvent.Name, false)}

	default:
		return nil
	}
}

// scan lists everything below dir as Create events, parents before children.
func (w *Watcher) scan(dir string) []model.FileEvent {
	var events []model.FileEvent

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("failed to scan new directory",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}
		if path == dir {
			return nil
		}

		events = append(events, newEvent(model.EventCreate, path, d.IsDir()))
		return nil
	})
	if err != nil {
		w.log.Warn("failed to scan new directory",
			zap.String("path", dir),
			zap.Error(err))
	}

	if len(events) > 0 {
		w.log.Debug("found entries in new directory",
			zap.String("path", dir),
			zap.Int("count", len(events)))
	}

	return events
}

func newEvent(typ model.EventType, path string, isDir bool) model.FileEvent {
	return model.FileEvent{
		Type:      typ,
		Path:      path,
		Dir:       filepath.Dir(path),
		Name:      filepath.Base(path),
		IsDir:     isDir,
		Timestamp: time.Now(),
	}
}

func (w *Watcher) Events() <-chan model.FileEvent {
	return w.eventCh
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.doneCh)
		_ = w.fw.Close()
	})
}
