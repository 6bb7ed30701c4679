// Package watcher runs the drop-folder workflow: it watches the data
// directory with fsnotify and installs an app as soon as a complete
// per-AppID folder (numeric name, containing a .lua declaration) has
// settled. Writes are debounced per folder because a drop is many events
// over several seconds, not one.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/engine"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steam"
)

const settleDelay = 2 * time.Second

// Watcher installs AppIDs dropped into the data directory.
type Watcher struct {
	engine  *engine.Engine
	dataDir string
	log     *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher over dataDir driving installs through eng.
func New(eng *engine.Engine, dataDir string, log *zap.Logger) (*Watcher, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		engine:  eng,
		dataDir: dataDir,
		log:     log,
		pending: map[string]*time.Timer{},
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching. It returns after the fsnotify loop is running;
// installs happen on a background goroutine per settled folder.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(w.dataDir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dataDir, err)
	}

	w.wg.Add(1)
	go w.run(fsw)
	w.log.Info("watching data directory", zap.String("dir", w.dataDir))
	return nil
}

// Stop halts the watcher. Folders still settling are abandoned; their
// files remain on disk for the next run to pick up via an explicit
// install.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	w.wg.Wait()

	w.mu.Lock()
	for id, t := range w.pending {
		t.Stop()
		delete(w.pending, id)
	}
	w.mu.Unlock()
	return nil
}

func (w *Watcher) run(fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fsw.Close()

	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if id := w.appIDFor(ev.Name); id != "" {
				w.bump(id)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

// appIDFor maps an event path to the AppID folder it belongs to, or ""
// when the path is outside any numeric per-app folder.
func (w *Watcher) appIDFor(path string) string {
	rel, err := filepath.Rel(w.dataDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	top := rel
	if i := strings.IndexRune(rel, filepath.Separator); i >= 0 {
		top = rel[:i]
	}
	if !steam.ValidAppID(top) {
		return ""
	}
	return top
}

// bump restarts the settle timer for an AppID. The install fires only
// after settleDelay with no further events for that folder.
func (w *Watcher) bump(appID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[appID]; ok {
		t.Reset(settleDelay)
		return
	}
	w.pending[appID] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, appID)
		w.mu.Unlock()
		w.install(appID)
	})
}

func (w *Watcher) install(appID string) {
	select {
	case <-w.stopCh:
		return
	default:
	}

	res, err := w.engine.Install(context.Background(), appID, filepath.Join(w.dataDir, appID))
	if err != nil {
		w.log.Error("drop install failed", zap.String("app_id", appID), zap.Error(err))
		return
	}
	w.log.Info("drop install complete",
		zap.String("app_id", appID),
		zap.String("name", res.GameName),
		zap.Bool("updated", res.Updated),
		zap.Strings("warnings", res.Warnings))
}
