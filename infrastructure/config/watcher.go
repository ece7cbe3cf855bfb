package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"focuslink/domain/synergy"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 100 * time.Millisecond

// MatcherWatcher serves the current synergy matcher and rebuilds it when the
// tuning file changes. A bad edit keeps the previous matcher in place.
type MatcherWatcher struct {
	cfg      *Config
	path     string
	watcher  *fsnotify.Watcher
	current  atomic.Pointer[synergy.Matcher]
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	onChange []func(*synergy.Matcher)
}

// NewMatcherWatcher loads the tuning file at path and starts tracking it.
// Call Start to begin reloading.
func NewMatcherWatcher(cfg *Config, path string, logger *zap.Logger) (*MatcherWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tuning, err := LoadSynergyTuning(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial tuning: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch tuning file: %w", err)
	}
	// Editors that save by rename only show up on the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("Failed to watch tuning directory", zap.Error(err))
	}

	w := &MatcherWatcher{
		cfg:     cfg,
		path:    path,
		watcher: watcher,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
	w.current.Store(BuildMatcher(cfg, tuning))
	return w, nil
}

// Matcher returns the matcher built from the latest valid tuning
func (w *MatcherWatcher) Matcher() *synergy.Matcher {
	return w.current.Load()
}

// OnChange registers a callback invoked after each successful reload
func (w *MatcherWatcher) OnChange(fn func(*synergy.Matcher)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Start begins watching for tuning changes
func (w *MatcherWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Synergy tuning watcher started", zap.String("path", w.path))
}

// Stop stops watching. It is safe to call more than once.
func (w *MatcherWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Synergy tuning watcher stopped")
	})
}

func (w *MatcherWatcher) watchLoop() {
	var debounce *time.Timer

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, w.Reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Tuning watcher error", zap.Error(err))
		}
	}
}

// Reload re-reads the tuning file and swaps the matcher if it is valid
func (w *MatcherWatcher) Reload() {
	tuning, err := LoadSynergyTuning(w.path)
	if err != nil {
		w.logger.Error("Failed to reload synergy tuning, keeping previous matcher", zap.Error(err))
		return
	}

	m := BuildMatcher(w.cfg, tuning)
	w.current.Store(m)
	w.logger.Info("Synergy tuning reloaded",
		zap.String("version", tuning.Version),
		zap.Int("min_score", m.MinScore()),
		zap.Int("limit", m.Limit()),
	)

	w.mu.Lock()
	handlers := append([]func(*synergy.Matcher){}, w.onChange...)
	w.mu.Unlock()
	for _, fn := range handlers {
		fn(m)
	}
}
