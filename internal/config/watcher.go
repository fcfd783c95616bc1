package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

type logger interface {
	Infof(component, format string, args ...interface{})
	Errorf(component, format string, args ...interface{})
}

// Watcher reloads the config when it, or any extra watched file, changes.
// Directories are watched rather than files so editors that save by rename
// are picked up.
type Watcher struct {
	path     string
	getenv   func(string) string
	files    map[string]bool
	watcher  *fsnotify.Watcher
	log      logger
	mu       sync.RWMutex
	config   *Config
	handlers []func(*Config)
	done     chan struct{}
}

// NewWatcher loads path and prepares to watch it along with extra. Overrides
// are looked up with getenv on every load; nil means os.Getenv.
func NewWatcher(path string, getenv func(string) string, log logger, extra ...string) (*Watcher, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg, err := LoadWith(path, getenv)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	cw := &Watcher{
		path:    path,
		getenv:  getenv,
		files:   make(map[string]bool),
		watcher: w,
		log:     log,
		config:  cfg,
		done:    make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range append([]string{path}, extra...) {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		cw.files[p] = true
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
	}

	return cw, nil
}

// Start starts watching for changes.
func (w *Watcher) Start() {
	go w.watch()
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}

// OnReload registers a handler called after every successful reload.
func (w *Watcher) OnReload(handler func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Get returns the current config.
func (w *Watcher) Get() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.errorf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadWith(w.path, w.getenv)
	if err != nil {
		w.errorf("failed to reload config: %v", err)
		return
	}

	w.mu.Lock()
	w.config = cfg
	handlers := make([]func(*Config), len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	if w.log != nil {
		w.log.Infof("config", "config reloaded from %s", w.path)
	}

	for _, handler := range handlers {
		handler(cfg)
	}
}

func (w *Watcher) errorf(format string, args ...interface{}) {
	if w.log != nil {
		w.log.Errorf("config", format, args...)
	}
}
