// Package config loads and live-reloads screenctl's YAML configuration:
// default page geometry, the soft byte budget PageList enforces, and the
// debug server's bind address.
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is screenctl's on-disk configuration. Every field has a
// reasonable zero value so a missing --config file, or a file missing a
// field, still produces a runnable engine.
type Config struct {
	Cols        int    `yaml:"cols"`
	Rows        int    `yaml:"rows"`
	BudgetBytes int    `yaml:"budgetBytes"`
	ListenAddr  string `yaml:"listenAddr"`
}

// Defaults matches the geometry a fresh terminal window opens with.
func Defaults() Config {
	return Config{
		Cols:       80,
		Rows:       24,
		ListenAddr: ":7681",
	}
}

// Load reads and parses a YAML config file, merging over Defaults() so
// partial files are valid.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Watcher re-parses a config file whenever it is written and hands the
// new Config to its onReload callback. What is done with the reloaded
// values is up to that callback; the Watcher itself touches no PageList.
type Watcher struct {
	mu       sync.Mutex
	path     string
	log      *zap.SugaredLogger
	onReload func(Config)
	fsw      *fsnotify.Watcher
}

// NewWatcher starts watching path for writes, calling onReload with the
// freshly parsed Config each time the file changes. Returns a no-op
// Watcher if path is empty.
func NewWatcher(path string, log *zap.SugaredLogger, onReload func(Config)) (*Watcher, error) {
	w := &Watcher{path: path, log: log, onReload: onReload}
	if path == "" {
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w.fsw = fsw

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warnw("config watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	cfg, err := Load(w.path)
	if err != nil {
		if w.log != nil {
			w.log.Warnw("config reload failed, keeping previous values", "path", w.path, "error", err)
		}
		return
	}
	if w.log != nil {
		w.log.Infow("config reloaded", "path", w.path, "budgetBytes", cfg.BudgetBytes)
	}
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

// Close stops the underlying filesystem watch, if one was started.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}
