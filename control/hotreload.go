// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// fsnotify-driven file watch that calls back into a ConfigStore's Reload
// on every write to its backing file, plus the teacher's global
// reload-hook registry for cross-cutting listeners unrelated to the config
// file itself (e.g. a debug dump refresh).

package control

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

var reloadHooks []func()

// RegisterReloadHook adds a new component reload listener.
func RegisterReloadHook(fn func()) {
	reloadHooks = append(reloadHooks, fn)
}

// TriggerHotReload dispatches all reload hooks asynchronously.
func TriggerHotReload() {
	for _, fn := range reloadHooks {
		go fn()
	}
}

// TriggerHotReloadSync invokes all reload hooks synchronously (for test determinism).
func TriggerHotReloadSync() {
	for _, fn := range reloadHooks {
		fn()
	}
}

// Watcher wraps an fsnotify.Watcher watching a single config file.
type Watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// WatchConfigFile starts watching cs's backing file for writes, calling
// cs.Reload() (and then TriggerHotReload for any registered cross-cutting
// listeners) on every one. The returned Watcher must be Closed to stop it.
func WatchConfigFile(cs *ConfigStore) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(cs.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{fw: fw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(cs.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := cs.Reload(); err == nil {
					TriggerHotReload()
				}
			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}
