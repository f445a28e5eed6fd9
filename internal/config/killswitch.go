package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"vigil/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// KillSwitch tracks the presence of a sentinel file. While the file exists the
// guardrail forces HOLD on every tick. The watcher keeps the flag current
// without restarting the agent. With an empty path there is no file and no
// watcher; Engage and Clear still toggle the in-memory flag.
type KillSwitch struct {
	path    string
	engaged atomic.Bool
	watcher *fsnotify.Watcher
}

func NewKillSwitch(path string) (*KillSwitch, error) {
	ks := &KillSwitch{path: strings.TrimSpace(path)}
	if ks.path == "" {
		return ks, nil
	}
	ks.refresh()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(ks.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	ks.watcher = w
	go ks.watch()
	return ks, nil
}

// Engaged reports whether the sentinel file currently exists.
func (k *KillSwitch) Engaged() bool {
	if k == nil {
		return false
	}
	return k.engaged.Load()
}

// Engage flips the switch on, creating the sentinel file when a path is
// configured; Clear flips it off and removes the file. With a path the file is
// also valid to touch/rm out-of-band.
func (k *KillSwitch) Engage() error {
	if k == nil {
		return nil
	}
	if k.path != "" {
		f, err := os.OpenFile(k.path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		f.Close()
	}
	k.engaged.Store(true)
	return nil
}

func (k *KillSwitch) Clear() error {
	if k == nil {
		return nil
	}
	if k.path != "" {
		if err := os.Remove(k.path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	k.engaged.Store(false)
	return nil
}

func (k *KillSwitch) Close() error {
	if k == nil || k.watcher == nil {
		return nil
	}
	return k.watcher.Close()
}

func (k *KillSwitch) refresh() {
	_, err := os.Stat(k.path)
	was := k.engaged.Swap(err == nil)
	now := k.engaged.Load()
	if was != now {
		if now {
			logger.Warnf("kill switch engaged (%s)", k.path)
		} else {
			logger.Infof("kill switch cleared (%s)", k.path)
		}
	}
}

func (k *KillSwitch) watch() {
	for {
		select {
		case evt, ok := <-k.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) == filepath.Clean(k.path) {
				k.refresh()
			}
		case err, ok := <-k.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("kill switch watcher error: %v", err)
		}
	}
}
