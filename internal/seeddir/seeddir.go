// Package seeddir mirrors a host directory into the in-memory
// filesystem. Import seeds the initial contents; after that a watcher
// goroutine translates host file changes into Updates. The kernel is not
// safe for concurrent use, so updates are queued on a channel and the
// host loop applies them between kernel steps.
package seeddir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"ironveil/nexis/vfs"
)

// Update is one pending filesystem change. Nil Data removes the file.
type Update struct {
	Name string
	Data []byte
}

// Watcher follows one directory.
type Watcher struct {
	dir string
	w   *fsnotify.Watcher
	ch  chan Update
	log *logrus.Logger
}

// Open starts watching dir. The directory must exist.
func Open(dir string, log *logrus.Logger) (*Watcher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("seeddir: %s is not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{dir: dir, w: fw, ch: make(chan Update, 64), log: log}
	go w.loop()
	return w, nil
}

// Import writes every eligible file in the directory into fs.
func (w *Watcher) Import(fs *vfs.FS) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !eligible(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(w.dir, e.Name()))
		if err != nil {
			w.log.Warnf("seeddir: read %s: %v", e.Name(), err)
			continue
		}
		if len(data) > vfs.MaxFileSize {
			w.log.Warnf("seeddir: %s: %d bytes exceeds the file size limit", e.Name(), len(data))
			continue
		}
		if err := fs.Write(e.Name(), data); err != nil {
			w.log.Warnf("seeddir: import %s: %v", e.Name(), err)
		}
	}
	return nil
}

// Updates returns the pending change stream.
func (w *Watcher) Updates() <-chan Update { return w.ch }

func (w *Watcher) Close() error { return w.w.Close() }

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.log.Warnf("seeddir: watch: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if !eligible(name) {
		return
	}
	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		data, err := os.ReadFile(ev.Name)
		if err != nil {
			// Editors often remove-then-rename; the follow-up event
			// carries the final contents.
			return
		}
		if len(data) > vfs.MaxFileSize {
			w.log.Warnf("seeddir: %s: %d bytes exceeds the file size limit", name, len(data))
			return
		}
		w.send(Update{Name: name, Data: data})
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.send(Update{Name: name})
	}
}

func (w *Watcher) send(u Update) {
	select {
	case w.ch <- u:
	default:
		w.log.Warnf("seeddir: update queue full, dropping change to %s", u.Name)
	}
}

// eligible filters out dotfiles and names the filesystem cannot store.
func eligible(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return len(name) <= vfs.MaxNameLen
}
