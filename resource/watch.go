package resource

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/boldui/core/protocol"
)

// Watcher mirrors a directory of backing files into a Store, a development
// convenience for apps that keep their images on disk: a file named
// "<id>.<ext>" becomes resource <id>, and editing the file live-reloads
// the resource without the app resending chunks. The wire protocol never
// depends on this; production resources arrive as ResourceChunk streams.
type Watcher struct {
	store *Store
	fw    *fsnotify.Watcher
	done  chan struct{}
}

// WatchDir loads every resource-named file already in dir, then starts
// watching for creations and rewrites. Close releases the watch.
func WatchDir(store *Store, dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{store: store, fw: fw, done: make(chan struct{})}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fw.Close()
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.load(filepath.Join(dir, e.Name()))
		}
	}

	go w.run()
	return w, nil
}

// Close stops watching. Already-loaded resources stay in the store.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				w.load(ev.Name)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("resource watch error", "err", err)
		}
	}
}

func (w *Watcher) load(path string) {
	id, ok := resourceIDFromName(filepath.Base(path))
	if !ok {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read resource file", "path", path, "err", err)
		return
	}
	w.store.Replace(id, data)
	slog.Debug("resource loaded from file", "id", uint32(id), "bytes", len(data))
}

// resourceIDFromName parses the leading decimal id of "<id>.<ext>" (or a
// bare "<id>"). Files named any other way are ignored.
func resourceIDFromName(name string) (protocol.Resource, bool) {
	stem := name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		stem = name[:i]
	}
	if stem == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(stem, 10, 32)
	if err != nil {
		return 0, false
	}
	return protocol.Resource(id), true
}
