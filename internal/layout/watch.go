package layout

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 100 * time.Millisecond

// Watcher reloads a layout file whenever it changes on disk.
type Watcher struct {
	path    string
	fs      *fsnotify.Watcher
	updates chan *File
	errs    chan error
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// Watch starts watching path. The directory is watched so editors that
// replace the file on save are handled.
func Watch(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	w := &Watcher{
		path:    path,
		fs:      fsw,
		updates: make(chan *File, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Updates delivers freshly loaded layouts. Only the latest one is kept when
// the reader falls behind.
func (w *Watcher) Updates() <-chan *File {
	return w.updates
}

// Errors delivers load and watch failures.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	name := filepath.Base(w.path)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, w.reload)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.sendErr(err)
		}
	}
}

func (w *Watcher) reload() {
	f, err := LoadFile(w.path)
	if err != nil {
		w.sendErr(fmt.Errorf("reload layout: %w", err))
		return
	}
	for {
		select {
		case <-w.done:
			return
		case w.updates <- f:
			return
		default:
		}
		// Drop a stale update so the newest layout wins.
		select {
		case <-w.updates:
		default:
		}
	}
}

func (w *Watcher) sendErr(err error) {
	select {
	case <-w.done:
	case w.errs <- err:
	default:
	}
}
