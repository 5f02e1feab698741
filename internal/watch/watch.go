// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more events before
// signaling.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches a set of directories. Bursts of events collapse into a
// single signal on Events.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	delay     time.Duration
	events    chan struct{}
	stop      chan struct{}
	done      chan struct{}
	debounce  *time.Timer
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// New watches every directory in dirs. Empty entries and directories that do
// not exist are skipped, but at least one directory must be watchable.
func New(dirs []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		delay:     DefaultDebounce,
		events:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}

	watched := 0
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			log.Debugf("not watching %s: not a directory", dir)
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		log.Debugf("watching %s", dir)
		watched++
	}

	if watched == 0 {
		fsw.Close()
		return nil, errors.New("no directories to watch")
	}

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer func() {
		w.mu.Lock()
		w.closed = true
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.mu.Unlock()
		close(w.events)
		close(w.done)
	}()

	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// Permission changes never alter content or mtime ordering.
			if event.Op == fsnotify.Chmod {
				continue
			}
			log.Debugf("watch event: %s", event)

			w.mu.Lock()
			if w.debounce != nil {
				w.debounce.Stop()
			}
			w.debounce = time.AfterFunc(w.delay, w.signal)
			w.mu.Unlock()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("watch error")
		}
	}
}

func (w *Watcher) signal() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	select {
	case w.events <- struct{}{}:
	default:
	}
}

// Events returns a channel that receives after files change. It is closed
// when the watcher is.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stop)
		err = w.fsWatcher.Close()
		<-w.done
	})
	return err
}
