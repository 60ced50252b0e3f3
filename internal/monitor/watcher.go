package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"autohonk/internal/journal"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Op is the kind of change a Notification reports.
type Op int

const (
	OpCreated Op = iota + 1
	OpModified
)

func (o Op) String() string {
	switch o {
	case OpCreated:
		return "created"
	case OpModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Notification reports a change to a journal file.
type Notification struct {
	Op   Op
	Path string
}

// NotificationBuffer is the capacity of the notification queue.
const NotificationBuffer = 64

var errWatcherStopped = errors.New("watcher stopped")

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	Created       int
	Modified      int
	Dropped       int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// Watcher turns filesystem events in the journal directory into
// Notifications. When the queue is full a notification is dropped and
// counted; the loop's fallback poll picks up whatever was missed.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	dir     string
	log     *zap.Logger
	notes   chan Notification
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	stopped bool

	stats WatcherStats
}

// NewWatcher creates a watcher for dir. Call Start to begin delivering.
func NewWatcher(dir string, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		watcher: fw,
		dir:     dir,
		log:     log,
		notes:   make(chan Notification, NotificationBuffer),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Notifications is the queue the monitor loop reads.
func (w *Watcher) Notifications() <-chan Notification { return w.notes }

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return errWatcherStopped
	}
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("watching journal directory", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

// Run starts the watcher and blocks until ctx is cancelled. The watcher is
// stopped on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop stops the watcher and releases the fsnotify handle. Safe to call
// more than once, and before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	running := w.running
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	if running {
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.log.Error("closing watcher", zap.Error(err))
	}
	w.log.Debug("watcher stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !journal.IsJournalFile(event.Name) {
		return
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreated
	case event.Has(fsnotify.Write):
		op = OpModified
	default:
		return // remove, rename, chmod
	}

	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	if op == OpCreated {
		w.stats.Created++
	} else {
		w.stats.Modified++
	}
	w.mu.Unlock()

	select {
	case w.notes <- Notification{Op: op, Path: event.Name}:
	default:
		w.mu.Lock()
		w.stats.Dropped++
		w.mu.Unlock()
		w.log.Debug("notification queue full, dropping", zap.String("path", event.Name), zap.Stringer("op", op))
	}
}
