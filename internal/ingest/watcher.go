package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	Create EventOp = iota
	Write
	Remove
	Rename
)

func (op EventOp) String() string {
	switch op {
	case Create:
		return "Create"
	case Write:
		return "Write"
	case Remove:
		return "Remove"
	case Rename:
		return "Rename"
	default:
		return "Unknown"
	}
}

// Event is a debounced file system change under the watched root. Path is
// root-relative.
type Event struct {
	Path string
	Op   EventOp
	Time time.Time
}

const debounceWindow = 200 * time.Millisecond

// Watcher watches a repository root and emits debounced change events for
// files the ignore rules allow.
type Watcher struct {
	root    string
	matcher *ignoreMatcher
	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	closed  bool
}

// NewWatcher creates a watcher for root with the given extra ignore
// patterns.
func NewWatcher(root string, extraIgnores []string) (*Watcher, error) {
	matcher, err := newIgnoreMatcher(root, extraIgnores)
	if err != nil {
		return nil, err
	}
	return &Watcher{root: root, matcher: matcher}, nil
}

// Start begins watching and returns a channel of debounced events. The
// channel closes when the context is cancelled.
func (w *Watcher) Start(ctx context.Context) (<-chan Event, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		fsw.Close()
		return nil, err
	}

	out := make(chan Event, 100)
	go w.eventLoop(ctx, fsw, out)
	return out, nil
}

// Close shuts down the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if !info.IsDir() {
			return nil
		}
		if rel, ok := w.rel(path); ok && rel != "." && w.matcher.Match(rel+"/") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event) {
	defer close(out)

	type pending struct {
		event Event
		timer *time.Timer
	}
	pendingEvents := make(map[string]*pending)
	var mu sync.Mutex

	emit := func(evt Event) {
		select {
		case out <- evt:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, p := range pendingEvents {
				p.timer.Stop()
			}
			mu.Unlock()
			return

		case fsEvent, ok := <-fsw.Events:
			if !ok {
				return
			}

			rel, relOK := w.rel(fsEvent.Name)
			if !relOK || w.matcher.Match(rel) {
				continue
			}

			op, valid := convertOp(fsEvent.Op)
			if !valid {
				continue
			}

			evt := Event{Path: rel, Op: op, Time: time.Now()}

			// New directories join the watch set.
			if op == Create {
				if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(fsEvent.Name)
				}
			}

			mu.Lock()
			if p, exists := pendingEvents[rel]; exists {
				p.timer.Stop()
				p.event = evt
			}
			key := rel
			p := &pending{event: evt}
			p.timer = time.AfterFunc(debounceWindow, func() {
				mu.Lock()
				e := pendingEvents[key]
				delete(pendingEvents, key)
				mu.Unlock()
				if e != nil {
					emit(e.event)
				}
			})
			pendingEvents[key] = p
			mu.Unlock()

		case _, ok := <-fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func convertOp(op fsnotify.Op) (EventOp, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Create, true
	case op.Has(fsnotify.Write):
		return Write, true
	case op.Has(fsnotify.Remove):
		return Remove, true
	case op.Has(fsnotify.Rename):
		return Rename, true
	default:
		return 0, false
	}
}

// WatchAndSync runs the watcher and applies each event to the store until
// the context is cancelled: writes and creates re-ingest the file, removals
// and renames drop its records.
func (s *Service) WatchAndSync(ctx context.Context, root string, extraIgnores []string) error {
	w, err := NewWatcher(root, extraIgnores)
	if err != nil {
		return err
	}
	defer w.Close()

	events, err := w.Start(ctx)
	if err != nil {
		return err
	}

	for evt := range events {
		switch evt.Op {
		case Remove, Rename:
			if err := s.RemoveFile(ctx, evt.Path); err != nil {
				s.logf("remove %s: %v", evt.Path, err)
			} else {
				s.logf("removed %s", evt.Path)
			}
		case Create, Write:
			stats := &JobStats{}
			if err := s.IngestFile(ctx, root, evt.Path, stats); err != nil {
				s.logf("re-ingest %s: %v", evt.Path, err)
			} else if stats.FilesSkipped == 0 {
				s.logf("re-ingested %s (%d nodes, %d edges)", evt.Path, stats.NodesCreated, stats.EdgesCreated)
			}
		}
	}
	return nil
}
