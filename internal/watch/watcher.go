// Package watch rebuilds the index whenever the articles directory
// changes, collapsing bursts of filesystem events into one rebuild.
package watch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inkwell-news/inkwell/internal/index"
)

// Watcher observes a directory and schedules index rebuilds.
type Watcher struct {
	dir      string
	debounce time.Duration
	rebuild  func() error
}

// New creates a watcher that invokes rebuild after change bursts settle.
func New(dir string, debounce time.Duration, rebuild func() error) *Watcher {
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Watcher{dir: dir, debounce: debounce, rebuild: rebuild}
}

// Run performs one initial rebuild, then watches until ctx is
// cancelled. Rebuild failures are logged, not fatal; the watch keeps
// going so a later save can succeed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating filesystem watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	log.Printf("Watching %s (debounce %v)", w.dir, w.debounce)
	if err := w.rebuild(); err != nil {
		log.Printf("Initial rebuild failed: %v", err)
	}

	events := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if !relevant(ev) {
					continue
				}
				select {
				case events <- struct{}{}:
				default:
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.Printf("Watch error: %v", err)
			}
		}
	}()

	w.loop(ctx, events)
	return nil
}

// relevant reports whether an event concerns an article page.
func relevant(ev fsnotify.Event) bool {
	if !strings.HasSuffix(ev.Name, index.ArticleExt) {
		return false
	}
	return ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
}

// loop debounces events: each event resets the timer, and one rebuild
// fires once the window elapses after the last event. Factored over a
// plain channel so the policy is testable without a real filesystem.
func (w *Watcher) loop(ctx context.Context, events <-chan struct{}) {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-events:
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true
		case <-timer.C:
			pending = false
			if err := w.rebuild(); err != nil {
				log.Printf("Rebuild failed: %v", err)
			}
		}
	}
}
