package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inkwell-news/inkwell/internal/index"
)

func TestDebounceCollapsesBurst(t *testing.T) {
	var rebuilds atomic.Int32
	w := New(t.TempDir(), 100*time.Millisecond, func() error {
		rebuilds.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan struct{})
	done := make(chan struct{})
	go func() {
		w.loop(ctx, events)
		close(done)
	}()

	// Three events inside one window must yield exactly one rebuild.
	for i := 0; i < 3; i++ {
		events <- struct{}{}
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(300 * time.Millisecond)
	if got := rebuilds.Load(); got != 1 {
		t.Errorf("expected exactly 1 rebuild, got %d", got)
	}

	cancel()
	<-done
}

func TestDebounceTimerResetsOnEachEvent(t *testing.T) {
	var rebuilds atomic.Int32
	w := New(t.TempDir(), 200*time.Millisecond, func() error {
		rebuilds.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan struct{})
	go w.loop(ctx, events)

	// Keep poking before the window elapses; no rebuild may fire yet.
	for i := 0; i < 4; i++ {
		events <- struct{}{}
		time.Sleep(50 * time.Millisecond)
	}
	if got := rebuilds.Load(); got != 0 {
		t.Errorf("rebuild fired before the window elapsed from the last event, got %d", got)
	}

	time.Sleep(400 * time.Millisecond)
	if got := rebuilds.Load(); got != 1 {
		t.Errorf("expected 1 rebuild after quiet period, got %d", got)
	}
}

func TestDebounceSeparateBurstsRebuildSeparately(t *testing.T) {
	var rebuilds atomic.Int32
	w := New(t.TempDir(), 50*time.Millisecond, func() error {
		rebuilds.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan struct{})
	go w.loop(ctx, events)

	events <- struct{}{}
	time.Sleep(200 * time.Millisecond)
	events <- struct{}{}
	time.Sleep(200 * time.Millisecond)

	if got := rebuilds.Load(); got != 2 {
		t.Errorf("expected 2 rebuilds for 2 separated bursts, got %d", got)
	}
}

func waitForRebuilds(t *testing.T, rebuilds *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if rebuilds.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d rebuilds, saw %d", want, rebuilds.Load())
}

func TestWatchRebuildsOnceForBurstOfNewFiles(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.json")
	builder := index.NewBuilder(dir, indexPath)

	var rebuilds atomic.Int32
	w := New(dir, 300*time.Millisecond, func() error {
		rebuilds.Add(1)
		_, err := builder.Build()
		return err
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		if err := w.Run(ctx); err != nil {
			t.Errorf("watcher run failed: %v", err)
		}
		close(done)
	}()

	// The initial rebuild fires once the watch is installed.
	waitForRebuilds(t, &rebuilds, 1)

	// Three new pages inside one debounce window.
	for i := 0; i < 3; i++ {
		page := fmt.Sprintf(`<html><head><meta name="article-id" content="burst-%d"></head></html>`, i)
		name := fmt.Sprintf("burst-%d.html", i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(page), 0o644); err != nil {
			t.Fatalf("writing page: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	waitForRebuilds(t, &rebuilds, 2)
	time.Sleep(500 * time.Millisecond)
	if got := rebuilds.Load(); got != 2 {
		t.Errorf("expected the burst to trigger exactly one rebuild, got %d total", got)
	}

	doc, err := index.Read(indexPath)
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	ids := map[string]bool{}
	for _, rec := range doc.Articles {
		ids[rec.ID] = true
	}
	for i := 0; i < 3; i++ {
		if !ids[fmt.Sprintf("burst-%d", i)] {
			t.Errorf("expected burst-%d in rebuilt index, got %v", i, ids)
		}
	}

	cancel()
	<-done
}

func TestRelevantFiltersEvents(t *testing.T) {
	cases := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"html write", fsnotify.Event{Name: "a.html", Op: fsnotify.Write}, true},
		{"html create", fsnotify.Event{Name: "b.html", Op: fsnotify.Create}, true},
		{"html remove", fsnotify.Event{Name: "c.html", Op: fsnotify.Remove}, true},
		{"html rename", fsnotify.Event{Name: "d.html", Op: fsnotify.Rename}, true},
		{"html chmod only", fsnotify.Event{Name: "e.html", Op: fsnotify.Chmod}, false},
		{"non-article", fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}, false},
		{"index itself", fsnotify.Event{Name: "index.json", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		if got := relevant(tc.ev); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
