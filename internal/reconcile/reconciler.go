// Package reconcile keeps the external URLs embedded in generated pages
// alive: every URL is probed, dead ones get a best-effort replacement
// substituted in place, and the rest are reported for manual follow-up.
package reconcile

import (
	"context"
	"fmt"
	"html"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/inkwell-news/inkwell/internal/article"
	"github.com/inkwell-news/inkwell/internal/index"
	"github.com/inkwell-news/inkwell/internal/liveness"
	"github.com/inkwell-news/inkwell/internal/repair"
	"github.com/inkwell-news/inkwell/internal/source"
)

// Checker probes a URL for liveness.
type Checker interface {
	Check(ctx context.Context, rawURL string) liveness.Status
}

// Finder searches for a replacement for a dead URL.
type Finder interface {
	Find(ctx context.Context, rawURL string) repair.Result
}

// Reconciler walks a directory of article pages and repairs their
// embedded URLs.
type Reconciler struct {
	dir       string
	dataset   *source.Dataset
	checker   Checker
	finder    Finder
	batchSize int
}

// New creates a reconciler. dataset may be nil when no source data file
// is available; it is only consulted for by-id sourceUrl enrichment.
func New(dir string, dataset *source.Dataset, checker Checker, finder Finder, batchSize int) *Reconciler {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Reconciler{
		dir:       dir,
		dataset:   dataset,
		checker:   checker,
		finder:    finder,
		batchSize: batchSize,
	}
}

// Run reconciles every article page in the directory. Files are
// processed sequentially; within a file URLs are probed in batches of
// batchSize concurrent probes. Per-file and per-URL failures never stop
// the run; only an unlistable directory does.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("listing articles directory: %w", err)
	}

	report := NewReport()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), index.ArticleExt) {
			continue
		}
		fileReport := r.reconcileFile(ctx, entry.Name())
		if fileReport == nil {
			continue
		}
		report.Add(*fileReport)
	}

	log.Printf("Reconcile complete: %d checked, %d broken, %d fixed",
		report.Summary.Checked, report.Summary.Broken, report.Summary.Fixed)
	return report, nil
}

// reconcileFile handles one page. The in-memory copy is the single
// source of truth for substitutions; the file is rewritten at most once,
// after every URL has been resolved.
func (r *Reconciler) reconcileFile(ctx context.Context, name string) *FileReport {
	path := filepath.Join(r.dir, name)
	content, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Skipping unreadable file %s: %v", name, err)
		return &FileReport{File: name, Error: err.Error()}
	}

	urls := ExtractURLs(content)
	fileReport := &FileReport{File: name}
	if len(urls) == 0 {
		return fileReport
	}

	rec := article.Extract(name, content)
	statuses := r.checkBatched(ctx, urls)

	working := string(content)
	for i, rawURL := range urls {
		status := statuses[i]
		detail := URLDetail{URL: rawURL, StatusCode: status.StatusCode}
		fileReport.Checked++

		if status.Reachable {
			detail.Reachable = true
			fileReport.URLs = append(fileReport.URLs, detail)
			continue
		}

		fileReport.Broken++
		result := r.findReplacement(ctx, rec, rawURL)
		if result.Fixed {
			updated := substituteURL(working, rawURL, result.Replacement)
			if updated == working {
				// Extraction and the file text disagree on the URL's
				// form; report it unfixed rather than claim an edit
				// that never landed.
				detail.Hints = repair.Hints(rawURL)
				log.Printf("Replacement for %s in %s did not match the file text", rawURL, name)
			} else {
				working = updated
				detail.Replacement = result.Replacement
				detail.Fixed = true
				fileReport.Fixed++
				log.Printf("Fixed %s: %s -> %s", name, rawURL, result.Replacement)
			}
		} else {
			detail.Hints = result.Hints
			log.Printf("No replacement for %s in %s", rawURL, name)
		}
		fileReport.URLs = append(fileReport.URLs, detail)
	}

	if working != string(content) {
		if err := os.WriteFile(path, []byte(working), 0o644); err != nil {
			log.Printf("Failed to rewrite %s: %v", name, err)
			fileReport.Error = err.Error()
			return fileReport
		}
		fileReport.Changed = true
	}
	return fileReport
}

// substituteURL replaces every occurrence of oldURL with newURL.
// Extracted URLs come out of goquery HTML-unescaped, while the file
// text carries the escaped form inside attribute values (the page
// templates turn & into &amp;), so both spellings are substituted.
func substituteURL(content, oldURL, newURL string) string {
	content = strings.ReplaceAll(content, oldURL, newURL)
	if escaped := html.EscapeString(oldURL); escaped != oldURL {
		content = strings.ReplaceAll(content, escaped, html.EscapeString(newURL))
	}
	return content
}

// checkBatched probes URLs in sequential batches of batchSize
// concurrent probes, bounding simultaneous outbound connections.
func (r *Reconciler) checkBatched(ctx context.Context, urls []string) []liveness.Status {
	statuses := make([]liveness.Status, len(urls))
	for start := 0; start < len(urls); start += r.batchSize {
		end := start + r.batchSize
		if end > len(urls) {
			end = len(urls)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				statuses[i] = r.checker.Check(ctx, urls[i])
			}(i)
		}
		wg.Wait()
	}
	return statuses
}

// findReplacement runs the finder, trying the source data's own
// sourceUrl first when the dead URL is this article's source reference.
func (r *Reconciler) findReplacement(ctx context.Context, rec article.Record, rawURL string) repair.Result {
	if r.dataset != nil && rec.ID != "" && rawURL == rec.SourceURL {
		if orig := r.dataset.ByID(rec.ID); orig != nil && orig.SourceURL != "" && orig.SourceURL != rawURL {
			if status := r.checker.Check(ctx, orig.SourceURL); status.Reachable {
				return repair.Result{Original: rawURL, Replacement: orig.SourceURL, Fixed: true}
			}
		}
	}
	return r.finder.Find(ctx, rawURL)
}
