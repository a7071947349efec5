// Package index rebuilds the derived article index from the pages on
// disk. Every run is a full re-scan; the index file is disposable and
// carries nothing the pages don't.
package index

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/inkwell-news/inkwell/internal/article"
)

// ArticleExt is the file extension the builder considers an article page.
const ArticleExt = ".html"

// Document is the serialized shape of the index file.
type Document struct {
	Articles []article.Record `json:"articles"`
}

// Result holds the counts of one build run.
type Result struct {
	Indexed int
	Skipped int
}

// Builder scans a directory of article pages and writes the index.
type Builder struct {
	dir       string
	indexPath string
}

// NewBuilder creates a builder for the given articles directory and
// index file path.
func NewBuilder(dir, indexPath string) *Builder {
	return &Builder{dir: dir, indexPath: indexPath}
}

// Build performs one full rebuild: scan, extract, sort, overwrite.
// Failing to list the directory is fatal; unreadable or id-less pages
// are skipped with a diagnostic and counted.
func (b *Builder) Build() (*Result, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("listing articles directory: %w", err)
	}

	result := &Result{}
	var records []article.Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ArticleExt) {
			continue
		}
		path := filepath.Join(b.dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Skipping unreadable article %s: %v", entry.Name(), err)
			result.Skipped++
			continue
		}

		rec := article.Extract(entry.Name(), content)
		if !rec.Valid() {
			log.Printf("Skipping %s: no article-id marker", entry.Name())
			result.Skipped++
			continue
		}
		records = append(records, rec)
	}

	sortByDate(records)

	if err := b.write(records); err != nil {
		return nil, err
	}
	result.Indexed = len(records)
	return result, nil
}

// sortByDate orders records most recent first. Unparsable or missing
// dates get the zero time and therefore sort last; ties keep scan order.
func sortByDate(records []article.Record) {
	type keyed struct {
		at  time.Time
		rec article.Record
	}
	items := make([]keyed, len(records))
	for i, rec := range records {
		items[i] = keyed{at: parseDate(rec.PublishDate), rec: rec}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].at.After(items[j].at)
	})
	for i, item := range items {
		records[i] = item.rec
	}
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (b *Builder) write(records []article.Record) error {
	if records == nil {
		records = []article.Record{}
	}
	data, err := json.MarshalIndent(Document{Articles: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing index: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(b.indexPath, data, 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// Read loads an existing index file. Used by status and the preview
// server; the builder itself never reads the previous index.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	return &doc, nil
}
