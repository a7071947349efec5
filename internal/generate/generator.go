// Package generate renders article pages from the source data file.
// Pages embed the meta markers the index builder reads back, so the
// generator and extractor are two halves of one contract.
package generate

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/inkwell-news/inkwell/internal/source"
)

//go:embed templates/article.html
var templateFS embed.FS

var md = goldmark.New()

// Result holds the counts of one generation run.
type Result struct {
	Generated int
	Skipped   int
}

// Generator renders article pages into a directory.
type Generator struct {
	dataset *source.Dataset
	outDir  string
	tmpl    *template.Template
}

// New creates a generator for the given dataset and output directory.
func New(dataset *source.Dataset, outDir string) (*Generator, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/article.html")
	if err != nil {
		return nil, fmt.Errorf("parsing article template: %w", err)
	}
	return &Generator{dataset: dataset, outDir: outDir, tmpl: tmpl}, nil
}

// Run renders every source article to <outDir>/article-<id>.html.
// Articles without an id are skipped with a diagnostic; a single failed
// render skips that article and the run continues.
func (g *Generator) Run() (*Result, error) {
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating articles directory: %w", err)
	}

	result := &Result{}
	for i := range g.dataset.Articles {
		a := &g.dataset.Articles[i]
		if a.ID == "" {
			log.Printf("Skipping source article %d: no id", i)
			result.Skipped++
			continue
		}

		page, err := g.render(a)
		if err != nil {
			log.Printf("Skipping %s: %v", a.ID, err)
			result.Skipped++
			continue
		}

		path := filepath.Join(g.outDir, Filename(a.ID))
		if err := os.WriteFile(path, page, 0o644); err != nil {
			log.Printf("Skipping %s: %v", a.ID, err)
			result.Skipped++
			continue
		}
		result.Generated++
	}

	log.Printf("Generated %d pages, skipped %d", result.Generated, result.Skipped)
	return result, nil
}

// Filename returns the page filename convention for an article id.
func Filename(id string) string {
	return "article-" + id + ".html"
}

type pageData struct {
	*source.Article
	Body template.HTML
}

func (g *Generator) render(a *source.Article) ([]byte, error) {
	var buf bytes.Buffer
	err := g.tmpl.Execute(&buf, pageData{Article: a, Body: renderBody(a.FullContent)})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return buf.Bytes(), nil
}

// renderBody passes raw markup straight through and renders everything
// else as markdown. Source content without a single tag is authored
// markdown by convention.
func renderBody(content string) template.HTML {
	if strings.Contains(content, "<") {
		return template.HTML(content) //nolint: gosec
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(buf.String()) //nolint: gosec
}
