// Package server is a local preview server for the generated site: the
// article pages straight off disk plus a listing page rendered from the
// derived index.
package server

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/inkwell-news/inkwell/internal/index"
)

//go:embed templates/index.html
var templateFS embed.FS

// Server serves the articles directory and an index listing.
type Server struct {
	articlesDir string
	indexPath   string
	tmpl        *template.Template
	mux         *http.ServeMux
}

// New creates a preview server over the given articles directory and
// index file.
func New(articlesDir, indexPath string) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing index template: %w", err)
	}

	s := &Server{
		articlesDir: articlesDir,
		indexPath:   indexPath,
		tmpl:        tmpl,
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.Handle("/articles/", http.StripPrefix("/articles/", http.FileServer(http.Dir(s.articlesDir))))
	s.mux.HandleFunc("/", s.handleIndex)
}

// handleIndex re-reads the index on every request; it is small and the
// watcher may have just rewritten it.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	doc, err := index.Read(s.indexPath)
	if err != nil {
		log.Printf("Error reading index: %v", err)
		http.Error(w, "Index not available; run 'inkwell index' first", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, map[string]any{"Articles": doc.Articles}); err != nil {
		log.Printf("Error rendering index page: %v", err)
	}
}

// Serve starts the preview server on the given port.
func Serve(articlesDir, indexPath string, port int) error {
	srv, err := New(articlesDir, indexPath)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Preview server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
