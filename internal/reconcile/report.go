package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// URLDetail records the outcome for one embedded URL.
type URLDetail struct {
	URL         string   `json:"url"`
	StatusCode  int      `json:"statusCode,omitempty"`
	Reachable   bool     `json:"reachable"`
	Fixed       bool     `json:"fixed,omitempty"`
	Replacement string   `json:"replacement,omitempty"`
	Hints       []string `json:"hints,omitempty"`
}

// FileReport aggregates one file's outcomes.
type FileReport struct {
	File    string      `json:"file"`
	Checked int         `json:"checked"`
	Broken  int         `json:"broken"`
	Fixed   int         `json:"fixed"`
	Changed bool        `json:"changed,omitempty"`
	Error   string      `json:"error,omitempty"`
	URLs    []URLDetail `json:"urls,omitempty"`
}

// Summary holds the aggregate counts of a run.
type Summary struct {
	FilesScanned int `json:"filesScanned"`
	FilesChanged int `json:"filesChanged"`
	Checked      int `json:"checked"`
	Broken       int `json:"broken"`
	Fixed        int `json:"fixed"`
}

// Report is the machine-readable output of one reconcile run.
type Report struct {
	Timestamp string       `json:"timestamp"`
	Summary   Summary      `json:"summary"`
	Files     []FileReport `json:"files"`
}

// NewReport creates an empty report stamped with the current time.
func NewReport() *Report {
	return &Report{Timestamp: time.Now().Format(time.RFC3339)}
}

// Add folds one file's outcomes into the report.
func (r *Report) Add(fr FileReport) {
	r.Files = append(r.Files, fr)
	r.Summary.FilesScanned++
	if fr.Changed {
		r.Summary.FilesChanged++
	}
	r.Summary.Checked += fr.Checked
	r.Summary.Broken += fr.Broken
	r.Summary.Fixed += fr.Fixed
}

// Write persists the report as a timestamped JSON file in dir and
// returns the path written.
func (r *Report) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, "reconcile-"+stamp+".json")

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
