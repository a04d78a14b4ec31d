// Package artifacts writes run outputs under timestamped directories.
package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Run is the output directory of one invocation. Every run gets a fresh
// directory so repeated commands never clobber earlier results.
type Run struct {
	ID  string
	Dir string
}

// NewRun creates <baseDir>/<stamp>_<id> and returns its handle.
func NewRun(baseDir string) (*Run, error) {
	id := uuid.NewString()[:8]
	stamp := time.Now().UTC().Format("20060102_150405")
	dir := filepath.Join(baseDir, fmt.Sprintf("%s_%s", stamp, id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &Run{ID: id, Dir: dir}, nil
}

// WriteLightCurveCSV writes a time column followed by one flux column per
// label and returns the file path.
func (r *Run) WriteLightCurveCSV(name string, times []float64, columns [][]float64, labels []string) (string, error) {
	if len(columns) != len(labels) {
		return "", fmt.Errorf("got %d columns for %d labels", len(columns), len(labels))
	}
	for i, col := range columns {
		if len(col) != len(times) {
			return "", fmt.Errorf("column %q has %d samples for %d times", labels[i], len(col), len(times))
		}
	}

	path := filepath.Join(r.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating light curve file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"time_days"}, labels...)); err != nil {
		return "", err
	}
	rec := make([]string, 1+len(columns))
	for i, t := range times {
		rec[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for j, col := range columns {
			rec[1+j] = strconv.FormatFloat(col[i], 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

// WriteJSON marshals v with indentation into the run directory and returns
// the file path.
func (r *Run) WriteJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}
	path := filepath.Join(r.Dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}

// CreateFile opens a new file inside the run directory.
func (r *Run) CreateFile(name string) (*os.File, error) {
	return os.Create(filepath.Join(r.Dir, name))
}
