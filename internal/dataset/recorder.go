// Package dataset collects labelled landmark rows for offline model training.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ayusman/mudra/internal/detector"
)

// DefaultThreshold is the row count at which the buffer is written out.
const DefaultThreshold = 2000

// LabelColumn is the name of the last CSV column.
const LabelColumn = "result"

// Header returns the 43 CSV column names: 42 coordinates then the label.
func Header() []string {
	return append(detector.Columns(), LabelColumn)
}

// Recorder accumulates one CSV row per observation in memory and writes the
// whole buffer to disk once the row count reaches the threshold.
type Recorder struct {
	path      string
	label     string
	threshold int

	mu      sync.Mutex
	buf     bytes.Buffer
	w       *csv.Writer
	rows    int
	flushed bool
}

// NewRecorder creates a Recorder that labels every row with label and writes
// to path after threshold rows. A threshold <= 0 uses DefaultThreshold.
func NewRecorder(path, label string, threshold int) *Recorder {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	r := &Recorder{
		path:      path,
		label:     label,
		threshold: threshold,
	}
	r.w = csv.NewWriter(&r.buf)
	r.w.Write(Header())
	return r
}

// Add appends a row for obs. It reports whether this row triggered the
// write to disk. Missing joints are recorded as 0; obs is not modified.
func (r *Recorder) Add(obs detector.Observation) (bool, error) {
	features := detector.Features(obs)

	record := make([]string, 0, len(features)+1)
	for _, v := range features {
		record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
	}
	record = append(record, r.label)

	r.mu.Lock()
	defer r.mu.Unlock()

	// Rows past the threshold are counted but not kept.
	if r.flushed {
		r.rows++
		return false, nil
	}

	if err := r.w.Write(record); err != nil {
		return false, fmt.Errorf("buffer row: %w", err)
	}
	r.rows++

	if r.rows != r.threshold {
		return false, nil
	}

	r.flushed = true
	err := r.writeFile()
	r.buf = bytes.Buffer{}
	if err != nil {
		return true, err
	}
	return true, nil
}

// Buffered returns the number of CSV bytes held in memory.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Len()
}

// Rows returns the number of rows recorded so far.
func (r *Recorder) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// Flushed reports whether the buffer has been written to disk.
func (r *Recorder) Flushed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushed
}

// Path returns the output file path.
func (r *Recorder) Path() string {
	return r.path
}

// writeFile replaces the output file with the buffered CSV. The file is
// written next to the destination and renamed into place.
func (r *Recorder) writeFile() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, r.buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename dataset: %w", err)
	}

	return nil
}
