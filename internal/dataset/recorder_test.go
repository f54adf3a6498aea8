package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

func TestHeader(t *testing.T) {
	h := Header()

	if len(h) != 43 {
		t.Fatalf("expected 43 columns, got %d", len(h))
	}
	if h[0] != "wristx" || h[1] != "wristy" {
		t.Errorf("first columns = %v, want wristx, wristy", h[:2])
	}
	if h[40] != "littleTipx" || h[41] != "littleTipy" {
		t.Errorf("last coordinate columns = %v", h[40:42])
	}
	if h[42] != "result" {
		t.Errorf("label column = %q, want result", h[42])
	}
}

func TestRecorder_WritesAtThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "FingerPoint1.csv")
	r := NewRecorder(path, "1", 3)

	obs := detector.Observation{
		detector.Wrist:     {X: 0.5, Y: 0.25},
		detector.LittleTip: {X: 0.125, Y: 1},
	}

	for i := 0; i < 2; i++ {
		flushed, err := r.Add(obs)
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if flushed {
			t.Fatalf("row %d should not trigger a write", i+1)
		}
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("dataset file should not exist before the threshold")
	}

	flushed, err := r.Add(obs)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !flushed || !r.Flushed() {
		t.Fatal("third row should trigger the write")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d records", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(Header(), ",") {
		t.Errorf("unexpected header %v", records[0])
	}

	row := records[1]
	if len(row) != 43 {
		t.Fatalf("expected 43 fields, got %d", len(row))
	}
	if row[0] != "0.5" || row[1] != "0.25" {
		t.Errorf("wrist fields = %v", row[:2])
	}
	if row[2] != "0" || row[3] != "0" {
		t.Errorf("missing joint should be 0, got %v", row[2:4])
	}
	if row[40] != "0.125" || row[41] != "1" {
		t.Errorf("littleTip fields = %v", row[40:42])
	}
	if row[42] != "1" {
		t.Errorf("label = %q, want 1", row[42])
	}

	if len(obs) != 2 {
		t.Error("Add must not modify the observation")
	}
}

func TestRecorder_WritesOnlyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	r := NewRecorder(path, "2", 2)

	for i := 0; i < 2; i++ {
		if _, err := r.Add(detector.Observation{}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}

	for i := 0; i < 5; i++ {
		flushed, err := r.Add(detector.Observation{})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if flushed {
			t.Fatal("rows past the threshold should not rewrite the file")
		}
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if string(before) != string(after) {
		t.Error("dataset changed after the threshold write")
	}
	if r.Rows() != 7 {
		t.Errorf("Rows() = %d, want 7", r.Rows())
	}
	if r.Buffered() != 0 {
		t.Errorf("Buffered() = %d bytes after the write, want 0", r.Buffered())
	}
}

func TestNewRecorder_DefaultThreshold(t *testing.T) {
	r := NewRecorder(filepath.Join(t.TempDir(), "d.csv"), "1", 0)
	if r.threshold != DefaultThreshold {
		t.Errorf("threshold = %d, want %d", r.threshold, DefaultThreshold)
	}
}
