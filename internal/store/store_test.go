package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_FreshModel(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "model.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("model file not created: %v", err)
	}

	templates, err := s.Templates().List()
	if err != nil {
		t.Fatalf("List() on a fresh model error = %v", err)
	}
	if len(templates) != 0 {
		t.Errorf("fresh model has %d templates, want 0", len(templates))
	}
}

func TestNew_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "model.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Templates().Create(&Template{Code: 8, Name: "eight", Tolerance: 0.5}, testFeatures(0.2)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Migrations must be safe to run against an existing model.
	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	features, err := s.Templates().GetFeatures(8)
	if err != nil {
		t.Fatalf("GetFeatures() error = %v", err)
	}
	if len(features) != 42 {
		t.Errorf("got %d features after reopen, want 42", len(features))
	}
}

func TestSchema_FeaturesCascadeWithTemplate(t *testing.T) {
	s := newTestStore(t)

	if err := s.Templates().Create(&Template{Code: 5, Name: "five"}, testFeatures(0)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Delete through SQL so the cascade, not the repository, removes the rows.
	if _, err := s.DB().Exec(`DELETE FROM templates WHERE code = 5`); err != nil {
		t.Fatalf("delete template: %v", err)
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM template_features WHERE code = 5`).Scan(&n); err != nil {
		t.Fatalf("count features: %v", err)
	}
	if n != 0 {
		t.Errorf("%d feature rows left after deleting the template", n)
	}
}

func TestSchema_FeaturesRequireTemplate(t *testing.T) {
	s := newTestStore(t)

	_, err := s.DB().Exec(`INSERT INTO template_features (code, column_index, value) VALUES (42, 0, 1.0)`)
	if err == nil {
		t.Error("features for an unknown template should violate the foreign key")
	}
}

func TestSchema_OneValuePerColumn(t *testing.T) {
	s := newTestStore(t)

	if err := s.Templates().Create(&Template{Code: 1, Name: "one"}, []float64{0.1}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := s.DB().Exec(`INSERT INTO template_features (code, column_index, value) VALUES (1, 0, 0.2)`)
	if err == nil {
		t.Error("a second value for the same column should be rejected")
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "model.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := s.Templates().List(); err == nil {
		t.Error("List() should fail after Close")
	}
}
