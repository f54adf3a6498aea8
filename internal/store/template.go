package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Template is one gesture class of the packaged model.
type Template struct {
	Code      int
	Name      string
	Tolerance float64
	Samples   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateRepository provides CRUD operations for model templates.
type TemplateRepository struct {
	db *sql.DB
}

// Templates returns the template repository for this store.
func (s *Store) Templates() *TemplateRepository {
	return &TemplateRepository{db: s.db}
}

// Create inserts a new template together with its centroid features in a
// single transaction.
func (r *TemplateRepository) Create(t *Template, features []float64) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO templates (code, name, tolerance, samples, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Code, t.Name, t.Tolerance, t.Samples, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertFeatures(tx, t.Code, features); err != nil {
		return err
	}

	return tx.Commit()
}

// Replace creates t or overwrites the template with the same code, together
// with its centroid features. CreatedAt is kept for an existing template.
func (r *TemplateRepository) Replace(t *Template, features []float64) error {
	now := time.Now()
	t.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRow(`SELECT created_at FROM templates WHERE code = ?`, t.Code).Scan(&t.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		t.CreatedAt = now
	case err != nil:
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO templates (code, name, tolerance, samples, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			tolerance = excluded.tolerance,
			samples = excluded.samples,
			updated_at = excluded.updated_at`,
		t.Code, t.Name, t.Tolerance, t.Samples, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM template_features WHERE code = ?`, t.Code); err != nil {
		return err
	}
	if err := insertFeatures(tx, t.Code, features); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByCode retrieves a template by its gesture code.
func (r *TemplateRepository) GetByCode(code int) (*Template, error) {
	t := &Template{}

	err := r.db.QueryRow(
		`SELECT code, name, tolerance, samples, created_at, updated_at
		 FROM templates WHERE code = ?`,
		code,
	).Scan(&t.Code, &t.Name, &t.Tolerance, &t.Samples, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return t, nil
}

// List retrieves all templates ordered by code.
func (r *TemplateRepository) List() ([]*Template, error) {
	rows, err := r.db.Query(
		`SELECT code, name, tolerance, samples, created_at, updated_at
		 FROM templates ORDER BY code`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		t := &Template{}
		if err := rows.Scan(&t.Code, &t.Name, &t.Tolerance, &t.Samples, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

// GetFeatures returns the centroid features of a template in column order.
func (r *TemplateRepository) GetFeatures(code int) ([]float64, error) {
	rows, err := r.db.Query(
		`SELECT value FROM template_features WHERE code = ? ORDER BY column_index`,
		code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var features []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		features = append(features, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return features, nil
}

// SetFeatures replaces the centroid features of an existing template.
func (r *TemplateRepository) SetFeatures(code int, features []float64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE templates SET updated_at = ? WHERE code = ?`, time.Now(), code)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM template_features WHERE code = ?`, code); err != nil {
		return err
	}

	if err := insertFeatures(tx, code, features); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a template and its features by code.
func (r *TemplateRepository) Delete(code int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM template_features WHERE code = ?`, code); err != nil {
		return err
	}

	result, err := tx.Exec(`DELETE FROM templates WHERE code = ?`, code)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func insertFeatures(tx *sql.Tx, code int, features []float64) error {
	stmt, err := tx.Prepare(`INSERT INTO template_features (code, column_index, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, v := range features {
		if _, err := stmt.Exec(code, i, v); err != nil {
			return err
		}
	}
	return nil
}
