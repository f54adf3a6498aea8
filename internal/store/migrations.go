package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per gesture class the model can predict
		`CREATE TABLE IF NOT EXISTS templates (
			code INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			tolerance REAL NOT NULL DEFAULT 0.5,
			samples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Centroid feature vector of each class, one row per column
		`CREATE TABLE IF NOT EXISTS template_features (
			code INTEGER NOT NULL REFERENCES templates(code) ON DELETE CASCADE,
			column_index INTEGER NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (code, column_index)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_template_features_code ON template_features(code)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
