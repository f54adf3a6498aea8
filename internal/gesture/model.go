package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/store"
)

// ErrEmptyModel is returned by LoadModel when the store holds no templates.
var ErrEmptyModel = errors.New("model has no templates")

// LoadModel builds a NearestClassifier from every template in s.
func LoadModel(s *store.Store) (*NearestClassifier, error) {
	repo := s.Templates()

	rows, err := repo.List()
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyModel
	}

	templates := make([]*Template, 0, len(rows))
	for _, row := range rows {
		features, err := repo.GetFeatures(row.Code)
		if err != nil {
			return nil, fmt.Errorf("load features for %q: %w", row.Name, err)
		}
		if len(features) != detector.FeatureLen {
			return nil, fmt.Errorf("template %q has %d features, want %d", row.Name, len(features), detector.FeatureLen)
		}

		t := &Template{
			Code:      Code(row.Code),
			Name:      row.Name,
			Tolerance: row.Tolerance,
		}
		copy(t.Centroid[:], features)
		templates = append(templates, t)
	}

	return NewNearestClassifier(templates...), nil
}
