package gesture

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ayusman/mudra/internal/dataset"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/store"
)

// DefaultTolerance is the smallest tolerance given to a trained template.
const DefaultTolerance = 0.5

// toleranceMargin scales the largest sample distance of a class into its
// tolerance.
const toleranceMargin = 1.2

// defaultModel is the packaged model: one centroid row per gesture code in
// dataset CSV format.
//
//go:embed default_model.csv
var defaultModel []byte

// ErrNoSamples is returned when a dataset holds no rows.
var ErrNoSamples = errors.New("dataset has no samples")

// TrainedTemplate is a template together with the number of samples that
// produced it.
type TrainedTemplate struct {
	Template *Template
	Samples  int
}

// Train reads a labelled dataset in the recorder's CSV format and averages
// the rows of each label into a template. Labels must be gesture codes.
// Templates are returned ordered by code.
func Train(r io.Reader) ([]TrainedTemplate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = detector.FeatureLen + 1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSamples
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(dataset.Header(), ",") {
		return nil, errors.New("unexpected dataset header")
	}

	samples := make(map[Code][]detector.FeatureVector)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		var v detector.FeatureVector
		for i := range v {
			v[i], err = strconv.ParseFloat(record[i], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", line, header[i], err)
			}
		}

		code, err := strconv.Atoi(strings.TrimSpace(record[detector.FeatureLen]))
		if err != nil {
			return nil, fmt.Errorf("row %d: label %q is not a gesture code", line, record[detector.FeatureLen])
		}
		samples[Code(code)] = append(samples[Code(code)], v)
	}

	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	codes := make([]Code, 0, len(samples))
	for code := range samples {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	trained := make([]TrainedTemplate, 0, len(codes))
	for _, code := range codes {
		trained = append(trained, TrainedTemplate{
			Template: averageTemplate(code, samples[code]),
			Samples:  len(samples[code]),
		})
	}
	return trained, nil
}

// averageTemplate builds the centroid of vs. The tolerance covers the
// farthest sample with a margin and is never below DefaultTolerance.
func averageTemplate(code Code, vs []detector.FeatureVector) *Template {
	t := &Template{
		Code:      code,
		Name:      fmt.Sprintf("gesture %d", code),
		Tolerance: DefaultTolerance,
	}

	n := float64(len(vs))
	for _, v := range vs {
		for i := range v {
			t.Centroid[i] += v[i] / n
		}
	}

	for _, v := range vs {
		if d := euclideanDistance(v, t.Centroid) * toleranceMargin; d > t.Tolerance {
			t.Tolerance = d
		}
	}
	return t
}

// Import writes trained templates to s, replacing templates with the same
// code.
func Import(s *store.Store, trained []TrainedTemplate) error {
	repo := s.Templates()
	for _, tt := range trained {
		t := tt.Template
		row := &store.Template{
			Code:      int(t.Code),
			Name:      t.Name,
			Tolerance: t.Tolerance,
			Samples:   tt.Samples,
		}
		if err := repo.Replace(row, t.Centroid[:]); err != nil {
			return fmt.Errorf("save template %d: %w", t.Code, err)
		}
	}
	return nil
}

// SeedDefault imports the packaged model into s when s holds no templates.
// It returns the number of templates written.
func SeedDefault(s *store.Store) (int, error) {
	rows, err := s.Templates().List()
	if err != nil {
		return 0, fmt.Errorf("list templates: %w", err)
	}
	if len(rows) > 0 {
		return 0, nil
	}

	trained, err := Train(bytes.NewReader(defaultModel))
	if err != nil {
		return 0, fmt.Errorf("read packaged model: %w", err)
	}
	if err := Import(s, trained); err != nil {
		return 0, err
	}
	return len(trained), nil
}
