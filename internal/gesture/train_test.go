package gesture

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/dataset"
	"github.com/ayusman/mudra/internal/detector"
)

// datasetCSV renders rows in the recorder's format.
func datasetCSV(rows ...[]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(dataset.Header(), ","))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(strings.Join(r, ","))
		b.WriteString("\n")
	}
	return b.String()
}

// row builds a dataset row with every coordinate set to v.
func row(v float64, label string) []string {
	r := make([]string, 0, detector.FeatureLen+1)
	for i := 0; i < detector.FeatureLen; i++ {
		r = append(r, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return append(r, label)
}

func TestTrain(t *testing.T) {
	in := datasetCSV(
		row(0.2, "3"),
		row(0.4, "3"),
		row(0.9, "1"),
	)

	trained, err := Train(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if len(trained) != 2 {
		t.Fatalf("got %d templates, want 2", len(trained))
	}

	one, three := trained[0], trained[1]
	if one.Template.Code != 1 || three.Template.Code != 3 {
		t.Fatalf("codes = %d, %d, want ordered 1, 3", one.Template.Code, three.Template.Code)
	}
	if one.Samples != 1 || three.Samples != 2 {
		t.Errorf("samples = %d, %d, want 1, 2", one.Samples, three.Samples)
	}

	for i, v := range three.Template.Centroid {
		if math.Abs(v-0.3) > 1e-9 {
			t.Fatalf("centroid[%d] = %v, want 0.3", i, v)
		}
	}

	// A single sample sits on its centroid, so the minimum applies.
	if one.Template.Tolerance != DefaultTolerance {
		t.Errorf("tolerance = %v, want %v", one.Template.Tolerance, DefaultTolerance)
	}

	// Each sample of class 3 is 0.1 per column from the centroid.
	wantTolerance := math.Sqrt(detector.FeatureLen*0.01) * toleranceMargin
	if math.Abs(three.Template.Tolerance-wantTolerance) > 1e-9 {
		t.Errorf("tolerance = %v, want %v", three.Template.Tolerance, wantTolerance)
	}
}

func TestTrain_Errors(t *testing.T) {
	badRow := row(0.1, "1")
	badRow[5] = "x"

	tests := []struct {
		name string
		in   string
	}{
		{"empty input", ""},
		{"header only", datasetCSV()},
		{"wrong header", strings.Replace(datasetCSV(row(0, "1")), "wristx", "wrist_x", 1)},
		{"label is not a code", datasetCSV(row(0, "thumbs"))},
		{"bad coordinate", datasetCSV(badRow)},
		{"short row", datasetCSV([]string{"0.1", "1"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Train(strings.NewReader(tt.in)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := Train(strings.NewReader(datasetCSV())); !errors.Is(err, ErrNoSamples) {
		t.Errorf("header only error = %v, want ErrNoSamples", err)
	}
}

func TestImport_ReplacesExisting(t *testing.T) {
	s := openTestStore(t)

	first, err := Train(strings.NewReader(datasetCSV(row(0.1, "2"))))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if err := Import(s, first); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	second, err := Train(strings.NewReader(datasetCSV(row(0.6, "2"), row(0.6, "2"))))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if err := Import(s, second); err != nil {
		t.Fatalf("second Import() error = %v", err)
	}

	c, err := LoadModel(s)
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if got := c.Templates()[0].Centroid[0]; got != 0.6 {
		t.Errorf("centroid[0] = %v, want the imported 0.6", got)
	}

	saved, err := s.Templates().GetByCode(2)
	if err != nil {
		t.Fatalf("GetByCode() error = %v", err)
	}
	if saved.Samples != 2 {
		t.Errorf("samples = %d, want 2", saved.Samples)
	}
}

func TestSeedDefault_FreshStore(t *testing.T) {
	s := openTestStore(t)

	if _, err := LoadModel(s); !errors.Is(err, ErrEmptyModel) {
		t.Fatalf("fresh store LoadModel() error = %v, want ErrEmptyModel", err)
	}

	n, err := SeedDefault(s)
	if err != nil {
		t.Fatalf("SeedDefault() error = %v", err)
	}
	if n != 6 {
		t.Fatalf("seeded %d templates, want 6", n)
	}

	c, err := LoadModel(s)
	if err != nil {
		t.Fatalf("LoadModel() after seeding error = %v", err)
	}

	var codes []Code
	for _, tmpl := range c.Templates() {
		codes = append(codes, tmpl.Code)
	}
	want := []Code{1, 2, 3, 5, 6, 8}
	if len(codes) != len(want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}

	got, err := c.Predict(detector.Features(detector.OpenPalmObservation()))
	if err != nil {
		t.Fatalf("Predict(open palm) error = %v", err)
	}
	if got != 5 {
		t.Errorf("Predict(open palm) = %d, want 5", got)
	}
}

func TestSeedDefault_KeepsExistingModel(t *testing.T) {
	s := openTestStore(t)

	trained, err := Train(strings.NewReader(datasetCSV(row(0.5, "3"))))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if err := Import(s, trained); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	n, err := SeedDefault(s)
	if err != nil {
		t.Fatalf("SeedDefault() error = %v", err)
	}
	if n != 0 {
		t.Errorf("seeded %d templates into a non-empty store", n)
	}

	c, err := LoadModel(s)
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want the single imported template", c.Len())
	}
}
