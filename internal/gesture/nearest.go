package gesture

import (
	"math"
	"sort"

	"github.com/ayusman/mudra/internal/detector"
)

// Template is the centroid of one gesture class.
type Template struct {
	Code      Code                   // Class predicted when this template wins
	Name      string                 // Human-readable name
	Centroid  detector.FeatureVector // Mean feature vector of the class
	Tolerance float64                // Maximum distance for a prediction
}

// Match is the distance between an input and one template.
type Match struct {
	Template *Template
	Distance float64
}

// NearestClassifier predicts the class of the nearest template centroid.
// It is built once at startup and read-only afterwards.
type NearestClassifier struct {
	templates []*Template
}

// NewNearestClassifier creates a classifier over the given templates.
// Nil templates are skipped.
func NewNearestClassifier(templates ...*Template) *NearestClassifier {
	c := &NearestClassifier{templates: make([]*Template, 0, len(templates))}
	for _, t := range templates {
		if t != nil {
			c.templates = append(c.templates, t)
		}
	}
	return c
}

// Len returns the number of templates.
func (c *NearestClassifier) Len() int {
	return len(c.templates)
}

// Templates returns the templates in insertion order.
func (c *NearestClassifier) Templates() []*Template {
	return append([]*Template(nil), c.templates...)
}

// Rank returns the distance to every template, nearest first.
func (c *NearestClassifier) Rank(features detector.FeatureVector) []Match {
	matches := make([]Match, 0, len(c.templates))
	for _, t := range c.templates {
		matches = append(matches, Match{
			Template: t,
			Distance: euclideanDistance(features, t.Centroid),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	return matches
}

// Predict returns the code of the nearest template. It fails when there are
// no templates, the input is not finite, or the nearest template is farther
// than its tolerance.
func (c *NearestClassifier) Predict(features detector.FeatureVector) (Code, error) {
	if len(c.templates) == 0 {
		return 0, predictionError("model has no templates")
	}

	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, predictionError("feature %d is not finite", i)
		}
	}

	best := c.Rank(features)[0]
	if best.Distance > best.Template.Tolerance {
		return 0, predictionError("nearest class %d at distance %.3f exceeds tolerance %.3f",
			best.Template.Code, best.Distance, best.Template.Tolerance)
	}

	return best.Template.Code, nil
}

// euclideanDistance is the L2 distance between two feature vectors.
func euclideanDistance(a, b detector.FeatureVector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
