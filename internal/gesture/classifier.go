// Package gesture provides the classifier boundary that maps a feature
// vector to a gesture code.
package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// Code identifies a trained hand-pose class.
type Code int

// ErrPredictionFailed wraps every error returned by Classifier.Predict.
// A failed prediction drops the frame; it is never fatal.
var ErrPredictionFailed = errors.New("prediction failed")

// Classifier maps a feature vector to a gesture code.
type Classifier interface {
	Predict(features detector.FeatureVector) (Code, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(features detector.FeatureVector) (Code, error)

// Predict calls f(features).
func (f ClassifierFunc) Predict(features detector.FeatureVector) (Code, error) {
	return f(features)
}

func predictionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPredictionFailed, fmt.Sprintf(format, args...))
}
