package gesture

import (
	"sync"

	"github.com/ayusman/mudra/internal/detector"
)

// MockClassifier returns a configured code or error and records its inputs.
type MockClassifier struct {
	mu     sync.Mutex
	code   Code
	err    error
	inputs []detector.FeatureVector
}

// NewMockClassifier creates a MockClassifier that predicts code.
func NewMockClassifier(code Code) *MockClassifier {
	return &MockClassifier{code: code}
}

// SetCode changes the predicted code.
func (m *MockClassifier) SetCode(code Code) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.code = code
}

// SetError makes Predict fail with err wrapped in ErrPredictionFailed.
// A nil err restores successful predictions.
func (m *MockClassifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Inputs returns the feature vectors seen so far.
func (m *MockClassifier) Inputs() []detector.FeatureVector {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]detector.FeatureVector(nil), m.inputs...)
}

// Predict implements Classifier.
func (m *MockClassifier) Predict(features detector.FeatureVector) (Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, features)
	if m.err != nil {
		return 0, predictionError("%v", m.err)
	}
	return m.code, nil
}
