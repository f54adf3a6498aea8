package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []Observation
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// ThumbsUpObservation returns a complete observation of a thumbs up pose.
// Y grows upward, so the extended thumb has the largest Y values.
func ThumbsUpObservation() Observation {
	return Observation{
		Wrist: {X: 0.50, Y: 0.20},

		ThumbCMC: {X: 0.55, Y: 0.25},
		ThumbMP:  {X: 0.58, Y: 0.35},
		ThumbIP:  {X: 0.58, Y: 0.50},
		ThumbTip: {X: 0.58, Y: 0.65},

		IndexMCP: {X: 0.55, Y: 0.30},
		IndexPIP: {X: 0.55, Y: 0.32},
		IndexDIP: {X: 0.52, Y: 0.30},
		IndexTip: {X: 0.50, Y: 0.28},

		MiddleMCP: {X: 0.50, Y: 0.32},
		MiddlePIP: {X: 0.50, Y: 0.34},
		MiddleDIP: {X: 0.47, Y: 0.32},
		MiddleTip: {X: 0.45, Y: 0.30},

		RingMCP: {X: 0.45, Y: 0.30},
		RingPIP: {X: 0.45, Y: 0.32},
		RingDIP: {X: 0.42, Y: 0.30},
		RingTip: {X: 0.40, Y: 0.28},

		LittleMCP: {X: 0.40, Y: 0.28},
		LittlePIP: {X: 0.40, Y: 0.30},
		LittleDIP: {X: 0.37, Y: 0.28},
		LittleTip: {X: 0.35, Y: 0.26},
	}
}

// OpenPalmObservation returns a complete observation of an open palm with
// all fingers extended.
func OpenPalmObservation() Observation {
	return Observation{
		Wrist: {X: 0.50, Y: 0.20},

		ThumbCMC: {X: 0.55, Y: 0.25},
		ThumbMP:  {X: 0.62, Y: 0.30},
		ThumbIP:  {X: 0.68, Y: 0.35},
		ThumbTip: {X: 0.73, Y: 0.40},

		IndexMCP: {X: 0.55, Y: 0.32},
		IndexPIP: {X: 0.57, Y: 0.45},
		IndexDIP: {X: 0.58, Y: 0.55},
		IndexTip: {X: 0.58, Y: 0.65},

		MiddleMCP: {X: 0.50, Y: 0.34},
		MiddlePIP: {X: 0.50, Y: 0.48},
		MiddleDIP: {X: 0.50, Y: 0.60},
		MiddleTip: {X: 0.50, Y: 0.72},

		RingMCP: {X: 0.45, Y: 0.32},
		RingPIP: {X: 0.43, Y: 0.45},
		RingDIP: {X: 0.42, Y: 0.55},
		RingTip: {X: 0.42, Y: 0.65},

		LittleMCP: {X: 0.40, Y: 0.30},
		LittlePIP: {X: 0.37, Y: 0.40},
		LittleDIP: {X: 0.35, Y: 0.50},
		LittleTip: {X: 0.34, Y: 0.58},
	}
}
