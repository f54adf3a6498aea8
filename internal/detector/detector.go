package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand-pose extraction implementations.
type Detector interface {
	// Detect analyzes a video frame and returns one Observation per hand.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]Observation, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand-pose extraction.
type Config struct {
	// MaxHands is the maximum number of hands to report (default: 1).
	MaxHands int

	// MinConfidence is the confidence below which a hand is not reported
	// and a joint is left out of the observation (0.0-1.0).
	MinConfidence float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      1,
		MinConfidence: 0.3,
	}
}
