// Package app wires capture, landmark extraction, classification, and the
// overlay gate into the running recognizer.
package app

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/dataset"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/overlay"
)

// ErrNoLoop is returned by New when no render loop is configured.
var ErrNoLoop = errors.New("app: render loop is required")

// Config holds the collaborators of the pipeline.
type Config struct {
	Camera     capture.Camera     // nil when frames arrive only through ProcessObservation
	Detector   detector.Detector  // required when Camera is set
	Classifier gesture.Classifier // required
	Recorder   *dataset.Recorder  // optional dataset export
	Preview    *capture.Preview   // optional live preview of camera frames
	Renderer   overlay.Renderer   // nil discards visual output
	Loop       *overlay.Loop      // required; the caller runs it
	Clock      overlay.Clock      // defaults to a LoopClock on Loop
	Viewport   overlay.Viewport
	LogDrops   bool // log frames dropped by detection or prediction
}

// Stats counts what happened to frames.
type Stats struct {
	Frames          uint64 `json:"frames"`           // handed to the worker
	Late            uint64 `json:"late"`             // dropped because the worker was busy
	NoHand          uint64 `json:"no_hand"`          // no hand in the frame
	DetectFailures  uint64 `json:"detect_failures"`  // landmark extraction failed
	PredictFailures uint64 `json:"predict_failures"` // classifier failed
	Classified      uint64 `json:"classified"`       // results posted to the gate
	ReadErrors      uint64 `json:"read_errors"`      // camera reads that failed
	PreviewErrors   uint64 `json:"preview_errors"`   // preview frames that failed to encode
}

// Snapshot is the gate state as last published by the render loop.
type Snapshot struct {
	State   overlay.State     `json:"-"`
	Current *overlay.Session  `json:"current,omitempty"`
	Last    *overlay.Session  `json:"last,omitempty"`
	Gate    overlay.GateStats `json:"gate"`
}

// App is the running recognizer.
type App struct {
	config Config
	gate   *overlay.Gate

	enabled atomic.Bool
	work    chan input

	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup

	snapMu    sync.RWMutex
	snapshot  Snapshot
	listeners []func(Snapshot)

	frames          atomic.Uint64
	late            atomic.Uint64
	noHand          atomic.Uint64
	detectFailures  atomic.Uint64
	predictFailures atomic.Uint64
	classified      atomic.Uint64

	readErrors    errorCounter
	previewErrors errorCounter
}

// New creates a stopped, enabled App.
func New(config Config) (*App, error) {
	if config.Loop == nil {
		return nil, ErrNoLoop
	}
	if config.Classifier == nil {
		return nil, errors.New("app: classifier is required")
	}
	if config.Camera != nil && config.Detector == nil {
		return nil, errors.New("app: detector is required with a camera")
	}
	if config.Clock == nil {
		config.Clock = overlay.LoopClock{Loop: config.Loop}
	}

	a := &App{
		config: config,
		gate:   overlay.NewGate(config.Renderer, config.Clock),
		work:   make(chan input),
	}
	a.enabled.Store(true)
	a.gate.OnStateChange(a.publish)
	return a, nil
}

// SetEnabled pauses or resumes recognition. Frames read while disabled are
// discarded before detection.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

// IsEnabled reports whether recognition is running.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Gate returns the animation gate. It must only be used from the render loop.
func (a *App) Gate() *overlay.Gate {
	return a.gate
}

// Subscribe registers fn to receive every gate snapshot.
// fn runs on the render loop and must not block.
func (a *App) Subscribe(fn func(Snapshot)) {
	a.snapMu.Lock()
	defer a.snapMu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Snapshot returns the latest gate state. Safe from any goroutine.
func (a *App) Snapshot() Snapshot {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	return a.snapshot
}

// Stats returns the pipeline counters.
func (a *App) Stats() Stats {
	return Stats{
		Frames:          a.frames.Load(),
		Late:            a.late.Load(),
		NoHand:          a.noHand.Load(),
		DetectFailures:  a.detectFailures.Load(),
		PredictFailures: a.predictFailures.Load(),
		Classified:      a.classified.Load(),
		ReadErrors:      a.readErrors.n.Load(),
		PreviewErrors:   a.previewErrors.n.Load(),
	}
}

// Start opens the camera and starts the worker and the capture loop.
// Starting a running App is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if a.config.Camera != nil {
		if err := a.config.Camera.Open(); err != nil {
			return err
		}
	}

	a.stopCh = make(chan struct{})

	a.wg.Add(1)
	go a.runWorker(a.stopCh)

	if a.config.Camera != nil {
		a.wg.Add(1)
		go a.runCapture(a.stopCh)
	}

	log.Println("Recognition pipeline started")
	return nil
}

// Stop halts the pipeline and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh == nil {
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.wg.Wait()

	if a.config.Camera != nil {
		if err := a.config.Camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
	}
	if a.config.Detector != nil {
		if err := a.config.Detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Recognition pipeline stopped")
}

// ProcessObservation hands an already extracted observation to the worker.
// Like camera frames, it is dropped when the worker is busy or the App is
// disabled or stopped; the result reports whether it was accepted.
func (a *App) ProcessObservation(obs detector.Observation) bool {
	if !a.IsEnabled() {
		return false
	}
	return a.offer(input{obs: obs})
}

// publish runs on the render loop after every gate transition.
func (a *App) publish(state overlay.State, current *overlay.Session) {
	a.snapMu.Lock()
	a.snapshot.State = state
	a.snapshot.Current = current
	if current != nil {
		a.snapshot.Last = current
	}
	a.snapshot.Gate = a.gate.Stats()
	snap := a.snapshot
	listeners := a.listeners
	a.snapMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
