package app

import (
	"errors"
	"log"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

// readErrorBackoff is the pause after a failed camera read.
const readErrorBackoff = 10 * time.Millisecond

// logEvery bounds how often repeated per-frame errors are logged.
const logEvery = 100

// errorCounter counts one kind of repeated error and says when to log it.
type errorCounter struct {
	n atomic.Uint64
}

// add counts an error and reports whether it should be logged: the first
// and then every logEvery-th.
func (c *errorCounter) add() bool {
	return c.n.Add(1)%logEvery == 1
}

// input is one unit of work for the worker: a camera frame or an
// observation that was already extracted elsewhere.
type input struct {
	frame *gocv.Mat
	obs   detector.Observation
}

// offer hands in to the worker without waiting. A frame that is not taken
// is released and counted as late.
func (a *App) offer(in input) bool {
	select {
	case a.work <- in:
		return true
	default:
		if in.frame != nil {
			in.frame.Close()
		}
		a.late.Add(1)
		return false
	}
}

// runCapture reads frames at the device rate and offers each to the worker.
func (a *App) runCapture(stop <-chan struct{}) {
	defer a.wg.Done()

	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, err := a.config.Camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrCameraNotOpen) {
				return
			}
			if a.readErrors.add() {
				log.Printf("Error reading frame: %v", err)
			}
			time.Sleep(readErrorBackoff)
			continue
		}

		if p := a.config.Preview; p != nil {
			if err := p.Update(frame); err != nil && a.previewErrors.add() {
				log.Printf("Error encoding preview: %v", err)
			}
		}

		if !a.IsEnabled() {
			frame.Close()
			continue
		}
		a.offer(input{frame: frame})
	}
}

// runWorker processes one input at a time until stop is closed.
func (a *App) runWorker(stop <-chan struct{}) {
	defer a.wg.Done()

	for {
		select {
		case <-stop:
			return
		case in := <-a.work:
			a.frames.Add(1)
			a.process(in)
		}
	}
}

func (a *App) process(in input) {
	obs := in.obs
	if in.frame != nil {
		hands, err := a.config.Detector.Detect(in.frame)
		in.frame.Close()
		if err != nil {
			a.detectFailures.Add(1)
			a.logDrop("detect", err)
			return
		}
		if len(hands) == 0 {
			a.noHand.Add(1)
			return
		}
		obs = hands[0]
	}

	a.handle(obs)
}

// handle runs classification for one observation and posts the result to
// the render loop. The observation is only read.
func (a *App) handle(obs detector.Observation) {
	if rec := a.config.Recorder; rec != nil {
		flushed, err := rec.Add(obs)
		switch {
		case err != nil:
			log.Printf("Error writing dataset %s: %v", rec.Path(), err)
		case flushed:
			log.Printf("Wrote %d rows to %s", rec.Rows(), rec.Path())
		}
	}

	code, err := a.config.Classifier.Predict(detector.Features(obs))
	if err != nil {
		a.predictFailures.Add(1)
		a.logDrop("predict", err)
		return
	}

	anchor := a.config.Viewport.Project(obs.Point(detector.Wrist))
	a.classified.Add(1)
	a.config.Loop.Post(func() {
		a.gate.Trigger(anchor, code)
	})
}

func (a *App) logDrop(stage string, err error) {
	if a.config.LogDrops {
		log.Printf("Dropped frame at %s: %v", stage, err)
	}
}
