package capture

import (
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Preview keeps the most recent frame as JPEG for live viewers. Frames are
// only encoded while at least one viewer is attached.
type Preview struct {
	viewers atomic.Int32

	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	changed chan struct{}
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{changed: make(chan struct{})}
}

// Attach registers a viewer. The returned func detaches it.
func (p *Preview) Attach() func() {
	p.viewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { p.viewers.Add(-1) })
	}
}

// Active reports whether any viewer is attached.
func (p *Preview) Active() bool {
	return p.viewers.Load() > 0
}

// Update encodes frame when a viewer is attached. frame is not retained.
func (p *Preview) Update(frame *gocv.Mat) error {
	if !p.Active() {
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return err
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.Set(data)
	return nil
}

// Set publishes an already encoded JPEG.
func (p *Preview) Set(jpeg []byte) {
	p.mu.Lock()
	p.jpeg = jpeg
	p.seq++
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()
}

// Latest returns the current JPEG, its sequence number, and a channel that
// is closed when a newer frame is published. The JPEG must not be modified.
func (p *Preview) Latest() ([]byte, uint64, <-chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.seq, p.changed
}
