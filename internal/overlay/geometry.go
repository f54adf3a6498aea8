// Package overlay drives the animated gesture icon: the asset lookup, the
// single-flight animation gate, and the render loop every visual mutation
// runs on.
package overlay

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// Overlay geometry in layer points.
const (
	BadgeSize = 30.0  // Size of the icon when it is placed
	FullSize  = 150.0 // Size at the end of the grow phase
	ExitScale = 0.1   // Scale applied during the fly-away phase
	ExitY     = -30.0 // Centre Y the icon flies to, above the frame
)

// PhaseDuration is the length of each animation phase.
const PhaseDuration = 500 * time.Millisecond

// Point is a position in layer coordinates, origin at the top left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a frame in layer coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the centre point of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Viewport converts normalized observation coordinates to layer points.
// Observations measure y from the bottom of the image and the layer measures
// it from the top, so y is flipped.
type Viewport struct {
	Width  float64
	Height float64
}

// Project maps a normalized point into the viewport.
func (v Viewport) Project(p detector.Point) Point {
	return Point{
		X: p.X * v.Width,
		Y: (1 - p.Y) * v.Height,
	}
}

// badgeFrame is the frame the icon is placed with: a small square whose
// origin is the anchor.
func badgeFrame(anchor Point) Rect {
	return Rect{X: anchor.X, Y: anchor.Y, W: BadgeSize, H: BadgeSize}
}

// grownFrame keeps the origin and grows the icon to full size.
func grownFrame(anchor Point) Rect {
	return Rect{X: anchor.X, Y: anchor.Y, W: FullSize, H: FullSize}
}

// exitFrame shrinks the grown icon and centres it above the frame,
// horizontally in line with the anchor.
func exitFrame(anchor Point) Rect {
	size := FullSize * ExitScale
	return Rect{
		X: anchor.X - size/2,
		Y: ExitY - size/2,
		W: size,
		H: size,
	}
}
