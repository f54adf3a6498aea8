package overlay

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/gesture"
)

// State is the animation gate state.
type State int

const (
	// Idle means no animation is running and the next trigger may start one.
	Idle State = iota
	// Animating means a sequence is in flight and triggers are dropped.
	Animating
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Animating:
		return "animating"
	default:
		return "unknown"
	}
}

// Phase is one step of the animation sequence.
type Phase int

const (
	// PhaseGrow grows the badge to full size.
	PhaseGrow Phase = iota
	// PhaseFlyAway shrinks the icon and moves it off the top of the frame.
	PhaseFlyAway
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseGrow:
		return "grow"
	case PhaseFlyAway:
		return "fly_away"
	default:
		return "unknown"
	}
}

// Session describes one animation from start to completion.
type Session struct {
	ID     uuid.UUID    `json:"id"`
	Code   gesture.Code `json:"code"`
	Asset  string       `json:"asset"`
	Anchor Point        `json:"anchor"`
}

// Renderer applies visual changes. Every call is made on the render loop.
type Renderer interface {
	// Clear removes the icon left by the previous session.
	Clear()
	// Place shows the session's icon with the given frame.
	Place(s Session, frame Rect)
	// Transition animates the icon to frame over d.
	Transition(s Session, phase Phase, frame Rect, d time.Duration)
}

// NopRenderer discards all visual changes.
type NopRenderer struct{}

func (NopRenderer) Clear()                                         {}
func (NopRenderer) Place(Session, Rect)                            {}
func (NopRenderer) Transition(Session, Phase, Rect, time.Duration) {}

// GateStats counts how triggers were handled.
type GateStats struct {
	Started     int `json:"started"`
	Completed   int `json:"completed"`
	Dropped     int `json:"dropped"`     // arrived while animating
	Unsupported int `json:"unsupported"` // no icon for the code
}

// Gate is the single-flight animation state machine. At most one session
// runs at a time and it always runs to completion.
//
// Gate is not safe for concurrent use; it is owned by the render loop.
type Gate struct {
	renderer Renderer
	clock    Clock
	duration time.Duration

	state   State
	current *Session
	stats   GateStats

	onChange func(State, *Session)
}

// NewGate creates an idle gate. A nil renderer discards visual changes.
func NewGate(renderer Renderer, clock Clock) *Gate {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Gate{
		renderer: renderer,
		clock:    clock,
		duration: PhaseDuration,
		state:    Idle,
	}
}

// SetPhaseDuration overrides the length of each phase.
// Values less than or equal to 0 are ignored.
func (g *Gate) SetPhaseDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	g.duration = d
}

// OnStateChange registers fn to be called, on the render loop, after every
// transition. The session is nil when the gate becomes idle.
func (g *Gate) OnStateChange(fn func(State, *Session)) {
	g.onChange = fn
}

// State returns the current state.
func (g *Gate) State() State {
	return g.state
}

// Current returns the running session, or nil when idle.
func (g *Gate) Current() *Session {
	if g.current == nil {
		return nil
	}
	s := *g.current
	return &s
}

// Stats returns trigger counters.
func (g *Gate) Stats() GateStats {
	return g.stats
}

// Trigger starts an animation for code anchored at anchor. It reports
// whether a session started; triggers while animating and unsupported codes
// are no-ops.
func (g *Gate) Trigger(anchor Point, code gesture.Code) bool {
	if g.state == Animating {
		g.stats.Dropped++
		return false
	}

	asset, ok := AssetFor(code)
	if !ok {
		g.stats.Unsupported++
		return false
	}

	s := Session{
		ID:     uuid.New(),
		Code:   code,
		Asset:  asset,
		Anchor: anchor,
	}

	g.state = Animating
	g.current = &s
	g.stats.Started++

	g.renderer.Clear()
	g.renderer.Place(s, badgeFrame(anchor))
	g.notify()

	g.run(s, PhaseGrow)
	return true
}

// run starts phase and schedules the step that follows it.
func (g *Gate) run(s Session, phase Phase) {
	var frame Rect
	switch phase {
	case PhaseGrow:
		frame = grownFrame(s.Anchor)
	case PhaseFlyAway:
		frame = exitFrame(s.Anchor)
	}

	g.renderer.Transition(s, phase, frame, g.duration)
	g.clock.AfterFunc(g.duration, func() { g.phaseDone(s, phase) })
}

func (g *Gate) phaseDone(s Session, phase Phase) {
	if g.current == nil || g.current.ID != s.ID {
		return
	}

	if phase == PhaseGrow {
		g.run(s, PhaseFlyAway)
		return
	}

	g.state = Idle
	g.current = nil
	g.stats.Completed++
	g.notify()
}

func (g *Gate) notify() {
	if g.onChange != nil {
		g.onChange(g.state, g.Current())
	}
}
