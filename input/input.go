// Package input tracks the state of the game controls between frames.
package input

import (
	"fmt"
	"time"

	"blockfall/block"
)

var (
	ErrInvalidArgument  = block.ErrInvalidArgument
	ErrDuplicateControl = fmt.Errorf("%w: control repeated in one batch", ErrInvalidArgument)
	ErrUnknownControl   = fmt.Errorf("%w: unknown control", ErrInvalidArgument)
)

type Control uint8

const (
	Left Control = iota
	Right
	Up
	Down
	RotateLeft
	RotateRight
	Drop
	Select
	Pause
	numControls
)

var controlNames = [numControls]string{"left", "right", "up", "down", "rotate-left", "rotate-right", "drop", "select", "pause"}

func (c Control) String() string {
	if c < numControls {
		return controlNames[c]
	}
	return fmt.Sprintf("control(%d)", c)
}

// State of a control. The Just states last for one tick.
type State uint8

const (
	StillReleased State = iota
	JustPressed
	StillPressed
	JustReleased
)

// Down reports whether the control is held.
func (s State) Down() bool { return s == JustPressed || s == StillPressed }

func (s State) String() string {
	return [...]string{"still-released", "just-pressed", "still-pressed", "just-released"}[s&3]
}

// Event is a key going down (or being held) or coming up.
type Event struct {
	Control Control
	Pressed bool
}

func Press(c Control) Event   { return Event{Control: c, Pressed: true} }
func Release(c Control) Event { return Event{Control: c} }

// Controls is the state of every control.
type Controls struct {
	states [numControls]State
}

// Apply feeds one batch of events. A batch names each control at most once;
// a bad batch is rejected whole.
func (c *Controls) Apply(events ...Event) error {
	var seen [numControls]bool
	for _, e := range events {
		if e.Control >= numControls {
			return fmt.Errorf("%w: %d", ErrUnknownControl, e.Control)
		}
		if seen[e.Control] {
			return fmt.Errorf("%w: %v", ErrDuplicateControl, e.Control)
		}
		seen[e.Control] = true
	}
	for _, e := range events {
		s := &c.states[e.Control]
		switch {
		case e.Pressed && s.Down():
			*s = StillPressed
		case e.Pressed:
			*s = JustPressed
		case s.Down():
			*s = JustReleased
		default:
			*s = StillReleased
		}
	}
	return nil
}

// Tick degrades the Just states once the frame that saw them is over.
func (c *Controls) Tick() {
	for i, s := range c.states {
		switch s {
		case JustPressed:
			c.states[i] = StillPressed
		case JustReleased:
			c.states[i] = StillReleased
		}
	}
}

func (c *Controls) State(ctl Control) State {
	if ctl >= numControls {
		return StillReleased
	}
	return c.states[ctl]
}

func (c *Controls) Pressed(ctl Control) bool { return c.State(ctl) == JustPressed }
func (c *Controls) Held(ctl Control) bool    { return c.State(ctl).Down() }

// Reset releases every control.
func (c *Controls) Reset() { c.states = [numControls]State{} }

// Repeater turns a held control into repeated actions: one on press, then
// one every Interval once the control has been held for Delay.
type Repeater struct {
	Delay    time.Duration
	Interval time.Duration
	held     time.Duration
}

// Step returns how many times the action fires during a tick of dt.
func (r *Repeater) Step(s State, dt time.Duration) int {
	switch s {
	case JustPressed:
		r.held = 0
		return 1
	case StillPressed:
	default:
		r.held = 0
		return 0
	}
	r.held += dt
	if r.held < r.Delay || r.Interval <= 0 {
		return 0
	}
	n := 0
	for r.held >= r.Delay {
		r.held -= r.Interval
		n++
	}
	return n
}
