package transform

import (
	"math"

	"github.com/menta2k/photo-frame/pkg/geometry"
)

// State is the interaction state of a Machine.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Machine drives a Transform from pointer input and slider values.
//
// Machine is a value: every method returns the next Machine and leaves the
// receiver untouched. It is not safe for concurrent use. SetScale,
// SetRotation and Reset must run on the same goroutine that delivers pointer
// events, or be serialized with it by the caller.
type Machine struct {
	transform Transform
	state     State
	offset    geometry.Point
}

// NewMachine returns an idle machine holding the default transform.
func NewMachine() Machine {
	return Machine{transform: Default()}
}

// Transform returns the current transform.
func (m Machine) Transform() Transform { return m.transform }

// State returns the current interaction state.
func (m Machine) State() State { return m.state }

// PointerDown starts a drag at p (local space), remembering the pointer's
// offset from the current translation.
func (m Machine) PointerDown(p geometry.Point) Machine {
	m.state = Dragging
	m.offset = p.Sub(m.transform.Translate())
	return m
}

// PointerMove moves the photo so the grabbed point follows p. It is a no-op
// unless a drag is in progress. Translation is unbounded: the clip, not the
// transform, decides what stays visible.
func (m Machine) PointerMove(p geometry.Point) Machine {
	if m.state != Dragging {
		return m
	}
	next := p.Sub(m.offset)
	m.transform.TranslateX = next.X
	m.transform.TranslateY = next.Y
	return m
}

// PointerUp ends a drag.
func (m Machine) PointerUp() Machine {
	m.state = Idle
	m.offset = geometry.Point{}
	return m
}

// PointerLeave ends a drag when the pointer leaves the surface.
func (m Machine) PointerLeave() Machine {
	return m.PointerUp()
}

// SetScale sets the uniform scale, clamped to [MinScale, MaxScale].
func (m Machine) SetScale(v float64) Machine {
	if math.IsNaN(v) {
		return m
	}
	m.transform.Scale = clamp(v, MinScale, MaxScale)
	return m
}

// SetRotation sets the rotation in degrees, clamped to [MinRotation, MaxRotation].
func (m Machine) SetRotation(deg float64) Machine {
	if math.IsNaN(deg) {
		return m
	}
	m.transform.RotationDegrees = clamp(deg, MinRotation, MaxRotation)
	return m
}

// SetTransform replaces the whole transform, applying the same limits as
// the individual setters.
func (m Machine) SetTransform(t Transform) Machine {
	m.transform.TranslateX = t.TranslateX
	m.transform.TranslateY = t.TranslateY
	return m.SetScale(t.Scale).SetRotation(t.RotationDegrees)
}

// Reset restores the default transform. A drag in progress is kept so that
// the next move continues from the reset position.
func (m Machine) Reset() Machine {
	if m.state == Dragging {
		grab := m.offset.Add(m.transform.Translate())
		m.transform = Default()
		m.offset = grab
		return m
	}
	m.transform = Default()
	return m
}
