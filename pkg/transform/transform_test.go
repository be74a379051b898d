package transform

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/photo-frame/pkg/geometry"
	"github.com/menta2k/photo-frame/pkg/types"
)

func TestNewMachineDefaults(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, Transform{Scale: 1}, m.Transform())
	assert.Equal(t, Idle, m.State())
}

func TestResetAlwaysYieldsDefault(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 200; i++ {
		m := NewMachine().
			SetScale(rng.Float64()*4 - 1).
			SetRotation(rng.Float64()*720 - 360).
			PointerDown(geometry.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}).
			PointerMove(geometry.Point{X: rng.Float64()*1000 - 500, Y: rng.Float64()*1000 - 500})
		if rng.Intn(2) == 0 {
			m = m.PointerUp()
		}

		assert.Equal(t, Default(), m.Reset().Transform())
	}
}

func TestNoOpDragLeavesTransformUnchanged(t *testing.T) {
	m := NewMachine().SetScale(1.5).SetRotation(30)
	m = m.PointerDown(geometry.Point{X: 10, Y: 10}).PointerMove(geometry.Point{X: 40, Y: -5}).PointerUp()
	before := m.Transform()

	p := geometry.Point{X: 12.5, Y: -3}
	after := m.PointerDown(p).PointerMove(p).PointerUp()
	assert.Equal(t, before, after.Transform())
	assert.Equal(t, before, m.PointerDown(p).PointerUp().Transform())
}

func TestDragFollowsPointer(t *testing.T) {
	m := NewMachine().PointerDown(geometry.Point{X: 5, Y: 5})
	require.Equal(t, Dragging, m.State())

	m = m.PointerMove(geometry.Point{X: 305, Y: -195})
	assert.Equal(t, 300.0, m.Transform().TranslateX)
	assert.Equal(t, -200.0, m.Transform().TranslateY)

	m = m.PointerLeave()
	assert.Equal(t, Idle, m.State())

	moved := m.PointerMove(geometry.Point{X: 0, Y: 0})
	assert.Equal(t, m.Transform(), moved.Transform(), "moves while idle are ignored")
}

func TestMachineIsAValue(t *testing.T) {
	m := NewMachine()
	_ = m.SetScale(2).PointerDown(geometry.Point{X: 1, Y: 1})

	assert.Equal(t, Default(), m.Transform())
	assert.Equal(t, Idle, m.State())
}

func TestSlidersClamp(t *testing.T) {
	tests := []struct {
		name      string
		scale     float64
		rotation  float64
		wantScale float64
		wantRot   float64
	}{
		{"in range", 1.2, 45, 1.2, 45},
		{"below", 0.1, -500, MinScale, MinRotation},
		{"above", 9, 181, MaxScale, MaxRotation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMachine().SetScale(tt.scale).SetRotation(tt.rotation).Transform()
			assert.Equal(t, tt.wantScale, got.Scale)
			assert.Equal(t, tt.wantRot, got.RotationDegrees)
		})
	}
}

func TestResetDuringDragContinuesFromOrigin(t *testing.T) {
	m := NewMachine().PointerDown(geometry.Point{X: 0, Y: 0}).PointerMove(geometry.Point{X: 50, Y: 50})
	m = m.Reset()
	assert.Equal(t, Default(), m.Transform())

	m = m.PointerMove(geometry.Point{X: 60, Y: 45})
	assert.InDelta(t, 10, m.Transform().TranslateX, 1e-9)
	assert.InDelta(t, -5, m.Transform().TranslateY, 1e-9)
}

func TestApplyRotatesBeforeTranslating(t *testing.T) {
	tr := Transform{TranslateX: 30, Scale: 2, RotationDegrees: 90}

	// (10, 0) rotates to (0, 10), scales to (0, 20), then shifts right.
	got := tr.Apply(geometry.Point{X: 10, Y: 0})
	assert.InDelta(t, 30, got.X, 1e-9)
	assert.InDelta(t, 20, got.Y, 1e-9)
}

func TestFitSubject(t *testing.T) {
	got := FitSubject(types.Box{X: 0.5, Y: 0.25, W: 0.4, H: 0.2}, 200, 100)
	assert.InDelta(t, 2.0, got.Scale, 1e-9)
	// Subject center (0.7, 0.35) sits at (40, -15) before placement.
	assert.InDelta(t, -80, got.TranslateX, 1e-9)
	assert.InDelta(t, 30, got.TranslateY, 1e-9)

	center := got.Apply(geometry.Point{X: 40, Y: -15})
	assert.InDelta(t, 0, center.X, 1e-9)
	assert.InDelta(t, 0, center.Y, 1e-9)

	assert.Equal(t, Default(), FitSubject(types.Box{}, 200, 100))
}
