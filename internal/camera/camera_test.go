package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-viewer/internal/mathutil"
)

const step = math.Pi / 12

func TestZoomInverse(t *testing.T) {
	c := New(mathutil.Vec3{3, 1.5, 3})
	c.SetLimits(2, 10)
	before := c.Distance()

	c.Zoom(0.9)
	assert.Less(t, c.Distance(), before)
	c.Zoom(1 / 0.9)

	assert.InDelta(t, before, c.Distance(), before*0.001)
	assert.True(t, c.Position.ApproxEqual(mathutil.Vec3{3, 1.5, 3}, 1e-9))
}

func TestZoomClampsToLimits(t *testing.T) {
	c := New(mathutil.Vec3{0, 0, 5})
	c.SetLimits(4, 6)

	for i := 0; i < 10; i++ {
		c.Zoom(0.5)
	}
	assert.InDelta(t, 4, c.Distance(), 1e-9)

	for i := 0; i < 10; i++ {
		c.Zoom(2)
	}
	assert.InDelta(t, 6, c.Distance(), 1e-9)

	c.Zoom(0)
	assert.InDelta(t, 6, c.Distance(), 1e-9)
}

func TestYawFullTurn(t *testing.T) {
	start := mathutil.Vec3{4, 2, 4}
	c := New(start)
	for i := 0; i < 24; i++ {
		c.Yaw(step)
	}
	assert.True(t, c.Position.ApproxEqual(start, 1e-9), "got %v", c.Position)
}

func TestYawLeftRightCancel(t *testing.T) {
	start := mathutil.Vec3{2.5, 1.2, 3.5}
	c := New(start)
	for i := 0; i < 7; i++ {
		c.Yaw(step)
	}
	assert.False(t, c.Position.ApproxEqual(start, 1e-3))
	for i := 0; i < 7; i++ {
		c.Yaw(-step)
	}
	assert.True(t, c.Position.ApproxEqual(start, 1e-9))
	assert.InDelta(t, start[1], c.Position[1], 1e-12, "yaw keeps height")
}

func TestPitchRaisesAndKeepsDistance(t *testing.T) {
	c := New(mathutil.Vec3{0, 0, 5})
	require.True(t, c.Pitch(step))

	assert.Greater(t, c.Position[1], 0.0)
	assert.InDelta(t, 5, c.Distance(), 1e-9)
	assert.InDelta(t, 0, c.Position[0], 1e-9, "stays in the vertical plane")

	require.True(t, c.Pitch(-step))
	assert.True(t, c.Position.ApproxEqual(mathutil.Vec3{0, 0, 5}, 1e-9))
}

func TestPitchStopsAtPole(t *testing.T) {
	c := New(mathutil.Vec3{0, 0, 5})
	moved := 0
	for i := 0; i < 30; i++ {
		if c.Pitch(step) {
			moved++
		}
	}
	assert.Less(t, moved, 30)
	polar := mathutil.AngleBetween(c.Position, mathutil.WorldUp)
	assert.Greater(t, polar, poleMargin)
}

func TestBasisOrthonormal(t *testing.T) {
	c := New(mathutil.Vec3{3, 2, -1})
	r, u, f := c.Basis()

	assert.InDelta(t, 1, r.Len(), 1e-9)
	assert.InDelta(t, 1, u.Len(), 1e-9)
	assert.InDelta(t, 0, r.Dot(u), 1e-9)
	assert.InDelta(t, 0, r.Dot(f), 1e-9)
	assert.Greater(t, u[1], 0.0)

	// The target projects onto the forward axis.
	rel := c.View().MulVec3(c.Target.Sub(c.Position))
	assert.InDelta(t, c.Distance(), rel[2], 1e-9)
}

func TestSetLimitsRejectsNonsense(t *testing.T) {
	c := New(mathutil.Vec3{0, 0, 5})
	c.SetLimits(3, 1)
	assert.Equal(t, DefaultMinDistance, c.MinDistance)
	c.SetLimits(0, 1)
	assert.Equal(t, DefaultMaxDistance, c.MaxDistance)
	c.SetLimits(1.5, 8)
	assert.Equal(t, 1.5, c.MinDistance)
	assert.Equal(t, 8.0, c.MaxDistance)
}
