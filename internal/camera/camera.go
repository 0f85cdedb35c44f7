// Package camera implements the orbit camera: a position orbiting a fixed
// target, nudged by discrete yaw, pitch and zoom steps.
package camera

import (
	"math"

	"bike-viewer/internal/mathutil"
)

const (
	DefaultFOV         = 45.0 // vertical, degrees
	DefaultMinDistance = 1.0
	DefaultMaxDistance = 20.0

	// poleMargin keeps pitch from flipping over the vertical axis.
	poleMargin = 0.01
)

// Camera orbits Target. Target is always the origin in the viewer but is
// kept explicit so the view basis does not assume it.
type Camera struct {
	Position    mathutil.Vec3 `json:"position"`
	Target      mathutil.Vec3 `json:"target"`
	FOV         float64       `json:"fov"`
	MinDistance float64       `json:"min_distance"`
	MaxDistance float64       `json:"max_distance"`
}

// New returns a camera at position looking at the origin.
func New(position mathutil.Vec3) *Camera {
	return &Camera{
		Position:    position,
		Target:      mathutil.Origin,
		FOV:         DefaultFOV,
		MinDistance: DefaultMinDistance,
		MaxDistance: DefaultMaxDistance,
	}
}

// Distance is the current orbit radius.
func (c *Camera) Distance() float64 {
	return c.Position.Sub(c.Target).Len()
}

// SetLimits updates the orbit distance limits. Non-positive or inverted
// limits are ignored.
func (c *Camera) SetLimits(min, max float64) {
	if min <= 0 || max < min {
		return
	}
	c.MinDistance = min
	c.MaxDistance = max
}

// Reset moves the camera to position and re-aims it at the target.
func (c *Camera) Reset(position mathutil.Vec3) {
	c.Position = position
}

// Yaw rotates the camera around the vertical axis through the target.
func (c *Camera) Yaw(angle float64) {
	rel := c.Position.Sub(c.Target)
	c.Position = mathutil.RotY(angle).MulVec3(rel).Add(c.Target)
}

// Pitch rotates the position vector through a quaternion around the
// horizontal axis perpendicular to the view direction. Positive angles raise
// the camera. Steps that would pass over a pole are refused and reported false.
func (c *Camera) Pitch(angle float64) bool {
	rel := c.Position.Sub(c.Target)
	axis := rel.Cross(mathutil.WorldUp)
	if axis.Len() < 1e-9 {
		return false
	}

	next := mathutil.QuatFromAxisAngle(axis, angle).Rotate(rel)
	polar := mathutil.AngleBetween(next, mathutil.WorldUp)
	if polar < poleMargin || polar > math.Pi-poleMargin {
		return false
	}
	c.Position = next.Add(c.Target)
	return true
}

// Zoom scales the distance to the target by factor (< 1 moves closer),
// clamped to the orbit limits.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	rel := c.Position.Sub(c.Target)
	d := rel.Len()
	if d < 1e-12 {
		return
	}
	nd := d * factor
	if nd < c.MinDistance {
		nd = c.MinDistance
	}
	if nd > c.MaxDistance {
		nd = c.MaxDistance
	}
	c.Position = rel.Scale(nd / d).Add(c.Target)
}

// Basis returns the right, up and forward unit vectors of the view.
func (c *Camera) Basis() (right, up, forward mathutil.Vec3) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(mathutil.WorldUp).Normalize()
	if right == (mathutil.Vec3{}) {
		// Looking straight up or down; any horizontal right vector will do.
		right = mathutil.Vec3{1, 0, 0}
	}
	up = right.Cross(forward)
	return right, up, forward
}

// View returns the world-to-camera rotation; rows are right, up, forward.
func (c *Camera) View() mathutil.Mat3 {
	r, u, f := c.Basis()
	return mathutil.Rows(r, u, f)
}
