package mathutil

import "math"

var (
	// Origin is the orbit target of every viewer camera.
	Origin = Vec3{0, 0, 0}

	// WorldUp is +Y, the glTF up axis.
	WorldUp = Vec3{0, 1, 0}
)

// AngleBetween returns the angle in radians between a and b (0..π).
func AngleBetween(a, b Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la < 1e-12 || lb < 1e-12 {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}
