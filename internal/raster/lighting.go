package raster

import (
	"math"

	"bike-viewer/internal/mathutil"
)

// LightConfig is one lighting rig. Directions are in camera space
// (x right, y up, z forward) so the rig follows the orbiting camera.
type LightConfig struct {
	Name     string
	LightDir mathutil.Vec3
	RimDir   mathutil.Vec3
	ViewDir  mathutil.Vec3
	HalfMain mathutil.Vec3 // precomputed half-vector for Blinn-Phong
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	SpecInt  float64
	SpecPow  float64
}

// Lighting is the set of rigs lighting a frame plus the tone-mapping
// settings. Rig contributions add up.
type Lighting struct {
	Rigs     []LightConfig
	Exposure float64
	InvGamma float64
}

func newRig(name string, light, rim mathutil.Vec3) LightConfig {
	lightDir := light.Normalize()
	viewDir := mathutil.Vec3{0, 0, 1}
	return LightConfig{
		Name:     name,
		LightDir: lightDir,
		RimDir:   rim.Normalize(),
		ViewDir:  viewDir,
		HalfMain: lightDir.Sub(viewDir).Normalize(),
	}
}

// KeyLightConfig is the main studio light, up and to the right of the camera.
func KeyLightConfig() LightConfig {
	lc := newRig("key", mathutil.Vec3{180, 260, -140}, mathutil.Vec3{-160, 130, 210})
	lc.Ambient = 0.35
	lc.Hemi = 0.40
	lc.Direct = 1.20
	lc.Rim = 0.50
	lc.SpecInt = 0.45
	lc.SpecPow = 12.0
	return lc
}

// FillLightConfig is a dim light from the lower left that lifts shadows.
func FillLightConfig() LightConfig {
	lc := newRig("fill", mathutil.Vec3{-200, -60, -120}, mathutil.Vec3{0, 1, 0})
	lc.Direct = 0.35
	lc.SpecPow = 1
	return lc
}

// DefaultLighting returns the key + fill rig pair.
func DefaultLighting() Lighting {
	return Lighting{
		Rigs:     []LightConfig{KeyLightConfig(), FillLightConfig()},
		Exposure: 1.05,
		InvGamma: 1.0 / 2.2,
	}
}

// ComputeShade returns the combined lighting scalar for a face normal.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	// Lambertian (abs for double-sided)
	ndlMain := math.Abs(normal.Dot(lc.LightDir))
	ndlRim := math.Abs(normal.Dot(lc.RimDir))

	// Hemisphere fill
	hemi := (1.0-math.Abs(normal[1]))*0.5 + 0.5
	hemiLight := hemi * lc.Hemi

	// Blinn-Phong specular
	var spec float64
	if lc.SpecInt > 0 {
		ndh := normal.Dot(lc.HalfMain)
		if ndh < 0 {
			ndh = 0
		}
		spec = math.Pow(ndh, lc.SpecPow) * lc.SpecInt
	}

	return lc.Ambient + hemiLight + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Shade sums every rig for a face normal.
func (l *Lighting) Shade(normal mathutil.Vec3) float64 {
	var s float64
	for i := range l.Rigs {
		s += l.Rigs[i].ComputeShade(normal)
	}
	return s
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// SRGBToLinear decodes one 8-bit sRGB channel.
func SRGBToLinear(c uint8) float64 {
	return srgbToLinear[c]
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
