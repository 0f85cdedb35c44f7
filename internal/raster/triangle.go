package raster

import (
	"image"
	"math"
)

// Projected holds screen-space vertex positions for one mesh.
// Z is the negated view depth so nearer fragments have larger values.
type Projected struct {
	X, Y, Z []float64
	Visible []bool // false when the vertex is behind the near plane
}

// Surface is what a triangle is painted with: an optional texture
// modulated by a linear RGBA factor.
type Surface struct {
	Texture *image.NRGBA
	UVs     [][2]float32
	Factor  [4]float64
}

// RasterizeTriangle rasterizes a single triangle with texture mapping, z-buffer,
// sRGB color space, lighting, and ACES tone mapping.
//
// This is the HOT PATH — designed for zero allocation in the inner loop.
// Lighting is flat (one shade per face, computed by the caller).
func RasterizeTriangle(
	fb *FrameBuffer,
	p *Projected,
	tri [3]uint32,
	surf *Surface,
	shade float64,
	lt *Lighting,
) {
	nv := len(p.X)
	idx := [3]int{int(tri[0]), int(tri[1]), int(tri[2])}

	// Bounds check
	for _, i := range idx {
		if i < 0 || i >= nv || !p.Visible[i] {
			return
		}
	}

	x0, y0, z0 := p.X[idx[0]], p.Y[idx[0]], p.Z[idx[0]]
	x1, y1, z1 := p.X[idx[1]], p.Y[idx[1]], p.Z[idx[1]]
	x2, y2, z2 := p.X[idx[2]], p.Y[idx[2]], p.Z[idx[2]]

	tex := surf.Texture
	hasUV := tex != nil && len(surf.UVs) == nv

	var u0, v0uv, u1, v1uv, u2, v2uv float64
	if hasUV {
		u0, v0uv = float64(surf.UVs[idx[0]][0]), float64(surf.UVs[idx[0]][1])
		u1, v1uv = float64(surf.UVs[idx[1]][0]), float64(surf.UVs[idx[1]][1])
		u2, v2uv = float64(surf.UVs[idx[2]][0]), float64(surf.UVs[idx[2]][1])
	}

	// Bounding box
	minX := int(math.Min(math.Min(x0, x1), x2))
	maxX := int(math.Max(math.Max(x0, x1), x2)) + 1
	minY := int(math.Min(math.Min(y0, y1), y2))
	maxY := int(math.Max(math.Max(y0, y1), y2)) + 1

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX >= maxX || minY >= maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	fr, fg, fbl, fa := surf.Factor[0], surf.Factor[1], surf.Factor[2], surf.Factor[3]
	lightScale := shade * lt.Exposure
	invGamma := lt.InvGamma

	// Pixel loop — zero allocations
	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			// Linear colour before lighting
			var lr, lg, lb, alpha float64
			if hasUV {
				u := w0*u0 + w1*u1 + w2*u2
				v := w0*v0uv + w1*v1uv + w2*v2uv
				cr, cg, cb, ca := SampleTexture(tex, u, v)
				lr = srgbToLinear[cr] * fr
				lg = srgbToLinear[cg] * fg
				lb = srgbToLinear[cb] * fbl
				alpha = float64(ca) * fa
			} else {
				lr, lg, lb, alpha = fr, fg, fbl, 255*fa
			}

			// Skip transparent texels
			if alpha < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			// Apply shading + ACES tone mapping, then encode to sRGB
			tr := ACESTonemap(lr * lightScale)
			tg := ACESTonemap(lg * lightScale)
			tb := ACESTonemap(lb * lightScale)

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = clamp255(math.Pow(tr, invGamma) * 255)
			fb.Color[pxIdx+1] = clamp255(math.Pow(tg, invGamma) * 255)
			fb.Color[pxIdx+2] = clamp255(math.Pow(tb, invGamma) * 255)
			fb.Color[pxIdx+3] = clamp255(alpha)
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
