package raster

import (
	"image"
	"math"

	"bike-viewer/internal/camera"
	"bike-viewer/internal/mathutil"
	"bike-viewer/internal/scene"
)

// nearPlane is the minimum view depth; triangles touching it are dropped.
const nearPlane = 0.05

// Options controls one frame.
type Options struct {
	Width       int
	Height      int
	Supersample int
	Lighting    Lighting
	// Tint, when set, replaces every material's base colour factor (linear RGBA).
	Tint *[4]float64
}

// RenderScene draws objects as seen from cam. The result is
// Width*Supersample × Height*Supersample; callers downsample.
func RenderScene(objects []*scene.Object, cam camera.Camera, opts Options) *image.NRGBA {
	ss := opts.Supersample
	if ss < 1 {
		ss = 1
	}
	w, h := opts.Width*ss, opts.Height*ss
	if w <= 0 || h <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}

	fb := NewFrameBuffer(w, h)
	lt := opts.Lighting
	if len(lt.Rigs) == 0 {
		lt = DefaultLighting()
	}

	view := cam.View()
	focal := 1 / math.Tan(mathutil.Deg2Rad(cam.FOV)/2)
	halfW, halfH := float64(w)/2, float64(h)/2

	for _, obj := range objects {
		for mi := range obj.Model.Meshes {
			mesh := &obj.Model.Meshes[mi]
			if len(mesh.Verts) == 0 {
				continue
			}

			// Camera-space positions, kept for face normals
			n := len(mesh.Verts)
			camPos := make([]mathutil.Vec3, n)
			p := &Projected{
				X:       make([]float64, n),
				Y:       make([]float64, n),
				Z:       make([]float64, n),
				Visible: make([]bool, n),
			}
			for i, v := range mesh.Verts {
				c := view.MulVec3(obj.WorldPoint(v).Sub(cam.Position))
				camPos[i] = c
				if c[2] < nearPlane {
					continue
				}
				p.Visible[i] = true
				p.X[i] = c[0]/c[2]*focal*halfH + halfW
				p.Y[i] = -c[1]/c[2]*focal*halfH + halfH
				p.Z[i] = -c[2]
			}

			surf := Surface{Texture: mesh.Texture, UVs: mesh.UVs, Factor: mesh.BaseColor}
			if opts.Tint != nil {
				surf.Factor = *opts.Tint
			}

			for _, tri := range mesh.Tris {
				a, b, c := camPos[tri[0]], camPos[tri[1]], camPos[tri[2]]
				normal := b.Sub(a).Cross(c.Sub(a)).Normalize()
				if normal == (mathutil.Vec3{}) {
					continue
				}
				RasterizeTriangle(fb, p, tri, &surf, lt.Shade(normal), &lt)
			}
		}
	}

	return fb.Image()
}

// CoveredPixels counts pixels with non-zero alpha.
func CoveredPixels(img *image.NRGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			n++
		}
	}
	return n
}
