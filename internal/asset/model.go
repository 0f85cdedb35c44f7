// Package asset fetches binary glTF (GLB) bike models and decodes them into
// immutable, render-ready geometry.
package asset

import (
	"image"

	"bike-viewer/internal/mathutil"
)

// Mesh is one triangle primitive flattened into model space.
type Mesh struct {
	Verts     [][3]float32 // positions after node transforms
	UVs       [][2]float32 // parallel to Verts; empty when the primitive has none
	Tris      [][3]uint32
	BaseColor [4]float64 // glTF baseColorFactor, linear RGBA
	Texture   *image.NRGBA
}

// Model is a decoded asset. It is shared between sessions through the
// cache and must not be modified after Decode returns.
type Model struct {
	Path   string
	Meshes []Mesh
	bounds mathutil.Box
}

// Bounds returns the model-space bounding box of every vertex.
func (m *Model) Bounds() mathutil.Box {
	return m.bounds
}

// TriangleCount sums triangles over all meshes.
func (m *Model) TriangleCount() int {
	n := 0
	for i := range m.Meshes {
		n += len(m.Meshes[i].Tris)
	}
	return n
}

// NewModel assembles a model from already-flattened meshes and computes its bounds.
func NewModel(path string, meshes []Mesh) *Model {
	b := mathutil.EmptyBox()
	for i := range meshes {
		for _, v := range meshes[i].Verts {
			b.Extend(mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
		}
	}
	return &Model{Path: path, Meshes: meshes, bounds: b}
}
