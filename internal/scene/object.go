// Package scene holds placed model instances and the container the
// renderer draws from.
package scene

import (
	"bike-viewer/internal/asset"
	"bike-viewer/internal/catalog"
	"bike-viewer/internal/mathutil"
)

// Object is a model placed in world space: world = v*Scale + Position.
// Objects are replaced, never mutated, once inserted into a Scene.
type Object struct {
	ID       catalog.ModelID
	Model    *asset.Model
	Position mathutil.Vec3
	Scale    float64
}

// WorldPoint maps a model-space vertex to world space.
func (o *Object) WorldPoint(v [3]float32) mathutil.Vec3 {
	return mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}.Scale(o.Scale).Add(o.Position)
}

// Bounds returns the world-space bounding box.
func (o *Object) Bounds() mathutil.Box {
	b := o.Model.Bounds()
	if b.IsEmpty() {
		return b
	}
	return mathutil.Box{
		Min: b.Min.Scale(o.Scale).Add(o.Position),
		Max: b.Max.Scale(o.Scale).Add(o.Position),
	}
}

// Place centres the model on its bounding-box centre, applies the uniform
// scale, aligns it to the ground according to g and finally adds the offset.
func Place(id catalog.ModelID, m *asset.Model, cfg catalog.CameraConfig, g catalog.Grounding) *Object {
	scale := cfg.Scale
	if scale <= 0 {
		scale = 1
	}

	o := &Object{ID: id, Model: m, Scale: scale}

	b := m.Bounds()
	if !b.IsEmpty() {
		o.Position = b.Center().Scale(-scale)
	}

	if g == catalog.GroundToBounds && !b.IsEmpty() {
		o.Position[1] -= o.Bounds().Min[1]
	}

	o.Position = o.Position.Add(cfg.Offset)
	return o
}
