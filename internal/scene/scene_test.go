package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-viewer/internal/asset"
	"bike-viewer/internal/asset/assettest"
	"bike-viewer/internal/catalog"
	"bike-viewer/internal/mathutil"
)

func boxModel(min, max [3]float32) *asset.Model {
	verts, idx := assettest.Box(min, max)
	tris := make([][3]uint32, 0, len(idx)/3)
	for i := 0; i < len(idx); i += 3 {
		tris = append(tris, [3]uint32{idx[i], idx[i+1], idx[i+2]})
	}
	return asset.NewModel("box", []asset.Mesh{{Verts: verts, Tris: tris, BaseColor: [4]float64{1, 1, 1, 1}}})
}

func TestPlaceCentresAndScales(t *testing.T) {
	m := boxModel([3]float32{2, 2, 2}, [3]float32{4, 6, 4})
	o := Place(catalog.Style3, m, catalog.CameraConfig{Scale: 2}, catalog.GroundBaseline)

	b := o.Bounds()
	assert.True(t, b.Center().ApproxEqual(mathutil.Origin, 1e-9), "centre %v", b.Center())
	assert.True(t, b.Size().ApproxEqual(mathutil.Vec3{4, 8, 4}, 1e-9), "size %v", b.Size())
}

func TestPlaceGroundToBounds(t *testing.T) {
	m := boxModel([3]float32{-1, -3, -1}, [3]float32{1, 1, 1})
	o := Place(catalog.Style1, m, catalog.CameraConfig{Scale: 0.5, Offset: mathutil.Vec3{0.25, 0.1, 0}}, catalog.GroundToBounds)

	b := o.Bounds()
	assert.InDelta(t, 0.1, b.Min[1], 1e-9, "grounded then offset")
	assert.InDelta(t, 0.25, b.Center()[0], 1e-9)
}

func TestPlaceBaselineKeepsCentre(t *testing.T) {
	m := boxModel([3]float32{-1, -3, -1}, [3]float32{1, 1, 1})
	o := Place(catalog.Style4, m, catalog.CameraConfig{Scale: 1, Offset: mathutil.Vec3{0, -0.5, 0}}, catalog.GroundBaseline)

	assert.InDelta(t, -0.5, o.Bounds().Center()[1], 1e-9)
}

func TestPlaceZeroScaleDefaultsToOne(t *testing.T) {
	o := Place(catalog.Style2, boxModel([3]float32{0, 0, 0}, [3]float32{1, 1, 1}), catalog.CameraConfig{}, catalog.GroundBaseline)
	assert.Equal(t, 1.0, o.Scale)
}

func TestSceneAddRemove(t *testing.T) {
	s := New()
	a := &Object{ID: catalog.Style1}
	b := &Object{ID: catalog.Style2}

	s.Add(a)
	s.Add(a)
	require.Equal(t, 1, s.Len())

	s.Add(b)
	assert.True(t, s.Remove(a))
	assert.False(t, s.Remove(a))
	assert.Equal(t, []*Object{b}, s.Objects())

	s.Clear()
	assert.Zero(t, s.Len())
}
