package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-viewer/internal/asset"
	"bike-viewer/internal/asset/assettest"
	"bike-viewer/internal/camera"
	"bike-viewer/internal/catalog"
	"bike-viewer/internal/mathutil"
	"bike-viewer/internal/scene"
)

func cubeObject() *scene.Object {
	verts, idx := assettest.Box([3]float32{-0.5, -0.5, -0.5}, [3]float32{0.5, 0.5, 0.5})
	tris := make([][3]uint32, 0, len(idx)/3)
	for i := 0; i < len(idx); i += 3 {
		tris = append(tris, [3]uint32{idx[i], idx[i+1], idx[i+2]})
	}
	m := asset.NewModel("cube", []asset.Mesh{{Verts: verts, Tris: tris, BaseColor: [4]float64{0.8, 0.2, 0.2, 1}}})
	return scene.Place(catalog.Style1, m, catalog.CameraConfig{Scale: 1}, catalog.GroundBaseline)
}

func TestRenderEmptyScene(t *testing.T) {
	img := RenderScene(nil, *camera.New(mathutil.Vec3{0, 0, 5}), Options{Width: 32, Height: 24})
	assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())
	assert.Zero(t, CoveredPixels(img))
}

func TestRenderCubeCoversCentre(t *testing.T) {
	cam := camera.New(mathutil.Vec3{2, 1.5, 3})
	img := RenderScene([]*scene.Object{cubeObject()}, *cam, Options{Width: 64, Height: 48, Supersample: 2})

	require.Equal(t, image.Rect(0, 0, 128, 96), img.Bounds())
	centre := img.NRGBAAt(64, 48)
	assert.Equal(t, uint8(255), centre.A)
	assert.Greater(t, centre.R, centre.B, "red paint stays red")
	assert.Zero(t, img.NRGBAAt(0, 0).A, "corners are background")
}

func TestZoomInCoversMore(t *testing.T) {
	obj := []*scene.Object{cubeObject()}
	cam := camera.New(mathutil.Vec3{0, 0, 6})
	far := CoveredPixels(RenderScene(obj, *cam, Options{Width: 64, Height: 64}))

	cam.Zoom(0.5)
	near := CoveredPixels(RenderScene(obj, *cam, Options{Width: 64, Height: 64}))
	assert.Greater(t, near, far)
}

func TestCameraInsideModelDropsNearTriangles(t *testing.T) {
	cam := camera.New(mathutil.Vec3{0, 0, 0.01})
	img := RenderScene([]*scene.Object{cubeObject()}, *cam, Options{Width: 16, Height: 16})
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestTintOverridesBaseColour(t *testing.T) {
	blue := [4]float64{0, 0, 1, 1}
	cam := camera.New(mathutil.Vec3{0, 0, 4})
	img := RenderScene([]*scene.Object{cubeObject()}, *cam, Options{Width: 32, Height: 32, Tint: &blue})

	c := img.NRGBAAt(16, 16)
	assert.Greater(t, c.B, c.R)
}

func TestSampleTextureWraps(t *testing.T) {
	tex := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	tex.SetNRGBA(0, 0, color.NRGBA{200, 0, 0, 255})
	r, _, _, a := SampleTexture(tex, 1.0, 2.0)
	assert.Equal(t, uint8(200), r)
	assert.Equal(t, uint8(255), a)

	r, _, _, _ = SampleTexture(tex, -1.0, 0)
	assert.Equal(t, uint8(200), r)
}

func TestLightingShadePositive(t *testing.T) {
	lt := DefaultLighting()
	for _, n := range []mathutil.Vec3{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}} {
		assert.Greater(t, lt.Shade(n), 0.0)
	}
	assert.Len(t, lt.Rigs, 2)
	assert.InDelta(t, 0.0, SRGBToLinear(0), 1e-12)
	assert.InDelta(t, 1.0, SRGBToLinear(255), 1e-12)
}
