package asset

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-viewer/internal/asset/assettest"
	"bike-viewer/internal/mathutil"
)

func cube(t *testing.T, opts assettest.Options) []byte {
	t.Helper()
	data, err := assettest.Cube(opts)
	require.NoError(t, err)
	return data
}

func TestDecodeCube(t *testing.T) {
	data := cube(t, assettest.Options{
		Min:       [3]float32{-1, 0, -2},
		Max:       [3]float32{3, 2, 2},
		BaseColor: [4]float64{0.2, 0.4, 0.6, 1},
	})

	m, err := Decode("/models/cube.glb", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "/models/cube.glb", m.Path)
	require.Len(t, m.Meshes, 1)
	assert.Equal(t, 12, m.TriangleCount())
	assert.Equal(t, [4]float64{0.2, 0.4, 0.6, 1}, m.Meshes[0].BaseColor)
	assert.Nil(t, m.Meshes[0].Texture)

	b := m.Bounds()
	assert.True(t, b.Min.ApproxEqual(mathutil.Vec3{-1, 0, -2}, 1e-6))
	assert.True(t, b.Max.ApproxEqual(mathutil.Vec3{3, 2, 2}, 1e-6))
}

func TestDecodeWithoutScene(t *testing.T) {
	m, err := Decode("x", bytes.NewReader(cube(t, assettest.Options{NoScene: true})))
	require.NoError(t, err)
	assert.Equal(t, 12, m.TriangleCount())
}

func TestDecodeTextured(t *testing.T) {
	m, err := Decode("x", bytes.NewReader(cube(t, assettest.Options{Textured: true})))
	require.NoError(t, err)
	require.Len(t, m.Meshes, 1)

	mesh := m.Meshes[0]
	assert.Len(t, mesh.UVs, len(mesh.Verts))
	require.NotNil(t, mesh.Texture)
	assert.Equal(t, 2, mesh.Texture.Bounds().Dx())
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode("x", bytes.NewReader([]byte("definitely not a glb")))
	assert.Error(t, err)
}

func TestDecodeTextureErrors(t *testing.T) {
	_, err := DecodeTexture(nil, "image/png")
	assert.Error(t, err)
	_, err = DecodeTexture([]byte{1, 2, 3}, "")
	assert.ErrorContains(t, err, "unrecognised image format")
	_, err = DecodeTexture([]byte{1, 2, 3}, "image/png")
	assert.ErrorContains(t, err, "texture: decode")
}

func encodeImage(t *testing.T, enc func(io.Writer, image.Image) error) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 255})
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, img))
	return buf.Bytes()
}

func TestDecodeTextureFormats(t *testing.T) {
	pngData := encodeImage(t, png.Encode)
	jpegData := encodeImage(t, func(w io.Writer, m image.Image) error {
		return jpeg.Encode(w, m, &jpeg.Options{Quality: 95})
	})
	tgaData := encodeImage(t, tga.Encode)

	cases := []struct {
		name string
		data []byte
		mime string
	}{
		{"png declared", pngData, "image/png"},
		{"png sniffed", pngData, ""},
		{"jpeg declared", jpegData, "image/jpeg"},
		{"jpeg sniffed", jpegData, "application/octet-stream"},
		{"tga declared", tgaData, "image/x-tga"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tex, err := DecodeTexture(tc.data, tc.mime)
			require.NoError(t, err)
			assert.Equal(t, 3, tex.Bounds().Dx())
			assert.Equal(t, 2, tex.Bounds().Dy())
			assert.Equal(t, uint8(255), tex.Pix[3])
		})
	}

	// TGA without a declared type cannot be recognised.
	_, err := DecodeTexture(tgaData, "")
	assert.Error(t, err)
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	_, err := assettest.WriteCube(dir, "bike-style1.glb", assettest.Options{})
	require.NoError(t, err)

	f := &DirFetcher{Root: dir}
	for _, p := range []string{"/models/bike-style1.glb", "bike-style1.glb", "/models/../models/bike-style1.glb"} {
		body, size, err := f.Fetch(context.Background(), p)
		require.NoError(t, err, p)
		assert.Greater(t, size, int64(0))
		body.Close()
	}

	_, _, err = f.Fetch(context.Background(), "/models/missing.glb")
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Escaping the root is clamped to the root.
	_, _, err = f.Fetch(context.Background(), "/../../etc/passwd")
	assert.Error(t, err)
}

func TestHTTPFetcher(t *testing.T) {
	data := cube(t, assettest.Options{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/bike-style2.glb" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL}
	body, size, err := f.Fetch(context.Background(), "/models/bike-style2.glb")
	require.NoError(t, err)
	body.Close()
	assert.Equal(t, int64(len(data)), size)

	_, _, err = f.Fetch(context.Background(), "/models/nope.glb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoaderProgressAndCache(t *testing.T) {
	dir := t.TempDir()
	_, err := assettest.WriteCube(dir, "bike-style1.glb", assettest.Options{})
	require.NoError(t, err)

	var fetches atomic.Int32
	l := NewLoader(countingFetcher{inner: &DirFetcher{Root: dir}, n: &fetches}, 0, nil)

	var progress []float64
	m, err := l.Load(context.Background(), "/models/bike-style1.glb", func(p float64) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	require.NotEmpty(t, progress)
	assert.Equal(t, 100.0, progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}

	again, err := l.Load(context.Background(), "/models/bike-style1.glb", nil)
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.Equal(t, int32(1), fetches.Load())
	assert.Equal(t, 1, l.Cache.Len())
}

func TestLoaderFailureIsLoadError(t *testing.T) {
	l := NewLoader(&DirFetcher{Root: t.TempDir()}, 0, nil)

	_, err := l.Load(context.Background(), "/models/missing.glb", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "/models/missing.glb", le.Path)
	assert.Contains(t, err.Error(), "/models/missing.glb")
	assert.Equal(t, 0, l.Cache.Len(), "failures must not be cached")
}

func TestLoaderMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.glb"), []byte("glTF garbage"), 0o644))

	l := NewLoader(&DirFetcher{Root: dir}, 0, nil)
	_, err := l.Load(context.Background(), "/models/broken.glb", nil)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoaderCancelled(t *testing.T) {
	l := NewLoader(&DirFetcher{Root: t.TempDir()}, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, "/models/bike-style1.glb", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestProgressReaderUnknownLength(t *testing.T) {
	r := bytes.NewReader([]byte("abc"))
	assert.Same(t, r, newProgressReader(r, -1, func(float64) {}))
	assert.Same(t, r, newProgressReader(r, 3, nil))
}

type countingFetcher struct {
	inner Fetcher
	n     *atomic.Int32
}

func (c countingFetcher) Fetch(ctx context.Context, p string) (io.ReadCloser, int64, error) {
	c.n.Add(1)
	return c.inner.Fetch(ctx, p)
}
