// Package assettest builds small GLB documents for tests.
package assettest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Options tweak the generated cube.
type Options struct {
	Min, Max  [3]float32
	BaseColor [4]float64
	// Textured adds TEXCOORD_0 and a 2×2 PNG base-colour texture.
	Textured bool
	// NoScene omits the node hierarchy so only doc.Meshes carries geometry.
	NoScene bool
}

// Box returns the 8 corners and 12 triangles of an axis-aligned box.
func Box(min, max [3]float32) ([][3]float32, []uint32) {
	verts := [][3]float32{
		{min[0], min[1], min[2]}, {max[0], min[1], min[2]},
		{max[0], max[1], min[2]}, {min[0], max[1], min[2]},
		{min[0], min[1], max[2]}, {max[0], min[1], max[2]},
		{max[0], max[1], max[2]}, {min[0], max[1], max[2]},
	}
	idx := []uint32{
		0, 2, 1, 0, 3, 2, // back
		4, 5, 6, 4, 6, 7, // front
		0, 1, 5, 0, 5, 4, // bottom
		3, 6, 2, 3, 7, 6, // top
		0, 4, 7, 0, 7, 3, // left
		1, 2, 6, 1, 6, 5, // right
	}
	return verts, idx
}

// Cube encodes a box with the given options as GLB.
func Cube(opts Options) ([]byte, error) {
	if opts.Min == opts.Max {
		opts.Min = [3]float32{-0.5, -0.5, -0.5}
		opts.Max = [3]float32{0.5, 0.5, 0.5}
	}
	if opts.BaseColor == ([4]float64{}) {
		opts.BaseColor = [4]float64{0.8, 0.1, 0.1, 1}
	}

	verts, idx := Box(opts.Min, opts.Max)

	doc := gltf.NewDocument()
	prim := &gltf.Primitive{}
	prim.Attributes = setAttr(prim.Attributes, gltf.POSITION, modeler.WritePosition(doc, verts))
	ind := modeler.WriteIndices(doc, idx)
	prim.Indices = &ind

	factor := opts.BaseColor
	pbr := &gltf.PBRMetallicRoughness{BaseColorFactor: &factor}

	if opts.Textured {
		uvs := make([][2]float32, len(verts))
		for i, v := range verts {
			uvs[i] = [2]float32{v[0] - opts.Min[0], v[1] - opts.Min[1]}
		}
		prim.Attributes = setAttr(prim.Attributes, gltf.TEXCOORD_0, modeler.WriteTextureCoord(doc, uvs))

		imgIdx, err := modeler.WriteImage(doc, "paint", "image/png", bytes.NewReader(checkerPNG()))
		if err != nil {
			return nil, err
		}
		tex := &gltf.Texture{}
		setIndex(&tex.Source, int(imgIdx))
		doc.Textures = append(doc.Textures, tex)

		info := &gltf.TextureInfo{}
		setValue(&info.Index, len(doc.Textures)-1)
		pbr.BaseColorTexture = info
	}

	doc.Materials = append(doc.Materials, &gltf.Material{Name: "paint", PBRMetallicRoughness: pbr})
	setIndex(&prim.Material, len(doc.Materials)-1)

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: "frame", Primitives: []*gltf.Primitive{prim}})

	if opts.NoScene {
		doc.Scene = nil
		doc.Scenes = nil
	} else {
		node := &gltf.Node{Name: "bike"}
		setIndex(&node.Mesh, len(doc.Meshes)-1)
		doc.Nodes = append(doc.Nodes, node)
		doc.Scenes[0].Nodes = appendIndex(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCube writes Cube(opts) to dir/name and returns the full path.
func WriteCube(dir, name string, opts Options) (string, error) {
	data, err := Cube(opts)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, name)
	return p, os.WriteFile(p, data, 0o644)
}

func checkerPNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(1, 0, color.NRGBA{20, 20, 20, 255})
	img.SetNRGBA(0, 1, color.NRGBA{20, 20, 20, 255})
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// The gltf index types changed between releases; these helpers keep the
// fixtures independent of the exact integer type.
type index interface{ ~int | ~uint32 }

func setAttr[M ~map[string]V, V any](m M, key string, v V) M {
	if m == nil {
		m = make(M)
	}
	m[key] = v
	return m
}

func setIndex[T index](dst **T, n int) {
	v := T(n)
	*dst = &v
}

func setValue[T index](dst *T, n int) {
	*dst = T(n)
}

func appendIndex[S ~[]T, T index](s S, n int) S {
	return append(s, T(n))
}
