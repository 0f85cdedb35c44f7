package asset

import (
	"fmt"
	"image"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"bike-viewer/internal/mathutil"
)

// maxNodeDepth bounds node recursion; glTF forbids cycles but files lie.
const maxNodeDepth = 64

var identityColumnMajor = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// Decode reads a GLB (or self-contained glTF JSON) stream and flattens the
// default scene into model-space meshes.
func Decode(path string, r io.Reader) (*Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("asset: decode: %w", err)
	}

	d := &docReader{doc: doc, textures: make(map[*gltf.Image]*image.NRGBA)}

	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		err := d.walkScene(doc.Scenes[*doc.Scene])
		if err != nil {
			return nil, err
		}
	case len(doc.Scenes) > 0:
		if err := d.walkScene(doc.Scenes[0]); err != nil {
			return nil, err
		}
	default:
		// No scene graph: take every mesh as-is.
		for _, m := range doc.Meshes {
			if err := d.addMesh(m, mathutil.Mat4Identity()); err != nil {
				return nil, err
			}
		}
	}

	if len(d.meshes) == 0 {
		return nil, fmt.Errorf("asset: no triangle meshes in document")
	}
	return NewModel(path, d.meshes), nil
}

type docReader struct {
	doc      *gltf.Document
	meshes   []Mesh
	textures map[*gltf.Image]*image.NRGBA
}

func (d *docReader) walkScene(s *gltf.Scene) error {
	for _, ni := range s.Nodes {
		if int(ni) >= len(d.doc.Nodes) {
			return fmt.Errorf("asset: scene references missing node %d", ni)
		}
		if err := d.walkNode(d.doc.Nodes[ni], mathutil.Mat4Identity(), 0); err != nil {
			return err
		}
	}
	return nil
}

func (d *docReader) walkNode(n *gltf.Node, parent mathutil.Mat4, depth int) error {
	if depth > maxNodeDepth {
		return fmt.Errorf("asset: node hierarchy deeper than %d", maxNodeDepth)
	}

	world := mathutil.Mat4Mul(parent, nodeMatrix(n))

	if n.Mesh != nil {
		if int(*n.Mesh) >= len(d.doc.Meshes) {
			return fmt.Errorf("asset: node %q references missing mesh %d", n.Name, *n.Mesh)
		}
		if err := d.addMesh(d.doc.Meshes[*n.Mesh], world); err != nil {
			return err
		}
	}

	for _, ci := range n.Children {
		if int(ci) >= len(d.doc.Nodes) {
			return fmt.Errorf("asset: node %q references missing child %d", n.Name, ci)
		}
		if err := d.walkNode(d.doc.Nodes[ci], world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func nodeMatrix(n *gltf.Node) mathutil.Mat4 {
	if m := n.MatrixOrDefault(); m != identityColumnMajor {
		return mathutil.FromColumnMajor(m)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return mathutil.ComposeTRS(mathutil.Vec3(t), mathutil.Quat(r), mathutil.Vec3(s))
}

func (d *docReader) addMesh(m *gltf.Mesh, world mathutil.Mat4) error {
	for pi, p := range m.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}

		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok || int(posIdx) >= len(d.doc.Accessors) {
			return fmt.Errorf("asset: mesh %q primitive %d has no POSITION", m.Name, pi)
		}
		positions, err := modeler.ReadPosition(d.doc, d.doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("asset: mesh %q positions: %w", m.Name, err)
		}

		if !world.IsIdentity() {
			for i, v := range positions {
				w := world.MulPoint(mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
				positions[i] = [3]float32{float32(w[0]), float32(w[1]), float32(w[2])}
			}
		}

		var indices []uint32
		if p.Indices != nil {
			if int(*p.Indices) >= len(d.doc.Accessors) {
				return fmt.Errorf("asset: mesh %q primitive %d: bad indices accessor", m.Name, pi)
			}
			indices, err = modeler.ReadIndices(d.doc, d.doc.Accessors[*p.Indices], nil)
			if err != nil {
				return fmt.Errorf("asset: mesh %q indices: %w", m.Name, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		tris := make([][3]uint32, 0, len(indices)/3)
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := indices[i], indices[i+1], indices[i+2]
			if int(a) >= len(positions) || int(b) >= len(positions) || int(c) >= len(positions) {
				return fmt.Errorf("asset: mesh %q index out of range", m.Name)
			}
			tris = append(tris, [3]uint32{a, b, c})
		}

		var uvs [][2]float32
		if uvIdx, ok := p.Attributes[gltf.TEXCOORD_0]; ok && int(uvIdx) < len(d.doc.Accessors) {
			uvs, err = modeler.ReadTextureCoord(d.doc, d.doc.Accessors[uvIdx], nil)
			if err != nil {
				return fmt.Errorf("asset: mesh %q uvs: %w", m.Name, err)
			}
			if len(uvs) != len(positions) {
				uvs = nil
			}
		}

		mesh := Mesh{
			Verts:     positions,
			UVs:       uvs,
			Tris:      tris,
			BaseColor: [4]float64{1, 1, 1, 1},
		}
		if err := d.applyMaterial(&mesh, p); err != nil {
			return err
		}
		d.meshes = append(d.meshes, mesh)
	}
	return nil
}

func (d *docReader) applyMaterial(mesh *Mesh, p *gltf.Primitive) error {
	if p.Material == nil || int(*p.Material) >= len(d.doc.Materials) {
		return nil
	}
	pbr := d.doc.Materials[*p.Material].PBRMetallicRoughness
	if pbr == nil {
		return nil
	}
	mesh.BaseColor = pbr.BaseColorFactorOrDefault()

	if pbr.BaseColorTexture == nil || mesh.UVs == nil {
		return nil
	}
	ti := pbr.BaseColorTexture.Index
	if int(ti) >= len(d.doc.Textures) {
		return nil
	}
	src := d.doc.Textures[ti].Source
	if src == nil || int(*src) >= len(d.doc.Images) {
		return nil
	}
	tex, err := d.texture(d.doc.Images[*src])
	if err != nil {
		return err
	}
	mesh.Texture = tex
	return nil
}

// texture decodes a bufferView-embedded image once per document.
func (d *docReader) texture(img *gltf.Image) (*image.NRGBA, error) {
	if tex, ok := d.textures[img]; ok {
		return tex, nil
	}
	if img.BufferView == nil || int(*img.BufferView) >= len(d.doc.BufferViews) {
		// External URIs are not fetched; fall back to the base colour.
		d.textures[img] = nil
		return nil, nil
	}
	bv := d.doc.BufferViews[*img.BufferView]
	if int(bv.Buffer) >= len(d.doc.Buffers) {
		return nil, fmt.Errorf("asset: image %q: missing buffer", img.Name)
	}
	data := d.doc.Buffers[bv.Buffer].Data
	start, end := int(bv.ByteOffset), int(bv.ByteOffset)+int(bv.ByteLength)
	if start < 0 || end > len(data) || start > end {
		return nil, fmt.Errorf("asset: image %q: buffer view out of range", img.Name)
	}

	tex, err := DecodeTexture(data[start:end], img.MimeType)
	if err != nil {
		return nil, fmt.Errorf("asset: image %q: %w", img.Name, err)
	}
	d.textures[img] = tex
	return tex, nil
}
