package asset

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xff, 0xd8, 0xff}
)

// DecodeTexture decodes an embedded PNG, JPEG or TGA image to NRGBA.
// mimeType comes from the glTF image; when it is empty or unknown the
// format is sniffed from the leading bytes. TGA has no magic number, so it
// is only used when declared.
//
// image.Decode is not used: tga registers an empty magic string, which
// would claim every input.
func DecodeTexture(data []byte, mimeType string) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("texture: empty image data")
	}

	var decode func(io.Reader) (image.Image, error)
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		decode = png.Decode
	case "image/jpeg", "image/jpg":
		decode = jpeg.Decode
	case "image/x-tga", "image/tga", "image/x-targa":
		decode = tga.Decode
	default:
		switch {
		case bytes.HasPrefix(data, pngMagic):
			decode = png.Decode
		case bytes.HasPrefix(data, jpegMagic):
			decode = jpeg.Decode
		default:
			return nil, fmt.Errorf("texture: unrecognised image format %q", mimeType)
		}
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("texture: decode: %w", err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		// No alpha — draw and set alpha to 255
		draw.Draw(dst, b, src, b.Min, draw.Src)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.Pix[dst.PixOffset(x, y)+3] = 255
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				i := dst.PixOffset(x, y)
				dst.Pix[i] = c.R
				dst.Pix[i+1] = c.G
				dst.Pix[i+2] = c.B
				dst.Pix[i+3] = c.A
			}
		}
	}
	return dst
}
