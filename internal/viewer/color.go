package viewer

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"bike-viewer/internal/raster"
)

// parseColor accepts "#rrggbb", "rrggbb" or an SVG colour name and returns
// the colour as a linear RGBA factor.
func parseColor(s string) ([4]float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if c, ok := colornames.Map[s]; ok {
		return [4]float64{raster.SRGBToLinear(c.R), raster.SRGBToLinear(c.G), raster.SRGBToLinear(c.B), 1}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return [4]float64{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return [4]float64{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return [4]float64{
		raster.SRGBToLinear(uint8(n >> 16)),
		raster.SRGBToLinear(uint8(n >> 8)),
		raster.SRGBToLinear(uint8(n)),
		1,
	}, nil
}
