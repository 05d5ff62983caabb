package canvas

import (
	"image"
	"strconv"
	"strings"
)

// RepeatMode controls how a pattern texture tiles outside its bounds.
type RepeatMode string

const (
	Repeat   RepeatMode = "repeat"
	RepeatX  RepeatMode = "repeat-x"
	RepeatY  RepeatMode = "repeat-y"
	NoRepeat RepeatMode = "no-repeat"
)

// Region is a sub-rectangle of a texture's source image, in pixels.
type Region struct {
	X, Y, W, H float64
}

// Texture describes an image uploaded (or about to be uploaded) to the
// compositor. It is plain data; the compositor owns the GPU-side handle
// and tracks upload state internally, so a Texture can be re-registered
// in a cache after a reset without touching GPU memory.
type Texture struct {
	// Source is the CPU-side pixel data. For the fill texture this is a
	// 1x1 opaque white image; for the font texture it is the glyph
	// raster surface, mutated between batches.
	Source image.Image

	// Width and Height are the texture dimensions in pixels.
	Width, Height int

	// Repeat is the tiling mode for pattern textures.
	Repeat RepeatMode

	// Premultiply reports whether the source alpha is premultiplied
	// into the color channels on upload.
	Premultiply bool

	// Smooth selects linear filtering; false selects nearest.
	Smooth bool
}

// NewTexture wraps an image as a texture sized to its bounds.
func NewTexture(src image.Image) *Texture {
	b := src.Bounds()
	return &Texture{
		Source:      src,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Repeat:      NoRepeat,
		Premultiply: true,
	}
}

// Bounds returns the full texture region.
func (t *Texture) Bounds() Region {
	return Region{W: float64(t.Width), H: float64(t.Height)}
}

// UV resolves a quad cache key to a source region. Keys have the form
// "sx,sy,sw,sh"; the empty key and "default" select the full texture.
// Malformed keys also fall back to the full texture.
func (t *Texture) UV(key string) Region {
	if key == "" || key == "default" {
		return t.Bounds()
	}
	parts := strings.Split(key, ",")
	if len(parts) != 4 {
		return t.Bounds()
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return t.Bounds()
		}
		vals[i] = v
	}
	return Region{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}
}

// RegionKey formats a source region as a quad cache key.
func RegionKey(x, y, w, h float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64) + "," +
		strconv.FormatFloat(y, 'g', -1, 64) + "," +
		strconv.FormatFloat(w, 'g', -1, 64) + "," +
		strconv.FormatFloat(h, 'g', -1, 64)
}

// isPow2 reports whether n is a positive power of two.
func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
