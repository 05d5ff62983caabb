package canvas

import (
	"image/color"
	"image/draw"
)

// FontFace renders text for the glyph-fallback path. Implementations
// shape and rasterize onto a CPU surface; the renderer uploads that
// surface as the font texture. The text sub-package provides one.
type FontFace interface {
	// Measure returns the pixel width and height of text when drawn.
	Measure(text string) (w, h float64)

	// Draw renders text onto dst with its top-left corner at (x, y).
	Draw(dst draw.Image, text string, x, y float64, c color.Color)
}

// options holds renderer configuration collected from Option values.
type options struct {
	compositor  Compositor
	cache       TextureCache
	screen      Screen
	face        FontFace
	subpixel    bool
	antiAlias   bool
	transparent bool
	pixelRatio  float64
}

// Option configures a renderer.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		subpixel:   true,
		antiAlias:  true,
		pixelRatio: 1,
	}
}

// WithCompositor sets the batching compositor the renderer submits to.
// Required: construction fails without one.
func WithCompositor(c Compositor) Option {
	return func(o *options) { o.compositor = c }
}

// WithTextureCache sets the texture cache. When unset the renderer
// creates an LRU cache sized to the compositor's MaxTextures.
func WithTextureCache(tc TextureCache) Option {
	return func(o *options) { o.cache = tc }
}

// WithScreen attaches the host surface used for resize pass-through.
func WithScreen(s Screen) Option {
	return func(o *options) { o.screen = s }
}

// WithFontFace sets the face used by the glyph-fallback text path.
func WithFontFace(f FontFace) Option {
	return func(o *options) { o.face = f }
}

// WithSubpixel enables or disables sub-pixel positioning. When disabled,
// translations and blit destinations are truncated to the pixel grid.
func WithSubpixel(enabled bool) Option {
	return func(o *options) { o.subpixel = enabled }
}

// WithAntiAlias selects linear texture filtering for created textures.
func WithAntiAlias(enabled bool) Option {
	return func(o *options) { o.antiAlias = enabled }
}

// WithTransparent requests a surface with an alpha channel.
func WithTransparent(enabled bool) Option {
	return func(o *options) { o.transparent = enabled }
}

// WithPixelRatio sets the device-pixel ratio used when sizing the
// on-screen surface in ScaleCanvas.
func WithPixelRatio(r float64) Option {
	return func(o *options) {
		if r > 0 {
			o.pixelRatio = r
		}
	}
}
