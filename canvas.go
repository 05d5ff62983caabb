package canvas

import (
	"image"
	"math"
)

// Renderer is the Canvas-2D-style drawing API. All coordinates are in
// logical (pre-transform) space; the active transform is applied by the
// compositor during submission.
//
// Renderers are not safe for concurrent use. Drive one from a single
// goroutine, typically the frame loop.
type Renderer interface {
	// State stack.
	Save()
	Restore()

	// Transform.
	Translate(x, y float64)
	Rotate(angle float64)
	Scale(x, y float64)
	Transform(m Matrix)
	SetTransform(m Matrix)
	ResetTransform()
	CurrentTransform() Matrix

	// Paint state.
	SetColor(c RGBA)
	SetGlobalAlpha(a float64)
	SetBlendMode(mode BlendMode)
	SetLineWidth(w float64)
	SetAntiAlias(enabled bool)

	// Fill and clear.
	FillRect(x, y, w, h float64)
	ClearRect(x, y, w, h float64)
	ClearColor(c RGBA, opaque bool)

	// Images and patterns.
	DrawImage(src image.Image, dx, dy float64)
	DrawImageRect(src image.Image, dx, dy, dw, dh float64)
	DrawImageRegion(src image.Image, sx, sy, sw, sh, dx, dy, dw, dh float64)
	CreatePattern(src image.Image, repeat RepeatMode) (*Texture, error)
	DrawPattern(t *Texture, x, y, w, h float64)

	// Strokes.
	StrokeRect(x, y, w, h float64)
	StrokeLine(x1, y1, x2, y2 float64)
	StrokePolygon(points []Point, ox, oy float64)
	StrokeArc(x, y, radius, start, end float64)
	StrokeEllipse(x, y, rx, ry float64)
	DrawShape(s Shape)

	// Text fallback.
	FillText(text string, x, y float64)

	// Clipping.
	ClipRect(x, y, w, h float64)

	// Lifecycle.
	Flush()
	ScaleCanvas(w, h int)
	Reset()

	// Introspection.
	Color() RGBA
	Size() (w, h int)
	Context() Compositor
	Screen() Screen
}

// baseRenderer carries the state shared by renderer implementations:
// surface size, settings, and the current paint state.
type baseRenderer struct {
	width, height int

	subpixel    bool
	antiAlias   bool
	transparent bool
	pixelRatio  float64

	color     RGBA
	matrix    Matrix
	lineWidth float64

	screen Screen
}

func newBaseRenderer(w, h int, o *options) baseRenderer {
	return baseRenderer{
		width:       w,
		height:      h,
		subpixel:    o.subpixel,
		antiAlias:   o.antiAlias,
		transparent: o.transparent,
		pixelRatio:  o.pixelRatio,
		color:       White,
		matrix:      Identity(),
		lineWidth:   1,
		screen:      o.screen,
	}
}

// Size returns the logical surface size in pixels.
func (b *baseRenderer) Size() (w, h int) {
	return b.width, b.height
}

// Color returns the current draw color, including the global alpha in
// its A component.
func (b *baseRenderer) Color() RGBA {
	return b.color
}

// CurrentTransform returns a copy of the active transform.
func (b *baseRenderer) CurrentTransform() Matrix {
	return b.matrix
}

// SetLineWidth sets the stroke width in logical pixels.
func (b *baseRenderer) SetLineWidth(w float64) {
	b.lineWidth = w
}

// SetAntiAlias selects the filter mode for textures created afterwards.
func (b *baseRenderer) SetAntiAlias(enabled bool) {
	b.antiAlias = enabled
}

// Screen returns the host surface, or nil for headless compositors.
func (b *baseRenderer) Screen() Screen {
	return b.screen
}

// snap truncates v toward zero when sub-pixel positioning is off.
func (b *baseRenderer) snap(v float64) float64 {
	if b.subpixel {
		return v
	}
	return math.Trunc(v)
}
