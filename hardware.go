package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/canvas/cache"
)

// HardwareRenderer is the Renderer implementation backed by a batching
// compositor. Geometry is buffered by the compositor and submitted on
// Flush; state changes that would retroactively affect buffered
// geometry (clip changes, forced texture uploads) flush first.
type HardwareRenderer struct {
	baseRenderer

	ctx   Compositor
	cache TextureCache
	face  FontFace

	stack     []*saveRecord
	clipStack []clipRecord

	scissorOn   bool
	clip        Region
	scissorRect ScissorRect

	fillSrc     *image.RGBA
	fillTex     *Texture
	fontSurface *image.RGBA
	fontTex     *Texture
	fontWarned  bool

	points []Point
}

var _ Renderer = (*HardwareRenderer)(nil)

// NewHardwareRenderer creates a renderer for a w x h logical surface.
// A compositor is required; without one construction fails with
// ErrNoContext.
func NewHardwareRenderer(w, h int, opts ...Option) (*HardwareRenderer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.compositor == nil {
		return nil, ErrNoContext
	}

	tc := o.cache
	if tc == nil {
		tc = newLRUTextureCache(o.compositor.MaxTextures())
	}

	r := &HardwareRenderer{
		baseRenderer: newBaseRenderer(w, h, o),
		ctx:          o.compositor,
		cache:        tc,
		face:         o.face,
	}
	r.clip = Region{W: float64(w), H: float64(h)}
	r.scissorRect = ScissorRect{W: w, H: h}

	r.ctx.SetProjection(w, h)
	r.ctx.SetColor(r.color)
	r.ctx.SetTransform(r.matrix)
	r.ensureFillTexture()

	return r, nil
}

// Context returns the compositor the renderer submits to.
func (r *HardwareRenderer) Context() Compositor {
	return r.ctx
}

// ensureFillTexture creates the 1x1 opaque white texture used for
// solid fills. The first call allocates and uploads it; later calls
// only re-insert the existing handle into the cache, since the GPU
// data stays valid across a compositor reset.
func (r *HardwareRenderer) ensureFillTexture() {
	if r.fillTex == nil {
		r.fillSrc = image.NewRGBA(image.Rect(0, 0, 1, 1))
		r.fillSrc.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

		r.fillTex = NewTexture(r.fillSrc)
		r.fillTex.Premultiply = false
		r.fillTex.Smooth = r.antiAlias
		r.ctx.UploadTexture(r.fillTex, 0, 0, 0, false)
	}
	r.cache.Put(r.fillSrc, r.fillTex)
}

// ensureFontTexture allocates (or reuses) the glyph raster surface,
// sized to the next power of two covering the surface bounds. The
// first call warns through the module logger: rasterizing glyphs on
// the CPU per batch is the slow path.
func (r *HardwareRenderer) ensureFontTexture() {
	pw, ph := nextPow2(r.width), nextPow2(r.height)

	if !r.fontWarned {
		r.fontWarned = true
		Logger().Warn("canvas: using CPU glyph rasterization",
			"width", pw, "height", ph)
	}

	if r.fontSurface != nil {
		b := r.fontSurface.Bounds()
		if b.Dx() >= pw && b.Dy() >= ph {
			return
		}
	}

	r.fontSurface = image.NewRGBA(image.Rect(0, 0, pw, ph))
	r.fontTex = NewTexture(r.fontSurface)
	r.fontTex.Smooth = r.antiAlias
}

// FillRect fills the rectangle with the current color using the
// singleton fill texture.
func (r *HardwareRenderer) FillRect(x, y, w, h float64) {
	r.ensureFillTexture()
	r.ctx.AddQuad(r.fillTex, "default", x, y, w, h)
}

// ClearRect fills the rectangle with fully transparent black. The
// current color is unchanged afterwards.
func (r *HardwareRenderer) ClearRect(x, y, w, h float64) {
	prev := r.color
	r.color = Transparent
	r.ctx.SetColor(r.color)

	r.FillRect(x, y, w, h)

	r.color = prev
	r.ctx.SetColor(r.color)
}

// ClearColor clears the whole surface to c. When opaque, the
// compositor performs a hard buffer clear; otherwise the surface is
// filled through the quad pipeline. The transform is reset to identity
// for the duration of the call.
func (r *HardwareRenderer) ClearColor(c RGBA, opaque bool) {
	r.Save()
	r.ResetTransform()

	if opaque {
		r.ctx.Clear(c)
	} else {
		r.color = c
		r.ctx.SetColor(r.color)
		r.FillRect(0, 0, float64(r.width), float64(r.height))
	}

	r.Restore()
}

// resolveTexture returns the uploaded texture for src, uploading and
// caching it on first use.
func (r *HardwareRenderer) resolveTexture(src image.Image) *Texture {
	if t, ok := r.cache.Get(src); ok {
		return t
	}
	t := NewTexture(src)
	t.Smooth = r.antiAlias
	r.ctx.UploadTexture(t, 0, 0, 0, false)
	r.cache.Put(src, t)
	return t
}

// DrawImage draws the whole image with its top-left corner at (dx, dy).
func (r *HardwareRenderer) DrawImage(src image.Image, dx, dy float64) {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	r.DrawImageRegion(src, 0, 0, w, h, dx, dy, w, h)
}

// DrawImageRect draws the whole image scaled into the destination
// rectangle.
func (r *HardwareRenderer) DrawImageRect(src image.Image, dx, dy, dw, dh float64) {
	b := src.Bounds()
	r.DrawImageRegion(src, 0, 0, float64(b.Dx()), float64(b.Dy()), dx, dy, dw, dh)
}

// DrawImageRegion draws the source sub-rectangle (sx, sy, sw, sh)
// scaled into the destination rectangle (dx, dy, dw, dh). Destination
// origin is pixel-snapped when sub-pixel positioning is off.
func (r *HardwareRenderer) DrawImageRegion(src image.Image, sx, sy, sw, sh, dx, dy, dw, dh float64) {
	t := r.resolveTexture(src)
	r.ctx.AddQuad(t, RegionKey(sx, sy, sw, sh), r.snap(dx), r.snap(dy), dw, dh)
}

// CreatePattern uploads src as a tileable texture. Both dimensions
// must be powers of two; otherwise ErrInvalidTexture is returned and
// nothing is created.
func (r *HardwareRenderer) CreatePattern(src image.Image, repeat RepeatMode) (*Texture, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if !isPow2(w) || !isPow2(h) {
		return nil, fmt.Errorf("%w: %dx%d, power-of-two required", ErrInvalidTexture, w, h)
	}

	t := NewTexture(src)
	t.Repeat = repeat
	t.Smooth = r.antiAlias
	r.ctx.UploadTexture(t, 0, 0, 0, false)
	r.cache.Put(src, t)
	return t, nil
}

// DrawPattern tiles the pattern texture over the destination
// rectangle. The texture must come from CreatePattern.
func (r *HardwareRenderer) DrawPattern(t *Texture, x, y, w, h float64) {
	r.ctx.AddQuad(t, RegionKey(0, 0, w, h), x, y, w, h)
}

// scratch returns a reusable point slice of length n. The backing
// array grows as needed and is never shrunk; contents are invalidated
// by the next stroke call.
func (r *HardwareRenderer) scratch(n int) []Point {
	if cap(r.points) < n {
		r.points = make([]Point, n)
	}
	return r.points[:n]
}

// StrokeRect outlines the rectangle with the current line width.
func (r *HardwareRenderer) StrokeRect(x, y, w, h float64) {
	p := r.scratch(4)
	p[0] = Pt(x, y)
	p[1] = Pt(x+w, y)
	p[2] = Pt(x+w, y+h)
	p[3] = Pt(x, y+h)
	r.ctx.DrawLine(p, true)
}

// StrokeLine draws a segment from (x1, y1) to (x2, y2).
func (r *HardwareRenderer) StrokeLine(x1, y1, x2, y2 float64) {
	p := r.scratch(2)
	p[0] = Pt(x1, y1)
	p[1] = Pt(x2, y2)
	r.ctx.DrawLine(p, false)
}

// StrokePolygon outlines the closed polygon described by points,
// translated by the origin (ox, oy).
func (r *HardwareRenderer) StrokePolygon(points []Point, ox, oy float64) {
	r.strokePoints(points, ox, oy, true)
}

func (r *HardwareRenderer) strokePoints(points []Point, ox, oy float64, closed bool) {
	if len(points) == 0 {
		return
	}
	p := r.scratch(len(points))
	for i, pt := range points {
		p[i] = Pt(pt.X+ox, pt.Y+oy)
	}
	r.ctx.DrawLine(p, closed)
}

// StrokeArc is not implemented and draws nothing.
func (r *HardwareRenderer) StrokeArc(x, y, radius, start, end float64) {}

// StrokeEllipse is not implemented and draws nothing.
func (r *HardwareRenderer) StrokeEllipse(x, y, rx, ry float64) {}

// DrawShape strokes s according to its variant. Ellipses with equal
// radii dispatch to StrokeArc as full circles.
func (r *HardwareRenderer) DrawShape(s Shape) {
	switch s := s.(type) {
	case Rect:
		r.StrokeRect(s.X, s.Y, s.W, s.H)
	case Line:
		r.StrokeLine(s.X1, s.Y1, s.X2, s.Y2)
	case Polygon:
		r.strokePoints(s.Points, s.X, s.Y, s.Closed)
	case Ellipse:
		if s.RX == s.RY {
			r.StrokeArc(s.X, s.Y, s.RX, 0, 2*math.Pi)
		} else {
			r.StrokeEllipse(s.X, s.Y, s.RX, s.RY)
		}
	}
}

// FillText draws text with its top-left corner at (x, y) through the
// glyph-fallback path: the string is rasterized onto the font surface,
// uploaded, and emitted as a single quad. Without a configured font
// face the call draws nothing.
func (r *HardwareRenderer) FillText(text string, x, y float64) {
	if r.face == nil || text == "" {
		return
	}

	r.ensureFontTexture()

	w, h := r.face.Measure(text)
	if w <= 0 || h <= 0 {
		return
	}
	if fw := float64(r.fontTex.Width); w > fw {
		w = fw
	}
	if fh := float64(r.fontTex.Height); h > fh {
		h = fh
	}

	clear := image.Rect(0, 0, int(w)+1, int(h)+1)
	draw.Draw(r.fontSurface, clear, image.Transparent, image.Point{}, draw.Src)
	r.face.Draw(r.fontSurface, text, 0, 0, color.White)

	// The surface mutates between batches, so the upload is forced.
	r.ctx.UploadTexture(r.fontTex, 0, 0, 0, true)
	r.ctx.AddQuad(r.fontTex, RegionKey(0, 0, w, h), r.snap(x), r.snap(y), w, h)
}

// Flush submits all buffered geometry to the GPU.
func (r *HardwareRenderer) Flush() {
	r.ctx.Flush()
}

// ScaleCanvas resizes the logical surface to w x h, updates the
// compositor projection, and passes the new sizes through to the host
// surface, honoring the configured pixel ratio.
func (r *HardwareRenderer) ScaleCanvas(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	r.width, r.height = w, h
	r.ctx.SetProjection(w, h)

	if !r.scissorOn {
		r.clip = Region{W: float64(w), H: float64(h)}
		r.scissorRect = ScissorRect{W: w, H: h}
	}

	if r.screen != nil {
		r.screen.Resize(int(float64(w)*r.pixelRatio), int(float64(h)*r.pixelRatio))
		r.screen.SetDisplaySize(w, h)
	}
}

// Reset restores the renderer to its construction-time defaults:
// identity transform, default color, empty stacks, scissoring off, and
// a re-registered fill texture.
func (r *HardwareRenderer) Reset() {
	for i := range r.stack {
		savePool.Put(r.stack[i])
		r.stack[i] = nil
	}
	r.stack = r.stack[:0]
	r.clipStack = r.clipStack[:0]

	r.color = White
	r.matrix = Identity()
	r.lineWidth = 1

	r.cache.Clear()
	r.ctx.Reset()
	r.ctx.DisableScissor()
	r.scissorOn = false
	r.clip = Region{W: float64(r.width), H: float64(r.height)}
	r.scissorRect = ScissorRect{W: r.width, H: r.height}

	r.ctx.SetProjection(r.width, r.height)
	r.ctx.SetColor(r.color)
	r.ctx.SetTransform(r.matrix)
	r.ensureFillTexture()
}

// lruTextureCache adapts the generic LRU to the TextureCache interface,
// keyed by source image identity.
type lruTextureCache struct {
	lru *cache.LRU[image.Image, *Texture]
}

func newLRUTextureCache(capacity int) *lruTextureCache {
	return &lruTextureCache{lru: cache.New[image.Image, *Texture](capacity)}
}

func (c *lruTextureCache) Get(src image.Image) (*Texture, bool) { return c.lru.Get(src) }
func (c *lruTextureCache) Put(src image.Image, t *Texture)      { c.lru.Put(src, t) }
func (c *lruTextureCache) Clear()                               { c.lru.Clear() }
