package canvas

import "image"

// BlendFactor selects a GPU blend factor for source or destination.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

// BlendMode names a composite operation in Canvas-2D terms.
type BlendMode string

const (
	BlendModeNormal   BlendMode = "normal"
	BlendModeMultiply BlendMode = "multiply"
)

// Factors returns the source and destination blend factors for the mode.
// Unknown modes map to normal blending.
func (m BlendMode) Factors() (src, dst BlendFactor) {
	switch m {
	case BlendModeMultiply:
		return BlendSrcAlpha, BlendOneMinusSrcAlpha
	default:
		return BlendOne, BlendOneMinusSrcAlpha
	}
}

// ScissorRect is a scissor rectangle in device pixels.
// The origin is the bottom-left corner of the drawing surface.
type ScissorRect struct {
	X, Y, W, H int
}

// Compositor batches draw requests and submits them to the GPU.
// The renderer drives it strictly from one goroutine; implementations
// need not be safe for concurrent use.
//
// Geometry added between Flush calls is buffered. The compositor must
// preserve submission order across texture and pipeline changes.
type Compositor interface {
	// UploadTexture uploads the texture's source image to texture unit
	// unit. When force is true a previously uploaded texture is written
	// again (the font surface mutates between batches).
	UploadTexture(t *Texture, x, y float64, unit int, force bool)

	// AddQuad buffers a textured quad at (x, y) with size (w, h).
	// key identifies the source sub-region of t for batching.
	AddQuad(t *Texture, key string, x, y, w, h float64)

	// DrawLine buffers a polyline through points. When closed is true
	// the last point connects back to the first.
	DrawLine(points []Point, closed bool)

	// Flush submits all buffered geometry to the GPU.
	Flush()

	// Clear fills the whole surface with c, discarding prior contents.
	Clear(c RGBA)

	// Reset drops buffered geometry and restores default pipeline
	// state. Uploaded textures stay valid; only their cache entries
	// need re-registration.
	Reset()

	// SetProjection sets the logical surface size used to build the
	// orthographic projection.
	SetProjection(w, h int)

	// SetBlend configures the blend factors for subsequent geometry.
	SetBlend(src, dst BlendFactor)

	// SetScissor enables the scissor test with r. It updates GPU state
	// only; the caller flushes pending geometry first.
	SetScissor(r ScissorRect)

	// DisableScissor turns the scissor test off.
	DisableScissor()

	// SetColor sets the vertex tint applied to subsequent quads and lines.
	SetColor(c RGBA)

	// SetTransform sets the transform the compositor applies to vertices
	// of subsequent geometry.
	SetTransform(m Matrix)

	// MaxTextures reports how many textures the compositor can keep
	// resident at once.
	MaxTextures() int
}

// TextureCache maps source images to their uploaded textures so repeated
// draws of the same image reuse one GPU texture.
type TextureCache interface {
	Get(src image.Image) (*Texture, bool)
	Put(src image.Image, t *Texture)
	Clear()
}

// Screen is the host surface the canvas renders into. The renderer uses
// it to propagate resize requests; a headless compositor may run without
// one.
type Screen interface {
	// Resize sets the backing-store size in device pixels.
	Resize(w, h int)

	// SetDisplaySize sets the logical (CSS) size the surface is shown at.
	SetDisplaySize(w, h int)
}
