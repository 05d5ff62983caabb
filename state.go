package canvas

import (
	"math"
	"sync"
)

// saveRecord snapshots the paint state captured by Save.
type saveRecord struct {
	color  RGBA
	matrix Matrix
}

// savePool recycles snapshots across Save/Restore pairs so nested
// scopes inside a frame loop do not allocate.
var savePool = sync.Pool{
	New: func() any { return new(saveRecord) },
}

// Save pushes the current color and transform as one atomic record.
// While a clip is active, the current scissor rectangle is pushed
// alongside it; otherwise the clip stack stays shallow.
func (r *HardwareRenderer) Save() {
	rec := savePool.Get().(*saveRecord)
	rec.color = r.color
	rec.matrix = r.matrix
	r.stack = append(r.stack, rec)

	if r.scissorOn {
		r.clipStack = append(r.clipStack, clipRecord{
			depth:   len(r.stack),
			logical: r.clip,
			device:  r.scissorRect,
		})
	}
}

// Restore pops the most recent snapshot and reinstates it. Calling
// Restore with no matching Save leaves all state untouched.
func (r *HardwareRenderer) Restore() {
	if len(r.stack) == 0 {
		return
	}

	r.restoreClip()

	n := len(r.stack) - 1
	rec := r.stack[n]
	r.stack[n] = nil
	r.stack = r.stack[:n]

	r.color = rec.color
	r.matrix = rec.matrix
	savePool.Put(rec)

	r.ctx.SetColor(r.color)
	r.ctx.SetTransform(r.matrix)
}

// Translate moves the origin by (x, y) in the current local space.
// Without sub-pixel positioning the inputs are truncated toward zero
// before they are applied, keeping sprite positions grid-aligned.
func (r *HardwareRenderer) Translate(x, y float64) {
	x = r.snap(x)
	y = r.snap(y)
	r.matrix = r.matrix.Multiply(Translate(x, y))
	r.ctx.SetTransform(r.matrix)
}

// Rotate rotates the local space by angle radians.
func (r *HardwareRenderer) Rotate(angle float64) {
	r.matrix = r.matrix.Multiply(Rotate(angle))
	r.ctx.SetTransform(r.matrix)
}

// Scale scales the local space by (x, y).
func (r *HardwareRenderer) Scale(x, y float64) {
	r.matrix = r.matrix.Multiply(Scale(x, y))
	r.ctx.SetTransform(r.matrix)
}

// Transform right-multiplies the current transform by m. Without
// sub-pixel positioning only the resulting translation components are
// truncated; the linear part stays continuous so rotation and scale
// are unaffected.
func (r *HardwareRenderer) Transform(m Matrix) {
	r.matrix = r.matrix.Multiply(m)
	if !r.subpixel {
		r.matrix.C = math.Trunc(r.matrix.C)
		r.matrix.F = math.Trunc(r.matrix.F)
	}
	r.ctx.SetTransform(r.matrix)
}

// SetTransform replaces the current transform with m. Equivalent to
// ResetTransform followed by Transform.
func (r *HardwareRenderer) SetTransform(m Matrix) {
	r.matrix = Identity()
	r.Transform(m)
}

// ResetTransform restores the identity transform.
func (r *HardwareRenderer) ResetTransform() {
	r.matrix = Identity()
	r.ctx.SetTransform(r.matrix)
}

// SetColor sets the draw color. The incoming alpha is multiplied by
// the previously active alpha instead of replacing it, so a global
// alpha set once persists across color changes.
func (r *HardwareRenderer) SetColor(c RGBA) {
	c.A = clamp01(c.A * r.color.A)
	r.color = c
	r.ctx.SetColor(r.color)
}

// SetGlobalAlpha sets the alpha multiplier applied to all drawing.
func (r *HardwareRenderer) SetGlobalAlpha(a float64) {
	r.color.A = clamp01(a)
	r.ctx.SetColor(r.color)
}

// SetBlendMode selects the composite operation. Unrecognized modes
// fall back to normal blending without error.
func (r *HardwareRenderer) SetBlendMode(mode BlendMode) {
	src, dst := mode.Factors()
	r.ctx.SetBlend(src, dst)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
