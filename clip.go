package canvas

// clipRecord pairs a logical clip rectangle with its device scissor
// rectangle. depth is the save-stack depth at push time, so Restore can
// tell whether the record belongs to the scope being popped.
type clipRecord struct {
	depth   int
	logical Region
	device  ScissorRect
}

// ClipRect clips subsequent drawing to the rectangle (x, y, w, h) in
// logical coordinates.
//
// Passing the full surface bounds disables clipping entirely; this is
// the escape hatch for clearing the clip. Re-applying the rectangle
// that is already active is a no-op and triggers no flush.
//
// The device scissor rectangle honors only the translation components
// of the current transform. Rotation and scale do not apply, since GPU
// scissor rectangles are axis-aligned.
func (r *HardwareRenderer) ClipRect(x, y, w, h float64) {
	if x == 0 && y == 0 && w == float64(r.width) && h == float64(r.height) {
		if r.scissorOn {
			r.ctx.Flush()
			r.disableClip()
		}
		return
	}

	req := Region{X: x, Y: y, W: w, H: h}
	if r.scissorOn && req == r.clip {
		return
	}

	// Geometry issued before the clip change must not be affected by it.
	r.ctx.Flush()

	tx, ty := r.matrix.Translation()
	dev := ScissorRect{
		X: int(x + tx),
		Y: r.height - int(y+ty+h),
		W: int(w),
		H: int(h),
	}

	r.scissorOn = true
	r.clip = req
	r.scissorRect = dev
	r.ctx.SetScissor(dev)

	Logger().Debug("canvas: scissor enabled",
		"x", dev.X, "y", dev.Y, "w", dev.W, "h", dev.H)
}

// restoreClip reinstates the clip state of the scope being popped.
// A record pushed at the current depth is re-applied as the active
// scissor without a flush; if the scope saved no clip, scissoring is
// disabled and the rectangle resets to the full surface bounds.
func (r *HardwareRenderer) restoreClip() {
	if n := len(r.clipStack); n > 0 && r.clipStack[n-1].depth == len(r.stack) {
		rec := r.clipStack[n-1]
		r.clipStack = r.clipStack[:n-1]

		r.scissorOn = true
		r.clip = rec.logical
		r.scissorRect = rec.device
		r.ctx.SetScissor(rec.device)
		return
	}

	if r.scissorOn {
		r.disableClip()
	}
}

// disableClip turns the scissor test off and resets the clip rectangle
// to the full surface bounds.
func (r *HardwareRenderer) disableClip() {
	r.scissorOn = false
	r.clip = Region{W: float64(r.width), H: float64(r.height)}
	r.scissorRect = ScissorRect{W: r.width, H: r.height}
	r.ctx.DisableScissor()

	Logger().Debug("canvas: scissor disabled")
}
