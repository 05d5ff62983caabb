// Package canvas provides a Canvas-2D-style immediate drawing API on top
// of a batching GPU compositor.
//
// A renderer exposes familiar operations -- Save/Restore, Translate/Rotate/
// Scale, FillRect, DrawImage, ClipRect, stroke primitives -- while deferring
// actual GPU submission to a Compositor that batches textured quads and
// polylines. The renderer owns the drawing state machine: the save/restore
// stack, the current affine transform (with optional pixel snapping), the
// clip/scissor region, and the lifecycle of the two bootstrap textures
// (the 1x1 fill texture and the glyph-fallback font texture).
//
// Basic usage:
//
//	comp, _ := gpu.New(device, queue, gpu.Config{Width: 800, Height: 600})
//	r, err := canvas.NewHardwareRenderer(800, 600, canvas.WithCompositor(comp))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r.Save()
//	r.Translate(100, 100)
//	r.SetColor(canvas.Hex("#ff8800"))
//	r.FillRect(0, 0, 64, 64)
//	r.Restore()
//	r.Flush()
//
// Geometry passed to draw operations is in logical (pre-transform)
// coordinates; the compositor applies the current transform during
// submission. Draw calls reach the compositor in call order, and state
// changes that could retroactively affect batched geometry (a clip change,
// a forced texture upload) flush the batch first.
//
// By default canvas produces no log output. Call SetLogger to enable
// structured logging via log/slog.
package canvas
