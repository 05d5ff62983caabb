// Package gpu implements the canvas.Compositor interface on top of the
// gogpu wgpu HAL.
//
// The compositor batches textured quads and polylines into a single
// vertex buffer and submits them in one render pass per Flush. Geometry
// is recorded in call order; pipeline state (blend factors, scissor
// rectangle, bound texture) is captured per span when the geometry is
// recorded, so late state changes never affect earlier draws.
//
// The device is received from the host, never created here. Hosts that
// implement gpucontext.DeviceProvider and expose their HAL handles can
// hand a compositor their shared device via FromProvider; embedders that
// already hold hal.Device and hal.Queue use New directly.
package gpu
