package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/canvas"
)

// FromProvider creates a compositor on the shared device of a host that
// implements gpucontext.DeviceProvider. The compositor receives the
// device from the host, it does not create one. The provider must also
// expose its HAL handles through HalDevice() any and HalQueue() any.
//
// When cfg.Format is zero the provider's surface format is used, so the
// quad pipeline matches the swapchain.
func FromProvider(provider gpucontext.DeviceProvider, cfg Config) (*Compositor, error) {
	if provider == nil {
		return nil, ErrNoDevice
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrNoDevice)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNoDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNoDevice)
	}

	var zeroFormat gputypes.TextureFormat
	if cfg.Format == zeroFormat {
		cfg.Format = provider.SurfaceFormat()
	}
	return New(device, queue, cfg)
}

// Surface adapts a host window to the canvas.Screen interface. The host
// wires the callbacks to its own resize machinery; nil callbacks make
// the corresponding call a no-op, which suits offscreen targets.
type Surface struct {
	// ResizeFunc receives the backing-store size in device pixels.
	ResizeFunc func(w, h int)

	// DisplaySizeFunc receives the logical size the surface is shown at.
	DisplaySizeFunc func(w, h int)
}

var _ canvas.Screen = (*Surface)(nil)

func (s *Surface) Resize(w, h int) {
	if s.ResizeFunc != nil {
		s.ResizeFunc(w, h)
	}
}

func (s *Surface) SetDisplaySize(w, h int) {
	if s.DisplaySizeFunc != nil {
		s.DisplaySizeFunc(w, h)
	}
}
