package gpu

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/canvas"
)

// boundTexture holds the GPU-side state for one uploaded canvas texture.
// The bind group references the shared uniform buffer, so it stays valid
// across projection changes.
type boundTexture struct {
	tex       hal.Texture
	view      hal.TextureView
	bindGroup hal.BindGroup
	w, h      uint32
}

// samplerKey identifies a sampler by filter and tiling mode.
type samplerKey struct {
	smooth bool
	repeat canvas.RepeatMode
}

func (c *Compositor) sampler(key samplerKey) (hal.Sampler, error) {
	if s, ok := c.samplers[key]; ok {
		return s, nil
	}
	filter := gputypes.FilterModeNearest
	if key.smooth {
		filter = gputypes.FilterModeLinear
	}
	addrU := gputypes.AddressModeClampToEdge
	addrV := gputypes.AddressModeClampToEdge
	switch key.repeat {
	case canvas.Repeat:
		addrU = gputypes.AddressModeRepeat
		addrV = gputypes.AddressModeRepeat
	case canvas.RepeatX:
		addrU = gputypes.AddressModeRepeat
	case canvas.RepeatY:
		addrV = gputypes.AddressModeRepeat
	}
	s, err := c.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        fmt.Sprintf("canvas_sampler_%v_%v", key.smooth, key.repeat),
		AddressModeU: addrU,
		AddressModeV: addrV,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	c.samplers[key] = s
	return s, nil
}

// createBoundTexture creates the texture, view, and bind group for t.
func (c *Compositor) createBoundTexture(t *canvas.Texture) (*boundTexture, error) {
	w, h := uint32(t.Width), uint32(t.Height)
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "canvas_texture",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "canvas_texture_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view: %w", err)
	}
	sampler, err := c.sampler(samplerKey{smooth: t.Smooth, repeat: t.Repeat})
	if err != nil {
		c.device.DestroyTextureView(view)
		c.device.DestroyTexture(tex)
		return nil, err
	}
	bindGroup, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "canvas_texture_bind",
		Layout: c.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: c.uniformBuf.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: view.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		c.device.DestroyTextureView(view)
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	return &boundTexture{tex: tex, view: view, bindGroup: bindGroup, w: w, h: h}, nil
}

func (c *Compositor) destroyBoundTexture(bt *boundTexture) {
	c.device.DestroyBindGroup(bt.bindGroup)
	c.device.DestroyTextureView(bt.view)
	c.device.DestroyTexture(bt.tex)
}

// writePixels uploads the texture's source image.
func (c *Compositor) writePixels(bt *boundTexture, t *canvas.Texture) {
	data := pixelData(t)
	c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: bt.tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  bt.w * 4,
			RowsPerImage: bt.h,
		},
		&hal.Extent3D{Width: bt.w, Height: bt.h, DepthOrArrayLayers: 1},
	)
}

// pixelData converts the texture source to tightly packed RGBA bytes.
// Premultiplied textures go through image.RGBA (alpha-premultiplied by
// convention); straight-alpha textures through image.NRGBA.
func pixelData(t *canvas.Texture) []byte {
	b := t.Source.Bounds()
	w, h := b.Dx(), b.Dy()
	if t.Premultiply {
		if src, ok := t.Source.(*image.RGBA); ok && src.Stride == w*4 {
			return src.Pix
		}
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(img, img.Bounds(), t.Source, b.Min, draw.Src)
		return img.Pix
	}
	if src, ok := t.Source.(*image.NRGBA); ok && src.Stride == w*4 {
		return src.Pix
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), t.Source, b.Min, draw.Src)
	return img.Pix
}
