package gpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/canvas"
)

const (
	// uniformSize is the size of the viewport uniform: one vec4<f32>.
	uniformSize = 16

	// vertexStride is position vec2 + tex_coord vec2 + color vec4.
	vertexStride    = 32
	floatsPerVertex = 8

	defaultMaxTextures = 64
	submitTimeout      = 5 * time.Second
)

type spanKind int

const (
	spanQuad spanKind = iota
	spanLine
)

// pipelineKey selects a render pipeline variant. Pipelines differ only
// in topology and blend factors; they share one shader and layout.
type pipelineKey struct {
	kind     spanKind
	src, dst canvas.BlendFactor
}

// span is a run of vertices drawn with one pipeline, texture, and
// scissor state. State is captured when the geometry is recorded.
type span struct {
	key          pipelineKey
	tex          *canvas.Texture
	start, count int
	scissorOn    bool
	scissor      canvas.ScissorRect
}

// Config configures a compositor.
type Config struct {
	// Width and Height set the initial projection in logical pixels.
	Width, Height int

	// Format is the render target format. Zero selects BGRA8Unorm, the
	// usual surface format.
	Format gputypes.TextureFormat

	// MaxTextures bounds how many textures stay resident. Zero selects
	// a default of 64.
	MaxTextures int
}

// Compositor batches quads and polylines and submits them to the GPU in
// one render pass per Flush. It implements canvas.Compositor.
//
// Rendering is non-multisampled with no depth attachment. The target
// view is set per frame with SetTarget; a Flush without a target drops
// the batch.
type Compositor struct {
	device hal.Device
	queue  hal.Queue

	format      gputypes.TextureFormat
	maxTextures int

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	uniformBuf hal.Buffer
	pipelines  map[pipelineKey]hal.RenderPipeline
	samplers   map[samplerKey]hal.Sampler
	textures   map[*canvas.Texture]*boundTexture

	// white is a 1x1 opaque texture bound for untextured lines.
	white *canvas.Texture

	target           hal.TextureView
	targetW, targetH uint32

	verts       []float32
	spans       []span
	pendingSpan span

	color              canvas.RGBA
	xform              canvas.Matrix
	blendSrc, blendDst canvas.BlendFactor
	scissorOn          bool
	scissor            canvas.ScissorRect
	clearPending       bool
	clearColor         canvas.RGBA
	projW, projH       int
}

var _ canvas.Compositor = (*Compositor)(nil)

// New creates a compositor on an existing HAL device and queue. The
// compositor does not own the device; Destroy releases only the
// resources the compositor created.
func New(device hal.Device, queue hal.Queue, cfg Config) (*Compositor, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}

	var zeroFormat gputypes.TextureFormat
	format := cfg.Format
	if format == zeroFormat {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	maxTextures := cfg.MaxTextures
	if maxTextures <= 0 {
		maxTextures = defaultMaxTextures
	}

	c := &Compositor{
		device:      device,
		queue:       queue,
		format:      format,
		maxTextures: maxTextures,
		pipelines:   make(map[pipelineKey]hal.RenderPipeline),
		samplers:    make(map[samplerKey]hal.Sampler),
		textures:    make(map[*canvas.Texture]*boundTexture),
		color:       canvas.White,
		xform:       canvas.Identity(),
		blendSrc:    canvas.BlendOne,
		blendDst:    canvas.BlendOneMinusSrcAlpha,
	}

	shader, err := compileShader(device, "canvas_quad_shader", quadShaderSource)
	if err != nil {
		return nil, err
	}
	c.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "canvas_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}
	c.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "canvas_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	c.pipeLayout = pipeLayout

	uniformBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "canvas_uniforms",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	c.uniformBuf = uniformBuf

	c.SetProjection(cfg.Width, cfg.Height)

	if err := c.createWhiteTexture(); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

func (c *Compositor) createWhiteTexture() error {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	t := canvas.NewTexture(img)
	bt, err := c.createBoundTexture(t)
	if err != nil {
		return err
	}
	c.writePixels(bt, t)
	c.textures[t] = bt
	c.white = t
	return nil
}

// SetTarget sets the texture view the next Flush renders into, normally
// the acquired swapchain texture for the current frame.
func (c *Compositor) SetTarget(view hal.TextureView, w, h uint32) {
	c.target = view
	c.targetW = w
	c.targetH = h
}

// UploadTexture uploads t's source image. An already uploaded texture is
// skipped unless force is set; the font surface forces its upload because
// it mutates between batches. The x and y offsets are reserved for
// partial uploads; the full source is always written.
func (c *Compositor) UploadTexture(t *canvas.Texture, x, y float64, unit int, force bool) {
	bt, ok := c.textures[t]
	if ok && !force {
		return
	}
	if ok && (bt.w != uint32(t.Width) || bt.h != uint32(t.Height)) {
		c.destroyBoundTexture(bt)
		delete(c.textures, t)
		ok = false
	}
	if !ok {
		created, err := c.createBoundTexture(t)
		if err != nil {
			canvas.Logger().Warn("gpu: texture upload failed", "error", err,
				"width", t.Width, "height", t.Height)
			return
		}
		bt = created
		c.textures[t] = bt
	}
	c.writePixels(bt, t)
}

// ReleaseTexture destroys the GPU resources backing t. Hook it to the
// texture cache's eviction callback so evicted entries free GPU memory.
func (c *Compositor) ReleaseTexture(t *canvas.Texture) {
	if bt, ok := c.textures[t]; ok {
		c.destroyBoundTexture(bt)
		delete(c.textures, t)
	}
}

// AddQuad buffers a textured quad. The current transform is applied to
// the four corners and the current color tints the texels.
func (c *Compositor) AddQuad(t *canvas.Texture, key string, x, y, w, h float64) {
	if t == nil || t.Width <= 0 || t.Height <= 0 {
		return
	}
	r := t.UV(key)
	u0 := r.X / float64(t.Width)
	v0 := r.Y / float64(t.Height)
	u1 := (r.X + r.W) / float64(t.Width)
	v1 := (r.Y + r.H) / float64(t.Height)

	c.beginSpan(spanQuad, t)
	c.appendVertex(x, y, u0, v0)
	c.appendVertex(x+w, y, u1, v0)
	c.appendVertex(x+w, y+h, u1, v1)
	c.appendVertex(x, y, u0, v0)
	c.appendVertex(x+w, y+h, u1, v1)
	c.appendVertex(x, y+h, u0, v1)
	c.endSpan(6)
}

// DrawLine buffers a polyline as line-list segments through the white
// texture, colored by the current color.
func (c *Compositor) DrawLine(points []canvas.Point, closed bool) {
	if len(points) < 2 {
		return
	}
	segments := len(points) - 1
	if closed && len(points) > 2 {
		segments++
	}
	c.beginSpan(spanLine, c.white)
	for i := 0; i+1 < len(points); i++ {
		c.appendVertex(points[i].X, points[i].Y, 0.5, 0.5)
		c.appendVertex(points[i+1].X, points[i+1].Y, 0.5, 0.5)
	}
	if closed && len(points) > 2 {
		last := points[len(points)-1]
		c.appendVertex(last.X, last.Y, 0.5, 0.5)
		c.appendVertex(points[0].X, points[0].Y, 0.5, 0.5)
	}
	c.endSpan(segments * 2)
}

// beginSpan opens a vertex run for the given pipeline kind and texture.
// Consecutive runs with identical state merge in endSpan.
func (c *Compositor) beginSpan(kind spanKind, tex *canvas.Texture) {
	c.pendingSpan = span{
		key:       pipelineKey{kind: kind, src: c.blendSrc, dst: c.blendDst},
		tex:       tex,
		start:     len(c.verts) / floatsPerVertex,
		scissorOn: c.scissorOn,
		scissor:   c.scissor,
	}
}

func (c *Compositor) endSpan(count int) {
	s := c.pendingSpan
	s.count = count
	if n := len(c.spans); n > 0 {
		last := &c.spans[n-1]
		if last.key == s.key && last.tex == s.tex &&
			last.scissorOn == s.scissorOn && last.scissor == s.scissor {
			last.count += count
			return
		}
	}
	c.spans = append(c.spans, s)
}

func (c *Compositor) appendVertex(x, y, u, v float64) {
	p := c.xform.TransformPoint(canvas.Point{X: x, Y: y})
	c.verts = append(c.verts,
		float32(p.X), float32(p.Y),
		float32(u), float32(v),
		float32(c.color.R), float32(c.color.G),
		float32(c.color.B), float32(c.color.A),
	)
}

// Flush submits all buffered geometry in one render pass.
func (c *Compositor) Flush() {
	if len(c.spans) == 0 && !c.clearPending {
		return
	}
	if c.target == nil {
		canvas.Logger().Debug("gpu: flush without target, dropping batch",
			"spans", len(c.spans))
		c.dropBatch()
		return
	}
	if err := c.submit(); err != nil {
		canvas.Logger().Warn("gpu: flush failed", "error", err)
	}
	c.dropBatch()
}

func (c *Compositor) submit() error {
	var vertBuf hal.Buffer
	if len(c.verts) > 0 {
		buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "canvas_verts",
			Size:  uint64(len(c.verts) * 4),
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create vertex buffer: %w", err)
		}
		c.queue.WriteBuffer(buf, 0, floatBytes(c.verts))
		vertBuf = buf
		defer c.device.DestroyBuffer(buf)
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "canvas_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("canvas_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	loadOp := gputypes.LoadOpLoad
	if c.clearPending {
		loadOp = gputypes.LoadOpClear
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "canvas_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    c.target,
			LoadOp:  loadOp,
			StoreOp: gputypes.StoreOpStore,
			ClearValue: gputypes.Color{
				R: c.clearColor.R, G: c.clearColor.G,
				B: c.clearColor.B, A: c.clearColor.A,
			},
		}},
	})

	if vertBuf != nil {
		rp.SetVertexBuffer(0, vertBuf, 0)
	}
	for i := range c.spans {
		s := &c.spans[i]
		bt, ok := c.textures[s.tex]
		if !ok {
			canvas.Logger().Debug("gpu: span references unuploaded texture, skipped")
			continue
		}
		pipeline, err := c.pipeline(s.key)
		if err != nil {
			rp.End()
			return err
		}
		rp.SetPipeline(pipeline)
		rp.SetBindGroup(0, bt.bindGroup, nil)
		sx, sy, sw, sh := c.deviceScissor(s)
		rp.SetScissorRect(sx, sy, sw, sh)
		rp.Draw(uint32(s.count), 1, uint32(s.start), 0)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	fence, err := c.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)

	if err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := c.device.Wait(fence, 1, submitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// deviceScissor converts a span's scissor state to framebuffer
// coordinates. The batched rect uses a bottom-left origin; the render
// pass scissor uses top-left, so Y flips against the target height.
func (c *Compositor) deviceScissor(s *span) (x, y, w, h uint32) {
	if !s.scissorOn {
		return 0, 0, c.targetW, c.targetH
	}
	left := clampInt(s.scissor.X, 0, int(c.targetW))
	top := clampInt(int(c.targetH)-s.scissor.Y-s.scissor.H, 0, int(c.targetH))
	width := clampInt(s.scissor.W, 0, int(c.targetW)-left)
	height := clampInt(s.scissor.H, 0, int(c.targetH)-top)
	return uint32(left), uint32(top), uint32(width), uint32(height)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c *Compositor) pipeline(key pipelineKey) (hal.RenderPipeline, error) {
	if p, ok := c.pipelines[key]; ok {
		return p, nil
	}
	topology := gputypes.PrimitiveTopologyTriangleList
	label := "canvas_quad_pipeline"
	if key.kind == spanLine {
		topology = gputypes.PrimitiveTopologyLineList
		label = "canvas_line_pipeline"
	}
	blend := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: halBlendFactor(key.src),
			DstFactor: halBlendFactor(key.dst),
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	p, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: c.pipeLayout,
		Vertex: hal.VertexState{
			Module:     c.shader,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     c.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    c.format,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	c.pipelines[key] = p
	return p, nil
}

func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: vertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
			{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
		},
	}}
}

func halBlendFactor(f canvas.BlendFactor) gputypes.BlendFactor {
	switch f {
	case canvas.BlendZero:
		return gputypes.BlendFactorZero
	case canvas.BlendSrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case canvas.BlendOneMinusSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	default:
		return gputypes.BlendFactorOne
	}
}

func floatBytes(verts []float32) []byte {
	buf := make([]byte, len(verts)*4)
	for i, v := range verts {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func (c *Compositor) dropBatch() {
	c.verts = c.verts[:0]
	c.spans = c.spans[:0]
	c.clearPending = false
}

// Clear replaces all buffered geometry with a hard clear to col.
func (c *Compositor) Clear(col canvas.RGBA) {
	c.verts = c.verts[:0]
	c.spans = c.spans[:0]
	c.clearPending = true
	c.clearColor = col
}

// Reset drops buffered geometry and restores default pipeline state.
// Uploaded textures keep their GPU handles; callers re-register their
// cache entries.
func (c *Compositor) Reset() {
	c.dropBatch()
	c.color = canvas.White
	c.xform = canvas.Identity()
	c.blendSrc = canvas.BlendOne
	c.blendDst = canvas.BlendOneMinusSrcAlpha
	c.scissorOn = false
	c.scissor = canvas.ScissorRect{}
}

// SetProjection sets the logical surface size for the orthographic
// projection and rewrites the viewport uniform.
func (c *Compositor) SetProjection(w, h int) {
	c.projW, c.projH = w, h
	if c.uniformBuf == nil {
		return
	}
	uniform := [4]float32{float32(w), float32(h), 0, 0}
	c.queue.WriteBuffer(c.uniformBuf, 0, floatBytes(uniform[:]))
}

// SetBlend sets the blend factors captured by subsequent geometry.
func (c *Compositor) SetBlend(src, dst canvas.BlendFactor) {
	c.blendSrc, c.blendDst = src, dst
}

// SetScissor enables the scissor test for subsequent geometry. The rect
// is in device pixels with a bottom-left origin.
func (c *Compositor) SetScissor(r canvas.ScissorRect) {
	c.scissorOn = true
	c.scissor = r
}

// DisableScissor turns the scissor test off for subsequent geometry.
func (c *Compositor) DisableScissor() {
	c.scissorOn = false
}

// SetColor sets the vertex tint for subsequent geometry.
func (c *Compositor) SetColor(col canvas.RGBA) {
	c.color = col
}

// SetTransform sets the transform applied to vertices of subsequent
// geometry.
func (c *Compositor) SetTransform(m canvas.Matrix) {
	c.xform = m
}

// MaxTextures reports how many textures the compositor keeps resident.
func (c *Compositor) MaxTextures() int {
	return c.maxTextures
}

// Destroy releases every resource the compositor created. The device
// and queue belong to the host and are left untouched.
func (c *Compositor) Destroy() {
	for t, bt := range c.textures {
		c.destroyBoundTexture(bt)
		delete(c.textures, t)
	}
	for k, s := range c.samplers {
		c.device.DestroySampler(s)
		delete(c.samplers, k)
	}
	for k, p := range c.pipelines {
		c.device.DestroyRenderPipeline(p)
		delete(c.pipelines, k)
	}
	if c.uniformBuf != nil {
		c.device.DestroyBuffer(c.uniformBuf)
		c.uniformBuf = nil
	}
	if c.pipeLayout != nil {
		c.device.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.bindLayout != nil {
		c.device.DestroyBindGroupLayout(c.bindLayout)
		c.bindLayout = nil
	}
	if c.shader != nil {
		c.device.DestroyShaderModule(c.shader)
		c.shader = nil
	}
}
