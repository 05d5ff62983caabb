package gpu

import (
	"encoding/binary"
	"image"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/canvas"
)

// newBatchCompositor builds a compositor with only the CPU-side batching
// state initialized. Nothing here touches a device.
func newBatchCompositor() *Compositor {
	c := &Compositor{
		maxTextures: defaultMaxTextures,
		textures:    make(map[*canvas.Texture]*boundTexture),
		color:       canvas.White,
		xform:       canvas.Identity(),
		blendSrc:    canvas.BlendOne,
		blendDst:    canvas.BlendOneMinusSrcAlpha,
	}
	c.white = canvas.NewTexture(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	return c
}

func TestAddQuadVertices(t *testing.T) {
	c := newBatchCompositor()
	tex := canvas.NewTexture(image.NewRGBA(image.Rect(0, 0, 64, 32)))

	c.AddQuad(tex, "default", 10, 20, 30, 40)

	if len(c.verts) != 6*floatsPerVertex {
		t.Fatalf("verts = %d floats; want %d", len(c.verts), 6*floatsPerVertex)
	}
	if len(c.spans) != 1 {
		t.Fatalf("spans = %d; want 1", len(c.spans))
	}
	s := c.spans[0]
	if s.key.kind != spanQuad || s.tex != tex || s.start != 0 || s.count != 6 {
		t.Errorf("span = %+v", s)
	}
	// First vertex: top-left corner, full-texture UV, white tint.
	want := []float32{10, 20, 0, 0, 1, 1, 1, 1}
	for i, v := range want {
		if c.verts[i] != v {
			t.Errorf("vert[%d] = %v; want %v", i, c.verts[i], v)
		}
	}
}

func TestAddQuadRegionUV(t *testing.T) {
	c := newBatchCompositor()
	tex := canvas.NewTexture(image.NewRGBA(image.Rect(0, 0, 64, 32)))

	c.AddQuad(tex, canvas.RegionKey(16, 8, 32, 16), 0, 0, 32, 16)

	// Second vertex is the top-right corner: u1 = (16+32)/64, v0 = 8/32.
	u1 := c.verts[floatsPerVertex+2]
	v0 := c.verts[floatsPerVertex+3]
	if u1 != 0.75 || v0 != 0.25 {
		t.Errorf("uv = (%v, %v); want (0.75, 0.25)", u1, v0)
	}
}

func TestAddQuadAppliesTransformAndColor(t *testing.T) {
	c := newBatchCompositor()
	tex := canvas.NewTexture(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	c.SetTransform(canvas.Translate(100, 200))
	c.SetColor(canvas.RGBA{R: 1, A: 0.5})

	c.AddQuad(tex, "", 1, 2, 3, 4)

	if c.verts[0] != 101 || c.verts[1] != 202 {
		t.Errorf("position = (%v, %v); want (101, 202)", c.verts[0], c.verts[1])
	}
	if c.verts[4] != 1 || c.verts[5] != 0 || c.verts[7] != 0.5 {
		t.Errorf("color = %v", c.verts[4:8])
	}
}

func TestSpanMerging(t *testing.T) {
	c := newBatchCompositor()
	tex := canvas.NewTexture(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	other := canvas.NewTexture(image.NewRGBA(image.Rect(0, 0, 8, 8)))

	c.AddQuad(tex, "", 0, 0, 1, 1)
	c.AddQuad(tex, "", 2, 0, 1, 1)
	if len(c.spans) != 1 || c.spans[0].count != 12 {
		t.Fatalf("same-state quads did not merge: %+v", c.spans)
	}

	c.AddQuad(other, "", 4, 0, 1, 1)
	if len(c.spans) != 2 {
		t.Fatalf("texture change did not split span: %+v", c.spans)
	}

	c.SetBlend(canvas.BlendSrcAlpha, canvas.BlendOneMinusSrcAlpha)
	c.AddQuad(other, "", 6, 0, 1, 1)
	if len(c.spans) != 3 {
		t.Fatalf("blend change did not split span: %+v", c.spans)
	}
}

func TestSpanCapturesScissor(t *testing.T) {
	c := newBatchCompositor()
	tex := canvas.NewTexture(image.NewRGBA(image.Rect(0, 0, 8, 8)))

	c.AddQuad(tex, "", 0, 0, 1, 1)
	c.SetScissor(canvas.ScissorRect{X: 10, Y: 20, W: 30, H: 40})
	c.AddQuad(tex, "", 2, 0, 1, 1)
	c.DisableScissor()
	c.AddQuad(tex, "", 4, 0, 1, 1)

	if len(c.spans) != 3 {
		t.Fatalf("spans = %d; want 3", len(c.spans))
	}
	if c.spans[0].scissorOn || !c.spans[1].scissorOn || c.spans[2].scissorOn {
		t.Errorf("scissor capture = %v %v %v",
			c.spans[0].scissorOn, c.spans[1].scissorOn, c.spans[2].scissorOn)
	}
	if c.spans[1].scissor != (canvas.ScissorRect{X: 10, Y: 20, W: 30, H: 40}) {
		t.Errorf("scissor = %+v", c.spans[1].scissor)
	}
}

func TestDrawLineSegments(t *testing.T) {
	c := newBatchCompositor()
	pts := []canvas.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}

	c.DrawLine(pts, false)
	if c.spans[0].count != 4 {
		t.Errorf("open polyline verts = %d; want 4", c.spans[0].count)
	}

	c.dropBatch()
	c.DrawLine(pts, true)
	if c.spans[0].count != 6 {
		t.Errorf("closed polyline verts = %d; want 6", c.spans[0].count)
	}
	// Closing segment runs last point -> first point.
	base := 4 * floatsPerVertex
	if c.verts[base] != 10 || c.verts[base+1] != 10 {
		t.Errorf("closing segment start = (%v, %v)", c.verts[base], c.verts[base+1])
	}
	if c.spans[0].key.kind != spanLine || c.spans[0].tex != c.white {
		t.Errorf("line span = %+v", c.spans[0])
	}
}

func TestDrawLineTooShort(t *testing.T) {
	c := newBatchCompositor()
	c.DrawLine([]canvas.Point{{X: 1, Y: 1}}, true)
	if len(c.spans) != 0 {
		t.Error("single point produced geometry")
	}
}

func TestClearDropsBatch(t *testing.T) {
	c := newBatchCompositor()
	tex := canvas.NewTexture(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	c.AddQuad(tex, "", 0, 0, 1, 1)

	c.Clear(canvas.RGBA{B: 1, A: 1})

	if len(c.spans) != 0 || len(c.verts) != 0 {
		t.Error("Clear kept buffered geometry")
	}
	if !c.clearPending || c.clearColor != (canvas.RGBA{B: 1, A: 1}) {
		t.Errorf("clear state = %v %+v", c.clearPending, c.clearColor)
	}
}

func TestResetRestoresDefaultsKeepsTextures(t *testing.T) {
	c := newBatchCompositor()
	tex := canvas.NewTexture(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	c.textures[tex] = &boundTexture{w: 8, h: 8}
	c.SetColor(canvas.RGBA{R: 1, A: 1})
	c.SetTransform(canvas.Translate(5, 5))
	c.SetBlend(canvas.BlendSrcAlpha, canvas.BlendOneMinusSrcAlpha)
	c.SetScissor(canvas.ScissorRect{W: 10, H: 10})
	c.AddQuad(tex, "", 0, 0, 1, 1)

	c.Reset()

	if len(c.spans) != 0 || c.scissorOn || c.color != canvas.White {
		t.Error("Reset did not restore defaults")
	}
	if !c.xform.IsIdentity() {
		t.Error("Reset did not restore identity transform")
	}
	if _, ok := c.textures[tex]; !ok {
		t.Error("Reset dropped an uploaded texture")
	}
}

func TestDeviceScissorFlipsY(t *testing.T) {
	c := newBatchCompositor()
	c.targetW, c.targetH = 200, 100

	s := &span{scissorOn: true, scissor: canvas.ScissorRect{X: 15, Y: 35, W: 50, H: 40}}
	x, y, w, h := c.deviceScissor(s)
	// Bottom-left origin Y=35 with H=40 puts the top edge at 100-35-40=25.
	if x != 15 || y != 25 || w != 50 || h != 40 {
		t.Errorf("scissor = (%d, %d, %d, %d); want (15, 25, 50, 40)", x, y, w, h)
	}

	off := &span{}
	x, y, w, h = c.deviceScissor(off)
	if x != 0 || y != 0 || w != 200 || h != 100 {
		t.Errorf("disabled scissor = (%d, %d, %d, %d)", x, y, w, h)
	}
}

func TestDeviceScissorClampsToTarget(t *testing.T) {
	c := newBatchCompositor()
	c.targetW, c.targetH = 100, 100

	s := &span{scissorOn: true, scissor: canvas.ScissorRect{X: -10, Y: -10, W: 300, H: 300}}
	x, y, w, h := c.deviceScissor(s)
	if x != 0 || y != 0 || w != 100 || h != 100 {
		t.Errorf("clamped scissor = (%d, %d, %d, %d)", x, y, w, h)
	}
}

func TestHalBlendFactorMapping(t *testing.T) {
	tests := []struct {
		in   canvas.BlendFactor
		want gputypes.BlendFactor
	}{
		{canvas.BlendZero, gputypes.BlendFactorZero},
		{canvas.BlendOne, gputypes.BlendFactorOne},
		{canvas.BlendSrcAlpha, gputypes.BlendFactorSrcAlpha},
		{canvas.BlendOneMinusSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha},
	}
	for _, tt := range tests {
		if got := halBlendFactor(tt.in); got != tt.want {
			t.Errorf("halBlendFactor(%v) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestFloatBytesLittleEndian(t *testing.T) {
	b := floatBytes([]float32{1.5, -2})
	if len(b) != 8 {
		t.Fatalf("len = %d; want 8", len(b))
	}
	if got := binary.LittleEndian.Uint32(b); got != math.Float32bits(1.5) {
		t.Errorf("word 0 = %#x", got)
	}
	if got := binary.LittleEndian.Uint32(b[4:]); got != math.Float32bits(-2) {
		t.Errorf("word 1 = %#x", got)
	}
}

func TestPixelDataConversions(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 2))
	rgba.Pix[0] = 0x80
	pre := canvas.NewTexture(rgba) // premultiplied by default
	if got := pixelData(pre); &got[0] != &rgba.Pix[0] {
		t.Error("premultiplied RGBA source was copied instead of reused")
	}

	straight := canvas.NewTexture(rgba)
	straight.Premultiply = false
	if got := pixelData(straight); len(got) != 2*2*4 {
		t.Errorf("straight-alpha conversion len = %d; want 16", len(got))
	}
}

func TestSurfaceNilCallbacks(t *testing.T) {
	var s Surface
	s.Resize(10, 10) // must not panic
	s.SetDisplaySize(5, 5)

	var gotW, gotH int
	s.ResizeFunc = func(w, h int) { gotW, gotH = w, h }
	s.Resize(800, 600)
	if gotW != 800 || gotH != 600 {
		t.Errorf("resize = (%d, %d)", gotW, gotH)
	}
}
