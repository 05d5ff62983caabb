package canvas

import (
	"context"
	"image/color"
	"image/draw"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// stubFace reports fixed metrics and records draw calls.
type stubFace struct {
	w, h  float64
	drawn []string
}

func (f *stubFace) Measure(text string) (w, h float64) {
	return f.w, f.h
}

func (f *stubFace) Draw(dst draw.Image, text string, x, y float64, c color.Color) {
	f.drawn = append(f.drawn, text)
}

// captureHandler collects log records for assertions.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}
func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) warnings() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []slog.Record
	for _, r := range h.records {
		if r.Level == slog.LevelWarn {
			out = append(out, r)
		}
	}
	return out
}

func TestFillTextWithoutFaceDrawsNothing(t *testing.T) {
	r, fc := newTestRenderer(t)
	uploads := len(fc.uploads)

	r.FillText("hello", 10, 10)

	if len(fc.quads) != 0 || len(fc.uploads) != uploads {
		t.Error("FillText without a face produced output")
	}
}

func TestFillTextGlyphFallback(t *testing.T) {
	face := &stubFace{w: 40, h: 16}
	r, fc := newTestRenderer(t, WithFontFace(face), WithSubpixel(false))

	r.FillText("hello", 10.7, 20.2)

	if len(face.drawn) != 1 || face.drawn[0] != "hello" {
		t.Fatalf("face drew %v; want [hello]", face.drawn)
	}

	// The font surface mutates between batches; its upload is forced.
	up := fc.uploads[len(fc.uploads)-1]
	if !up.force {
		t.Error("font texture upload was not forced")
	}
	// Surface is the next power of two covering the 200x100 canvas.
	if up.tex.Width != 256 || up.tex.Height != 128 {
		t.Errorf("font texture = %dx%d; want 256x128", up.tex.Width, up.tex.Height)
	}

	q := fc.quads[len(fc.quads)-1]
	if q.key != "0,0,40,16" {
		t.Errorf("key = %q; want 0,0,40,16", q.key)
	}
	if q.x != 10 || q.y != 20 {
		t.Errorf("dest = (%v, %v); want snapped (10, 20)", q.x, q.y)
	}
	if q.w != 40 || q.h != 16 {
		t.Errorf("size = (%v, %v); want (40, 16)", q.w, q.h)
	}
}

func TestFillTextWarnsOnce(t *testing.T) {
	h := &captureHandler{}
	SetLogger(slog.New(h))
	defer SetLogger(nil)

	face := &stubFace{w: 10, h: 10}
	r, _ := newTestRenderer(t, WithFontFace(face))

	r.FillText("a", 0, 0)
	r.FillText("b", 0, 0)

	warns := h.warnings()
	if len(warns) != 1 {
		t.Fatalf("warnings = %d; want 1", len(warns))
	}
	if !strings.Contains(warns[0].Message, "glyph") {
		t.Errorf("warning message = %q", warns[0].Message)
	}
}

func TestFillTextEmptyString(t *testing.T) {
	face := &stubFace{w: 10, h: 10}
	r, fc := newTestRenderer(t, WithFontFace(face))

	r.FillText("", 0, 0)

	if len(fc.quads) != 0 || len(face.drawn) != 0 {
		t.Error("empty string produced output")
	}
}

func TestSetLoggerNilRestoresSilence(t *testing.T) {
	h := &captureHandler{}
	SetLogger(slog.New(h))
	SetLogger(nil)

	Logger().Warn("dropped")

	if len(h.records) != 0 {
		t.Errorf("records = %d; want 0", len(h.records))
	}
}
