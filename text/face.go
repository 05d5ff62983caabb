package text

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/canvas"
)

const defaultSize = 12

// Face shapes and rasterizes text at a fixed size. Measurement goes
// through HarfBuzz shaping; rasterization goes through x/image's
// opentype rasterizer.
//
// The parsed font objects are read-only and shared; the HarfbuzzShaper
// instances are pooled because they carry mutable buffers.
type Face struct {
	font    *gtfont.Font
	otFont  *opentype.Font
	size    float64
	dpi     float64
	hinting xfont.Hinting

	shaperPool sync.Pool
}

var _ canvas.FontFace = (*Face)(nil)

// Option configures a Face.
type Option func(*Face)

// WithDPI sets the rasterization DPI. The default is 72, which makes
// one point equal one pixel.
func WithDPI(dpi float64) Option {
	return func(f *Face) {
		if dpi > 0 {
			f.dpi = dpi
		}
	}
}

// WithHinting sets the rasterizer hinting mode.
func WithHinting(h xfont.Hinting) Option {
	return func(f *Face) { f.hinting = h }
}

// NewFace parses TTF or OTF font data and returns a face at the given
// pixel size. A non-positive size selects a default of 12.
func NewFace(data []byte, size float64, opts ...Option) (*Face, error) {
	if size <= 0 {
		size = defaultSize
	}
	gtFace, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}
	otFont, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}
	f := &Face{
		font:    gtFace.Font,
		otFont:  otFont,
		size:    size,
		dpi:     72,
		hinting: xfont.HintingFull,
	}
	f.shaperPool.New = func() any { return &shaping.HarfbuzzShaper{} }
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Size returns the face's pixel size.
func (f *Face) Size() float64 {
	return f.size
}

// Measure returns the pixel width and height of text when drawn. Width
// is the shaped advance; height is the shaped line extent (ascent plus
// descent).
func (f *Face) Measure(text string) (w, h float64) {
	if text == "" {
		return 0, 0
	}
	out := f.shape(text)
	w = fixedToFloat(out.Advance)
	h = fixedToFloat(out.LineBounds.Ascent - out.LineBounds.Descent)
	return w, h
}

// Draw renders text onto dst with its top-left corner at (x, y). The
// baseline sits one ascent below y, so the rendered box lines up with
// what Measure reports.
func (f *Face) Draw(dst draw.Image, text string, x, y float64, c color.Color) {
	if text == "" {
		return
	}
	otFace, err := opentype.NewFace(f.otFont, &opentype.FaceOptions{
		Size:    f.size,
		DPI:     f.dpi,
		Hinting: f.hinting,
	})
	if err != nil {
		return
	}
	defer func() {
		_ = otFace.Close()
	}()

	metrics := otFace.Metrics()
	d := &xfont.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: otFace,
		Dot: fixed.Point26_6{
			X: floatToFixed(x),
			Y: floatToFixed(y) + metrics.Ascent,
		},
	}
	d.DrawString(text)
}

// shape runs HarfBuzz shaping over the whole string as one run with the
// detected paragraph direction and script.
func (f *Face) shape(text string) shaping.Output {
	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: detectDirection(text),
		Face:      gtfont.NewFace(f.font),
		Size:      floatToFixed(f.size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	shaper := f.shaperPool.Get().(*shaping.HarfbuzzShaper)
	out := shaper.Shape(input)
	f.shaperPool.Put(shaper)
	return out
}

// detectDirection resolves the paragraph direction with the Unicode
// bidi algorithm. The first run's direction decides; errors and empty
// orderings fall back to left-to-right.
func detectDirection(text string) di.Direction {
	var p bidi.Paragraph
	if _, err := p.SetString(text); err != nil {
		return di.DirectionLTR
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return di.DirectionLTR
	}
	run := ordering.Run(0)
	if run.Direction() == bidi.RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// detectScript returns the script of the first non-space rune. Mixed
// scripts shape as the dominant one; the fallback path does not split
// runs.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
