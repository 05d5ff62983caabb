// Package text implements the glyph-fallback path for the canvas
// renderer.
//
// A Face shapes strings with HarfBuzz (go-text/typesetting) and
// rasterizes them with golang.org/x/image/font onto the CPU surface the
// renderer uploads as its font texture. Paragraph direction is detected
// with the Unicode bidi algorithm, so right-to-left strings measure and
// shape correctly.
//
// Face implements the canvas.FontFace interface:
//
//	face, err := text.NewFace(goregular.TTF, 16)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r, err := canvas.NewHardwareRenderer(800, 600,
//	    canvas.WithCompositor(comp), canvas.WithFontFace(face))
package text
