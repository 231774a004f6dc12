// Package compose draws laid-out text onto a page image.
package compose

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/imprint/pkg/fonts"
	"github.com/matzehuels/imprint/pkg/textlayout"
)

// Composite returns a copy of base with every line of res drawn in face and
// c. Pixels outside the glyphs keep their base values; base is not modified.
func Composite(base image.Image, res textlayout.Result, face *fonts.Face, c color.Color) *image.RGBA {
	dc := gg.NewContextForImage(base)
	dc.SetFontFace(face.FontFace())
	dc.SetColor(c)
	for _, line := range res.Lines {
		if line.Text == "" {
			continue
		}
		dc.DrawString(line.Text, line.X, line.Baseline)
	}
	return dc.Image().(*image.RGBA)
}

// Flatten composites img over an opaque white page of the same size.
// Output formats without alpha are always written from a flattened page.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
