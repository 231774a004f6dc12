// Package fonts resolves font references to loaded faces.
//
// A [Store] is a directory of font files addressable by filename. It is
// enumerated once at construction and shared read-only between requests;
// each font file is parsed at most once, on first use.
//
// [Store.Resolve] walks the fallback chain (request override, template
// default, global fallback) and returns a [Face]: one face at one size that
// both measures and draws text, so layout and compositing can never disagree
// about glyph widths.
package fonts

import (
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// DefaultFallback is the global fallback font used when neither the request
// nor the template names one.
const DefaultFallback = "sao.ttf"

// Extensions recognized as font files in a store directory.
var Extensions = map[string]bool{
	".ttf": true,
	".otf": true,
}

// Face is a resolved font at a fixed pixel size.
// A Face is not safe for concurrent use; resolve one per request.
type Face struct {
	name     string
	identity string
	size     float64
	face     font.Face
}

// Name returns the font file name the face was loaded from.
func (f *Face) Name() string { return f.name }

// Identity returns a string that changes whenever the underlying file does.
func (f *Face) Identity() string { return f.identity }

// Size returns the face size in pixels.
func (f *Face) Size() float64 { return f.size }

// FontFace exposes the underlying face for drawing.
func (f *Face) FontFace() font.Face { return f.face }

// Measure returns the advance width of text in pixels.
func (f *Face) Measure(text string) float64 {
	return fromFixed(font.MeasureString(f.face, text))
}

// LineMetrics returns the face ascent and descent in pixels, both positive.
func (f *Face) LineMetrics() (ascent, descent float64) {
	m := f.face.Metrics()
	return fromFixed(m.Ascent), fromFixed(m.Descent)
}

// InkTop returns the top of the ink of text relative to the baseline, as a
// y offset (negative above the baseline). Empty text has no ink and yields 0.
func (f *Face) InkTop(text string) float64 {
	b, _ := font.BoundString(f.face, text)
	return fromFixed(b.Min.Y)
}

// Close releases the face.
func (f *Face) Close() error {
	if f.face == nil {
		return nil
	}
	return f.face.Close()
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

