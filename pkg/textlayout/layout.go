// Package textlayout breaks text into lines that fit a template's text block
// and places each line.
//
// Wrapping is greedy by measured pixel width: words are appended to the
// current line, separated by a single space, while the line still fits.
// Words are never split, so a word wider than the block gets a line of its
// own and overflows it.
package textlayout

import (
	"math"
	"strings"

	"github.com/matzehuels/imprint/pkg/template"
)

// LineSpacing is the line height as a multiple of the font's ascent+descent.
const LineSpacing = 1.25

// Metrics is the measurement contract layout depends on.
// *fonts.Face implements it.
type Metrics interface {
	Measure(text string) float64
	LineMetrics() (ascent, descent float64)
	// InkTop is the top of the ink of text as a y offset from the baseline.
	InkTop(text string) float64
}

// Line is one placed line of text. Coordinates are whole pixels.
type Line struct {
	Text     string
	Width    float64
	X        float64
	Top      float64 // first pixel row holding ink
	Baseline float64
}

// Result is the output of Layout.
type Result struct {
	Lines      []Line
	LineHeight float64
	Truncated  int // lines dropped by the template's line cap
}

// Layout wraps text into the block described by spec and positions each line.
// Each line is placed so the top of its ink falls on the pixel row y, which
// starts at the position and advances by LineHeight; the baseline therefore
// depends on the glyphs of the line. Empty or all-whitespace text yields a
// single empty line at the position.
func Layout(text string, spec template.Spec, m Metrics) Result {
	lines := Wrap(text, spec.MaxWidth, m)

	var res Result
	if limit, ok := spec.LineCap(); ok && len(lines) > limit {
		res.Truncated = len(lines) - limit
		lines = lines[:limit]
	}

	ascent, descent := m.LineMetrics()
	res.LineHeight = LineSpacing * (ascent + descent)
	res.Lines = make([]Line, 0, len(lines))

	box := float64(spec.MaxWidth)
	if spec.Unbounded() {
		box = 0
	}
	y := spec.Position.Y
	for _, text := range lines {
		w := m.Measure(text)
		x := spec.Position.X
		switch spec.Align {
		case template.AlignCenter:
			x += box/2 - w/2
		case template.AlignRight:
			x += box - w
		}
		top := round(y)
		res.Lines = append(res.Lines, Line{
			Text:     text,
			Width:    w,
			X:        round(x),
			Top:      top,
			Baseline: top - math.Floor(m.InkTop(text)),
		})
		y += res.LineHeight
	}
	return res
}

// Wrap splits text into lines no wider than maxWidth. A maxWidth of zero or
// less disables wrapping and joins all words on one line.
func Wrap(text string, maxWidth int, m Metrics) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	cur := ""
	for _, word := range words {
		candidate := strings.TrimSpace(cur + " " + word)
		if maxWidth <= 0 || m.Measure(candidate) <= float64(maxWidth) {
			cur = candidate
			continue
		}
		// An overlong first word closes an empty line before it.
		lines = append(lines, cur)
		cur = word
	}
	return append(lines, cur)
}

func round(v float64) float64 {
	return math.Floor(v + 0.5)
}
