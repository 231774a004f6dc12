package compose

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/imprint/pkg/fonts"
	"github.com/matzehuels/imprint/pkg/template"
	"github.com/matzehuels/imprint/pkg/textlayout"
)

func testFace(t *testing.T, size float64) *fonts.Face {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "regular.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := fonts.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	face, err := store.Resolve("", "", "regular.ttf", size)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { face.Close() })
	return face
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCompositeDrawsOnlyInsideBlock(t *testing.T) {
	face := testFace(t, 24)
	base := solid(200, 100, color.White)
	spec := template.Spec{Position: template.Point{X: 20, Y: 10}, MaxWidth: 150, Align: template.AlignLeft}
	res := textlayout.Layout("Hello", spec, face)

	out := Composite(base, res, face, color.Black)

	if out.Bounds() != base.Bounds() {
		t.Fatalf("Bounds() = %v, want %v", out.Bounds(), base.Bounds())
	}
	changed := 0
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if out.RGBAAt(x, y) != base.RGBAAt(x, y) {
				changed++
				if x < 18 || y < 8 || y > 10+int(res.LineHeight)+2 {
					t.Fatalf("pixel (%d,%d) changed outside the text block", x, y)
				}
			}
		}
	}
	if changed == 0 {
		t.Error("no pixels changed")
	}
	if base.RGBAAt(25, 20) != (color.RGBA{255, 255, 255, 255}) {
		t.Error("base image was modified")
	}
}

func TestCompositeEmptyText(t *testing.T) {
	face := testFace(t, 24)
	base := solid(50, 50, color.White)
	res := textlayout.Layout("", template.Spec{}, face)
	out := Composite(base, res, face, color.Black)
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if out.RGBAAt(x, y) != base.RGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) changed for empty text", x, y)
			}
		}
	}
}

func TestFlatten(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 0})
	img.SetNRGBA(1, 0, color.NRGBA{255, 0, 0, 255})
	out := Flatten(img)
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("transparent pixel = %v, want white", got)
	}
	if got := out.NRGBAAt(1, 0); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("opaque pixel = %v, want red", got)
	}
	if !out.Opaque() {
		t.Error("Opaque() = false, want true")
	}
}

// firstInkRow returns the first row of out that differs from base, or -1.
func firstInkRow(out, base *image.RGBA) int {
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if out.RGBAAt(x, y) != base.RGBAAt(x, y) {
				return y
			}
		}
	}
	return -1
}

func TestCompositeInkStartsAtPosition(t *testing.T) {
	face := testFace(t, 50)
	spec := template.Spec{Position: template.Point{X: 20, Y: 100}, MaxWidth: 360}

	// Ink tops differ per string; every one must start on row 100. The top
	// edge may fall inside row 100 with faint coverage, so row 101 is the
	// latest acceptable first row.
	for _, text := range []string{"A", "x", "Hello", "quiet"} {
		base := solid(400, 250, color.White)
		out := Composite(base, textlayout.Layout(text, spec, face), face, color.Black)
		row := firstInkRow(out, base)
		if row < 100 || row > 101 {
			t.Errorf("%q: first ink row = %d, want 100", text, row)
		}
	}
}
