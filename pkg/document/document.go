// Package document serializes composited pages into an output file.
//
// Three formats are supported: multi-page PDF, and single-page PNG or JPEG.
// PDF output is deterministic: the same pages always produce the same bytes.
package document

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/imprint/pkg/compose"
	"github.com/matzehuels/imprint/pkg/errors"
)

// Format is an output document format.
type Format string

// Supported formats.
const (
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// Formats lists the valid formats.
var Formats = []Format{FormatPDF, FormatPNG, FormatJPEG}

// JPEGQuality is the quality used for JPEG output.
const JPEGQuality = 95

// epoch is stamped as creation and modification date so reruns are
// byte-identical.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Page is one raster page with the resolution it was produced at.
type Page struct {
	Image image.Image
	DPI   float64
}

// SizePt returns the physical page size in points.
func (p Page) SizePt() (w, h float64) {
	b := p.Image.Bounds()
	return float64(b.Dx()) * 72 / p.DPI, float64(b.Dy()) * 72 / p.DPI
}

// ParseFormat parses a format name; "jpg" is accepted for JPEG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "pdf":
		return FormatPDF, nil
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	}
	return "", errors.New(errors.ErrCodeInvalidRequest, "unsupported format %q (must be pdf, png or jpeg)", s)
}

// FormatFromName infers the format from a file extension.
func FormatFromName(name string) (Format, bool) {
	ext := filepath.Ext(name)
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	return f, err == nil
}

// Ext returns the canonical file extension including the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// MultiPage reports whether the format holds more than one page.
func (f Format) MultiPage() bool { return f == FormatPDF }

// EnsureExt appends the format's extension to name unless it already ends
// with one matching the format.
func EnsureExt(name string, f Format) string {
	if got, ok := FormatFromName(name); ok && got == f {
		return name
	}
	return name + f.Ext()
}

// Encode writes pages to w in format f. Pages are flattened over white.
func Encode(w io.Writer, pages []Page, f Format) error {
	if len(pages) == 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "document has no pages")
	}
	switch f {
	case FormatPDF:
		return encodePDF(w, pages)
	case FormatPNG, FormatJPEG:
		if len(pages) != 1 {
			return errors.New(errors.ErrCodeInvalidRequest, "%s output holds one page, got %d", f, len(pages))
		}
		return encodeRaster(w, pages[0].Image, f)
	}
	return errors.New(errors.ErrCodeInvalidRequest, "unsupported format %q", f)
}

func encodeRaster(w io.Writer, img image.Image, f Format) error {
	var err error
	flat := compose.Flatten(img)
	if f == FormatJPEG {
		err = imaging.Encode(w, flat, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	} else {
		err = imaging.Encode(w, flat, imaging.PNG)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", f)
	}
	return nil
}

func encodePDF(w io.Writer, pages []Page) error {
	for i, p := range pages {
		if p.DPI <= 0 {
			return errors.New(errors.ErrCodeInvalidRequest, "page %d has no resolution", i)
		}
	}

	w0, h0 := pages[0].SizePt()
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: w0, Ht: h0},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(true)
	pdf.SetCreationDate(epoch)
	pdf.SetModificationDate(epoch)
	pdf.SetCatalogSort(true)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, p := range pages {
		var buf bytes.Buffer
		if err := encodeRaster(&buf, p.Image, FormatPNG); err != nil {
			return err
		}
		name := fmt.Sprintf("page-%d", i)
		pdf.RegisterImageOptionsReader(name, opts, &buf)

		pw, ph := p.SizePt()
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: pw, Ht: ph})
		pdf.ImageOptions(name, 0, 0, pw, ph, false, opts, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write pdf")
	}
	return nil
}
