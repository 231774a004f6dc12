// Package page loads the base pages templates are drawn on: raster images
// from the pictures directory, or pages rasterized from a base PDF.
package page

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/matzehuels/imprint/pkg/errors"
)

// Rasterizer turns pages of a base document into raster images.
type Rasterizer interface {
	// PageCount returns the number of pages in the document at path.
	PageCount(ctx context.Context, path string) (int, error)
	// Rasterize renders page index (0-based) at dpi.
	Rasterize(ctx context.Context, path string, index int, dpi float64) (image.Image, error)
}

// LoadImage decodes the raster image at path. PNG, JPEG, GIF, BMP, TIFF and
// WebP are supported; EXIF orientation is applied.
func LoadImage(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBasePageMissing, err, "base page %s not found", path)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBasePageMissing, err, "base page %s is not a readable image", path)
	}
	return img, nil
}

// Identity returns a string that changes whenever the file at path does.
func Identity(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBasePageMissing, err, "base page %s not found", path)
	}
	return fmt.Sprintf("%s:%d:%d", info.Name(), info.Size(), info.ModTime().UnixNano()), nil
}

func checkDocument(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBasePageMissing, err, "base document %s not found", path)
	}
	if info.IsDir() {
		return errors.Wrap(errors.ErrCodeBasePageMissing, fs.ErrInvalid, "base document %s is a directory", path)
	}
	return nil
}
