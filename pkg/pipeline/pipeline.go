// Package pipeline assembles output documents from render requests.
//
// An [Assembler] drives each request through a fixed sequence of stages:
//
//  1. ResolveTemplate: look up every template the request names
//  2. ResolveBasePages: locate base images or base document pages
//  3. Layout: resolve the font and wrap the text of each page
//  4. Composite: draw the text onto each base page
//  5. Serialize: encode the pages and write the output file once
//
// The first failing stage ends the request. The returned error is a
// [*Failure] naming the stage; its code (see pkg/errors) says why.
//
// # Usage
//
//	asm := pipeline.NewAssembler(registry, fonts, pipeline.Options{
//	    Pictures: "pictures",
//	    Output:   "output",
//	    Logger:   logger,
//	})
//	res, err := asm.Assemble(ctx, req)
//	if err != nil {
//	    log.Error("render failed", "code", errors.CodeOf(err))
//	}
//	fmt.Println(res.Path)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imprint/pkg/cache"
	"github.com/matzehuels/imprint/pkg/document"
	"github.com/matzehuels/imprint/pkg/errors"
	"github.com/matzehuels/imprint/pkg/fonts"
	"github.com/matzehuels/imprint/pkg/page"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultRasterDPI is the resolution base document pages are rasterized
	// at. Template positions for document pages are measured at this DPI.
	DefaultRasterDPI = 300.0

	// DefaultImageDPI is the resolution assumed for raster base images when
	// sizing PDF pages.
	DefaultImageDPI = 100.0

	// DefaultFormat is used when neither the request nor its output name
	// selects a format.
	DefaultFormat = document.FormatPNG
)

// =============================================================================
// Options
// =============================================================================

// Options configures an Assembler.
type Options struct {
	Pictures      string          // directory of base images and base documents
	Output        string          // directory output documents are written to
	FallbackFont  string          // global fallback font
	DefaultFormat document.Format // format when the request does not choose one
	RasterDPI     float64
	ImageDPI      float64
	Refresh       bool // ignore cached documents (still refresh the cache)

	Rasterizer page.Rasterizer `json:"-"`
	Cache      cache.Cache     `json:"-"`
	Keyer      cache.Keyer     `json:"-"`
	Logger     *log.Logger     `json:"-"`
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.FallbackFont == "" {
		o.FallbackFont = fonts.DefaultFallback
	}
	if o.DefaultFormat == "" {
		o.DefaultFormat = DefaultFormat
	}
	if o.RasterDPI == 0 {
		o.RasterDPI = DefaultRasterDPI
	}
	if o.ImageDPI == 0 {
		o.ImageDPI = DefaultImageDPI
	}
	if o.Rasterizer == nil {
		o.Rasterizer = page.Poppler{}
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	if o.Output == "" {
		return errors.New(errors.ErrCodeConfiguration, "output directory is required")
	}
	if o.RasterDPI < 0 || o.ImageDPI < 0 {
		return errors.New(errors.ErrCodeConfiguration, "dpi must be positive")
	}
	if _, err := document.ParseFormat(string(o.DefaultFormat)); err != nil {
		return errors.Wrap(errors.ErrCodeConfiguration, err, "default format")
	}
	return nil
}

// =============================================================================
// Stages and results
// =============================================================================

// Stage is a step of document assembly.
type Stage string

// Assembly stages in execution order.
const (
	StageStart            Stage = "start"
	StageResolveTemplate  Stage = "resolve_template"
	StageResolveBasePages Stage = "resolve_base_pages"
	StageLayout           Stage = "layout"
	StageComposite        Stage = "composite"
	StageSerialize        Stage = "serialize"
)

// Failure is the error returned by Assemble. Err carries the error code.
type Failure struct {
	Stage Stage
	Err   error
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %v", f.Stage, f.Err) }

func (f *Failure) Unwrap() error { return f.Err }

// Result describes a written document.
type Result struct {
	ID       string        `json:"id,omitempty"`
	Output   string        `json:"output"` // name relative to the output directory
	Path     string        `json:"path"`
	Pages    int           `json:"pages"`
	Bytes    int           `json:"bytes"`
	CacheHit bool          `json:"cache_hit"`
	Duration time.Duration `json:"duration"`
}
