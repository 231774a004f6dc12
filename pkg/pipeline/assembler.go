package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imprint/pkg/cache"
	"github.com/matzehuels/imprint/pkg/compose"
	"github.com/matzehuels/imprint/pkg/document"
	"github.com/matzehuels/imprint/pkg/errors"
	"github.com/matzehuels/imprint/pkg/fonts"
	"github.com/matzehuels/imprint/pkg/observability"
	"github.com/matzehuels/imprint/pkg/page"
	"github.com/matzehuels/imprint/pkg/request"
	"github.com/matzehuels/imprint/pkg/template"
	"github.com/matzehuels/imprint/pkg/textlayout"
)

// Assembler turns requests into written documents.
//
// The registry and font store are shared read-only; everything else an
// assembly touches is scoped to the call, so one Assembler may serve many
// goroutines.
type Assembler struct {
	Registry *template.Registry
	Fonts    *fonts.Store
	opts     Options
}

// NewAssembler returns an assembler with defaults applied to opts.
func NewAssembler(reg *template.Registry, store *fonts.Store, opts Options) *Assembler {
	opts.SetDefaults()
	if reg == nil {
		reg = template.Empty()
	}
	return &Assembler{Registry: reg, Fonts: store, opts: opts}
}

// Options returns the effective options.
func (a *Assembler) Options() Options { return a.opts }

// job is the per-request working state.
type job struct {
	plan    request.Plan
	pages   []*pageJob
	docPath string
}

type pageJob struct {
	plan     request.PagePlan
	spec     template.Spec
	source   string // file the base page comes from
	sourceID string
	dpi      float64
	face     *fonts.Face
}

// Assemble produces the output document for req and writes it under the
// output directory. Errors are *Failure values carrying an errors.Code.
func (a *Assembler) Assemble(ctx context.Context, req request.Request) (res *Result, err error) {
	start := time.Now()
	logger := a.opts.Logger.With("request", req.Label())
	stage := StageStart

	var j *job
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInternal, "panic during %s: %v", stage, r)
		}
		if j != nil {
			for _, p := range j.pages {
				if p.face != nil {
					p.face.Close()
				}
			}
		}
		pages := 0
		if res != nil {
			pages = res.Pages
		}
		if err != nil {
			if _, ok := err.(*Failure); !ok {
				err = &Failure{Stage: stage, Err: err}
			}
			logger.Debug("assemble failed", "stage", stage, "code", errors.CodeOf(err), "err", err)
		}
		observability.Assemble().OnAssembleComplete(ctx, req.ID, pages, time.Since(start), err)
	}()

	plan, err := req.Normalize(a.opts.DefaultFormat)
	if err != nil {
		return nil, err
	}
	observability.Assemble().OnAssembleStart(ctx, plan.ID, len(plan.Pages))
	j = &job{plan: plan}

	stage = StageResolveTemplate
	if err := a.resolveTemplates(j); err != nil {
		return nil, err
	}

	stage = StageResolveBasePages
	if err := a.resolveBasePages(ctx, j); err != nil {
		return nil, err
	}

	stage = StageLayout
	if err := a.resolveFonts(j, logger); err != nil {
		return nil, err
	}

	outPath := filepath.Join(a.opts.Output, filepath.FromSlash(plan.Output))
	key := a.cacheKey(j)
	if !a.opts.Refresh {
		if data, hit, cerr := a.opts.Cache.Get(ctx, key); cerr == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			stage = StageSerialize
			if err := document.WriteFileAtomic(outPath, data); err != nil {
				return nil, err
			}
			logger.Debug("document served from cache", "path", outPath)
			return a.result(plan, outPath, len(j.pages), len(data), true, start), nil
		} else if cerr != nil {
			logger.Warn("cache read failed", "err", cerr)
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	rendered := make([]document.Page, 0, len(j.pages))
	for i, p := range j.pages {
		stage = StageResolveBasePages
		base, err := a.loadBase(ctx, j, p)
		if err != nil {
			return nil, err
		}
		if p.plan.Carried() {
			rendered = append(rendered, document.Page{Image: base, DPI: p.dpi})
			continue
		}

		stage = StageLayout
		pageStart := time.Now()
		layout := textlayout.Layout(p.plan.Text, p.spec, p.face)
		if layout.Truncated > 0 {
			logger.Debug("text truncated", "page", i+1, "template", p.spec.ID, "dropped_lines", layout.Truncated)
		}

		stage = StageComposite
		img := compose.Composite(base, layout, p.face, p.spec.TextColor())
		observability.Assemble().OnPageComposite(ctx, p.spec.ID, len(layout.Lines), time.Since(pageStart))
		rendered = append(rendered, document.Page{Image: img, DPI: p.dpi})
	}

	stage = StageSerialize
	var buf bytes.Buffer
	if err := document.Encode(&buf, rendered, plan.Format); err != nil {
		return nil, err
	}
	if err := document.WriteFileAtomic(outPath, buf.Bytes()); err != nil {
		return nil, err
	}
	if err := a.opts.Cache.Set(ctx, key, buf.Bytes(), cache.ArtifactTTL); err != nil {
		logger.Warn("cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", buf.Len())
	}

	logger.Debug("document written", "path", outPath, "pages", len(rendered), "bytes", buf.Len())
	return a.result(plan, outPath, len(rendered), buf.Len(), false, start), nil
}

func (a *Assembler) result(plan request.Plan, path string, pages, size int, hit bool, start time.Time) *Result {
	return &Result{
		ID:       plan.ID,
		Output:   plan.Output,
		Path:     path,
		Pages:    pages,
		Bytes:    size,
		CacheHit: hit,
		Duration: time.Since(start),
	}
}

func (a *Assembler) resolveTemplates(j *job) error {
	for _, pp := range j.plan.Pages {
		pj := &pageJob{plan: pp}
		if !pp.Carried() {
			spec, err := a.Registry.Lookup(pp.Template)
			if err != nil {
				return err
			}
			pj.spec = spec
		}
		j.pages = append(j.pages, pj)
	}
	return nil
}

// resolveBasePages checks every base page exists and records its identity.
// Pages of a base document are counted here; rasterization happens later,
// one page at a time.
func (a *Assembler) resolveBasePages(ctx context.Context, j *job) error {
	if j.plan.BaseDocument != "" {
		j.docPath = filepath.Join(a.opts.Pictures, j.plan.BaseDocument)
		id, err := page.Identity(j.docPath)
		if err != nil {
			return err
		}
		n, err := a.opts.Rasterizer.PageCount(ctx, j.docPath)
		if err != nil {
			return err
		}
		if j.plan.CarryRest {
			for i := len(j.pages); i < n; i++ {
				j.pages = append(j.pages, &pageJob{plan: request.PagePlan{SourcePage: i}})
			}
		}
		for _, p := range j.pages {
			if p.plan.SourcePage >= n {
				return errors.New(errors.ErrCodePageOutOfRange,
					"page %d requested but %s has %d pages", p.plan.SourcePage+1, j.plan.BaseDocument, n)
			}
			p.source, p.sourceID, p.dpi = j.docPath, fmt.Sprintf("%s#%d", id, p.plan.SourcePage), a.opts.RasterDPI
		}
		return nil
	}

	for _, p := range j.pages {
		p.source = filepath.Join(a.opts.Pictures, p.spec.BaseImage())
		id, err := page.Identity(p.source)
		if err != nil {
			return err
		}
		p.sourceID, p.dpi = id, a.opts.ImageDPI
	}
	return nil
}

func (a *Assembler) resolveFonts(j *job, logger *log.Logger) error {
	if a.Fonts == nil {
		for _, p := range j.pages {
			if !p.plan.Carried() {
				return errors.New(errors.ErrCodeFontUnavailable, "no font store configured")
			}
		}
		return nil
	}
	for _, p := range j.pages {
		if p.plan.Carried() {
			continue
		}
		face, err := a.Fonts.Resolve(p.plan.Font, p.spec.FontName, a.opts.FallbackFont, float64(p.spec.FontSize))
		if err != nil {
			return err
		}
		p.face = face
		logger.Debug("font resolved", "template", p.spec.ID, "font", face.Name(), "size", face.Size())
	}
	return nil
}

func (a *Assembler) loadBase(ctx context.Context, j *job, p *pageJob) (image.Image, error) {
	if p.plan.FromDocument() {
		return a.opts.Rasterizer.Rasterize(ctx, j.docPath, p.plan.SourcePage, a.opts.RasterDPI)
	}
	return page.LoadImage(p.source)
}

func (a *Assembler) cacheKey(j *job) string {
	opts := cache.ArtifactKeyOpts{
		Plan: j.plan,
		DPI:  [2]float64{a.opts.RasterDPI, a.opts.ImageDPI},
	}
	specs := make([]template.Spec, 0, len(j.pages))
	for _, p := range j.pages {
		specs = append(specs, p.spec)
		opts.Sources = append(opts.Sources, p.sourceID)
		if p.face != nil {
			opts.Fonts = append(opts.Fonts, p.face.Identity()+fmt.Sprintf("@%g", p.face.Size()))
		} else {
			opts.Fonts = append(opts.Fonts, "")
		}
	}
	opts.Templates = specs
	return a.opts.Keyer.ArtifactKey(opts)
}
