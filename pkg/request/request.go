// Package request defines render requests and turns them into page plans.
//
// A request is one of three shapes:
//
//   - single: one template, one text; the page is the template's base image.
//   - pages: an ordered list of page entries, each naming a template and text.
//     Entries may draw on pages of a base document instead of template images;
//     an entry without a template carries its source page through unchanged.
//   - base document only: page 0 of the document is composited with the
//     request's template and text, every remaining page is carried through.
package request

import (
	"fmt"

	"github.com/matzehuels/imprint/pkg/document"
	"github.com/matzehuels/imprint/pkg/errors"
)

// Request is one unit of batch work: it produces exactly one output document.
type Request struct {
	ID           string          `json:"id,omitempty"`
	Output       string          `json:"output,omitempty"`
	Format       document.Format `json:"format,omitempty"`
	Template     string          `json:"template,omitempty"`
	Text         *string         `json:"text,omitempty"`
	Font         string          `json:"font,omitempty"`
	BaseDocument string          `json:"base_document,omitempty"`
	Pages        []Page          `json:"pages,omitempty"`
}

// Page is one entry of a multi-page request.
type Page struct {
	Template   string  `json:"template,omitempty"`
	Text       *string `json:"text,omitempty"`
	Font       string  `json:"font,omitempty"`
	SourcePage *int    `json:"source_page,omitempty"` // base document page, 0-based
}

// Plan is a validated request resolved into an ordered list of pages.
type Plan struct {
	ID           string
	Output       string // relative to the output directory, extension included
	Format       document.Format
	BaseDocument string
	Pages        []PagePlan
	// CarryRest appends every base document page after the planned ones
	// unchanged.
	CarryRest bool
}

// PagePlan describes how one output page is produced.
type PagePlan struct {
	Template   string // empty: the source page is carried through unchanged
	Text       string
	Font       string
	SourcePage int // page of the base document, or -1 for the template image
}

// Carried reports whether the page is copied without compositing.
func (p PagePlan) Carried() bool { return p.Template == "" }

// FromDocument reports whether the page comes from the base document.
func (p PagePlan) FromDocument() bool { return p.SourcePage >= 0 }

// Label names the request in logs and reports.
func (r Request) Label() string {
	switch {
	case r.Output != "":
		return r.Output
	case r.ID != "":
		return r.ID
	}
	return "<unnamed>"
}

// Validate checks the request for missing or unsafe fields.
// Failures are INVALID_REQUEST or INVALID_PATH.
func (r Request) Validate() error {
	if r.Output == "" && r.ID == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "request needs an output name or an id")
	}
	if r.Output != "" {
		if err := errors.ValidatePath(r.Output); err != nil {
			return err
		}
	}
	if r.ID != "" && r.Output == "" {
		if err := errors.ValidateName("id", r.ID); err != nil {
			return err
		}
	}
	if r.Format != "" {
		if _, err := document.ParseFormat(string(r.Format)); err != nil {
			return err
		}
	}
	if r.BaseDocument != "" {
		if err := errors.ValidateName("base document", r.BaseDocument); err != nil {
			return err
		}
	}

	if len(r.Pages) == 0 {
		if r.Template == "" && r.BaseDocument == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "request %s has no template", r.Label())
		}
		if r.Template != "" {
			return validateEntry(r.Template, r.Text, r.Font, "request "+r.Label())
		}
		return nil
	}

	for i, p := range r.Pages {
		where := fmt.Sprintf("request %s page %d", r.Label(), i+1)
		if p.Template == "" {
			if r.BaseDocument == "" {
				return errors.New(errors.ErrCodeInvalidRequest, "%s has no template", where)
			}
		} else if err := validateEntry(p.Template, p.Text, p.Font, where); err != nil {
			return err
		}
		if p.SourcePage != nil {
			if r.BaseDocument == "" {
				return errors.New(errors.ErrCodeInvalidRequest, "%s names a source page but the request has no base document", where)
			}
			if *p.SourcePage < 0 {
				return errors.New(errors.ErrCodeInvalidRequest, "%s has negative source page %d", where, *p.SourcePage)
			}
		}
	}
	return nil
}

func validateEntry(tmpl string, text *string, font, where string) error {
	if err := errors.ValidateName("template", tmpl); err != nil {
		return err
	}
	if text == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "%s has no text", where)
	}
	if font != "" {
		if err := errors.ValidateName("font", font); err != nil {
			return err
		}
	}
	return nil
}

// Normalize validates the request and resolves it into a page plan.
// def is the format used when neither the request nor its output name
// determines one.
func (r Request) Normalize(def document.Format) (Plan, error) {
	if err := r.Validate(); err != nil {
		return Plan{}, err
	}

	plan := Plan{ID: r.ID, BaseDocument: r.BaseDocument}
	switch {
	case len(r.Pages) > 0:
		for i, p := range r.Pages {
			pp := PagePlan{Template: p.Template, Font: p.Font, SourcePage: -1}
			if p.Text != nil {
				pp.Text = *p.Text
			}
			if r.BaseDocument != "" {
				pp.SourcePage = i
				if p.SourcePage != nil {
					pp.SourcePage = *p.SourcePage
				}
			}
			plan.Pages = append(plan.Pages, pp)
		}
	case r.BaseDocument != "":
		plan.Pages = []PagePlan{{Template: r.Template, Text: deref(r.Text), Font: r.Font, SourcePage: 0}}
		plan.CarryRest = true
	default:
		plan.Pages = []PagePlan{{Template: r.Template, Text: deref(r.Text), Font: r.Font, SourcePage: -1}}
	}

	format, err := r.format(def)
	if err != nil {
		return Plan{}, err
	}
	plan.Format = format
	if !format.MultiPage() && (len(plan.Pages) > 1 || plan.CarryRest) {
		return Plan{}, errors.New(errors.ErrCodeInvalidRequest, "request %s has several pages but format %s holds one", r.Label(), format)
	}

	name := r.Output
	if name == "" {
		name = r.ID
		if r.Template != "" {
			name += "_" + r.Template
		} else if len(r.Pages) > 0 && r.Pages[0].Template != "" {
			name += "_" + r.Pages[0].Template
		}
	}
	plan.Output = document.EnsureExt(name, format)
	return plan, nil
}

func (r Request) format(def document.Format) (document.Format, error) {
	if r.Format != "" {
		return document.ParseFormat(string(r.Format))
	}
	if f, ok := document.FormatFromName(r.Output); ok {
		return f, nil
	}
	if len(r.Pages) > 1 || r.BaseDocument != "" {
		return document.FormatPDF, nil
	}
	if def == "" {
		return document.FormatPNG, nil
	}
	return def, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
