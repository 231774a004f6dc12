// Package pkg provides the libraries behind imprint, a text compositing and
// document assembly pipeline.
//
// # Overview
//
// Imprint draws personalized text onto template images (or pages of a base
// PDF) and writes the result as PNG, JPEG or multi-page PDF. A template is a
// registry entry that says where text goes on its base image, how wide a line
// may be, which font and size to use, the color and the alignment.
//
// # Architecture
//
// The data flow for one request:
//
//	Request (JSON record or CLI flags)
//	         ↓
//	    [request] normalize into a page plan
//	         ↓
//	    [template] look up each template spec
//	         ↓
//	    [page] load base images or rasterize base document pages
//	         ↓
//	    [fonts] + [textlayout] resolve the font, wrap and place the lines
//	         ↓
//	    [compose] draw the lines onto each page
//	         ↓
//	    [document] encode and write the output atomically
//
// [pipeline] drives these stages; [batch] runs many requests with per-item
// isolation; [server] and [client] move requests over HTTP.
//
// # Quick Start
//
//	reg, _ := template.Load("templates.json", logger)
//	store, _ := fonts.NewStore("fonts")
//	asm := pipeline.NewAssembler(reg, store, pipeline.Options{
//	    Pictures: "pictures",
//	    Output:   "output",
//	})
//
//	text := "Ada Lovelace"
//	res, err := asm.Assemble(ctx, request.Request{
//	    ID:       "42",
//	    Template: "card.png",
//	    Text:     &text,
//	})
//	// res.Path == "output/42_card.png"
//
// # Main Packages
//
// ## Rendering
//
// [template] - Immutable registry of template specs, loaded from JSON or TOML.
//
// [fonts] - Font store with override, template default and fallback
// resolution; faces are parsed once and measured in pixels.
//
// [textlayout] - Greedy pixel-width word wrapping, line caps, alignment and
// baseline placement.
//
// [compose] - Draws laid-out lines onto a page.
//
// [page] - Base page sources: raster images and PDF pages via poppler.
//
// [document] - PNG, JPEG and PDF encoding plus atomic file writes.
//
// ## Orchestration
//
// [request] - Request shapes, legacy field names and page planning.
//
// [pipeline] - The staged assembler with caching and error classification.
//
// [batch] - Ordered batch runs with failure isolation and transport aborts.
//
// ## Infrastructure
//
// [cache] - Rendered document cache (file or Redis) and cache keys.
//
// [config] - TOML configuration with defaults.
//
// [report] - Batch summaries stored as JSON files or in MongoDB.
//
// [server], [client] - HTTP transport for render requests.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for assembly, batch, cache and HTTP events.
//
// [template]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/template
// [fonts]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/fonts
// [textlayout]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/textlayout
// [compose]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/compose
// [page]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/page
// [document]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/document
// [request]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/request
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/pipeline
// [batch]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/batch
// [cache]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/config
// [report]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/report
// [server]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/server
// [client]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/client
// [errors]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/imprint/pkg/observability
package pkg
