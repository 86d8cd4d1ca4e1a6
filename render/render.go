package render

import (
	"context"
	"errors"

	"github.com/tsawler/spectra/model"
)

// ErrUnknownTarget reports a render target no renderer is registered for.
var ErrUnknownTarget = errors.New("unknown render target")

// ErrNoPages reports a page selection that matched nothing.
var ErrNoPages = errors.New("page selection matched no pages")

// Options control a render invocation. The zero value renders every page
// at each renderer's defaults.
type Options struct {
	// Pages selects 1-based page numbers to render. Empty means all.
	// Numbers outside the document are ignored; a selection that matches
	// nothing is an error.
	Pages []int

	// DPI sets raster output density. Zero means 96.
	DPI int

	// Quality sets lossy-encoder quality in [1,100]. Zero means 90.
	Quality int

	// EmbedResources inlines images as data URIs in markup output
	// instead of referencing them by resource ID.
	EmbedResources bool
}

// DefaultDPI is assumed when Options.DPI is zero. Page geometry is in
// points, so rendered pixel size is dims * DPI / 72.
const DefaultDPI = 96

// DPIOrDefault returns the effective raster density.
func (o Options) DPIOrDefault() int {
	if o.DPI > 0 {
		return o.DPI
	}
	return DefaultDPI
}

// QualityOrDefault returns the effective encoder quality.
func (o Options) QualityOrDefault() int {
	if o.Quality >= 1 && o.Quality <= 100 {
		return o.Quality
	}
	return 90
}

// SelectPages resolves the page selection against a document, preserving
// document order. It returns ErrNoPages when an explicit selection matches
// no page.
func (o Options) SelectPages(doc *model.Document) ([]*model.Page, error) {
	if len(o.Pages) == 0 {
		return doc.Pages, nil
	}
	want := make(map[int]bool, len(o.Pages))
	for _, n := range o.Pages {
		want[n] = true
	}
	var out []*model.Page
	for _, pg := range doc.Pages {
		if want[pg.Number] {
			out = append(out, pg)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoPages
	}
	return out, nil
}

// Renderer produces one output representation from a document. Renderers
// must be stateless and safe for concurrent use.
type Renderer interface {
	// Target names the output this renderer produces ("html", "text",
	// "svg", "png").
	Target() string

	// Render serializes the document. The document is read-only: a
	// renderer must not mutate it.
	Render(ctx context.Context, doc *model.Document, opts Options) ([]byte, error)
}
