package textout

import (
	"context"
	"strings"

	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/render"
)

// Renderer produces UTF-8 plain text. Tables keep tab-separated cells, one
// row per line; images and vectors contribute nothing (an image's alt text
// is not content).
type Renderer struct{}

// New creates a plain-text renderer.
func New() *Renderer { return &Renderer{} }

func (r *Renderer) Target() string { return "text" }

func (r *Renderer) Render(ctx context.Context, doc *model.Document, opts render.Options) ([]byte, error) {
	pages, err := opts.SelectPages(doc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(pages))
	for _, pg := range pages {
		if t := pg.PlainText(); t != "" {
			parts = append(parts, t)
		}
	}
	return []byte(strings.Join(parts, "\n\n")), nil
}
