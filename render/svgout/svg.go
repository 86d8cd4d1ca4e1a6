package svgout

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/render"
)

const (
	defaultFontSize = 11.0
	lineSpacing     = 1.4
	pageMargin      = 36.0
	pageGap         = 18.0
)

// Renderer produces a single SVG document from the selected pages.
type Renderer struct{}

// New creates an SVG renderer.
func New() *Renderer { return &Renderer{} }

func (r *Renderer) Target() string { return "svg" }

func (r *Renderer) Render(ctx context.Context, doc *model.Document, opts render.Options) ([]byte, error) {
	pages, err := opts.SelectPages(doc)
	if err != nil {
		return nil, err
	}

	var width, height float64
	for _, pg := range pages {
		if pg.Dims.Width > width {
			width = pg.Dims.Width
		}
		height += pg.Dims.Height
	}
	height += pageGap * float64(len(pages)-1)

	var sb strings.Builder
	fmt.Fprintf(&sb, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%.4g\" height=\"%.4g\" viewBox=\"0 0 %.4g %.4g\">\n",
		width, height, width, height)

	var offsetY float64
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "<g transform=\"translate(0 %.4g)\" data-page=\"%d\">\n", offsetY, pg.Number)
		fmt.Fprintf(&sb, "<rect width=\"%.4g\" height=\"%.4g\" fill=\"white\" stroke=\"#ccc\"/>\n",
			pg.Dims.Width, pg.Dims.Height)

		pw := &pageWriter{doc: doc, opts: opts, sb: &sb, cursorY: pageMargin}
		for _, b := range pg.Blocks {
			pw.block(b)
		}

		sb.WriteString("</g>\n")
		offsetY += pg.Dims.Height + pageGap
	}

	sb.WriteString("</svg>\n")
	return []byte(sb.String()), nil
}

type pageWriter struct {
	doc  *model.Document
	opts render.Options
	sb   *strings.Builder

	// cursorY tracks flow position for blocks without bounding boxes.
	cursorY float64
}

func (w *pageWriter) block(b model.Block) {
	switch blk := b.(type) {
	case *model.TextBlock:
		w.text(blk)
	case *model.ImageBlock:
		w.image(blk)
	case *model.TableBlock:
		w.table(blk)
	case *model.VectorBlock:
		w.vector(blk)
	case *model.ContainerBlock:
		for _, child := range blk.Children {
			w.block(child)
		}
	}
}

func (w *pageWriter) text(blk *model.TextBlock) {
	size := defaultFontSize
	if blk.HeadingLevel >= 1 && blk.HeadingLevel <= 6 {
		size = defaultFontSize * (1.9 - 0.15*float64(blk.HeadingLevel))
	}
	x, y := pageMargin, 0.0
	if bb := blk.Bounds(); bb != nil {
		x, y = bb.X, bb.Y+size
	} else {
		w.cursorY += size * lineSpacing
		y = w.cursorY
	}

	fmt.Fprintf(w.sb, "<text x=\"%.4g\" y=\"%.4g\" font-size=\"%.4g\"", x, y, size)
	if blk.HeadingLevel > 0 {
		w.sb.WriteString(" font-weight=\"bold\"")
	}
	w.sb.WriteString(">")
	for _, run := range blk.Runs {
		w.run(run)
	}
	w.sb.WriteString("</text>\n")
}

func (w *pageWriter) run(run model.TextRun) {
	st := w.doc.Styles.ResolveText(run.StyleID)
	var attrs []string
	if st.Bold {
		attrs = append(attrs, `font-weight="bold"`)
	}
	if st.Italic {
		attrs = append(attrs, `font-style="italic"`)
	}
	if st.Underline {
		attrs = append(attrs, `text-decoration="underline"`)
	}
	if st.Color != "" {
		attrs = append(attrs, fmt.Sprintf("fill=%q", st.Color))
	}
	if st.FontFamily != "" {
		attrs = append(attrs, fmt.Sprintf("font-family=%q", st.FontFamily))
	}
	if st.FontSize > 0 {
		attrs = append(attrs, fmt.Sprintf("font-size=\"%.4g\"", st.FontSize))
	}

	text := escape(run.Text)
	if len(attrs) == 0 {
		w.sb.WriteString(text)
		return
	}
	fmt.Fprintf(w.sb, "<tspan %s>%s</tspan>", strings.Join(attrs, " "), text)
}

func (w *pageWriter) image(blk *model.ImageBlock) {
	res, ok := w.doc.Resources.Image(blk.ResourceID)
	if !ok {
		return
	}
	x, y := pageMargin, w.cursorY
	wd, ht := float64(res.Width), float64(res.Height)
	if bb := blk.Bounds(); bb != nil {
		x, y, wd, ht = bb.X, bb.Y, bb.W, bb.H
	} else {
		w.cursorY += ht
	}
	href := fmt.Sprintf("data:%s;base64,%s", res.MIME, base64.StdEncoding.EncodeToString(res.Data))
	fmt.Fprintf(w.sb, "<image x=\"%.4g\" y=\"%.4g\" width=\"%.4g\" height=\"%.4g\" href=\"%s\"/>\n",
		x, y, wd, ht, href)
}

// table draws a simple grid of equal-width columns with one text line per
// cell.
func (w *pageWriter) table(blk *model.TableBlock) {
	cols := blk.Columns
	if cols == 0 {
		for _, row := range blk.Rows {
			if len(row.Cells) > cols {
				cols = len(row.Cells)
			}
		}
	}
	if cols == 0 {
		return
	}

	x0, y0 := pageMargin, w.cursorY
	tableW := 540.0
	if bb := blk.Bounds(); bb != nil {
		x0, y0, tableW = bb.X, bb.Y, bb.W
	}
	rowH := defaultFontSize * lineSpacing * 1.2
	colW := tableW / float64(cols)

	for ri, row := range blk.Rows {
		y := y0 + float64(ri)*rowH
		for ci, cell := range row.Cells {
			if ci >= cols {
				break
			}
			x := x0 + float64(ci)*colW
			fmt.Fprintf(w.sb, "<rect x=\"%.4g\" y=\"%.4g\" width=\"%.4g\" height=\"%.4g\" fill=\"none\" stroke=\"#999\"/>\n",
				x, y, colW, rowH)
			weight := ""
			if cell.Header {
				weight = ` font-weight="bold"`
			}
			fmt.Fprintf(w.sb, "<text x=\"%.4g\" y=\"%.4g\" font-size=\"%.4g\"%s>%s</text>\n",
				x+3, y+rowH-4, defaultFontSize, weight, escape(cell.Text()))
		}
	}
	if blk.Bounds() == nil {
		w.cursorY += float64(len(blk.Rows))*rowH + defaultFontSize
	}
}

func (w *pageWriter) vector(blk *model.VectorBlock) {
	for _, p := range blk.Paths {
		var d strings.Builder
		for _, cmd := range p.Commands {
			switch cmd.Op {
			case model.OpMoveTo:
				fmt.Fprintf(&d, "M %.4g %.4g ", cmd.P1.X, cmd.P1.Y)
			case model.OpLineTo:
				fmt.Fprintf(&d, "L %.4g %.4g ", cmd.P1.X, cmd.P1.Y)
			case model.OpCurveTo:
				fmt.Fprintf(&d, "C %.4g %.4g %.4g %.4g %.4g %.4g ",
					cmd.P1.X, cmd.P1.Y, cmd.P2.X, cmd.P2.Y, cmd.P3.X, cmd.P3.Y)
			case model.OpClose:
				d.WriteString("Z ")
			}
		}
		fill, stroke := p.Fill, p.Stroke
		if fill == "" {
			fill = "none"
		}
		if stroke == "" {
			stroke = "none"
		}
		fmt.Fprintf(w.sb, "<path d=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%.4g\"/>\n",
			strings.TrimSpace(d.String()), fill, stroke, p.StrokeWidth)
	}
}

func escape(s string) string {
	var sb strings.Builder
	// strings.Builder never returns a write error.
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
