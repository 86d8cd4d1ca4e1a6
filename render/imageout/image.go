package imageout

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	// Decoders for embedded image resources.
	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/render"
)

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
	image.RegisterFormat("tiff", "II\x2A\x00", tiff.Decode, tiff.DecodeConfig)
	image.RegisterFormat("tiff", "MM\x00\x2A", tiff.Decode, tiff.DecodeConfig)
}

const (
	pageGapPt    = 18.0
	pageMarginPt = 36.0
	lineHeightPt = 16.0
)

var (
	pageBorder = color.RGBA{R: 0xBB, G: 0xBB, B: 0xBB, A: 0xFF}
	inkColor   = color.RGBA{A: 0xFF}
	gridColor  = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xFF}
)

// Renderer rasterizes documents to PNG.
type Renderer struct{}

// New creates a PNG renderer.
func New() *Renderer { return &Renderer{} }

func (r *Renderer) Target() string { return "png" }

func (r *Renderer) Render(ctx context.Context, doc *model.Document, opts render.Options) ([]byte, error) {
	pages, err := opts.SelectPages(doc)
	if err != nil {
		return nil, err
	}

	scale := float64(opts.DPIOrDefault()) / 72.0

	var widthPt, heightPt float64
	for _, pg := range pages {
		if pg.Dims.Width > widthPt {
			widthPt = pg.Dims.Width
		}
		heightPt += pg.Dims.Height
	}
	heightPt += pageGapPt * float64(len(pages)-1)

	w := int(widthPt*scale + 0.5)
	h := int(heightPt*scale + 0.5)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("document has no renderable area")
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	var offsetPt float64
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pr := &pageRaster{
			doc:     doc,
			canvas:  canvas,
			scale:   scale,
			originY: offsetPt,
			cursorY: pageMarginPt,
		}
		pr.borders(pg.Dims)
		for _, b := range pg.Blocks {
			pr.block(b)
		}
		offsetPt += pg.Dims.Height + pageGapPt
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

type pageRaster struct {
	doc    *model.Document
	canvas *image.RGBA
	scale  float64

	// originY is the page's top edge in document points.
	originY float64
	// cursorY is the flow position for unpositioned blocks, in page points.
	cursorY float64
}

// px converts page-local point coordinates to canvas pixels.
func (p *pageRaster) px(x, y float64) (int, int) {
	return int(x*p.scale + 0.5), int((y+p.originY)*p.scale + 0.5)
}

func (p *pageRaster) borders(dims model.Dims) {
	x0, y0 := p.px(0, 0)
	x1, y1 := p.px(dims.Width, dims.Height)
	rect := image.Rect(x0, y0, x1, y1)
	for x := rect.Min.X; x < rect.Max.X; x++ {
		p.canvas.Set(x, rect.Min.Y, pageBorder)
		p.canvas.Set(x, rect.Max.Y-1, pageBorder)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		p.canvas.Set(rect.Min.X, y, pageBorder)
		p.canvas.Set(rect.Max.X-1, y, pageBorder)
	}
}

func (p *pageRaster) block(b model.Block) {
	switch blk := b.(type) {
	case *model.TextBlock:
		p.text(blk)
	case *model.ImageBlock:
		p.image(blk)
	case *model.TableBlock:
		p.table(blk)
	case *model.VectorBlock:
		p.vector(blk)
	case *model.ContainerBlock:
		for _, child := range blk.Children {
			p.block(child)
		}
	}
}

func (p *pageRaster) text(blk *model.TextBlock) {
	x, y := pageMarginPt, 0.0
	if bb := blk.Bounds(); bb != nil {
		x, y = bb.X, bb.Y+lineHeightPt
	} else {
		p.cursorY += lineHeightPt
		y = p.cursorY
		if blk.HeadingLevel > 0 {
			p.cursorY += lineHeightPt / 2
		}
	}
	p.drawString(blk.Text(), x, y, inkColor)
}

// drawString renders one line with the built-in bitmap face. The face is a
// fixed 7x13 pixel font, so it is drawn in pixel space at the scaled
// position rather than scaled itself.
func (p *pageRaster) drawString(s string, xPt, yPt float64, col color.Color) {
	xPx, yPx := p.px(xPt, yPt)
	d := font.Drawer{
		Dst:  p.canvas,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(xPx, yPx),
	}
	d.DrawString(s)
}

func (p *pageRaster) image(blk *model.ImageBlock) {
	res, ok := p.doc.Resources.Image(blk.ResourceID)
	if !ok {
		return
	}
	src, _, err := image.Decode(bytes.NewReader(res.Data))
	if err != nil {
		return
	}

	var xPt, yPt, wPt, hPt float64
	if bb := blk.Bounds(); bb != nil {
		xPt, yPt, wPt, hPt = bb.X, bb.Y, bb.W, bb.H
	} else {
		sb := src.Bounds()
		xPt, yPt = pageMarginPt, p.cursorY
		// Treat source pixels as points when no placement is given.
		wPt, hPt = float64(sb.Dx()), float64(sb.Dy())
		p.cursorY += hPt + lineHeightPt/2
	}

	x0, y0 := p.px(xPt, yPt)
	x1, y1 := p.px(xPt+wPt, yPt+hPt)
	draw.ApproxBiLinear.Scale(p.canvas, image.Rect(x0, y0, x1, y1), src, src.Bounds(), draw.Over, nil)
}

func (p *pageRaster) table(blk *model.TableBlock) {
	cols := blk.Columns
	for _, row := range blk.Rows {
		if len(row.Cells) > cols {
			cols = len(row.Cells)
		}
	}
	if cols == 0 {
		return
	}

	x0, y0 := pageMarginPt, p.cursorY
	tableW := 540.0
	if bb := blk.Bounds(); bb != nil {
		x0, y0, tableW = bb.X, bb.Y, bb.W
	}
	rowH := lineHeightPt * 1.3
	colW := tableW / float64(cols)

	for ri, row := range blk.Rows {
		y := y0 + float64(ri)*rowH
		for ci, cell := range row.Cells {
			if ci >= cols {
				break
			}
			x := x0 + float64(ci)*colW
			p.strokeRect(x, y, colW, rowH, gridColor)
			p.drawString(cell.Text(), x+2, y+rowH-4, inkColor)
		}
	}
	if blk.Bounds() == nil {
		p.cursorY += float64(len(blk.Rows))*rowH + lineHeightPt
	}
}

func (p *pageRaster) strokeRect(xPt, yPt, wPt, hPt float64, col color.Color) {
	x0, y0 := p.px(xPt, yPt)
	x1, y1 := p.px(xPt+wPt, yPt+hPt)
	for x := x0; x <= x1; x++ {
		p.canvas.Set(x, y0, col)
		p.canvas.Set(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		p.canvas.Set(x0, y, col)
		p.canvas.Set(x1, y, col)
	}
}

// vector approximates paths as stroked polylines; curves are flattened to
// their endpoints.
func (p *pageRaster) vector(blk *model.VectorBlock) {
	for _, path := range blk.Paths {
		col := parseColor(path.Stroke)
		if col == nil {
			col = parseColor(path.Fill)
		}
		if col == nil {
			col = inkColor
		}
		var cur, start model.Point
		for _, cmd := range path.Commands {
			switch cmd.Op {
			case model.OpMoveTo:
				cur, start = cmd.P1, cmd.P1
			case model.OpLineTo:
				p.line(cur, cmd.P1, col)
				cur = cmd.P1
			case model.OpCurveTo:
				p.line(cur, cmd.P3, col)
				cur = cmd.P3
			case model.OpClose:
				p.line(cur, start, col)
				cur = start
			}
		}
	}
}

func (p *pageRaster) line(a, b model.Point, col color.Color) {
	x0, y0 := p.px(a.X, a.Y)
	x1, y1 := p.px(b.X, b.Y)
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		p.canvas.Set(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// parseColor understands #RRGGBB hex; anything else maps to nil.
func parseColor(s string) color.Color {
	if len(s) != 7 || s[0] != '#' {
		return nil
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return nil
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}
