package model

import "strings"

// Unit identifies the measurement unit of page dimensions.
type Unit string

const (
	// UnitPoint is a typographic point (1/72 inch).
	UnitPoint Unit = "pt"
	// UnitPixel is used by image-backed pages.
	UnitPixel Unit = "px"
)

// Dims holds page dimensions.
type Dims struct {
	Width  float64
	Height float64
	Unit   Unit
}

// Standard page sizes in points.
var (
	Letter = Dims{Width: 612, Height: 792, Unit: UnitPoint}
	A4     = Dims{Width: 595.28, Height: 841.89, Unit: UnitPoint}
)

// DimsFromInches converts inch dimensions to points.
func DimsFromInches(w, h float64) Dims {
	return Dims{Width: w * 72, Height: h * 72, Unit: UnitPoint}
}

// DimsFromMM converts millimeter dimensions to points.
func DimsFromMM(w, h float64) Dims {
	const ptPerMM = 72.0 / 25.4
	return Dims{Width: w * ptPerMM, Height: h * ptPerMM, Unit: UnitPoint}
}

// Page is a single page (or page equivalent for unpaged formats).
type Page struct {
	Number      int // 1-indexed, assigned by Document.AddPage
	Dims        Dims
	Rotation    int // Degrees: 0, 90, 180, 270
	Blocks      []Block
	Annotations []Annotation
}

// NewPage creates a page with the given dimensions.
func NewPage(dims Dims) *Page {
	return &Page{Dims: dims}
}

// AddBlock appends a content block to the page.
func (p *Page) AddBlock(b Block) {
	p.Blocks = append(p.Blocks, b)
}

// PlainText returns the text content of the page, one block per line.
func (p *Page) PlainText() string {
	parts := make([]string, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		if t := blockText(b); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// Tables returns all table blocks on the page, including tables nested in
// container blocks.
func (p *Page) Tables() []*TableBlock {
	var tables []*TableBlock
	var walk func(blocks []Block)
	walk = func(blocks []Block) {
		for _, b := range blocks {
			switch blk := b.(type) {
			case *TableBlock:
				tables = append(tables, blk)
			case *ContainerBlock:
				walk(blk.Children)
			}
		}
	}
	walk(p.Blocks)
	return tables
}

// BlocksInRegion returns blocks whose bounding boxes intersect the region.
// Blocks without a bounding box are never included.
func (p *Page) BlocksInRegion(region *BBox) []Block {
	var blocks []Block
	for _, b := range p.Blocks {
		if bb := b.Bounds(); bb != nil && region.Intersects(bb) {
			blocks = append(blocks, b)
		}
	}
	return blocks
}
