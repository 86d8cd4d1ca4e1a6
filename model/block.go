package model

import "strings"

// BlockKind identifies the variant of a content block.
type BlockKind int

const (
	KindText BlockKind = iota
	KindImage
	KindTable
	KindVector
	KindContainer
)

func (k BlockKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindTable:
		return "table"
	case KindVector:
		return "vector"
	case KindContainer:
		return "container"
	default:
		return "unknown"
	}
}

// Block is the interface implemented by all content block variants. The
// variant set is closed: TextBlock, ImageBlock, TableBlock, VectorBlock and
// ContainerBlock are the only implementations.
type Block interface {
	Kind() BlockKind
	// Bounds returns the block's bounding box, or nil when the source
	// format has no fixed layout.
	Bounds() *BBox
	// Z returns the stacking order; larger values draw on top.
	Z() int
}

// TextBlock holds a sequence of styled text runs, typically one paragraph
// or heading.
type TextBlock struct {
	BBox *BBox
	Runs []TextRun
	// ParagraphStyleID references a paragraph style in the document's
	// StyleSheet; empty when unstyled.
	ParagraphStyleID string
	// HeadingLevel is 1-6 for headings, 0 for body text.
	HeadingLevel int
	ZOrder       int
}

// TextRun is a span of text with uniform styling. StyleID references a text
// style in the document's StyleSheet; runs never embed style data directly.
type TextRun struct {
	Text    string
	StyleID string
	BBox    *BBox
}

func (t *TextBlock) Kind() BlockKind { return KindText }
func (t *TextBlock) Bounds() *BBox   { return t.BBox }
func (t *TextBlock) Z() int          { return t.ZOrder }

// Text returns the concatenated run text.
func (t *TextBlock) Text() string {
	var sb strings.Builder
	for _, run := range t.Runs {
		sb.WriteString(run.Text)
	}
	return sb.String()
}

// NewTextBlock builds a single-run text block without styling.
func NewTextBlock(text string) *TextBlock {
	return &TextBlock{Runs: []TextRun{{Text: text}}}
}

// ImageBlock places an embedded image on the page. The pixel data lives in
// the document's ResourceStore under ResourceID.
type ImageBlock struct {
	BBox       *BBox
	ResourceID string
	AltText    string
	ZOrder     int
}

func (i *ImageBlock) Kind() BlockKind { return KindImage }
func (i *ImageBlock) Bounds() *BBox   { return i.BBox }
func (i *ImageBlock) Z() int          { return i.ZOrder }

// TableBlock is a grid of cells.
type TableBlock struct {
	BBox    *BBox
	Rows    []TableRow
	Columns int
	ZOrder  int
}

// TableRow is a single table row.
type TableRow struct {
	Cells  []TableCell
	Height float64 // 0 when unspecified
}

// TableCell holds nested content blocks and span information.
type TableCell struct {
	Blocks  []Block
	ColSpan int // 1 for a normal cell
	RowSpan int
	Header  bool
}

func (t *TableBlock) Kind() BlockKind { return KindTable }
func (t *TableBlock) Bounds() *BBox   { return t.BBox }
func (t *TableBlock) Z() int          { return t.ZOrder }

// NewTableCell builds a cell holding a single unstyled text block.
func NewTableCell(text string) TableCell {
	return TableCell{Blocks: []Block{NewTextBlock(text)}, ColSpan: 1, RowSpan: 1}
}

// Text returns the table content with tab-separated cells, one row per line.
func (t *TableBlock) Text() string {
	lines := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cell.Text())
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}
	return strings.Join(lines, "\n")
}

// Text returns the cell's text content.
func (c TableCell) Text() string {
	parts := make([]string, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		if t := blockText(b); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// VectorBlock holds vector graphics as a list of paths.
type VectorBlock struct {
	BBox   *BBox
	Paths  []VectorPath
	ZOrder int
}

// VectorPath is a sequence of path commands with optional fill and stroke.
type VectorPath struct {
	Commands    []PathCommand
	Fill        string // Hex or named color, empty for none
	Stroke      string
	StrokeWidth float64
}

// PathOp identifies a path command operation.
type PathOp int

const (
	OpMoveTo PathOp = iota
	OpLineTo
	OpCurveTo
	OpClose
)

// PathCommand is one drawing instruction. CurveTo uses all three points
// (two control points and the end point); MoveTo and LineTo use only P1.
type PathCommand struct {
	Op         PathOp
	P1, P2, P3 Point
}

func (v *VectorBlock) Kind() BlockKind { return KindVector }
func (v *VectorBlock) Bounds() *BBox   { return v.BBox }
func (v *VectorBlock) Z() int          { return v.ZOrder }

// ContainerBlock groups nested blocks, enabling grouping and z-ordering.
type ContainerBlock struct {
	BBox     *BBox
	Children []Block
	// Role describes the grouping (e.g. "group", "frame", "list").
	Role   string
	ZOrder int
}

func (c *ContainerBlock) Kind() BlockKind { return KindContainer }
func (c *ContainerBlock) Bounds() *BBox   { return c.BBox }
func (c *ContainerBlock) Z() int          { return c.ZOrder }

// blockText extracts plain text from any block variant.
func blockText(b Block) string {
	switch blk := b.(type) {
	case *TextBlock:
		return blk.Text()
	case *TableBlock:
		return blk.Text()
	case *ContainerBlock:
		parts := make([]string, 0, len(blk.Children))
		for _, child := range blk.Children {
			if t := blockText(child); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}
