package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/sandbox"
)

const emuPerPoint = 12700

// Parser handles DOCX input.
type Parser struct{}

// New creates a DOCX parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Name() string { return "docx" }

func (p *Parser) Formats() []format.Descriptor {
	return []format.Descriptor{format.DOCX}
}

func (p *Parser) Limits() sandbox.Limits {
	return sandbox.Limits{MaxMemory: 256 << 20, Timeout: 30 * time.Second}
}

// CanParse checks for the ZIP local-file header; member validation happens
// in Parse.
func (p *Parser) CanParse(data []byte) bool {
	return len(data) >= 4 && bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func (p *Parser) Parse(ctx context.Context, data []byte, req parser.Request) (*model.Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", parser.ErrMalformed)
	}

	ar := &archive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		ar.files[f.Name] = f
	}
	if _, ok := ar.files["word/document.xml"]; !ok {
		return nil, fmt.Errorf("missing word/document.xml: %w", parser.ErrMalformed)
	}

	var wd wordDocument
	if err := ar.decode("word/document.xml", &wd); err != nil {
		return nil, fmt.Errorf("document.xml: %w", parser.ErrMalformed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := model.NewDocument()
	readMetadata(ar, doc)

	b := &docBuilder{
		doc:  doc,
		page: model.NewPage(model.Letter),
		ar:   ar,
		opts: req.Options,
	}
	b.loadStyles()
	b.loadRelationships()

	for _, el := range wd.Body.Elements {
		switch {
		case el.Paragraph != nil:
			b.paragraph(el.Paragraph)
		case el.Table != nil:
			b.table(el.Table)
		}
	}

	doc.AddPage(b.page)
	return doc, nil
}

// ExtractMetadata reads only the property parts.
func (p *Parser) ExtractMetadata(ctx context.Context, data []byte, req parser.Request) (model.Metadata, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return model.Metadata{}, fmt.Errorf("opening archive: %w", parser.ErrMalformed)
	}
	ar := &archive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		ar.files[f.Name] = f
	}
	doc := model.NewDocument()
	readMetadata(ar, doc)
	return doc.Metadata, nil
}

// archive wraps zip member access.
type archive struct {
	files map[string]*zip.File
}

func (a *archive) read(name string) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("member not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (a *archive) decode(name string, v any) error {
	data, err := a.read(name)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

func readMetadata(ar *archive, doc *model.Document) {
	var core coreProps
	if err := ar.decode("docProps/core.xml", &core); err == nil {
		doc.Metadata.Title = core.Title
		doc.Metadata.Author = core.Creator
		doc.Metadata.Subject = core.Subject
		for _, kw := range strings.Split(core.Keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				doc.Metadata.Keywords = append(doc.Metadata.Keywords, kw)
			}
		}
		if t, err := time.Parse(time.RFC3339, core.Created); err == nil {
			doc.Metadata.Created = t
		}
		if t, err := time.Parse(time.RFC3339, core.Modified); err == nil {
			doc.Metadata.Modified = t
		}
	}
	var app appProps
	if err := ar.decode("docProps/app.xml", &app); err == nil {
		doc.Metadata.Creator = app.Application
	}
}

type docBuilder struct {
	doc  *model.Document
	page *model.Page
	ar   *archive
	opts parser.Options

	styles map[string]wordStyle // styleId -> definition
	rels   map[string]string    // rId -> target path
}

func (b *docBuilder) loadStyles() {
	b.styles = make(map[string]wordStyle)
	var ws wordStyles
	if err := b.ar.decode("word/styles.xml", &ws); err != nil {
		return
	}
	for _, s := range ws.Styles {
		b.styles[s.ID] = s
	}
}

func (b *docBuilder) loadRelationships() {
	b.rels = make(map[string]string)
	var rels relationships
	if err := b.ar.decode("word/_rels/document.xml.rels", &rels); err != nil {
		return
	}
	for _, r := range rels.Rels {
		b.rels[r.ID] = r.Target
	}
}

func (b *docBuilder) paragraph(wp *wordParagraph) {
	var runs []model.TextRun
	for _, wr := range wp.Runs {
		runs = append(runs, b.runs(&wr)...)
		if b.opts.ExtractImages {
			b.images(&wr)
		}
	}
	for _, link := range wp.Links {
		for _, wr := range link.Runs {
			runs = append(runs, b.runs(&wr)...)
		}
	}
	if len(runs) == 0 {
		return
	}

	blk := &model.TextBlock{Runs: runs}
	if id := wp.Props.Style.Val; id != "" {
		if lvl := b.headingLevel(id); lvl > 0 {
			blk.HeadingLevel = min(lvl, 6)
		}
		blk.ParagraphStyleID = id
		b.ensureParagraphStyle(id, wp)
	}

	b.page.AddBlock(blk)
	if b.opts.ExtractStructure && blk.HeadingLevel > 0 {
		b.doc.Structure.AddHeading(blk.Text(), blk.HeadingLevel,
			model.BlockRef{Page: 1, Block: len(b.page.Blocks) - 1})
	}
}

// runs converts one OOXML run to model runs, registering its style.
func (b *docBuilder) runs(wr *wordRun) []model.TextRun {
	var sb strings.Builder
	for _, t := range wr.Text {
		sb.WriteString(t.Value)
	}
	for range wr.Tabs {
		sb.WriteByte('\t')
	}
	for _, br := range wr.Breaks {
		if br.Type == "page" {
			sb.WriteString("\n\n")
		} else {
			sb.WriteByte('\n')
		}
	}
	text := sb.String()
	if text == "" {
		return nil
	}

	styleID := b.ensureRunStyle(&wr.Props)
	return []model.TextRun{{Text: text, StyleID: styleID}}
}

// ensureRunStyle registers the run's resolved formatting under a stable
// derived ID and returns it; unformatted runs get no style.
func (b *docBuilder) ensureRunStyle(props *wordRunProps) string {
	st := model.TextStyle{
		Bold:          props.Bold.set(),
		Italic:        props.Italic.set(),
		Underline:     props.Underline.Val != "" && props.Underline.Val != "none",
		Strikethrough: props.Strike.set(),
		FontFamily:    props.Fonts.ASCII,
	}
	if props.Size.Val != "" {
		if half, err := strconv.ParseFloat(props.Size.Val, 64); err == nil {
			st.FontSize = half / 2
		}
	}
	if props.Color.Val != "" && props.Color.Val != "auto" {
		st.Color = "#" + props.Color.Val
	}
	if st == (model.TextStyle{}) {
		return ""
	}

	id := styleKey(st)
	if _, ok := b.doc.Styles.Text[id]; !ok {
		b.doc.Styles.AddText(id, st)
	}
	return id
}

func styleKey(st model.TextStyle) string {
	var sb strings.Builder
	sb.WriteString("run")
	if st.Bold {
		sb.WriteString("-b")
	}
	if st.Italic {
		sb.WriteString("-i")
	}
	if st.Underline {
		sb.WriteString("-u")
	}
	if st.Strikethrough {
		sb.WriteString("-s")
	}
	if st.FontSize > 0 {
		fmt.Fprintf(&sb, "-%g", st.FontSize)
	}
	if st.Color != "" {
		sb.WriteString("-" + strings.TrimPrefix(st.Color, "#"))
	}
	if st.FontFamily != "" {
		sb.WriteString("-" + strings.ReplaceAll(st.FontFamily, " ", ""))
	}
	return sb.String()
}

func (b *docBuilder) ensureParagraphStyle(id string, wp *wordParagraph) {
	if _, ok := b.doc.Styles.Paragraph[id]; ok {
		return
	}
	ps := model.ParagraphStyle{}
	switch wp.Props.Justify.Val {
	case "center":
		ps.Alignment = model.AlignCenter
	case "right", "end":
		ps.Alignment = model.AlignRight
	case "both", "distribute":
		ps.Alignment = model.AlignJustify
	}
	// Indents arrive in twips (1/20 point).
	if v, err := strconv.ParseFloat(wp.Props.Indent.Left, 64); err == nil {
		ps.LeftIndent = v / 20
	}
	if v, err := strconv.ParseFloat(wp.Props.Indent.Right, 64); err == nil {
		ps.RightIndent = v / 20
	}
	if v, err := strconv.ParseFloat(wp.Props.Indent.FirstLine, 64); err == nil {
		ps.FirstIndent = v / 20
	}
	b.doc.Styles.AddParagraph(id, ps)
}

// headingLevel resolves a paragraph style ID to a heading level, first by
// the built-in style names, then by the style's outline level.
func (b *docBuilder) headingLevel(styleID string) int {
	lower := strings.ToLower(styleID)
	if lower == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(lower, "heading"); ok {
		if lvl, err := strconv.Atoi(rest); err == nil && lvl >= 1 && lvl <= 9 {
			return lvl
		}
	}
	if st, ok := b.styles[styleID]; ok {
		if st.Props.OutlineLvl.Val != "" {
			if lvl, err := strconv.Atoi(st.Props.OutlineLvl.Val); err == nil && lvl >= 0 && lvl <= 8 {
				return lvl + 1 // OutlineLvl is 0-based
			}
		}
		if strings.Contains(strings.ToLower(st.Name.Val), "heading") {
			return 1
		}
	}
	return 0
}

func (b *docBuilder) images(wr *wordRun) {
	for _, d := range wr.Drawings {
		pic := d.Inline
		if pic == nil {
			pic = d.Anchor
		}
		if pic == nil || pic.Blip == nil {
			continue
		}
		target, ok := b.rels[pic.Blip.Embed]
		if !ok {
			continue
		}
		data, err := b.ar.read(path.Join("word", target))
		if err != nil {
			continue
		}

		id := b.doc.Resources.AddImage(data, mimeForMedia(target), 0, 0)
		blk := &model.ImageBlock{ResourceID: id, AltText: pic.DocPr.Descr}
		if pic.Extent.CX > 0 && pic.Extent.CY > 0 {
			blk.BBox = &model.BBox{
				W: float64(pic.Extent.CX) / emuPerPoint,
				H: float64(pic.Extent.CY) / emuPerPoint,
			}
		}
		b.page.AddBlock(blk)
	}
}

func mimeForMedia(target string) string {
	switch strings.ToLower(path.Ext(target)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

func (b *docBuilder) table(wt *wordTable) {
	tbl := &model.TableBlock{Columns: len(wt.Grid.Cols)}

	// Map cells to grid columns up front so a vMerge restart can count the
	// continuation cells below it.
	cols := make([][]int, len(wt.Rows))
	conts := make([]map[int]bool, len(wt.Rows))
	for ri, wr := range wt.Rows {
		conts[ri] = make(map[int]bool)
		col := 0
		for ci := range wr.Cells {
			wc := &wr.Cells[ci]
			cols[ri] = append(cols[ri], col)
			if vMergeContinues(wc) {
				conts[ri][col] = true
			}
			col += cellSpan(wc)
		}
	}

	for ri, wr := range wt.Rows {
		row := model.TableRow{}
		header := wr.Props.Header.set()
		for ci := range wr.Cells {
			wc := &wr.Cells[ci]
			// A vMerge continuation cell belongs to the cell above.
			if vMergeContinues(wc) {
				continue
			}
			cell := model.TableCell{ColSpan: cellSpan(wc), RowSpan: 1, Header: header}
			if wc.Props.VMerge != nil {
				for rr := ri + 1; rr < len(wt.Rows) && conts[rr][cols[ri][ci]]; rr++ {
					cell.RowSpan++
				}
			}
			// Cell content goes through a scratch builder; structure
			// extraction stays off so cell headings never produce refs
			// into a page that does not exist.
			cellOpts := b.opts
			cellOpts.ExtractStructure = false
			for i := range wc.Paragraphs {
				sub := &docBuilder{doc: b.doc, page: model.NewPage(model.Letter), opts: cellOpts, styles: b.styles, rels: b.rels, ar: b.ar}
				sub.paragraph(&wc.Paragraphs[i])
				cell.Blocks = append(cell.Blocks, sub.page.Blocks...)
			}
			row.Cells = append(row.Cells, cell)
		}
		if len(row.Cells) > 0 {
			tbl.Rows = append(tbl.Rows, row)
		}
	}

	if tbl.Columns == 0 {
		for _, row := range tbl.Rows {
			if len(row.Cells) > tbl.Columns {
				tbl.Columns = len(row.Cells)
			}
		}
	}
	if len(tbl.Rows) > 0 {
		b.page.AddBlock(tbl)
	}
}

// vMergeContinues reports whether the cell continues a vertical merge
// started above it. A bare <w:vMerge/> means continue.
func vMergeContinues(wc *wordTableCell) bool {
	return wc.Props.VMerge != nil && wc.Props.VMerge.Val != "restart"
}

// cellSpan returns the cell's grid width, at least 1.
func cellSpan(wc *wordTableCell) int {
	if wc.Props.GridSpan.Val != "" {
		if span, err := strconv.Atoi(wc.Props.GridSpan.Val); err == nil && span > 1 {
			return span
		}
	}
	return 1
}
