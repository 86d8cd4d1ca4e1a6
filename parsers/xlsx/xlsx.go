package xlsx

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

// maxGridCells bounds a materialized sheet grid; a crafted dimension ref
// must not allocate unbounded memory.
const maxGridCells = 1 << 20

// Parser handles XLSX input.
type Parser struct{}

// New creates an XLSX parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Name() string { return "xlsx" }

func (p *Parser) Formats() []format.Descriptor {
	return []format.Descriptor{format.XLSX}
}

func (p *Parser) Limits() sandbox.Limits {
	return sandbox.Limits{MaxMemory: 256 << 20, Timeout: 30 * time.Second}
}

// CanParse checks for a ZIP header carrying workbook members.
func (p *Parser) CanParse(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04")) && bytes.Contains(data, []byte("xl/"))
}

func (p *Parser) Parse(ctx context.Context, data []byte, req parser.Request) (*model.Document, error) {
	ar, err := openArchive(data)
	if err != nil {
		return nil, err
	}

	var wb workbook
	if err := ar.decode("xl/workbook.xml", &wb); err != nil {
		return nil, fmt.Errorf("workbook.xml: %w", parser.ErrMalformed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := model.NewDocument()
	readMetadata(ar, doc)

	shared := loadSharedStrings(ar)
	rels := loadRelationships(ar)

	for i, ref := range wb.Sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := rels[ref.RID]
		if target == "" {
			target = fmt.Sprintf("worksheets/sheet%d.xml", i+1)
		}
		if !strings.HasPrefix(target, "xl/") {
			target = path.Join("xl", strings.TrimPrefix(target, "/"))
		}

		var ws worksheet
		if err := ar.decode(target, &ws); err != nil {
			// Unreadable sheets are skipped, not fatal.
			continue
		}

		pg, err := sheetPage(&ws, ref.Name, shared)
		if err != nil {
			return nil, err
		}
		doc.AddPage(pg)
		if req.Options.ExtractStructure && ref.Name != "" {
			doc.Structure.AddHeading(ref.Name, 1,
				model.BlockRef{Page: doc.PageCount(), Block: 0})
		}
	}

	if doc.PageCount() == 0 {
		return nil, fmt.Errorf("no readable worksheets: %w", parser.ErrMalformed)
	}
	return doc, nil
}

// ExtractMetadata reads only the property parts.
func (p *Parser) ExtractMetadata(ctx context.Context, data []byte, req parser.Request) (model.Metadata, error) {
	ar, err := openArchive(data)
	if err != nil {
		return model.Metadata{}, err
	}
	doc := model.NewDocument()
	readMetadata(ar, doc)
	return doc.Metadata, nil
}

// archive wraps zip member access.
type archive struct {
	files map[string]*zip.File
}

func openArchive(data []byte) (*archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", parser.ErrMalformed)
	}
	ar := &archive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		ar.files[f.Name] = f
	}
	if _, ok := ar.files["xl/workbook.xml"]; !ok {
		return nil, fmt.Errorf("missing xl/workbook.xml: %w", parser.ErrMalformed)
	}
	return ar, nil
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

func loadSharedStrings(ar *archive) []string {
	var sst sharedStrings
	if err := ar.decode("xl/sharedStrings.xml", &sst); err != nil {
		return nil
	}
	out := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		out[i] = si.text()
	}
	return out
}

func loadRelationships(ar *archive) map[string]string {
	rels := make(map[string]string)
	var r relationships
	if err := ar.decode("xl/_rels/workbook.xml.rels", &r); err != nil {
		return rels
	}
	for _, rel := range r.Rels {
		rels[rel.ID] = rel.Target
	}
	return rels
}

// sheetPage builds one page: a heading with the sheet name and the sheet
// grid as a table. An empty sheet yields a page with just the heading.
func sheetPage(ws *worksheet, name string, shared []string) (*model.Page, error) {
	pg := model.NewPage(model.Letter)

	if name != "" {
		hd := model.NewTextBlock(name)
		hd.HeadingLevel = 1
		pg.AddBlock(hd)
	}

	grid, err := buildGrid(ws, shared)
	if err != nil {
		return nil, err
	}
	if tbl := grid.table(); tbl != nil {
		pg.AddBlock(tbl)
	}
	return pg, nil
}

// grid is a sheet materialized into a dense value matrix plus merge spans.
type grid struct {
	values [][]string
	// spans maps a merge root to its extent; covered marks cells swallowed
	// by a merge.
	spans   map[[2]int][2]int
	covered map[[2]int]bool
}

func buildGrid(ws *worksheet, shared []string) (*grid, error) {
	maxRow, maxCol := -1, -1
	for _, row := range ws.Rows {
		if row.R-1 > maxRow {
			maxRow = row.R - 1
		}
		for _, c := range row.Cells {
			if col, r, ok := cellRef(c.R); ok {
				if col > maxCol {
					maxCol = col
				}
				if r > maxRow {
					maxRow = r
				}
			}
		}
	}
	g := &grid{
		spans:   make(map[[2]int][2]int),
		covered: make(map[[2]int]bool),
	}
	if maxRow < 0 || maxCol < 0 {
		return g, nil
	}
	if (maxRow+1)*(maxCol+1) > maxGridCells {
		return nil, fmt.Errorf("sheet grid %dx%d too large: %w", maxRow+1, maxCol+1, parser.ErrMalformed)
	}

	g.values = make([][]string, maxRow+1)
	for i := range g.values {
		g.values[i] = make([]string, maxCol+1)
	}
	for _, row := range ws.Rows {
		for _, c := range row.Cells {
			col, r, ok := cellRef(c.R)
			if !ok || r > maxRow || col > maxCol {
				continue
			}
			g.values[r][col] = cellValue(&c, shared)
		}
	}

	for _, mc := range ws.MergeCells {
		c1, r1, c2, r2, ok := rangeRef(mc.Ref)
		if !ok || c2 < c1 || r2 < r1 {
			continue
		}
		g.spans[[2]int{r1, c1}] = [2]int{r2 - r1 + 1, c2 - c1 + 1}
		for r := r1; r <= r2 && r <= maxRow; r++ {
			for c := c1; c <= c2 && c <= maxCol; c++ {
				if r != r1 || c != c1 {
					g.covered[[2]int{r, c}] = true
				}
			}
		}
	}
	return g, nil
}

func cellValue(c *sheetCell, shared []string) string {
	switch c.T {
	case "s":
		idx, err := strconv.Atoi(c.V)
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "b":
		if c.V == "1" {
			return "TRUE"
		}
		return "FALSE"
	case "inlineStr":
		if c.Is != nil {
			return c.Is.T
		}
		return ""
	default: // numbers, formula results, errors
		return c.V
	}
}

// table converts the grid into a table block. The first row is treated as
// the header row; merge roots carry their spans, covered cells are dropped.
func (g *grid) table() *model.TableBlock {
	if len(g.values) == 0 {
		return nil
	}
	tbl := &model.TableBlock{Columns: len(g.values[0])}

	for r, rowVals := range g.values {
		row := model.TableRow{}
		for c, val := range rowVals {
			if g.covered[[2]int{r, c}] {
				continue
			}
			cell := model.NewTableCell(val)
			cell.Header = r == 0
			if span, ok := g.spans[[2]int{r, c}]; ok {
				cell.RowSpan = span[0]
				cell.ColSpan = span[1]
			}
			row.Cells = append(row.Cells, cell)
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl
}
