package plaintext

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/sandbox"
)

// Parser handles text-family formats.
type Parser struct{}

// New creates a plain-text parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Name() string { return "plaintext" }

func (p *Parser) Formats() []format.Descriptor {
	return []format.Descriptor{format.PlainText, format.Markdown, format.CSV}
}

func (p *Parser) Limits() sandbox.Limits {
	return sandbox.Limits{MaxMemory: 64 << 20, Timeout: 10 * time.Second}
}

// CanParse accepts anything decodable as text: UTF-8, a UTF-16 BOM, or
// bytes free of NUL (treated as Latin-1).
func (p *Parser) CanParse(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if hasUTF16BOM(data) {
		return true
	}
	// Binary formats nearly always contain NUL; text in any supported
	// encoding does not.
	return !bytes.ContainsRune(data, 0)
}

func (p *Parser) Parse(ctx context.Context, data []byte, req parser.Request) (*model.Document, error) {
	text, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := model.NewDocument()
	pg := model.NewPage(model.Letter)

	if req.Format.Name == format.CSV.Name {
		if tbl, ok := parseCSV(text); ok {
			pg.AddBlock(tbl)
			doc.AddPage(pg)
			return doc, nil
		}
		// Not actually delimited; fall through to paragraphs.
	}

	for _, para := range splitParagraphs(text) {
		blk := paragraphBlock(para)
		pg.AddBlock(blk)
		if req.Options.ExtractStructure && blk.HeadingLevel > 0 {
			doc.Structure.AddHeading(blk.Text(), blk.HeadingLevel,
				model.BlockRef{Page: 1, Block: len(pg.Blocks) - 1})
		}
	}
	doc.AddPage(pg)
	return doc, nil
}

// ExtractText is the fast path: decode without building pages.
func (p *Parser) ExtractText(ctx context.Context, data []byte, req parser.Request) (string, error) {
	text, err := decode(data)
	if err != nil {
		return "", err
	}
	return normalizeNewlines(text), nil
}

func hasUTF16BOM(data []byte) bool {
	return len(data) >= 2 &&
		((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF))
}

// decode converts raw bytes to a UTF-8 string. A UTF-16 BOM wins; valid
// UTF-8 passes through; anything else is read as Latin-1, which cannot
// fail.
func decode(data []byte) (string, error) {
	if hasUTF16BOM(data) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			return "", fmt.Errorf("utf-16: %w", err)
		}
		return string(out), nil
	}
	if utf8.Valid(data) {
		// Strip a UTF-8 BOM if present.
		return string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("latin-1: %w", err)
	}
	return string(out), nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// splitParagraphs breaks text on blank lines. Consecutive non-blank lines
// join into one paragraph.
func splitParagraphs(text string) []string {
	text = normalizeNewlines(text)
	var paras []string
	for _, chunk := range strings.Split(text, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		lines := strings.Split(chunk, "\n")
		// Keep heading lines separate even without a blank line after.
		var buf []string
		flush := func() {
			if len(buf) > 0 {
				paras = append(paras, strings.Join(buf, " "))
				buf = nil
			}
		}
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				flush()
				continue
			}
			if headingLevel(line) > 0 {
				flush()
				paras = append(paras, line)
				continue
			}
			buf = append(buf, line)
		}
		flush()
	}
	return paras
}

// headingLevel recognizes Markdown ATX headings: 1-6 leading hashes
// followed by a space.
func headingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n >= 1 && n <= 6 && n < len(line) && line[n] == ' ' {
		return n
	}
	return 0
}

func paragraphBlock(para string) *model.TextBlock {
	if lvl := headingLevel(para); lvl > 0 {
		text := strings.TrimSpace(para[lvl:])
		blk := model.NewTextBlock(text)
		blk.HeadingLevel = lvl
		return blk
	}
	return model.NewTextBlock(para)
}

// parseCSV builds a table from delimited text. It reports false when the
// input does not look tabular (no row with more than one field).
func parseCSV(text string) (*model.TableBlock, bool) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil || len(records) == 0 {
		return nil, false
	}

	cols := 0
	for _, rec := range records {
		if len(rec) > cols {
			cols = len(rec)
		}
	}
	if cols < 2 {
		return nil, false
	}

	tbl := &model.TableBlock{Columns: cols}
	for ri, rec := range records {
		row := model.TableRow{}
		for _, field := range rec {
			cell := model.NewTableCell(field)
			cell.Header = ri == 0
			row.Cells = append(row.Cells, cell)
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, true
}
