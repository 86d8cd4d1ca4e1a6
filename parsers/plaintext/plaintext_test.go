package plaintext

import (
	"context"
	"testing"

	"golang.org/x/text/encoding/unicode"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/parser"
)

func TestParseParagraphs(t *testing.T) {
	input := "First paragraph\nspans two lines.\n\nSecond paragraph."
	doc, err := New().Parse(context.Background(), []byte(input), parser.Request{
		Format: format.PlainText, Options: parser.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := len(doc.Pages[0].Blocks); got != 2 {
		t.Fatalf("blocks = %d, want 2", got)
	}
	if got := doc.Pages[0].PlainText(); got != "First paragraph spans two lines.\nSecond paragraph." {
		t.Errorf("PlainText() = %q", got)
	}
}

func TestParseMarkdownHeadings(t *testing.T) {
	input := "# Title\n\nBody text.\n\n## Section\nMore body."
	doc, err := New().Parse(context.Background(), []byte(input), parser.Request{
		Format: format.Markdown, Options: parser.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(doc.Structure.Headings) != 2 {
		t.Fatalf("headings = %d, want 2", len(doc.Structure.Headings))
	}
	h := doc.Structure.Headings[0]
	if h.Text != "Title" || h.Level != 1 {
		t.Errorf("heading[0] = %+v", h)
	}
	if doc.Structure.Headings[1].Level != 2 {
		t.Errorf("heading[1] = %+v", doc.Structure.Headings[1])
	}

	// Heading refs must resolve to heading blocks.
	ref := h.Ref
	blk := doc.Page(ref.Page).Blocks[ref.Block]
	if tb, ok := blk.(interface{ Text() string }); !ok || tb.Text() != "Title" {
		t.Errorf("heading ref resolves to %v", blk)
	}
}

func TestParseCSV(t *testing.T) {
	input := "name,qty\nbolts,40\nnuts,35\n"
	doc, err := New().Parse(context.Background(), []byte(input), parser.Request{
		Format: format.CSV, Options: parser.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tables := doc.Tables()
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
	tbl := tables[0]
	if tbl.Columns != 2 || len(tbl.Rows) != 3 {
		t.Fatalf("table = %dx%d", tbl.Columns, len(tbl.Rows))
	}
	if !tbl.Rows[0].Cells[0].Header {
		t.Error("first row not marked header")
	}
	if got := tbl.Rows[1].Cells[0].Text(); got != "bolts" {
		t.Errorf("cell(1,0) = %q", got)
	}
}

func TestParseUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte("héllo utf-16"))
	if err != nil {
		t.Fatal(err)
	}

	doc, perr := New().Parse(context.Background(), data, parser.Request{
		Format: format.PlainText, Options: parser.DefaultOptions(),
	})
	if perr != nil {
		t.Fatalf("Parse() error = %v", perr)
	}
	if got := doc.PlainText(); got != "héllo utf-16" {
		t.Errorf("PlainText() = %q", got)
	}
}

func TestParseLatin1(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid UTF-8.
	data := []byte{'c', 'a', 'f', 0xE9}

	text, err := New().ExtractText(context.Background(), data, parser.Request{Format: format.PlainText})
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if text != "café" {
		t.Errorf("ExtractText() = %q", text)
	}
}

func TestCanParse(t *testing.T) {
	p := New()
	if !p.CanParse([]byte("ordinary text")) {
		t.Error("rejected plain text")
	}
	if p.CanParse([]byte{0x00, 0x01, 0x02}) {
		t.Error("accepted binary data")
	}
	if p.CanParse(nil) {
		t.Error("accepted empty input")
	}
}

func TestParseIdempotent(t *testing.T) {
	input := []byte("# Doc\n\nSame input, same structure.")
	req := parser.Request{Format: format.Markdown, Options: parser.DefaultOptions()}

	a, err := New().Parse(context.Background(), input, req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New().Parse(context.Background(), input, req)
	if err != nil {
		t.Fatal(err)
	}

	if a.PlainText() != b.PlainText() {
		t.Error("text differs between runs")
	}
	if len(a.Pages[0].Blocks) != len(b.Pages[0].Blocks) {
		t.Error("block count differs between runs")
	}
	if len(a.Structure.Headings) != len(b.Structure.Headings) {
		t.Error("structure differs between runs")
	}
}
