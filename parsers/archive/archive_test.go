package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/parser"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func buildTar(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		if err := tw.WriteHeader(&tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseZip(t *testing.T) {
	data := buildZip(t, map[string]string{
		"readme.txt": "hello from the archive",
		"page.html":  "<html><body><p>hi</p></body></html>",
	})

	doc, err := New().Parse(context.Background(), data, parser.Request{
		Format: format.ZIP, Options: parser.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("invalid document: %v", err)
	}

	tables := doc.Tables()
	if len(tables) != 1 {
		t.Fatalf("tables = %d", len(tables))
	}
	// Header row plus one row per member.
	if got := len(tables[0].Rows); got != 3 {
		t.Errorf("listing rows = %d, want 3", got)
	}
	if !strings.Contains(tables[0].Text(), "readme.txt") {
		t.Errorf("listing missing member name: %q", tables[0].Text())
	}

	if len(doc.Attachments) != 2 {
		t.Fatalf("attachments = %d, want 2", len(doc.Attachments))
	}
	byName := make(map[string]model.Attachment)
	for _, att := range doc.Attachments {
		byName[att.Filename] = att
	}
	if att := byName["page.html"]; att.Format != format.HTML.Name {
		t.Errorf("page.html detected as %q", att.Format)
	}
	if att := byName["readme.txt"]; string(att.Data) != "hello from the archive" {
		t.Errorf("readme.txt data = %q", att.Data)
	}
}

func TestParseTarAndGzip(t *testing.T) {
	tarBytes := buildTar(t, map[string]string{"notes/a.txt": "alpha"})

	doc, err := New().Parse(context.Background(), tarBytes, parser.Request{Format: format.TAR})
	if err != nil {
		t.Fatalf("Parse(tar) error = %v", err)
	}
	if len(doc.Attachments) != 1 || doc.Attachments[0].Filename != "notes/a.txt" {
		t.Fatalf("tar attachments = %+v", doc.Attachments)
	}
	if doc.Attachments[0].Modified.IsZero() {
		t.Error("tar modtime lost")
	}

	// The same tar gzipped parses to the same members.
	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	gz.Write(tarBytes)
	gz.Close()

	doc2, err := New().Parse(context.Background(), gzBuf.Bytes(), parser.Request{Format: format.GZIP})
	if err != nil {
		t.Fatalf("Parse(tar.gz) error = %v", err)
	}
	if len(doc2.Attachments) != 1 || string(doc2.Attachments[0].Data) != "alpha" {
		t.Errorf("tar.gz attachments = %+v", doc2.Attachments)
	}
}

func TestParseGzipSingleFile(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Name = "log.txt"
	gz.Write([]byte("single payload"))
	gz.Close()

	doc, err := New().Parse(context.Background(), buf.Bytes(), parser.Request{Format: format.GZIP})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Attachments) != 1 {
		t.Fatalf("attachments = %d", len(doc.Attachments))
	}
	att := doc.Attachments[0]
	if att.Filename != "log.txt" || string(att.Data) != "single payload" {
		t.Errorf("attachment = %+v", att)
	}
}

func TestGzipTarBudgetChargedOnce(t *testing.T) {
	tarBytes := buildTar(t, map[string]string{"a.txt": strings.Repeat("x", 600)})

	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	gz.Write(tarBytes)
	gz.Close()

	// An allowance of exactly the payload size must suffice: the members
	// inside the payload are the same bytes, not additional expansion.
	bd := &budget{remaining: int64(len(tarBytes))}
	members, err := New().readGzip(context.Background(), gzBuf.Bytes(), bd)
	if err != nil {
		t.Fatalf("readGzip() error = %v", err)
	}
	if len(members) != 1 || len(members[0].data) != 600 {
		t.Fatalf("members = %+v", members)
	}
	if bd.remaining != 0 {
		t.Errorf("remaining allowance = %d, want 0", bd.remaining)
	}
}

func TestParseExpansionBudget(t *testing.T) {
	// ~100 bytes of gzip expanding to 10 MB blows the 16x budget.
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write(bytes.Repeat([]byte{0}, 10<<20))
	gz.Close()

	_, err := New().Parse(context.Background(), buf.Bytes(), parser.Request{Format: format.GZIP})
	if err == nil {
		t.Fatal("Parse() accepted a decompression bomb")
	}
}

func TestParsePartialOnMemberCap(t *testing.T) {
	files := make(map[string]string, maxMembers+10)
	for i := 0; i < maxMembers+10; i++ {
		files[strings.Repeat("x", 3)+string(rune('a'+i%26))+"-"+itox(i)] = "y"
	}
	data := buildZip(t, files)

	doc, err := New().Parse(context.Background(), data, parser.Request{Format: format.ZIP})
	if !errors.Is(err, parser.ErrPartial) {
		t.Fatalf("Parse() error = %v, want ErrPartial", err)
	}
	if doc == nil || len(doc.Attachments) != maxMembers {
		t.Errorf("partial document attachments = %d, want %d", len(doc.Attachments), maxMembers)
	}
}

func itox(i int) string {
	const digits = "0123456789abcdef"
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{digits[i%16]}, b...)
		i /= 16
	}
	return string(b)
}

func TestParseNestedDocuments(t *testing.T) {
	data := buildZip(t, map[string]string{"inner.txt": "nested content"})

	p := NewNested(func(ctx context.Context, data []byte, filename string) (*model.Document, error) {
		doc := model.NewDocument()
		pg := model.NewPage(model.Letter)
		pg.AddBlock(model.NewTextBlock(string(data)))
		doc.AddPage(pg)
		return doc, nil
	})

	doc, err := p.Parse(context.Background(), data, parser.Request{Format: format.ZIP})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	att := doc.Attachments[0]
	if att.Document == nil {
		t.Fatal("nested document missing")
	}
	if att.Document.PlainText() != "nested content" {
		t.Errorf("nested text = %q", att.Document.PlainText())
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("invalid document: %v", err)
	}
}

func TestCanParse(t *testing.T) {
	p := New()
	if !p.CanParse(buildZip(t, map[string]string{"a": "b"})) {
		t.Error("rejected zip")
	}
	if !p.CanParse(buildTar(t, map[string]string{"a": "b"})) {
		t.Error("rejected tar")
	}
	if p.CanParse([]byte("plain text")) {
		t.Error("accepted plain text")
	}
}
