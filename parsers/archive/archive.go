package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/sandbox"
)

const (
	// maxMembers bounds how many members are listed and extracted.
	maxMembers = 10000

	// maxExpansion bounds total decompressed size as a multiple of the
	// input, against decompression bombs.
	maxExpansion = 16

	// maxAttachmentSize bounds a single extracted member.
	maxAttachmentSize = 64 << 20
)

// ParseFunc parses member bytes into a nested document. Implementations
// enforce their own recursion depth cap.
type ParseFunc func(ctx context.Context, data []byte, filename string) (*model.Document, error)

// Parser handles archive containers.
type Parser struct {
	detector *format.Detector

	// nested, when set, parses recognized members into attached
	// documents. A member that fails to parse stays a raw attachment.
	nested ParseFunc
}

// New creates an archive parser without nested member parsing.
func New() *Parser {
	return &Parser{detector: format.NewDetector()}
}

// NewNested creates an archive parser that parses recognized members into
// nested documents via fn.
func NewNested(fn ParseFunc) *Parser {
	return &Parser{detector: format.NewDetector(), nested: fn}
}

func (p *Parser) Name() string { return "archive" }

func (p *Parser) Formats() []format.Descriptor {
	return []format.Descriptor{format.ZIP, format.GZIP, format.TAR}
}

func (p *Parser) Limits() sandbox.Limits {
	return sandbox.Limits{MaxMemory: 512 << 20, Timeout: 60 * time.Second}
}

func (p *Parser) CanParse(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, []byte("PK\x03\x04")), bytes.HasPrefix(data, []byte("PK\x05\x06")):
		return true
	case bytes.HasPrefix(data, []byte{0x1F, 0x8B}):
		return true
	case len(data) > 262 && bytes.Equal(data[257:262], []byte("ustar")):
		return true
	}
	return false
}

// member is one archive entry before it becomes a table row/attachment.
type member struct {
	name     string
	size     int64
	modified time.Time
	data     []byte // nil for directories or skipped members
	dir      bool
}

func (p *Parser) Parse(ctx context.Context, data []byte, req parser.Request) (*model.Document, error) {
	budget := &budget{remaining: int64(len(data)) * maxExpansion}

	var members []member
	var err error
	switch {
	case bytes.HasPrefix(data, []byte("PK")):
		members, err = p.readZip(ctx, data, budget)
	case bytes.HasPrefix(data, []byte{0x1F, 0x8B}):
		members, err = p.readGzip(ctx, data, budget)
	default:
		members, err = p.readTar(ctx, bytes.NewReader(data), budget)
	}
	if err != nil && len(members) == 0 {
		return nil, err
	}

	doc := model.NewDocument()
	doc.Metadata.SetCustom("archive.members", fmt.Sprintf("%d", len(members)))

	pg := model.NewPage(model.Letter)
	pg.AddBlock(listingTable(members))
	doc.AddPage(pg)

	for _, m := range members {
		if m.dir || m.data == nil {
			continue
		}
		att := model.Attachment{
			Filename: m.name,
			Format:   p.detectName(m.name, m.data),
			MIME:     p.detectMIME(m.name, m.data),
			Data:     m.data,
			Modified: m.modified,
		}
		if p.nested != nil && att.Format != "" {
			if sub, err := p.nested(ctx, m.data, m.name); err == nil {
				att.Document = sub
			}
		}
		doc.Attachments = append(doc.Attachments, att)
	}

	// A guard tripping midway still yields the members read so far.
	if err != nil {
		return doc, fmt.Errorf("%v: %w", err, parser.ErrPartial)
	}
	return doc, nil
}

// budget tracks the remaining decompressed-byte allowance.
type budget struct {
	remaining int64
}

var errBudget = errors.New("expansion budget exhausted")

func (b *budget) take(n int64) error {
	if n > b.remaining {
		return errBudget
	}
	b.remaining -= n
	return nil
}

func (p *Parser) readZip(ctx context.Context, data []byte, bd *budget) ([]member, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", parser.ErrMalformed)
	}

	var members []member
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return members, err
		}
		if len(members) >= maxMembers {
			return members, fmt.Errorf("member cap %d reached", maxMembers)
		}

		m := member{
			name:     f.Name,
			size:     int64(f.UncompressedSize64),
			modified: f.Modified,
			dir:      f.FileInfo().IsDir(),
		}
		if !m.dir && m.size <= maxAttachmentSize {
			if err := bd.take(m.size); err != nil {
				members = append(members, m)
				return members, err
			}
			rc, err := f.Open()
			if err == nil {
				// LimitReader guards against lying size headers.
				m.data, _ = io.ReadAll(io.LimitReader(rc, maxAttachmentSize+1))
				rc.Close()
				if int64(len(m.data)) > maxAttachmentSize {
					m.data = nil
				}
			}
		}
		members = append(members, m)
	}
	return members, nil
}

// readGzip decompresses the stream and, when the payload is a TAR,
// recurses into it; otherwise the payload is a single member named after
// the gzip header.
func (p *Parser) readGzip(ctx context.Context, data []byte, bd *budget) ([]member, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening gzip: %w", parser.ErrMalformed)
	}
	defer gz.Close()

	var payload bytes.Buffer
	limit := bd.remaining
	if limit > maxAttachmentSize {
		limit = maxAttachmentSize
	}
	n, err := io.Copy(&payload, io.LimitReader(gz, limit+1))
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", parser.ErrMalformed)
	}
	if n > limit {
		return nil, errBudget
	}
	if err := bd.take(n); err != nil {
		return nil, err
	}

	raw := payload.Bytes()
	if len(raw) > 262 && bytes.Equal(raw[257:262], []byte("ustar")) {
		// The payload is already debited; the members inside it draw on
		// their own allowance so the same bytes are never charged twice.
		return p.readTar(ctx, bytes.NewReader(raw), &budget{remaining: n})
	}

	name := gz.Name
	if name == "" {
		name = "data"
	}
	return []member{{
		name:     name,
		size:     n,
		modified: gz.ModTime,
		data:     raw,
	}}, nil
}

func (p *Parser) readTar(ctx context.Context, r io.Reader, bd *budget) ([]member, error) {
	tr := tar.NewReader(r)
	var members []member
	for {
		if err := ctx.Err(); err != nil {
			return members, err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return members, nil
		}
		if err != nil {
			if len(members) > 0 {
				return members, fmt.Errorf("tar entry: %w", err)
			}
			return nil, fmt.Errorf("reading tar: %w", parser.ErrMalformed)
		}
		if len(members) >= maxMembers {
			return members, fmt.Errorf("member cap %d reached", maxMembers)
		}

		m := member{
			name:     hdr.Name,
			size:     hdr.Size,
			modified: hdr.ModTime,
			dir:      hdr.Typeflag == tar.TypeDir,
		}
		if !m.dir && hdr.Typeflag == tar.TypeReg && m.size <= maxAttachmentSize {
			if err := bd.take(m.size); err != nil {
				members = append(members, m)
				return members, err
			}
			m.data, _ = io.ReadAll(io.LimitReader(tr, maxAttachmentSize+1))
		}
		members = append(members, m)
	}
}

// detectName returns the canonical format name for member bytes, or "".
func (p *Parser) detectName(filename string, data []byte) string {
	if results := p.detector.Detect(data, filename); len(results) > 0 {
		return results[0].Format.Name
	}
	return ""
}

func (p *Parser) detectMIME(filename string, data []byte) string {
	if results := p.detector.Detect(data, filename); len(results) > 0 {
		return results[0].Format.MIME
	}
	return "application/octet-stream"
}

func listingTable(members []member) *model.TableBlock {
	tbl := &model.TableBlock{Columns: 3}
	hdr := model.TableRow{Cells: []model.TableCell{
		headerCell("Name"), headerCell("Size"), headerCell("Modified"),
	}}
	tbl.Rows = append(tbl.Rows, hdr)

	for _, m := range members {
		name := m.name
		if m.dir {
			name += "/"
		}
		mod := ""
		if !m.modified.IsZero() {
			mod = m.modified.UTC().Format("2006-01-02 15:04")
		}
		tbl.Rows = append(tbl.Rows, model.TableRow{Cells: []model.TableCell{
			model.NewTableCell(name),
			model.NewTableCell(fmt.Sprintf("%d", m.size)),
			model.NewTableCell(mod),
		}})
	}
	return tbl
}

func headerCell(text string) model.TableCell {
	c := model.NewTableCell(text)
	c.Header = true
	return c
}
