package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document is the root of the unified document model. It is produced by a
// single successful parser invocation and must not be modified afterwards.
type Document struct {
	ID          string
	Source      SourceInfo
	Metadata    Metadata
	Pages       []*Page
	Styles      StyleSheet
	Resources   ResourceStore
	Structure   DocumentStructure
	Attachments []Attachment
}

// SourceInfo records where a document came from.
type SourceInfo struct {
	Filename string // Original filename, if known
	Format   string // Canonical name of the detected format
	Size     int64  // Byte length of the original input
	Hash     string // Content hash of the original input (hex xxhash)
	ParsedAt time.Time
}

// NewDocument creates a new empty document with a fresh identifier.
func NewDocument() *Document {
	return &Document{
		ID:        uuid.NewString(),
		Styles:    NewStyleSheet(),
		Resources: NewResourceStore(),
	}
}

// AddPage appends a page to the document and assigns it the next page
// number. Page numbers are 1-based and contiguous.
func (d *Document) AddPage(page *Page) {
	page.Number = len(d.Pages) + 1
	d.Pages = append(d.Pages, page)
}

// Page returns a page by number (1-indexed), or nil if out of range.
func (d *Document) Page(number int) *Page {
	if number < 1 || number > len(d.Pages) {
		return nil
	}
	return d.Pages[number-1]
}

// PageCount returns the total number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// PlainText returns the text content of all pages, separated by blank lines.
func (d *Document) PlainText() string {
	parts := make([]string, 0, len(d.Pages))
	for _, page := range d.Pages {
		if t := page.PlainText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// WordCount returns the number of whitespace-separated words in the document.
func (d *Document) WordCount() int {
	return len(strings.Fields(d.PlainText()))
}

// Tables returns all table blocks from all pages.
func (d *Document) Tables() []*TableBlock {
	var tables []*TableBlock
	for _, page := range d.Pages {
		tables = append(tables, page.Tables()...)
	}
	return tables
}

// TOC returns the document's table of contents. When no explicit TOC was
// parsed, one is derived from the flat heading list.
func (d *Document) TOC() []TOCEntry {
	if len(d.Structure.TOC) > 0 {
		return d.Structure.TOC
	}
	toc := make([]TOCEntry, 0, len(d.Structure.Headings))
	for _, h := range d.Structure.Headings {
		toc = append(toc, TOCEntry{Title: h.Text, Level: h.Level, Page: h.Ref.Page})
	}
	return toc
}
