package htmldoc

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/sandbox"
)

// Parser handles HTML and XHTML input.
type Parser struct{}

// New creates an HTML parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Name() string { return "htmldoc" }

func (p *Parser) Formats() []format.Descriptor {
	return []format.Descriptor{format.HTML}
}

func (p *Parser) Limits() sandbox.Limits {
	return sandbox.Limits{MaxMemory: 128 << 20, Timeout: 15 * time.Second}
}

// CanParse looks for an HTML marker near the start of the input.
func (p *Parser) CanParse(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	lower := bytes.ToLower(head)
	for _, marker := range [][]byte{
		[]byte("<!doctype html"), []byte("<html"), []byte("<head"), []byte("<body"),
	} {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (p *Parser) Parse(ctx context.Context, data []byte, req parser.Request) (*model.Document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", parser.ErrMalformed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := model.NewDocument()
	pg := model.NewPage(model.Letter)

	b := &builder{doc: doc, page: pg, opts: req.Options}
	b.head(root)

	body := findElement(root, "body")
	if body == nil {
		body = root
	}
	b.walk(body)

	doc.AddPage(pg)
	return doc, nil
}

// ExtractMetadata reads only the head element.
func (p *Parser) ExtractMetadata(ctx context.Context, data []byte, req parser.Request) (model.Metadata, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return model.Metadata{}, fmt.Errorf("parsing html: %w", parser.ErrMalformed)
	}
	b := &builder{doc: model.NewDocument()}
	b.head(root)
	return b.doc.Metadata, nil
}

// builder accumulates blocks on a single page while walking the DOM.
type builder struct {
	doc  *model.Document
	page *model.Page
	opts parser.Options
}

// head pulls title and meta tags into document metadata.
func (b *builder) head(n *html.Node) {
	if n.Type == html.ElementNode && n.Data == "head" {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "title":
				b.doc.Metadata.Title = textContent(c)
			case "meta":
				name, content := "", ""
				for _, attr := range c.Attr {
					switch attr.Key {
					case "name", "property":
						name = attr.Val
					case "content":
						content = attr.Val
					}
				}
				b.meta(name, content)
			}
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.head(c)
	}
}

func (b *builder) meta(name, content string) {
	if name == "" || content == "" {
		return
	}
	switch name {
	case "author":
		b.doc.Metadata.Author = content
	case "description":
		b.doc.Metadata.Subject = content
	case "keywords":
		for _, kw := range strings.Split(content, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				b.doc.Metadata.Keywords = append(b.doc.Metadata.Keywords, kw)
			}
		}
	case "generator":
		b.doc.Metadata.Creator = content
	default:
		b.doc.Metadata.SetCustom(name, content)
	}
}

func (b *builder) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		if skipElement(n.Data) {
			return
		}
		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			b.heading(n)
			return
		case "p":
			b.paragraph(n)
			return
		case "div":
			if !hasBlockChildren(n) {
				b.paragraph(n)
				return
			}
		case "ul", "ol":
			b.list(n, n.Data == "ol")
			return
		case "table":
			b.table(n)
			return
		case "pre", "code":
			b.code(n)
			return
		case "blockquote":
			b.blockquote(n)
			return
		case "img":
			b.image(n)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
}

func (b *builder) addBlock(blk model.Block) {
	b.page.AddBlock(blk)
}

func (b *builder) heading(n *html.Node) {
	level := int(n.Data[1] - '0')
	runs := inlineRuns(n, b.doc, inlineState{})
	if runsEmpty(runs) {
		return
	}
	blk := &model.TextBlock{Runs: runs, HeadingLevel: level}
	b.addBlock(blk)
	if b.opts.ExtractStructure {
		b.doc.Structure.AddHeading(blk.Text(), level,
			model.BlockRef{Page: 1, Block: len(b.page.Blocks) - 1})
	}
}

func (b *builder) paragraph(n *html.Node) {
	runs := inlineRuns(n, b.doc, inlineState{})
	if runsEmpty(runs) {
		return
	}
	b.addBlock(&model.TextBlock{Runs: runs})
}

func (b *builder) list(n *html.Node, ordered bool) {
	role := "list"
	if ordered {
		role = "ordered-list"
	}
	container := &model.ContainerBlock{Role: role}
	idx := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		text := directText(c)
		if text != "" {
			idx++
			marker := "• "
			if ordered {
				marker = fmt.Sprintf("%d. ", idx)
			}
			container.Children = append(container.Children, model.NewTextBlock(marker+text))
		}
		// Nested lists become nested containers.
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			if gc.Type == html.ElementNode && (gc.Data == "ul" || gc.Data == "ol") {
				sub := &builder{doc: b.doc, page: model.NewPage(model.Letter), opts: b.opts}
				sub.list(gc, gc.Data == "ol")
				container.Children = append(container.Children, sub.page.Blocks...)
			}
		}
	}
	if len(container.Children) > 0 {
		b.addBlock(container)
	}
}

func (b *builder) table(n *html.Node) {
	tbl := &model.TableBlock{}
	var rows func(*html.Node, bool)
	rows = func(sec *html.Node, header bool) {
		for c := sec.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "thead":
				rows(c, true)
			case "tbody", "tfoot":
				rows(c, false)
			case "tr":
				row := b.tableRow(c, header)
				if len(row.Cells) > 0 {
					tbl.Rows = append(tbl.Rows, row)
				}
			}
		}
	}
	rows(n, false)

	for _, row := range tbl.Rows {
		if len(row.Cells) > tbl.Columns {
			tbl.Columns = len(row.Cells)
		}
	}
	if len(tbl.Rows) > 0 {
		b.addBlock(tbl)
	}
}

func (b *builder) tableRow(tr *html.Node, header bool) model.TableRow {
	var row model.TableRow
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		cell := model.TableCell{ColSpan: 1, RowSpan: 1, Header: header || c.Data == "th"}
		for _, attr := range c.Attr {
			switch attr.Key {
			case "colspan":
				fmt.Sscanf(attr.Val, "%d", &cell.ColSpan)
			case "rowspan":
				fmt.Sscanf(attr.Val, "%d", &cell.RowSpan)
			}
		}
		runs := inlineRuns(c, b.doc, inlineState{})
		if !runsEmpty(runs) {
			cell.Blocks = []model.Block{&model.TextBlock{Runs: runs}}
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}

func (b *builder) code(n *html.Node) {
	text := rawText(n)
	if strings.TrimSpace(text) == "" {
		return
	}
	b.ensureCodeStyle()
	b.addBlock(&model.TextBlock{Runs: []model.TextRun{{Text: text, StyleID: "code"}}})
}

func (b *builder) blockquote(n *html.Node) {
	runs := inlineRuns(n, b.doc, inlineState{})
	if runsEmpty(runs) {
		return
	}
	b.addBlock(&model.ContainerBlock{
		Role:     "quote",
		Children: []model.Block{&model.TextBlock{Runs: runs}},
	})
}

// image embeds data-URI images as resources. External references are
// dropped: the parser has no network access, and an unresolved resource
// reference would make the document invalid.
func (b *builder) image(n *html.Node) {
	if !b.opts.ExtractImages {
		return
	}
	var src, alt string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "src":
			src = attr.Val
		case "alt":
			alt = attr.Val
		}
	}
	mime, data, ok := decodeDataURI(src)
	if !ok {
		return
	}
	id := b.doc.Resources.AddImage(data, mime, 0, 0)
	b.addBlock(&model.ImageBlock{ResourceID: id, AltText: alt})
}

func decodeDataURI(src string) (mime string, data []byte, ok bool) {
	const prefix = "data:"
	if !strings.HasPrefix(src, prefix) {
		return "", nil, false
	}
	rest := src[len(prefix):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", nil, false
	}
	meta, payload := rest[:comma], rest[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, false
	}
	mime = strings.TrimSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mime, data, true
}

func (b *builder) ensureCodeStyle() {
	if _, ok := b.doc.Styles.Text["code"]; !ok {
		b.doc.Styles.AddText("code", model.TextStyle{FontFamily: "monospace"})
	}
}

// inlineState tracks formatting while walking inline content.
type inlineState struct {
	bold, italic, underline, strike bool
}

func (s inlineState) styleID() string {
	if !s.bold && !s.italic && !s.underline && !s.strike {
		return ""
	}
	var sb strings.Builder
	if s.bold {
		sb.WriteByte('b')
	}
	if s.italic {
		sb.WriteByte('i')
	}
	if s.underline {
		sb.WriteByte('u')
	}
	if s.strike {
		sb.WriteByte('s')
	}
	return sb.String()
}

func (s inlineState) style() model.TextStyle {
	return model.TextStyle{
		Bold: s.bold, Italic: s.italic,
		Underline: s.underline, Strikethrough: s.strike,
	}
}

// inlineRuns flattens a node's inline content into styled runs, registering
// each distinct style once on the document.
func inlineRuns(n *html.Node, doc *model.Document, st inlineState) []model.TextRun {
	var runs []model.TextRun
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text := collapseSpace(c.Data)
			if text == "" {
				continue
			}
			id := st.styleID()
			if id != "" {
				if _, ok := doc.Styles.Text[id]; !ok {
					doc.Styles.AddText(id, st.style())
				}
			}
			runs = appendRun(runs, model.TextRun{Text: text, StyleID: id})
		case html.ElementNode:
			if skipElement(c.Data) {
				continue
			}
			next := st
			switch c.Data {
			case "b", "strong":
				next.bold = true
			case "i", "em":
				next.italic = true
			case "u":
				next.underline = true
			case "s", "del":
				next.strike = true
			case "br":
				runs = appendRun(runs, model.TextRun{Text: "\n"})
				continue
			}
			runs = append(runs, inlineRuns(c, doc, next)...)
		}
	}
	return trimRuns(runs)
}

// appendRun merges consecutive runs with the same style.
func appendRun(runs []model.TextRun, run model.TextRun) []model.TextRun {
	if n := len(runs); n > 0 && runs[n-1].StyleID == run.StyleID {
		runs[n-1].Text += run.Text
		return runs
	}
	return append(runs, run)
}

// trimRuns strips leading and trailing whitespace from the run sequence.
func trimRuns(runs []model.TextRun) []model.TextRun {
	if len(runs) == 0 {
		return runs
	}
	runs[0].Text = strings.TrimLeft(runs[0].Text, " \n")
	last := len(runs) - 1
	runs[last].Text = strings.TrimRight(runs[last].Text, " \n")
	out := runs[:0]
	for _, r := range runs {
		if r.Text != "" {
			out = append(out, r)
		}
	}
	return out
}

func runsEmpty(runs []model.TextRun) bool {
	for _, r := range runs {
		if strings.TrimSpace(r.Text) != "" {
			return false
		}
	}
	return true
}

// collapseSpace folds runs of whitespace into single spaces, the way
// browsers lay out inline text.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	joined := strings.Join(fields, " ")
	if joined == "" {
		return ""
	}
	if s[0] == ' ' || s[0] == '\n' || s[0] == '\t' {
		joined = " " + joined
	}
	if last := s[len(s)-1]; last == ' ' || last == '\n' || last == '\t' {
		joined += " "
	}
	return joined
}

func skipElement(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "template", "svg", "math", "iframe", "object", "embed":
		return true
	}
	return false
}

func hasBlockChildren(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "div", "p", "ul", "ol", "table", "h1", "h2", "h3", "h4", "h5", "h6",
			"blockquote", "pre", "article", "section":
			return true
		}
	}
	return false
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && skipElement(n.Data) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// rawText keeps whitespace, for pre/code content.
func rawText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Trim(sb.String(), "\n")
}

// directText gets a node's text excluding nested block elements.
func directText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			sb.WriteString(c.Data)
		case html.ElementNode:
			switch c.Data {
			case "ul", "ol", "div", "p", "table", "blockquote":
			default:
				sb.WriteString(textContent(c))
			}
		}
	}
	return strings.TrimSpace(collapseSpace(sb.String()))
}
