package htmlout

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"strings"

	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/render"
)

// Renderer produces a standalone HTML page from a document.
type Renderer struct{}

// New creates an HTML renderer.
func New() *Renderer { return &Renderer{} }

func (r *Renderer) Target() string { return "html" }

// Render serializes the selected pages as a single HTML document. Each
// source page becomes a <section class="page">.
func (r *Renderer) Render(ctx context.Context, doc *model.Document, opts render.Options) ([]byte, error) {
	pages, err := opts.SelectPages(doc)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	title := doc.Metadata.Title
	if title == "" {
		title = doc.Source.Filename
	}
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(title))
	writeMeta(&sb, doc.Metadata)
	sb.WriteString("<style>\n")
	sb.WriteString(baseCSS)
	sb.WriteString("</style>\n</head>\n<body>\n")

	w := &writer{doc: doc, opts: opts, sb: &sb}
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "<section class=\"page\" data-page=\"%d\">\n", pg.Number)
		for _, b := range pg.Blocks {
			w.block(b)
		}
		sb.WriteString("</section>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}

const baseCSS = `body { font-family: sans-serif; margin: 2em auto; max-width: 50em; }
.page { margin-bottom: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #999; padding: 0.25em 0.5em; }
img { max-width: 100%; }
`

func writeMeta(sb *strings.Builder, m model.Metadata) {
	if m.Author != "" {
		fmt.Fprintf(sb, "<meta name=\"author\" content=\"%s\">\n", html.EscapeString(m.Author))
	}
	if m.Subject != "" {
		fmt.Fprintf(sb, "<meta name=\"description\" content=\"%s\">\n", html.EscapeString(m.Subject))
	}
	if len(m.Keywords) > 0 {
		fmt.Fprintf(sb, "<meta name=\"keywords\" content=\"%s\">\n", html.EscapeString(strings.Join(m.Keywords, ", ")))
	}
}

type writer struct {
	doc  *model.Document
	opts render.Options
	sb   *strings.Builder
}

func (w *writer) block(b model.Block) {
	switch blk := b.(type) {
	case *model.TextBlock:
		w.text(blk)
	case *model.ImageBlock:
		w.image(blk)
	case *model.TableBlock:
		w.table(blk)
	case *model.VectorBlock:
		w.vector(blk)
	case *model.ContainerBlock:
		fmt.Fprintf(w.sb, "<div class=\"container\" data-role=\"%s\">\n", html.EscapeString(blk.Role))
		for _, child := range blk.Children {
			w.block(child)
		}
		w.sb.WriteString("</div>\n")
	}
}

func (w *writer) text(blk *model.TextBlock) {
	tag := "p"
	if blk.HeadingLevel >= 1 && blk.HeadingLevel <= 6 {
		tag = fmt.Sprintf("h%d", blk.HeadingLevel)
	}
	attr := paragraphAttr(w.doc.Styles.ResolveParagraph(blk.ParagraphStyleID))
	fmt.Fprintf(w.sb, "<%s%s>", tag, attr)
	for _, run := range blk.Runs {
		w.run(run)
	}
	fmt.Fprintf(w.sb, "</%s>\n", tag)
}

func (w *writer) run(run model.TextRun) {
	text := html.EscapeString(run.Text)
	if run.StyleID == "" {
		w.sb.WriteString(text)
		return
	}
	st := w.doc.Styles.ResolveText(run.StyleID)
	open, closing := runTags(st)
	w.sb.WriteString(open)
	w.sb.WriteString(text)
	w.sb.WriteString(closing)
}

// runTags maps a text style onto nested inline tags plus a style attribute
// for properties HTML has no element for.
func runTags(st model.TextStyle) (open, closing string) {
	var opens, closes []string
	var css []string
	if st.FontFamily != "" {
		css = append(css, fmt.Sprintf("font-family:%s", st.FontFamily))
	}
	if st.FontSize > 0 {
		css = append(css, fmt.Sprintf("font-size:%.4gpt", st.FontSize))
	}
	if st.Color != "" {
		css = append(css, fmt.Sprintf("color:%s", st.Color))
	}
	if st.Background != "" {
		css = append(css, fmt.Sprintf("background:%s", st.Background))
	}
	if len(css) > 0 {
		opens = append(opens, fmt.Sprintf("<span style=\"%s\">", strings.Join(css, ";")))
		closes = append(closes, "</span>")
	}
	if st.Bold {
		opens = append(opens, "<strong>")
		closes = append(closes, "</strong>")
	}
	if st.Italic {
		opens = append(opens, "<em>")
		closes = append(closes, "</em>")
	}
	if st.Underline {
		opens = append(opens, "<u>")
		closes = append(closes, "</u>")
	}
	if st.Strikethrough {
		opens = append(opens, "<s>")
		closes = append(closes, "</s>")
	}
	// Close in reverse nesting order.
	var cb strings.Builder
	for i := len(closes) - 1; i >= 0; i-- {
		cb.WriteString(closes[i])
	}
	return strings.Join(opens, ""), cb.String()
}

func paragraphAttr(ps model.ParagraphStyle) string {
	var css []string
	switch ps.Alignment {
	case model.AlignCenter:
		css = append(css, "text-align:center")
	case model.AlignRight:
		css = append(css, "text-align:right")
	case model.AlignJustify:
		css = append(css, "text-align:justify")
	}
	if ps.LeftIndent > 0 {
		css = append(css, fmt.Sprintf("margin-left:%.4gpt", ps.LeftIndent))
	}
	if ps.RightIndent > 0 {
		css = append(css, fmt.Sprintf("margin-right:%.4gpt", ps.RightIndent))
	}
	if ps.FirstIndent > 0 {
		css = append(css, fmt.Sprintf("text-indent:%.4gpt", ps.FirstIndent))
	}
	if len(css) == 0 {
		return ""
	}
	return fmt.Sprintf(" style=\"%s\"", strings.Join(css, ";"))
}

func (w *writer) image(blk *model.ImageBlock) {
	alt := html.EscapeString(blk.AltText)
	res, ok := w.doc.Resources.Image(blk.ResourceID)
	if !ok {
		fmt.Fprintf(w.sb, "<!-- missing image %s -->\n", html.EscapeString(blk.ResourceID))
		return
	}
	src := "resource:" + res.ID
	if w.opts.EmbedResources {
		src = fmt.Sprintf("data:%s;base64,%s", res.MIME, base64.StdEncoding.EncodeToString(res.Data))
	}
	fmt.Fprintf(w.sb, "<img src=\"%s\" alt=\"%s\"", src, alt)
	if res.Width > 0 && res.Height > 0 {
		fmt.Fprintf(w.sb, " width=\"%d\" height=\"%d\"", res.Width, res.Height)
	}
	w.sb.WriteString(">\n")
}

func (w *writer) table(blk *model.TableBlock) {
	w.sb.WriteString("<table>\n")
	for _, row := range blk.Rows {
		w.sb.WriteString("<tr>")
		for _, cell := range row.Cells {
			tag := "td"
			if cell.Header {
				tag = "th"
			}
			fmt.Fprintf(w.sb, "<%s", tag)
			if cell.ColSpan > 1 {
				fmt.Fprintf(w.sb, " colspan=\"%d\"", cell.ColSpan)
			}
			if cell.RowSpan > 1 {
				fmt.Fprintf(w.sb, " rowspan=\"%d\"", cell.RowSpan)
			}
			w.sb.WriteString(">")
			for _, b := range cell.Blocks {
				w.cellBlock(b)
			}
			fmt.Fprintf(w.sb, "</%s>", tag)
		}
		w.sb.WriteString("</tr>\n")
	}
	w.sb.WriteString("</table>\n")
}

// cellBlock renders a block inside a table cell. Text blocks stay inline to
// avoid paragraph margins inside cells.
func (w *writer) cellBlock(b model.Block) {
	if t, ok := b.(*model.TextBlock); ok && t.HeadingLevel == 0 {
		for _, run := range t.Runs {
			w.run(run)
		}
		return
	}
	w.block(b)
}

// vector draws paths as inline SVG so vector content survives in HTML.
func (w *writer) vector(blk *model.VectorBlock) {
	bb := blk.Bounds()
	if bb == nil {
		return
	}
	fmt.Fprintf(w.sb, "<svg viewBox=\"%.4g %.4g %.4g %.4g\" width=\"%.4g\" height=\"%.4g\">\n",
		bb.X, bb.Y, bb.W, bb.H, bb.W, bb.H)
	for _, p := range blk.Paths {
		w.sb.WriteString(pathElement(p))
	}
	w.sb.WriteString("</svg>\n")
}

func pathElement(p model.VectorPath) string {
	var d strings.Builder
	for _, cmd := range p.Commands {
		switch cmd.Op {
		case model.OpMoveTo:
			fmt.Fprintf(&d, "M %.4g %.4g ", cmd.P1.X, cmd.P1.Y)
		case model.OpLineTo:
			fmt.Fprintf(&d, "L %.4g %.4g ", cmd.P1.X, cmd.P1.Y)
		case model.OpCurveTo:
			fmt.Fprintf(&d, "C %.4g %.4g %.4g %.4g %.4g %.4g ",
				cmd.P1.X, cmd.P1.Y, cmd.P2.X, cmd.P2.Y, cmd.P3.X, cmd.P3.Y)
		case model.OpClose:
			d.WriteString("Z ")
		}
	}
	fill := p.Fill
	if fill == "" {
		fill = "none"
	}
	stroke := p.Stroke
	if stroke == "" {
		stroke = "none"
	}
	return fmt.Sprintf("<path d=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%.4g\"/>\n",
		strings.TrimSpace(d.String()), fill, stroke, p.StrokeWidth)
}
