package model

import (
	"strings"
	"testing"
)

func TestDocumentPageNumbering(t *testing.T) {
	doc := NewDocument()
	for i := 0; i < 3; i++ {
		doc.AddPage(NewPage(Letter))
	}

	if doc.PageCount() != 3 {
		t.Fatalf("PageCount() = %d, want 3", doc.PageCount())
	}
	for i, page := range doc.Pages {
		if page.Number != i+1 {
			t.Errorf("page %d has number %d", i, page.Number)
		}
	}
	if doc.Page(0) != nil {
		t.Error("Page(0) should return nil")
	}
	if doc.Page(4) != nil {
		t.Error("Page(4) should return nil")
	}
	if doc.Page(2) != doc.Pages[1] {
		t.Error("Page(2) returned wrong page")
	}
}

func TestPlainText(t *testing.T) {
	doc := NewDocument()
	page := NewPage(Letter)
	tb := &TextBlock{Runs: []TextRun{{Text: "Hello, "}, {Text: "World!"}}}
	page.AddBlock(tb)
	page.AddBlock(NewTextBlock("Second paragraph"))
	doc.AddPage(page)

	got := doc.PlainText()
	want := "Hello, World!\nSecond paragraph"
	if got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
	if doc.WordCount() != 4 {
		t.Errorf("WordCount() = %d, want 4", doc.WordCount())
	}
}

func TestTableText(t *testing.T) {
	table := &TableBlock{
		Columns: 2,
		Rows: []TableRow{
			{Cells: []TableCell{NewTableCell("a"), NewTableCell("b")}},
			{Cells: []TableCell{NewTableCell("c"), NewTableCell("d")}},
		},
	}

	got := table.Text()
	want := "a\tb\nc\td"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestContainerText(t *testing.T) {
	container := &ContainerBlock{
		Role: "group",
		Children: []Block{
			NewTextBlock("first"),
			NewTextBlock("second"),
		},
	}

	page := NewPage(Letter)
	page.AddBlock(container)

	if got := page.PlainText(); !strings.Contains(got, "first") || !strings.Contains(got, "second") {
		t.Errorf("container text missing content: %q", got)
	}
}

func TestResourceStoreDedup(t *testing.T) {
	store := NewResourceStore()
	data := []byte{0x89, 0x50, 0x4E, 0x47}

	id1 := store.AddImage(data, "image/png", 10, 10)
	id2 := store.AddImage(data, "image/png", 10, 10)

	if id1 != id2 {
		t.Errorf("same content produced different IDs: %s vs %s", id1, id2)
	}
	if len(store.Images) != 1 {
		t.Errorf("store holds %d images, want 1", len(store.Images))
	}

	other := store.AddImage([]byte{0xFF, 0xD8, 0xFF}, "image/jpeg", 5, 5)
	if other == id1 {
		t.Error("different content produced the same ID")
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc := NewDocument()
		doc.Styles.AddText("body", TextStyle{FontSize: 11})
		page := NewPage(Letter)
		page.AddBlock(&TextBlock{Runs: []TextRun{{Text: "ok", StyleID: "body"}}})
		doc.AddPage(page)

		if err := doc.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("dangling style reference", func(t *testing.T) {
		doc := NewDocument()
		page := NewPage(Letter)
		page.AddBlock(&TextBlock{Runs: []TextRun{{Text: "x", StyleID: "missing"}}})
		doc.AddPage(page)

		if err := doc.Validate(); err == nil {
			t.Error("Validate() accepted a dangling style reference")
		}
	})

	t.Run("dangling resource reference", func(t *testing.T) {
		doc := NewDocument()
		page := NewPage(Letter)
		page.AddBlock(&ImageBlock{ResourceID: "deadbeef"})
		doc.AddPage(page)

		if err := doc.Validate(); err == nil {
			t.Error("Validate() accepted a dangling resource reference")
		}
	})

	t.Run("broken page numbering", func(t *testing.T) {
		doc := NewDocument()
		doc.AddPage(NewPage(Letter))
		doc.AddPage(NewPage(Letter))
		doc.Pages[1].Number = 5

		if err := doc.Validate(); err == nil {
			t.Error("Validate() accepted non-contiguous page numbers")
		}
	})

	t.Run("nested attachment is validated", func(t *testing.T) {
		inner := NewDocument()
		page := NewPage(Letter)
		page.AddBlock(&ImageBlock{ResourceID: "missing"})
		inner.AddPage(page)

		doc := NewDocument()
		doc.Attachments = append(doc.Attachments, Attachment{Filename: "inner.bin", Document: inner})

		if err := doc.Validate(); err == nil {
			t.Error("Validate() accepted an invalid nested document")
		}
	})
}

func TestBBox(t *testing.T) {
	b := NewBBox(10, 10, 100, 50)
	if b.W != 100 || b.H != 50 {
		t.Fatalf("dims = %gx%g, want 100x50", b.W, b.H)
	}

	if !b.Contains(Point{X: 50, Y: 30}) {
		t.Error("Contains() missed an interior point")
	}
	if b.Contains(Point{X: 5, Y: 30}) {
		t.Error("Contains() accepted an exterior point")
	}

	other := NewBBox(100, 40, 50, 50)
	if !b.Intersects(other) {
		t.Error("Intersects() missed an overlap")
	}
	if b.Intersects(NewBBox(500, 500, 10, 10)) {
		t.Error("Intersects() reported a false overlap")
	}

	u := b.Union(other)
	if u.Left() != 10 || u.Top() != 10 || u.Right() != 150 || u.Bottom() != 90 {
		t.Errorf("Union() = %+v", u)
	}
}

func TestTOCFallsBackToHeadings(t *testing.T) {
	doc := NewDocument()
	doc.AddPage(NewPage(Letter))
	doc.Structure.AddHeading("Intro", 1, BlockRef{Page: 1, Block: 0})
	doc.Structure.AddHeading("Detail", 2, BlockRef{Page: 1, Block: 1})

	toc := doc.TOC()
	if len(toc) != 2 {
		t.Fatalf("TOC() returned %d entries, want 2", len(toc))
	}
	if toc[0].Title != "Intro" || toc[0].Level != 1 || toc[0].Page != 1 {
		t.Errorf("unexpected first entry: %+v", toc[0])
	}
}
