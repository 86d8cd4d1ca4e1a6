package model

// BlockRef points at a block within the same document.
type BlockRef struct {
	Page  int // 1-indexed page number
	Block int // Index into the page's Blocks slice
}

// DocumentStructure holds the navigational skeleton of a document:
// bookmarks/outline, table of contents and the flat heading list. All
// references resolve within the owning document.
type DocumentStructure struct {
	Outline  []OutlineItem
	TOC      []TOCEntry
	Headings []HeadingRef
}

// OutlineItem is a bookmark node; children nest arbitrarily deep.
type OutlineItem struct {
	Title    string
	Ref      BlockRef
	Children []OutlineItem
}

// TOCEntry is a flat table-of-contents entry.
type TOCEntry struct {
	Title string
	Level int // 1-6
	Page  int // 1-indexed
}

// HeadingRef records a heading's text, level and location.
type HeadingRef struct {
	Text  string
	Level int // 1-6
	Ref   BlockRef
}

// AddHeading appends a heading reference.
func (s *DocumentStructure) AddHeading(text string, level int, ref BlockRef) {
	s.Headings = append(s.Headings, HeadingRef{Text: text, Level: level, Ref: ref})
}
