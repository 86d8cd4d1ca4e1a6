package model

// TextStyle describes character-level formatting.
type TextStyle struct {
	FontFamily    string
	FontSize      float64 // Points, 0 when unspecified
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Color         string // Hex or named, empty for default
	Background    string
}

// Alignment is horizontal paragraph alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

// ParagraphStyle describes paragraph-level formatting.
type ParagraphStyle struct {
	Alignment   Alignment
	LineHeight  float64 // Multiplier, 0 when unspecified
	SpaceBefore float64 // Points
	SpaceAfter  float64
	LeftIndent  float64
	RightIndent float64
	FirstIndent float64
}

// StyleSheet holds all named styles of a document. Blocks and runs reference
// styles by ID; the same style is never duplicated inline.
type StyleSheet struct {
	Text      map[string]TextStyle
	Paragraph map[string]ParagraphStyle
}

// NewStyleSheet creates an empty stylesheet.
func NewStyleSheet() StyleSheet {
	return StyleSheet{
		Text:      make(map[string]TextStyle),
		Paragraph: make(map[string]ParagraphStyle),
	}
}

// AddText registers a text style under the given ID, replacing any existing
// definition.
func (s StyleSheet) AddText(id string, style TextStyle) {
	s.Text[id] = style
}

// AddParagraph registers a paragraph style under the given ID.
func (s StyleSheet) AddParagraph(id string, style ParagraphStyle) {
	s.Paragraph[id] = style
}

// ResolveText returns the text style for an ID. A missing or empty ID
// resolves to the zero style.
func (s StyleSheet) ResolveText(id string) TextStyle {
	return s.Text[id]
}

// ResolveParagraph returns the paragraph style for an ID.
func (s StyleSheet) ResolveParagraph(id string) ParagraphStyle {
	return s.Paragraph[id]
}
