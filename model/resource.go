package model

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ImageResource is an embedded image, stored once per document and
// referenced by ImageBlocks through its content-derived ID.
type ImageResource struct {
	ID     string
	MIME   string
	Data   []byte
	Width  int // Pixels, 0 when unknown
	Height int
}

// FontResource is an embedded or referenced font.
type FontResource struct {
	ID       string
	Family   string
	Style    string // "Regular", "Bold", ...
	Data     []byte // nil when the font is referenced, not embedded
	Embedded bool
}

// ResourceStore holds a document's embedded binaries, deduplicated by
// content hash. Adding the same bytes twice yields the same ID and stores
// one copy.
type ResourceStore struct {
	Images map[string]ImageResource
	Fonts  map[string]FontResource
}

// NewResourceStore creates an empty resource store.
func NewResourceStore() ResourceStore {
	return ResourceStore{
		Images: make(map[string]ImageResource),
		Fonts:  make(map[string]FontResource),
	}
}

// ContentID derives the store key for a byte payload.
func ContentID(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// AddImage stores image data and returns its ID. Duplicate content is
// stored once.
func (s ResourceStore) AddImage(data []byte, mime string, width, height int) string {
	id := ContentID(data)
	if _, ok := s.Images[id]; !ok {
		s.Images[id] = ImageResource{ID: id, MIME: mime, Data: data, Width: width, Height: height}
	}
	return id
}

// AddFont stores font data and returns its ID.
func (s ResourceStore) AddFont(family, style string, data []byte) string {
	id := ContentID(data)
	if _, ok := s.Fonts[id]; !ok {
		s.Fonts[id] = FontResource{ID: id, Family: family, Style: style, Data: data, Embedded: true}
	}
	return id
}

// Image returns the image resource for an ID.
func (s ResourceStore) Image(id string) (ImageResource, bool) {
	r, ok := s.Images[id]
	return r, ok
}

// Font returns the font resource for an ID.
func (s ResourceStore) Font(id string) (FontResource, bool) {
	r, ok := s.Fonts[id]
	return r, ok
}
