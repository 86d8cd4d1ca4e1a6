package format

// Signature is a byte pattern that identifies a format at a fixed offset.
type Signature struct {
	Format Descriptor
	Offset int
	Magic  []byte
	// Shared marks signatures claimed by more than one concrete format
	// (ZIP containers, RIFF, OLE). Shared matches are down-weighted and
	// refined by secondary structural checks.
	Shared bool
}

// signatures is the static catalog, ordered by specificity: longer and more
// constrained patterns first so the first match is the best plain match.
var signatures = []Signature{
	// Images
	{Format: PNG, Offset: 0, Magic: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{Format: GIF, Offset: 0, Magic: []byte("GIF87a")},
	{Format: GIF, Offset: 0, Magic: []byte("GIF89a")},
	{Format: WebP, Offset: 8, Magic: []byte("WEBP"), Shared: true}, // Inside RIFF
	{Format: JPEG, Offset: 0, Magic: []byte{0xFF, 0xD8, 0xFF}},
	{Format: TIFF, Offset: 0, Magic: []byte{0x49, 0x49, 0x2A, 0x00}},
	{Format: TIFF, Offset: 0, Magic: []byte{0x4D, 0x4D, 0x00, 0x2A}},
	{Format: BMP, Offset: 0, Magic: []byte("BM")},

	// Documents
	{Format: PDF, Offset: 0, Magic: []byte("%PDF-")},

	// Archives. ZIP is shared with every OOXML/ODF format; refined by
	// container inspection.
	{Format: ZIP, Offset: 0, Magic: []byte{0x50, 0x4B, 0x03, 0x04}, Shared: true},
	{Format: ZIP, Offset: 0, Magic: []byte{0x50, 0x4B, 0x05, 0x06}, Shared: true}, // Empty archive
	{Format: GZIP, Offset: 0, Magic: []byte{0x1F, 0x8B}},
	{Format: TAR, Offset: 257, Magic: []byte("ustar")},
	{Format: SevenZip, Offset: 0, Magic: []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}},
	{Format: RAR, Offset: 0, Magic: []byte("Rar!\x1a\x07")},

	// Legacy Office and other OLE compound files share one signature.
	{Format: OLE, Offset: 0, Magic: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, Shared: true},

	// Text-ish
	{Format: XML, Offset: 0, Magic: []byte("<?xml")},
	{Format: HTML, Offset: 0, Magic: []byte("<!DOCTYPE html")},
	{Format: HTML, Offset: 0, Magic: []byte("<!doctype html")},
	{Format: HTML, Offset: 0, Magic: []byte("<html")},
	{Format: HTML, Offset: 0, Magic: []byte("<HTML")},
}

// extensions maps lowercase extensions (without dot) to descriptors for the
// low-confidence filename fallback.
var extensions = map[string]Descriptor{
	"pdf":      PDF,
	"docx":     DOCX,
	"xlsx":     XLSX,
	"pptx":     PPTX,
	"odt":      ODT,
	"epub":     EPUB,
	"png":      PNG,
	"jpg":      JPEG,
	"jpeg":     JPEG,
	"gif":      GIF,
	"tif":      TIFF,
	"tiff":     TIFF,
	"bmp":      BMP,
	"webp":     WebP,
	"zip":      ZIP,
	"gz":       GZIP,
	"tgz":      GZIP,
	"tar":      TAR,
	"7z":       SevenZip,
	"rar":      RAR,
	"html":     HTML,
	"htm":      HTML,
	"xml":      XML,
	"json":     JSON,
	"csv":      CSV,
	"md":       Markdown,
	"markdown": Markdown,
	"txt":      PlainText,
	"text":     PlainText,
	"eml":      EML,
}

// ByExtension returns the descriptor registered for an extension. The
// extension may carry a leading dot and any case.
func ByExtension(ext string) (Descriptor, bool) {
	d, ok := extensions[normalizeExt(ext)]
	return d, ok
}

// ByName returns the descriptor with the given canonical name.
func ByName(name string) (Descriptor, bool) {
	for _, sig := range signatures {
		if sig.Format.Name == name {
			return sig.Format, true
		}
	}
	for _, d := range extensions {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
