package format

// Family groups related formats for prioritization and fallback logic.
type Family string

const (
	FamilyDocument Family = "document"
	FamilyOffice   Family = "office"
	FamilyImage    Family = "image"
	FamilyArchive  Family = "archive"
	FamilyText     Family = "text"
	FamilyEmail    Family = "email"
	FamilyEbook    Family = "ebook"
	FamilyUnknown  Family = "unknown"
)

// Descriptor identifies a file format. Descriptors are immutable values,
// registered once at startup.
type Descriptor struct {
	Name      string // Canonical short name ("pdf", "docx", ...)
	MIME      string
	Extension string // Primary extension without dot
	Family    Family
	Container bool // Whether the format can hold other files
}

// IsZero reports whether the descriptor is unset.
func (d Descriptor) IsZero() bool {
	return d.Name == ""
}

// Well-known format descriptors.
var (
	PDF = Descriptor{Name: "pdf", MIME: "application/pdf", Extension: "pdf", Family: FamilyDocument}

	DOCX = Descriptor{
		Name:      "docx",
		MIME:      "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Extension: "docx",
		Family:    FamilyOffice,
		Container: true,
	}
	XLSX = Descriptor{
		Name:      "xlsx",
		MIME:      "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension: "xlsx",
		Family:    FamilyOffice,
		Container: true,
	}
	PPTX = Descriptor{
		Name:      "pptx",
		MIME:      "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		Extension: "pptx",
		Family:    FamilyOffice,
		Container: true,
	}
	ODT = Descriptor{
		Name:      "odt",
		MIME:      "application/vnd.oasis.opendocument.text",
		Extension: "odt",
		Family:    FamilyOffice,
		Container: true,
	}
	EPUB = Descriptor{Name: "epub", MIME: "application/epub+zip", Extension: "epub", Family: FamilyEbook, Container: true}

	PNG  = Descriptor{Name: "png", MIME: "image/png", Extension: "png", Family: FamilyImage}
	JPEG = Descriptor{Name: "jpeg", MIME: "image/jpeg", Extension: "jpg", Family: FamilyImage}
	GIF  = Descriptor{Name: "gif", MIME: "image/gif", Extension: "gif", Family: FamilyImage}
	TIFF = Descriptor{Name: "tiff", MIME: "image/tiff", Extension: "tiff", Family: FamilyImage}
	BMP  = Descriptor{Name: "bmp", MIME: "image/bmp", Extension: "bmp", Family: FamilyImage}
	WebP = Descriptor{Name: "webp", MIME: "image/webp", Extension: "webp", Family: FamilyImage}

	ZIP      = Descriptor{Name: "zip", MIME: "application/zip", Extension: "zip", Family: FamilyArchive, Container: true}
	GZIP     = Descriptor{Name: "gzip", MIME: "application/gzip", Extension: "gz", Family: FamilyArchive, Container: true}
	TAR      = Descriptor{Name: "tar", MIME: "application/x-tar", Extension: "tar", Family: FamilyArchive, Container: true}
	SevenZip = Descriptor{Name: "7z", MIME: "application/x-7z-compressed", Extension: "7z", Family: FamilyArchive, Container: true}
	RAR      = Descriptor{Name: "rar", MIME: "application/vnd.rar", Extension: "rar", Family: FamilyArchive, Container: true}

	OLE = Descriptor{Name: "ole", MIME: "application/x-cfb", Extension: "", Family: FamilyOffice, Container: true}

	HTML      = Descriptor{Name: "html", MIME: "text/html", Extension: "html", Family: FamilyText}
	XML       = Descriptor{Name: "xml", MIME: "application/xml", Extension: "xml", Family: FamilyText}
	JSON      = Descriptor{Name: "json", MIME: "application/json", Extension: "json", Family: FamilyText}
	CSV       = Descriptor{Name: "csv", MIME: "text/csv", Extension: "csv", Family: FamilyText}
	Markdown  = Descriptor{Name: "markdown", MIME: "text/markdown", Extension: "md", Family: FamilyText}
	PlainText = Descriptor{Name: "text", MIME: "text/plain", Extension: "txt", Family: FamilyText}

	EML = Descriptor{Name: "eml", MIME: "message/rfc822", Extension: "eml", Family: FamilyEmail}
)
