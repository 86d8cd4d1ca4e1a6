package model

import "time"

// Attachment is a file embedded in a document (an archive member, an email
// attachment, an embedded object). When the embedded file was itself parsed,
// Document holds its nested model; otherwise only the raw bytes are kept.
type Attachment struct {
	Filename string
	MIME     string
	Format   string // Detected format name, empty when unknown
	Data     []byte
	Modified time.Time

	// Document is the parsed representation of the attachment, nil when
	// the attachment was not (or could not be) parsed.
	Document *Document
}

// Size returns the attachment's byte length.
func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}
