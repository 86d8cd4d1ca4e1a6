package model

import (
	"time"

	"github.com/google/uuid"
)

// AnnotationType identifies the kind of page annotation.
type AnnotationType int

const (
	AnnotationHighlight AnnotationType = iota
	AnnotationUnderline
	AnnotationStrikeout
	AnnotationComment
	AnnotationLink
	AnnotationStamp
	AnnotationRedaction
)

func (t AnnotationType) String() string {
	switch t {
	case AnnotationHighlight:
		return "highlight"
	case AnnotationUnderline:
		return "underline"
	case AnnotationStrikeout:
		return "strikeout"
	case AnnotationComment:
		return "comment"
	case AnnotationLink:
		return "link"
	case AnnotationStamp:
		return "stamp"
	case AnnotationRedaction:
		return "redaction"
	default:
		return "unknown"
	}
}

// Annotation marks up a region of a page without being part of the content
// flow.
type Annotation struct {
	ID      string
	Type    AnnotationType
	BBox    *BBox
	Content string // Comment text or link target
	Author  string
	Created time.Time
	Color   string
}

// NewAnnotation creates an annotation with a fresh identifier.
func NewAnnotation(typ AnnotationType, bbox *BBox) Annotation {
	return Annotation{ID: uuid.NewString(), Type: typ, BBox: bbox}
}
