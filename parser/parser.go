package parser

import (
	"context"
	"errors"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/sandbox"
)

// ErrMalformed reports input whose structure was recognized but whose
// content violates the format's invariants. Parser implementations wrap
// this sentinel so callers can classify the failure.
var ErrMalformed = errors.New("malformed input")

// ErrNoParser reports that no registered parser accepted the input.
var ErrNoParser = errors.New("no parser available")

// ErrPartial is wrapped by a parser that produced a usable document while
// some of the input could not be processed. The returned document is valid;
// callers decide whether partial output is acceptable.
var ErrPartial = errors.New("partial result")

// Options control what a parser extracts.
type Options struct {
	// ExtractImages embeds image resources in the document. When false,
	// image blocks still appear but reference empty resources are
	// skipped entirely.
	ExtractImages bool

	// ExtractStructure builds headings/outline/TOC information.
	ExtractStructure bool
}

// DefaultOptions extract everything.
func DefaultOptions() Options {
	return Options{ExtractImages: true, ExtractStructure: true}
}

// Request carries per-invocation context into a parser.
type Request struct {
	// Filename is the original filename, when known.
	Filename string

	// Format is the detection result the dispatcher selected.
	Format format.Descriptor

	Options Options
}

// Parser is implemented once per format family. Implementations must be
// stateless and safe for concurrent use: one Parser value serves all
// invocations.
type Parser interface {
	// Name identifies the parser in logs and errors.
	Name() string

	// Formats lists the format descriptors this parser handles.
	Formats() []format.Descriptor

	// CanParse cheaply re-validates that this parser can handle the
	// actual bytes, beyond what format detection established. It must
	// not allocate proportionally to the input.
	CanParse(data []byte) bool

	// Parse builds a Document from the input. The returned document
	// must satisfy model.Document.Validate. Parse runs inside the
	// execution sandbox and must honor ctx cancellation.
	Parse(ctx context.Context, data []byte, req Request) (*model.Document, error)

	// Limits declares the resource bounds the sandbox enforces for this
	// parser. A well-behaved parser never needs to self-limit.
	Limits() sandbox.Limits
}

// TextExtractor is an optional fast path a parser may implement to produce
// plain text without building the full document model.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, req Request) (string, error)
}

// MetadataExtractor is an optional fast path for metadata-only extraction.
type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, data []byte, req Request) (model.Metadata, error)
}
