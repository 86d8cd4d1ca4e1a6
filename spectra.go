// Package spectra turns document bytes into a unified document model and
// renders that model to presentation targets.
//
// Basic usage:
//
//	eng := spectra.New()
//	res, err := eng.Parse(ctx, data, spectra.Filename("report.docx"))
//	if err != nil {
//	    // handle error
//	}
//	html, err := eng.Render(ctx, res.Document, "html", render.Options{})
//
// The engine owns format detection, parser dispatch, sandboxed parsing and
// render-target lookup. For finer control the pipeline, parser and render
// packages are also available.
package spectra

import (
	"context"
	"fmt"
	"time"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/parsers/archive"
	"github.com/tsawler/spectra/parsers/docx"
	"github.com/tsawler/spectra/parsers/htmldoc"
	"github.com/tsawler/spectra/parsers/imagedoc"
	"github.com/tsawler/spectra/parsers/plaintext"
	"github.com/tsawler/spectra/parsers/xlsx"
	"github.com/tsawler/spectra/pipeline"
	"github.com/tsawler/spectra/render"
	"github.com/tsawler/spectra/render/htmlout"
	"github.com/tsawler/spectra/render/imageout"
	"github.com/tsawler/spectra/render/svgout"
	"github.com/tsawler/spectra/render/textout"
)

// Result is the outcome of a parse or process call.
type Result = pipeline.Result

// Engine is the assembled processing stack. Safe for concurrent use; build
// one per application and share it.
type Engine struct {
	cfg      Config
	detector *format.Detector
	parsers  *parser.Registry
	targets  *render.Registry
	pipe     *pipeline.Pipeline
}

// New builds an engine with the built-in parsers and renderers, adjusted by
// opts.
func New(opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds an engine from an explicit configuration, typically
// one loaded via LoadConfig.
func NewWithConfig(cfg Config) *Engine {
	e := &Engine{cfg: cfg, detector: format.NewDetector()}

	e.parsers = e.buildParsers(0)

	rs := []render.Renderer{
		htmlout.New(),
		textout.New(),
		svgout.New(),
		imageout.New(),
	}
	rs = append(rs, cfg.ExtraRenderers...)
	e.targets = render.NewRegistry(rs...)

	e.pipe = pipeline.New(pipeline.Config{
		Parsers:      e.parsers,
		Renderers:    e.targets,
		Detector:     e.detector,
		Logger:       cfg.Logger,
		MaxInputSize: cfg.MaxInputSize,
		Workers:      cfg.Workers,
		Limits:       cfg.Limits,
		ParseOptions: cfg.ParseOptions,
	})
	return e
}

// buildParsers assembles the parser set for one nesting level. Archive
// members at levels below the cap are parsed into nested documents; at the
// cap they stay raw attachments.
func (e *Engine) buildParsers(depth int) *parser.Registry {
	var ar *archive.Parser
	if depth < e.cfg.NestingDepth {
		inner := e.buildParsers(depth + 1)
		ar = archive.NewNested(e.nestedParse(inner))
	} else {
		ar = archive.New()
	}

	img := imagedoc.New()
	if e.cfg.OCR {
		img = imagedoc.NewWithOCR(e.cfg.OCRLanguage)
	}

	ps := []parser.Parser{
		docx.New(),
		xlsx.New(),
		htmldoc.New(),
		img,
		ar,
		plaintext.New(),
	}
	ps = append(ps, e.cfg.ExtraParsers...)
	return parser.NewRegistry(ps...)
}

// nestedParse parses archive member bytes with reg. It runs inside the
// enclosing parse's sandbox slot, so it must not re-enter the pool.
func (e *Engine) nestedParse(reg *parser.Registry) archive.ParseFunc {
	return func(ctx context.Context, data []byte, filename string) (*model.Document, error) {
		if int64(len(data)) > e.cfg.MaxInputSize {
			return nil, fmt.Errorf("member %d bytes exceeds ceiling %d", len(data), e.cfg.MaxInputSize)
		}
		candidates := e.detector.Detect(data, filename)
		pr, desc, err := reg.Select(candidates, data)
		if err != nil {
			return nil, err
		}
		req := parser.Request{Filename: filename, Format: desc, Options: e.cfg.ParseOptions}
		doc, err := pr.Parse(ctx, data, req)
		if err != nil || doc == nil {
			return nil, err
		}
		doc.Source = model.SourceInfo{
			Filename: filename,
			Format:   desc.Name,
			Size:     int64(len(data)),
			Hash:     model.ContentID(data),
			ParsedAt: time.Now(),
		}
		return doc, nil
	}
}

// Detect returns format candidates for data in descending confidence order.
// Unknown input yields an empty slice, never an error.
func (e *Engine) Detect(data []byte, filename string) []format.Result {
	return e.detector.Detect(data, filename)
}

// Parse detects, dispatches and parses data into a document.
func (e *Engine) Parse(ctx context.Context, data []byte, opts ...ParseOption) (*Result, error) {
	return e.pipe.Parse(ctx, input(data, opts))
}

// ExtractText returns the plain text of data without building rendered
// output. Parsers with a text fast path skip full document construction.
func (e *Engine) ExtractText(ctx context.Context, data []byte, opts ...ParseOption) (string, error) {
	return e.pipe.ExtractText(ctx, input(data, opts))
}

// ExtractMetadata returns document metadata for data.
func (e *Engine) ExtractMetadata(ctx context.Context, data []byte, opts ...ParseOption) (model.Metadata, error) {
	return e.pipe.ExtractMetadata(ctx, input(data, opts))
}

// Render serializes an already-parsed document to a registered target.
func (e *Engine) Render(ctx context.Context, doc *model.Document, target string, opts render.Options) ([]byte, error) {
	return e.pipe.Render(ctx, doc, target, opts)
}

// Process parses data and renders it to target in one call.
func (e *Engine) Process(ctx context.Context, data []byte, target string, ropts render.Options, opts ...ParseOption) (*Result, error) {
	return e.pipe.Process(ctx, input(data, opts), target, ropts)
}

// ProcessAll runs independent jobs concurrently, bounded by the configured
// worker count. Results and errors are positional.
func (e *Engine) ProcessAll(ctx context.Context, inputs []pipeline.Input, target string, ropts render.Options) ([]*Result, []error) {
	return e.pipe.ProcessAll(ctx, inputs, target, ropts)
}

// Formats lists every format descriptor some registered parser handles.
func (e *Engine) Formats() []format.Descriptor {
	return e.parsers.Formats()
}

// Targets lists the registered render target names.
func (e *Engine) Targets() []string {
	return e.targets.Targets()
}

func input(data []byte, opts []ParseOption) pipeline.Input {
	in := pipeline.Input{Data: data}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}
