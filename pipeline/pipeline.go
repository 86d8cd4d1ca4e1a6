package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/render"
	"github.com/tsawler/spectra/sandbox"
)

// Config assembles a pipeline. Zero fields fall back to defaults.
type Config struct {
	// Parsers dispatches inputs; required.
	Parsers *parser.Registry

	// Renderers serves render targets; required for Render/Process.
	Renderers *render.Registry

	// Detector identifies input formats. Defaults to format.NewDetector().
	Detector *format.Detector

	// Logger receives stage transitions at Debug and failures at Warn.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// MaxInputSize is the admission ceiling in bytes. Defaults to 128 MiB.
	MaxInputSize int64

	// Workers bounds concurrent sandboxed parses. Defaults to 4.
	Workers int

	// Limits are the default sandbox limits; a parser's own Limits()
	// override them per invocation.
	Limits sandbox.Limits

	// ParseOptions are passed to every parser. Defaults to
	// parser.DefaultOptions().
	ParseOptions parser.Options
}

func (c Config) defaults() Config {
	if c.Detector == nil {
		c.Detector = format.NewDetector()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.MaxInputSize <= 0 {
		c.MaxInputSize = 128 << 20
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ParseOptions == (parser.Options{}) {
		c.ParseOptions = parser.DefaultOptions()
	}
	return c
}

// Input is one unit of work.
type Input struct {
	Data     []byte
	Filename string // Optional; informs extension-fallback detection.
}

// Result is the outcome of a successful (possibly partial) job.
type Result struct {
	Document  *model.Document
	Detection []format.Result
	Parser    string

	// Output holds rendered bytes when a render target was requested.
	Output []byte
	Target string

	// Partial is set when the parser processed only part of the input.
	// A partial result is never reported as a plain success by Process:
	// the flag travels with the result so callers can decide.
	Partial bool

	Elapsed time.Duration
}

// Pipeline runs the detect/parse/render stages. Safe for concurrent use.
type Pipeline struct {
	cfg  Config
	pool *sandbox.Pool
}

// New builds a pipeline from cfg.
func New(cfg Config) *Pipeline {
	cfg = cfg.defaults()
	return &Pipeline{
		cfg:  cfg,
		pool: sandbox.NewPool(cfg.Workers, cfg.Limits),
	}
}

// Detect returns format candidates in descending confidence order. It
// never fails; unknown input yields an empty slice.
func (p *Pipeline) Detect(in Input) []format.Result {
	return p.cfg.Detector.Detect(in.Data, in.Filename)
}

// Parse runs detection, parser selection and a sandboxed parse.
func (p *Pipeline) Parse(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	log := p.cfg.Logger.With("filename", in.Filename, "size", len(in.Data))
	log.DebugContext(ctx, "job received", "stage", StageReceived)

	if err := p.admit(in); err != nil {
		log.WarnContext(ctx, "job rejected", "stage", StageReceived, "error", err)
		return nil, err
	}

	log.DebugContext(ctx, "detecting format", "stage", StageDetecting)
	candidates := p.cfg.Detector.Detect(in.Data, in.Filename)
	if len(candidates) == 0 {
		err := &Error{Stage: StageDetecting, Kind: KindDetectionInconclusive,
			Err: errors.New("no format candidates")}
		log.WarnContext(ctx, "detection inconclusive", "stage", StageDetecting)
		return nil, err
	}

	pr, desc, err := p.cfg.Parsers.Select(candidates, in.Data)
	if err != nil {
		perr := fail(StageParsing, err)
		log.WarnContext(ctx, "no parser", "stage", StageParsing,
			"top_candidate", candidates[0].Format.Name)
		return nil, perr
	}

	log.DebugContext(ctx, "parsing", "stage", StageParsing,
		"parser", pr.Name(), "format", desc.Name)

	req := parser.Request{Filename: in.Filename, Format: desc, Options: p.cfg.ParseOptions}
	val, runErr := p.pool.Run(ctx, pr.Limits(), func(ctx context.Context) (any, error) {
		return pr.Parse(ctx, in.Data, req)
	})

	doc, _ := val.(*model.Document)
	partial := false
	if runErr != nil {
		if errors.Is(runErr, parser.ErrPartial) && doc != nil {
			partial = true
			log.WarnContext(ctx, "partial parse", "stage", StageParsing,
				"parser", pr.Name(), "error", runErr)
		} else {
			perr := fail(StageParsing, runErr)
			log.WarnContext(ctx, "parse failed", "stage", StageFailed,
				"parser", pr.Name(), "kind", perr.Kind.String(), "error", runErr)
			return nil, perr
		}
	}
	if doc == nil {
		return nil, fail(StageParsing, fmt.Errorf("parser %s returned no document", pr.Name()))
	}

	doc.Source = model.SourceInfo{
		Filename: in.Filename,
		Format:   desc.Name,
		Size:     int64(len(in.Data)),
		Hash:     model.ContentID(in.Data),
		ParsedAt: time.Now(),
	}
	if err := doc.Validate(); err != nil {
		perr := &Error{Stage: StageParsing, Kind: KindInternalFault,
			Err: fmt.Errorf("parser %s produced invalid document: %w", pr.Name(), err)}
		log.WarnContext(ctx, "invalid document", "stage", StageFailed, "parser", pr.Name(), "error", err)
		return nil, perr
	}

	log.DebugContext(ctx, "parse complete", "stage", StageCompleted,
		"pages", doc.PageCount(), "partial", partial)

	return &Result{
		Document:  doc,
		Detection: candidates,
		Parser:    pr.Name(),
		Partial:   partial,
		Elapsed:   time.Since(start),
	}, nil
}

// Render serializes an already-parsed document to a target.
func (p *Pipeline) Render(ctx context.Context, doc *model.Document, target string, opts render.Options) ([]byte, error) {
	if p.cfg.Renderers == nil {
		return nil, &Error{Stage: StageRendering, Kind: KindUnsupportedRenderTarget,
			Err: errors.New("no renderers configured")}
	}
	rd, err := p.cfg.Renderers.Lookup(target)
	if err != nil {
		return nil, fail(StageRendering, err)
	}
	p.cfg.Logger.DebugContext(ctx, "rendering", "stage", StageRendering, "target", target)
	out, err := rd.Render(ctx, doc, opts)
	if err != nil {
		perr := fail(StageRendering, err)
		p.cfg.Logger.WarnContext(ctx, "render failed", "stage", StageFailed,
			"target", target, "kind", perr.Kind.String(), "error", err)
		return nil, perr
	}
	return out, nil
}

// Process parses the input and renders it to target in one job.
func (p *Pipeline) Process(ctx context.Context, in Input, target string, opts render.Options) (*Result, error) {
	res, err := p.Parse(ctx, in)
	if err != nil {
		return nil, err
	}
	out, err := p.Render(ctx, res.Document, target, opts)
	if err != nil {
		return nil, err
	}
	res.Output = out
	res.Target = target
	return res, nil
}

// ExtractText returns the input's plain text, using a parser's fast path
// when it offers one.
func (p *Pipeline) ExtractText(ctx context.Context, in Input) (string, error) {
	if err := p.admit(in); err != nil {
		return "", err
	}
	candidates := p.cfg.Detector.Detect(in.Data, in.Filename)
	if len(candidates) == 0 {
		return "", &Error{Stage: StageDetecting, Kind: KindDetectionInconclusive,
			Err: errors.New("no format candidates")}
	}
	pr, desc, err := p.cfg.Parsers.Select(candidates, in.Data)
	if err != nil {
		return "", fail(StageParsing, err)
	}

	if te, ok := pr.(parser.TextExtractor); ok {
		req := parser.Request{Filename: in.Filename, Format: desc, Options: p.cfg.ParseOptions}
		val, err := p.pool.Run(ctx, pr.Limits(), func(ctx context.Context) (any, error) {
			return te.ExtractText(ctx, in.Data, req)
		})
		if err != nil {
			return "", fail(StageParsing, err)
		}
		return val.(string), nil
	}

	res, err := p.Parse(ctx, in)
	if err != nil {
		return "", err
	}
	return res.Document.PlainText(), nil
}

// ExtractMetadata returns document metadata, using a parser's fast path
// when it offers one.
func (p *Pipeline) ExtractMetadata(ctx context.Context, in Input) (model.Metadata, error) {
	if err := p.admit(in); err != nil {
		return model.Metadata{}, err
	}
	candidates := p.cfg.Detector.Detect(in.Data, in.Filename)
	if len(candidates) == 0 {
		return model.Metadata{}, &Error{Stage: StageDetecting, Kind: KindDetectionInconclusive,
			Err: errors.New("no format candidates")}
	}
	pr, desc, err := p.cfg.Parsers.Select(candidates, in.Data)
	if err != nil {
		return model.Metadata{}, fail(StageParsing, err)
	}

	if me, ok := pr.(parser.MetadataExtractor); ok {
		req := parser.Request{Filename: in.Filename, Format: desc, Options: p.cfg.ParseOptions}
		val, err := p.pool.Run(ctx, pr.Limits(), func(ctx context.Context) (any, error) {
			return me.ExtractMetadata(ctx, in.Data, req)
		})
		if err != nil {
			return model.Metadata{}, fail(StageParsing, err)
		}
		return val.(model.Metadata), nil
	}

	res, err := p.Parse(ctx, in)
	if err != nil {
		return model.Metadata{}, err
	}
	return res.Document.Metadata, nil
}

// ProcessAll runs independent jobs concurrently, bounded by the Workers
// setting. Results and errors are positional; a failed job leaves a nil
// Result and its error in the same slot.
func (p *Pipeline) ProcessAll(ctx context.Context, inputs []Input, target string, opts render.Options) ([]*Result, []error) {
	results := make([]*Result, len(inputs))
	errs := make([]error, len(inputs))

	sem := make(chan struct{}, p.cfg.Workers)
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in Input) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = fail(StageReceived, ctx.Err())
				return
			}
			results[i], errs[i] = p.Process(ctx, in, target, opts)
		}(i, in)
	}
	wg.Wait()
	return results, errs
}

func (p *Pipeline) admit(in Input) *Error {
	if len(in.Data) == 0 {
		return &Error{Stage: StageReceived, Kind: KindMalformedInput,
			Err: errors.New("empty input")}
	}
	if int64(len(in.Data)) > p.cfg.MaxInputSize {
		return &Error{Stage: StageReceived, Kind: KindInputTooLarge,
			Err: fmt.Errorf("input %d bytes exceeds ceiling %d", len(in.Data), p.cfg.MaxInputSize)}
	}
	return nil
}
