package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/render"
	"github.com/tsawler/spectra/sandbox"
)

// stubParser handles plain text and misbehaves on demand.
type stubParser struct {
	behave string // "", "panic", "hang", "partial", "invalid", "malformed"
}

func (s *stubParser) Name() string                 { return "stub" }
func (s *stubParser) Formats() []format.Descriptor { return []format.Descriptor{format.PlainText} }
func (s *stubParser) CanParse(data []byte) bool    { return true }
func (s *stubParser) Limits() sandbox.Limits {
	return sandbox.Limits{Timeout: 200 * time.Millisecond}
}

func (s *stubParser) Parse(ctx context.Context, data []byte, req parser.Request) (*model.Document, error) {
	switch s.behave {
	case "panic":
		panic("stub exploded")
	case "hang":
		time.Sleep(5 * time.Second)
	case "malformed":
		return nil, fmt.Errorf("bad structure: %w", parser.ErrMalformed)
	case "invalid":
		doc := model.NewDocument()
		pg := model.NewPage(model.Letter)
		pg.Number = 7 // breaks contiguous numbering
		doc.Pages = append(doc.Pages, pg)
		return doc, nil
	}

	doc := model.NewDocument()
	pg := model.NewPage(model.Letter)
	pg.AddBlock(model.NewTextBlock(string(data)))
	doc.AddPage(pg)
	if s.behave == "partial" {
		return doc, fmt.Errorf("trailing garbage skipped: %w", parser.ErrPartial)
	}
	return doc, nil
}

func newPipeline(t *testing.T, behave string) *Pipeline {
	t.Helper()
	return New(Config{
		Parsers:   parser.NewRegistry(&stubParser{behave: behave}),
		Renderers: render.NewRegistry(&stubRenderer{}),
	})
}

type stubRenderer struct{}

func (r *stubRenderer) Target() string { return "text" }
func (r *stubRenderer) Render(ctx context.Context, doc *model.Document, opts render.Options) ([]byte, error) {
	return []byte(doc.PlainText()), nil
}

func TestParse(t *testing.T) {
	p := newPipeline(t, "")

	res, err := p.Parse(context.Background(), Input{Data: []byte("hello world"), Filename: "a.txt"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if res.Document.PlainText() != "hello world" {
		t.Errorf("PlainText() = %q", res.Document.PlainText())
	}
	if res.Parser != "stub" {
		t.Errorf("Parser = %q", res.Parser)
	}
	if res.Partial {
		t.Error("clean parse flagged partial")
	}

	src := res.Document.Source
	if src.Filename != "a.txt" || src.Size != 11 || src.Hash == "" || src.ParsedAt.IsZero() {
		t.Errorf("SourceInfo not filled: %+v", src)
	}
}

func TestParseEmptyInput(t *testing.T) {
	p := newPipeline(t, "")

	_, err := p.Parse(context.Background(), Input{})
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("Parse() error = %v, want *Error", err)
	}
	if pe.Kind != KindMalformedInput || pe.Stage != StageReceived {
		t.Errorf("error = %s/%s", pe.Stage, pe.Kind)
	}
	if !pe.InputError() || pe.Retryable() {
		t.Error("empty input must be a non-retryable input error")
	}
}

func TestParseInputTooLarge(t *testing.T) {
	p := New(Config{
		Parsers:      parser.NewRegistry(&stubParser{}),
		MaxInputSize: 8,
	})

	_, err := p.Parse(context.Background(), Input{Data: []byte("way past the ceiling")})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindInputTooLarge {
		t.Errorf("Parse() error = %v, want KindInputTooLarge", err)
	}
}

func TestParseNoParser(t *testing.T) {
	p := New(Config{Parsers: parser.NewRegistry()})

	_, err := p.Parse(context.Background(), Input{Data: []byte("hello"), Filename: "a.txt"})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindNoParserAvailable {
		t.Fatalf("Parse() error = %v, want KindNoParserAvailable", err)
	}
	if !pe.InputError() {
		t.Error("unparseable format must classify as input error")
	}
}

func TestParsePanicIsInternalFault(t *testing.T) {
	p := newPipeline(t, "panic")

	_, err := p.Parse(context.Background(), Input{Data: []byte("hello")})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindInternalFault {
		t.Fatalf("Parse() error = %v, want KindInternalFault", err)
	}
	if !pe.Retryable() || pe.InputError() {
		t.Error("internal fault must be retryable, not an input error")
	}

	var panicErr *sandbox.PanicError
	if !errors.As(err, &panicErr) {
		t.Error("panic detail lost in wrapping")
	}

	// The pipeline survives a parser panic.
	if _, err := newPipeline(t, "").Parse(context.Background(), Input{Data: []byte("ok")}); err != nil {
		t.Errorf("pipeline unhealthy after panic: %v", err)
	}
}

func TestParseTimeout(t *testing.T) {
	p := newPipeline(t, "hang")

	_, err := p.Parse(context.Background(), Input{Data: []byte("hello")})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindTimeout {
		t.Fatalf("Parse() error = %v, want KindTimeout", err)
	}
	if !pe.Retryable() {
		t.Error("timeout must be retryable")
	}
}

func TestParseMalformed(t *testing.T) {
	p := newPipeline(t, "malformed")

	_, err := p.Parse(context.Background(), Input{Data: []byte("hello")})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindMalformedInput {
		t.Errorf("Parse() error = %v, want KindMalformedInput", err)
	}
}

func TestParsePartial(t *testing.T) {
	p := newPipeline(t, "partial")

	res, err := p.Parse(context.Background(), Input{Data: []byte("hello")})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !res.Partial {
		t.Error("partial parse not flagged")
	}
	if res.Document == nil || res.Document.PlainText() != "hello" {
		t.Error("partial parse lost its document")
	}
}

func TestParseInvalidDocument(t *testing.T) {
	p := newPipeline(t, "invalid")

	_, err := p.Parse(context.Background(), Input{Data: []byte("hello")})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindInternalFault {
		t.Errorf("Parse() error = %v, want KindInternalFault for invalid document", err)
	}
}

func TestProcess(t *testing.T) {
	p := newPipeline(t, "")

	res, err := p.Process(context.Background(), Input{Data: []byte("hello")}, "text", render.Options{})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if string(res.Output) != "hello" || res.Target != "text" {
		t.Errorf("Process() output = %q target = %q", res.Output, res.Target)
	}
}

func TestProcessUnknownTarget(t *testing.T) {
	p := newPipeline(t, "")

	_, err := p.Process(context.Background(), Input{Data: []byte("hello")}, "pdf", render.Options{})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindUnsupportedRenderTarget {
		t.Fatalf("Process() error = %v, want KindUnsupportedRenderTarget", err)
	}
	if pe.Stage != StageRendering {
		t.Errorf("Stage = %s, want rendering", pe.Stage)
	}
}

func TestExtractText(t *testing.T) {
	p := newPipeline(t, "")

	text, err := p.ExtractText(context.Background(), Input{Data: []byte("some words here")})
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if text != "some words here" {
		t.Errorf("ExtractText() = %q", text)
	}
}

func TestProcessAll(t *testing.T) {
	p := newPipeline(t, "")

	inputs := []Input{
		{Data: []byte("one")},
		{}, // empty, must fail in place
		{Data: []byte("three")},
	}
	results, errs := p.ProcessAll(context.Background(), inputs, "text", render.Options{})

	if errs[0] != nil || string(results[0].Output) != "one" {
		t.Errorf("job 0: %v %+v", errs[0], results[0])
	}
	var pe *Error
	if !errors.As(errs[1], &pe) || pe.Kind != KindMalformedInput || results[1] != nil {
		t.Errorf("job 1: %v %v", errs[1], results[1])
	}
	if errs[2] != nil || string(results[2].Output) != "three" {
		t.Errorf("job 2: %v %+v", errs[2], results[2])
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		kind       Kind
		retryable  bool
		inputError bool
	}{
		{KindInternalFault, true, false},
		{KindDetectionInconclusive, false, true},
		{KindNoParserAvailable, false, true},
		{KindMalformedInput, false, true},
		{KindInputTooLarge, false, true},
		// A memory-limit trip is a candidate for retry with adjusted
		// limits, not a verdict on the input.
		{KindMemoryLimitExceeded, true, false},
		{KindTimeout, true, false},
		{KindUnsupportedRenderTarget, false, true},
		{KindCanceled, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			e := &Error{Stage: StageParsing, Kind: tc.kind, Err: errors.New("x")}
			if e.Retryable() != tc.retryable {
				t.Errorf("Retryable() = %v, want %v", e.Retryable(), tc.retryable)
			}
			if e.InputError() != tc.inputError {
				t.Errorf("InputError() = %v, want %v", e.InputError(), tc.inputError)
			}
		})
	}
}

func TestDetectDelegates(t *testing.T) {
	p := newPipeline(t, "")

	got := p.Detect(Input{Data: []byte("%PDF-1.7 ...")})
	if len(got) == 0 || got[0].Format.Name != format.PDF.Name {
		t.Errorf("Detect() = %v", got)
	}
}
