package spectra

import (
	"log/slog"

	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/pipeline"
	"github.com/tsawler/spectra/render"
	"github.com/tsawler/spectra/sandbox"
)

// Option adjusts engine configuration at construction time.
type Option func(*Config)

// WithLogger routes pipeline stage logging to log.
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) { c.Logger = log }
}

// WithMaxInputSize sets the admission ceiling in bytes.
func WithMaxInputSize(n int64) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxInputSize = n
		}
	}
}

// WithWorkers bounds concurrent sandboxed parses.
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithLimits sets the fallback sandbox limits.
func WithLimits(l sandbox.Limits) Option {
	return func(c *Config) { c.Limits = l }
}

// WithParseOptions sets the options handed to every parser invocation.
func WithParseOptions(o parser.Options) Option {
	return func(c *Config) { c.ParseOptions = o }
}

// WithNestingDepth sets how many archive levels are parsed into nested
// documents. Zero disables nested parsing entirely.
func WithNestingDepth(depth int) Option {
	return func(c *Config) {
		if depth >= 0 {
			c.NestingDepth = depth
		}
	}
}

// WithOCR enables text recognition on image inputs. language selects OCR
// languages, "+"-separated; empty means the engine default. Takes effect
// only in binaries built with the ocr tag.
func WithOCR(language string) Option {
	return func(c *Config) {
		c.OCR = true
		c.OCRLanguage = language
	}
}

// WithParsers registers additional parsers after the built-ins. Built-ins
// win ties for shared formats.
func WithParsers(ps ...parser.Parser) Option {
	return func(c *Config) { c.ExtraParsers = append(c.ExtraParsers, ps...) }
}

// WithRenderers registers additional render targets.
func WithRenderers(rs ...render.Renderer) Option {
	return func(c *Config) { c.ExtraRenderers = append(c.ExtraRenderers, rs...) }
}

// ParseOption adjusts a single parse, extract or process call.
type ParseOption func(*pipeline.Input)

// Filename attaches the original filename to a call. Detection uses it for
// extension fallback and it is recorded in the document source info.
func Filename(name string) ParseOption {
	return func(in *pipeline.Input) { in.Filename = name }
}
