package parser

import (
	"fmt"

	"github.com/tsawler/spectra/format"
)

// Registry maps formats to the parsers that handle them. It is built once
// and never mutated, so it is safe for concurrent use without locking.
type Registry struct {
	parsers  []Parser
	byFormat map[string][]Parser
	byExt    map[string][]Parser
}

// NewRegistry builds a registry over the given parsers. Registration order
// decides precedence when more than one parser claims the same format.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{
		parsers:  make([]Parser, len(parsers)),
		byFormat: make(map[string][]Parser),
		byExt:    make(map[string][]Parser),
	}
	copy(r.parsers, parsers)

	for _, p := range parsers {
		for _, d := range p.Formats() {
			r.byFormat[d.Name] = append(r.byFormat[d.Name], p)
			if d.Extension != "" {
				r.byExt[d.Extension] = append(r.byExt[d.Extension], p)
			}
		}
	}
	return r
}

// Parsers returns the registered parsers in registration order.
func (r *Registry) Parsers() []Parser {
	out := make([]Parser, len(r.parsers))
	copy(out, r.parsers)
	return out
}

// ForFormat returns the parsers registered for the named format, in
// registration order.
func (r *Registry) ForFormat(name string) []Parser {
	ps := r.byFormat[name]
	out := make([]Parser, len(ps))
	copy(out, ps)
	return out
}

// ForExtension returns the parsers registered for a file extension. The
// leading dot is optional.
func (r *Registry) ForExtension(ext string) []Parser {
	if len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	ps := r.byExt[ext]
	out := make([]Parser, len(ps))
	copy(out, ps)
	return out
}

// Formats returns every format descriptor at least one parser handles.
func (r *Registry) Formats() []format.Descriptor {
	seen := make(map[string]bool)
	var out []format.Descriptor
	for _, p := range r.parsers {
		for _, d := range p.Formats() {
			if !seen[d.Name] {
				seen[d.Name] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// Select picks the parser for an input. Detection candidates are tried in
// the order given (highest confidence first); within a format, parsers are
// tried in registration order. A parser is committed to only after its
// CanParse accepts the actual bytes, so a confident but wrong detection
// falls through to the next candidate.
//
// Select returns ErrNoParser when every candidate declines.
func (r *Registry) Select(candidates []format.Result, data []byte) (Parser, format.Descriptor, error) {
	for _, c := range candidates {
		for _, p := range r.byFormat[c.Format.Name] {
			if p.CanParse(data) {
				return p, c.Format, nil
			}
		}
	}
	if len(candidates) == 0 {
		return nil, format.Descriptor{}, fmt.Errorf("no format candidates: %w", ErrNoParser)
	}
	return nil, format.Descriptor{}, fmt.Errorf("no parser for %s: %w", candidates[0].Format.Name, ErrNoParser)
}
