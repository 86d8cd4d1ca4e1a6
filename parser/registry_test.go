package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/sandbox"
)

// fakeParser accepts input when its accept prefix matches.
type fakeParser struct {
	name    string
	formats []format.Descriptor
	accept  byte
}

func (f *fakeParser) Name() string                { return f.name }
func (f *fakeParser) Formats() []format.Descriptor { return f.formats }
func (f *fakeParser) Limits() sandbox.Limits       { return sandbox.Limits{} }

func (f *fakeParser) CanParse(data []byte) bool {
	return len(data) > 0 && data[0] == f.accept
}

func (f *fakeParser) Parse(ctx context.Context, data []byte, req Request) (*model.Document, error) {
	return model.NewDocument(), nil
}

func TestRegistrySelect(t *testing.T) {
	png := &fakeParser{name: "png", formats: []format.Descriptor{format.PNG}, accept: 0x89}
	txt := &fakeParser{name: "text", formats: []format.Descriptor{format.PlainText}, accept: 'h'}
	r := NewRegistry(png, txt)

	candidates := []format.Result{
		{Format: format.PNG, Confidence: 0.99, Method: format.MethodSignature},
		{Format: format.PlainText, Confidence: 0.30, Method: format.MethodHeuristic},
	}

	p, d, err := r.Select(candidates, []byte{0x89, 'P', 'N', 'G'})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if p.Name() != "png" || d.Name != format.PNG.Name {
		t.Errorf("Select() = %s/%s, want png/%s", p.Name(), d.Name, format.PNG.Name)
	}
}

func TestRegistrySelectFallsThrough(t *testing.T) {
	// The top candidate's parser declines the bytes; dispatch must fall
	// through to the lower-confidence candidate.
	png := &fakeParser{name: "png", formats: []format.Descriptor{format.PNG}, accept: 0x89}
	txt := &fakeParser{name: "text", formats: []format.Descriptor{format.PlainText}, accept: 'h'}
	r := NewRegistry(png, txt)

	candidates := []format.Result{
		{Format: format.PNG, Confidence: 0.99},
		{Format: format.PlainText, Confidence: 0.30},
	}

	p, _, err := r.Select(candidates, []byte("hello"))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if p.Name() != "text" {
		t.Errorf("Select() = %s, want text", p.Name())
	}
}

func TestRegistrySelectNoParser(t *testing.T) {
	r := NewRegistry(&fakeParser{name: "png", formats: []format.Descriptor{format.PNG}, accept: 0x89})

	_, _, err := r.Select([]format.Result{{Format: format.PDF, Confidence: 0.98}}, []byte("%PDF-1.7"))
	if !errors.Is(err, ErrNoParser) {
		t.Errorf("Select() error = %v, want ErrNoParser", err)
	}

	_, _, err = r.Select(nil, nil)
	if !errors.Is(err, ErrNoParser) {
		t.Errorf("Select() with no candidates error = %v, want ErrNoParser", err)
	}
}

func TestRegistrySelectRegistrationOrder(t *testing.T) {
	first := &fakeParser{name: "first", formats: []format.Descriptor{format.PlainText}, accept: 'x'}
	second := &fakeParser{name: "second", formats: []format.Descriptor{format.PlainText}, accept: 'x'}
	r := NewRegistry(first, second)

	p, _, err := r.Select([]format.Result{{Format: format.PlainText, Confidence: 0.5}}, []byte("x"))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if p.Name() != "first" {
		t.Errorf("Select() = %s, want first (registration order)", p.Name())
	}
}

func TestRegistryLookups(t *testing.T) {
	png := &fakeParser{name: "png", formats: []format.Descriptor{format.PNG, format.JPEG}, accept: 0x89}
	r := NewRegistry(png)

	if got := r.ForFormat(format.JPEG.Name); len(got) != 1 || got[0].Name() != "png" {
		t.Errorf("ForFormat(jpeg) = %v", got)
	}
	if got := r.ForFormat("nope"); len(got) != 0 {
		t.Errorf("ForFormat(nope) = %v, want empty", got)
	}
	if got := r.ForExtension(".png"); len(got) != 1 {
		t.Errorf("ForExtension(.png) = %v", got)
	}
	if got := r.Formats(); len(got) != 2 {
		t.Errorf("Formats() = %d descriptors, want 2", len(got))
	}
}
