package imagedoc

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/parser"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParsePNG(t *testing.T) {
	data := encodePNG(t, 64, 48)

	doc, err := New().Parse(context.Background(), data, parser.Request{
		Format: format.PNG, Options: parser.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("invalid document: %v", err)
	}

	if doc.PageCount() != 1 {
		t.Fatalf("PageCount() = %d", doc.PageCount())
	}
	pg := doc.Pages[0]
	if pg.Dims.Width != 64 || pg.Dims.Height != 48 || pg.Dims.Unit != model.UnitPixel {
		t.Errorf("page dims = %+v", pg.Dims)
	}

	img, ok := pg.Blocks[0].(*model.ImageBlock)
	if !ok {
		t.Fatalf("block = %T, want ImageBlock", pg.Blocks[0])
	}
	res, ok := doc.Resources.Image(img.ResourceID)
	if !ok {
		t.Fatal("resource missing")
	}
	if res.MIME != "image/png" || res.Width != 64 || res.Height != 48 {
		t.Errorf("resource = %+v", res)
	}
	if !bytes.Equal(res.Data, data) {
		t.Error("resource bytes differ from input")
	}

	if doc.Metadata.Custom["image.format"] != "png" {
		t.Errorf("metadata = %v", doc.Metadata.Custom)
	}
}

func TestParseBMP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	doc, err := New().Parse(context.Background(), buf.Bytes(), parser.Request{
		Format: format.BMP, Options: parser.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Metadata.Custom["image.format"] != "bmp" {
		t.Errorf("format = %q", doc.Metadata.Custom["image.format"])
	}
}

func TestParseWithoutImageExtraction(t *testing.T) {
	data := encodePNG(t, 8, 8)

	doc, err := New().Parse(context.Background(), data, parser.Request{
		Format:  format.PNG,
		Options: parser.Options{ExtractImages: false, ExtractStructure: true},
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Pages[0].Blocks) != 0 {
		t.Errorf("blocks = %d, want 0 when images disabled", len(doc.Pages[0].Blocks))
	}
	if len(doc.Resources.Images) != 0 {
		t.Error("resources stored despite ExtractImages=false")
	}
}

func TestParseTruncated(t *testing.T) {
	data := encodePNG(t, 8, 8)

	_, err := New().Parse(context.Background(), data[:8], parser.Request{Format: format.PNG})
	if err == nil {
		t.Fatal("Parse() accepted a truncated header")
	}
}

func TestCanParse(t *testing.T) {
	p := New()
	if !p.CanParse(encodePNG(t, 4, 4)) {
		t.Error("rejected a valid png")
	}
	if p.CanParse([]byte("definitely not an image")) {
		t.Error("accepted junk")
	}
}
