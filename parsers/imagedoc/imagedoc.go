package imagedoc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/tsawler/spectra/format"
	"github.com/tsawler/spectra/model"
	"github.com/tsawler/spectra/ocr"
	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/sandbox"
)

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
	image.RegisterFormat("tiff", "II\x2A\x00", tiff.Decode, tiff.DecodeConfig)
	image.RegisterFormat("tiff", "MM\x00\x2A", tiff.Decode, tiff.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}

// Parser handles standalone raster images.
type Parser struct {
	// WithOCR runs text recognition on parsed images when the binary was
	// built with OCR support. Off by default: recognition is slow.
	WithOCR bool

	// Language selects OCR languages, "+"-separated. Empty means the
	// engine default.
	Language string
}

// New creates an image parser without OCR.
func New() *Parser { return &Parser{} }

// NewWithOCR creates an image parser that OCRs every parsed image.
func NewWithOCR(language string) *Parser {
	return &Parser{WithOCR: true, Language: language}
}

func (p *Parser) Name() string { return "imagedoc" }

func (p *Parser) Formats() []format.Descriptor {
	return []format.Descriptor{
		format.PNG, format.JPEG, format.GIF, format.TIFF, format.BMP, format.WebP,
	}
}

func (p *Parser) Limits() sandbox.Limits {
	return sandbox.Limits{MaxMemory: 512 << 20, Timeout: 60 * time.Second}
}

// CanParse asks the registered decoders whether the header is readable.
func (p *Parser) CanParse(data []byte) bool {
	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

func (p *Parser) Parse(ctx context.Context, data []byte, req parser.Request) (*model.Document, error) {
	cfg, kind, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", parser.ErrMalformed)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("degenerate dimensions %dx%d: %w", cfg.Width, cfg.Height, parser.ErrMalformed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := model.NewDocument()
	doc.Metadata.SetCustom("image.format", kind)
	doc.Metadata.SetCustom("image.width", fmt.Sprintf("%d", cfg.Width))
	doc.Metadata.SetCustom("image.height", fmt.Sprintf("%d", cfg.Height))

	pg := model.NewPage(model.Dims{
		Width:  float64(cfg.Width),
		Height: float64(cfg.Height),
		Unit:   model.UnitPixel,
	})

	bbox := &model.BBox{W: float64(cfg.Width), H: float64(cfg.Height)}
	if req.Options.ExtractImages {
		id := doc.Resources.AddImage(data, mimeFor(kind), cfg.Width, cfg.Height)
		pg.AddBlock(&model.ImageBlock{BBox: bbox, ResourceID: id})
	}

	if p.WithOCR && ocr.Enabled {
		if text, err := p.recognize(data); err == nil && text != "" {
			blk := model.NewTextBlock(text)
			blk.BBox = bbox
			pg.AddBlock(blk)
		}
		// Recognition failure degrades to an image-only page.
	}

	doc.AddPage(pg)
	return doc, nil
}

func (p *Parser) recognize(data []byte) (string, error) {
	client, err := ocr.New()
	if err != nil {
		return "", err
	}
	defer client.Close()
	if p.Language != "" {
		if err := client.SetLanguage(p.Language); err != nil {
			return "", err
		}
	}
	return client.Recognize(data)
}

func mimeFor(kind string) string {
	switch kind {
	case "png":
		return "image/png"
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
