//go:build ocr

// Package ocr extracts text from raster images via the Tesseract engine
// (gosseract binding). Tesseract must be installed on the system; build
// with the "ocr" tag to enable it:
//
//	go build -tags ocr
//
// Without the tag the stub implementation is compiled in and every
// operation returns ErrNotEnabled.
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether OCR support was compiled in.
const Enabled = true

// Client wraps a Tesseract session. Not safe for concurrent use; create
// one Client per goroutine.
type Client struct {
	client *gosseract.Client
}

// New creates an OCR client. Close it to release engine resources.
func New() (*Client, error) {
	return &Client{client: gosseract.NewClient()}, nil
}

// Close releases engine resources.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// SetLanguage selects recognition languages, "+"-separated ("eng+deu").
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// Recognize runs OCR over encoded image bytes (PNG, JPEG, TIFF) and
// returns the recognized text, whitespace-trimmed.
func (c *Client) Recognize(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing: %w", err)
	}
	return strings.TrimSpace(text), nil
}
