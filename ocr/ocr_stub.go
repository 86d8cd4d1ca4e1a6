//go:build !ocr

// Package ocr extracts text from raster images via the Tesseract engine.
//
// This is the stub compiled without the "ocr" build tag: every operation
// returns ErrNotEnabled. Rebuild with
//
//	go build -tags ocr
//
// and a system Tesseract installation to enable recognition.
package ocr

import "errors"

// ErrNotEnabled is returned when OCR support was not compiled in.
var ErrNotEnabled = errors.New("ocr support not enabled; rebuild with -tags ocr")

// Enabled reports whether OCR support was compiled in.
const Enabled = false

// Client is the stub client; all operations fail with ErrNotEnabled.
type Client struct{}

// New returns ErrNotEnabled.
func New() (*Client, error) {
	return nil, ErrNotEnabled
}

// Close is a no-op, safe on a nil client.
func (c *Client) Close() error { return nil }

// SetLanguage returns ErrNotEnabled.
func (c *Client) SetLanguage(lang string) error { return ErrNotEnabled }

// Recognize returns ErrNotEnabled.
func (c *Client) Recognize(imageData []byte) (string, error) {
	return "", ErrNotEnabled
}
