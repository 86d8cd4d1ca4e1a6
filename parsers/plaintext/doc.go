// Package plaintext parses plain text, Markdown-ish text and CSV into the
// document model. Input encoding is sniffed: UTF-8, UTF-16 (either byte
// order, with or without BOM) and Latin-1 are handled.
package plaintext
