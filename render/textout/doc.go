// Package textout renders documents to plain text. Its output is defined
// to match model.Document.PlainText exactly, so parsing a text rendering
// again reproduces the same text content.
package textout
