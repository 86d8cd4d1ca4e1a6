// Package docx parses DOCX (Office Open XML) input into the document
// model. Paragraphs become text blocks with styled runs, heading styles map
// to heading levels, tables keep their spans, and embedded images land in
// the resource store. DOCX has no fixed pagination, so the whole document
// becomes one Letter-sized page without block geometry.
package docx
