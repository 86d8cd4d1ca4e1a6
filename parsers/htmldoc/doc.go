// Package htmldoc parses HTML into the document model. Headings,
// paragraphs, lists, tables, code blocks and blockquotes become blocks;
// title and meta tags become metadata; bold/italic/code spans become styled
// runs. Script, style and other non-content elements are skipped.
package htmldoc
