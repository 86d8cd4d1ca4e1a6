// Package model defines the unified document model (UDM): the single
// intermediate representation that every format parser produces and every
// renderer consumes.
//
// A Document is an ordered sequence of pages, each holding ordered content
// blocks (text, images, tables, vector graphics, containers). Styles and
// embedded binaries live once per document, in the StyleSheet and
// ResourceStore, and blocks reference them by identifier. This keeps the
// model free of duplicated style and resource data and lets a renderer
// resolve each style exactly once.
//
// Documents are built by parsers and are not mutated afterwards; a Document
// is safe for concurrent reads by any number of renderers.
package model
