// Package archive parses ZIP, GZIP and TAR containers. The document gets
// one page holding a member listing table; member payloads become
// attachments tagged with their detected format. Extraction is bounded by
// member-count and expansion-ratio ceilings so crafted archives cannot
// exhaust the process.
package archive
