// Package imageout rasterizes documents to PNG. Geometry is in points and
// output density is Options.DPI, so a Letter page at 96 DPI becomes an
// 816x1056 pixel image. Selected pages are stacked vertically in one image.
//
// Text is drawn with a built-in bitmap face; the output is a faithful
// layout preview, not a typographically exact reproduction.
package imageout
