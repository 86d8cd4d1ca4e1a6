// Package svgout renders documents to SVG. Pages are stacked vertically in
// a single <svg> element, each wrapped in a translated <g>. Blocks with
// bounding boxes are positioned exactly; unpositioned text flows down the
// page with a simple line cursor.
package svgout
