// Package htmlout renders documents to standalone HTML. Headings, tables,
// images and paragraph styling survive the conversion; fixed-layout
// positioning does not, blocks flow in document order.
package htmlout
