// Package render defines the contract output renderers implement and the
// registry used to look them up by target name.
//
// Renderers consume only the document model: a renderer never sees the
// original input bytes, so any format parsed to the model renders to any
// target. Concrete renderers live in the subpackages htmlout, textout,
// svgout and imageout.
package render
