// Package imagedoc wraps a single raster image as a one-page document: the
// page takes the image's pixel dimensions and carries one image block
// backed by a deduplicated resource. With OCR support compiled in
// (-tags ocr) the recognized text is added as a second block, which makes
// scanned pages searchable.
package imagedoc
