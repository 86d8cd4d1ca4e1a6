package model

import "math"

// Point represents a 2D point.
type Point struct {
	X, Y float64
}

// BBox represents a bounding box. The origin is the top-left corner of the
// page; Y grows downward. Blocks from formats without fixed layout carry a
// nil *BBox instead of a zero box.
type BBox struct {
	X float64 // Left
	Y float64 // Top
	W float64
	H float64
}

// NewBBox creates a bounding box from coordinates.
func NewBBox(x, y, w, h float64) *BBox {
	return &BBox{X: x, Y: y, W: w, H: h}
}

// Left returns the left edge X coordinate.
func (b *BBox) Left() float64 { return b.X }

// Right returns the right edge X coordinate.
func (b *BBox) Right() float64 { return b.X + b.W }

// Top returns the top edge Y coordinate.
func (b *BBox) Top() float64 { return b.Y }

// Bottom returns the bottom edge Y coordinate.
func (b *BBox) Bottom() float64 { return b.Y + b.H }

// Center returns the center point.
func (b *BBox) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Contains checks if a point is inside the bounding box.
func (b *BBox) Contains(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Top() && p.Y <= b.Bottom()
}

// Intersects checks if two bounding boxes intersect.
func (b *BBox) Intersects(other *BBox) bool {
	if other == nil {
		return false
	}
	return !(b.Right() < other.Left() ||
		b.Left() > other.Right() ||
		b.Bottom() < other.Top() ||
		b.Top() > other.Bottom())
}

// Union returns the smallest box covering both boxes.
func (b *BBox) Union(other *BBox) *BBox {
	if other == nil {
		c := *b
		return &c
	}
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Top(), other.Top())
	right := math.Max(b.Right(), other.Right())
	bottom := math.Max(b.Bottom(), other.Bottom())
	return &BBox{X: x, Y: y, W: right - x, H: bottom - y}
}

// Area returns the area of the bounding box.
func (b *BBox) Area() float64 { return b.W * b.H }

// IsValid returns true if the bounding box has positive dimensions.
func (b *BBox) IsValid() bool { return b.W > 0 && b.H > 0 }
