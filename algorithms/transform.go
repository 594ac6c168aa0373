package algorithms

import "math"

// PlaneTransform maps a square logical plane of side Side onto a pixel
// surface of Width x Height. The y axis is flipped so the logical origin sits
// at the bottom-left corner.
type PlaneTransform struct {
	Side   float64
	Width  float64
	Height float64
}

func NewPlaneTransform(side, width, height float64) PlaneTransform {
	return PlaneTransform{Side: side, Width: width, Height: height}
}

// Scale - 논리 단위당 픽셀 수
func (t PlaneTransform) Scale() float64 {
	return math.Min(t.Width, t.Height) / t.Side
}

// ToPixel - 논리 좌표 → 픽셀 좌표
func (t PlaneTransform) ToPixel(p Point) Point {
	s := t.Scale()
	return Point{X: p.X * s, Y: t.Height - p.Y*s}
}

// ToLogical - 픽셀 좌표 → 논리 좌표
func (t PlaneTransform) ToLogical(px Point) Point {
	s := t.Scale()
	return Point{X: px.X / s, Y: (t.Height - px.Y) / s}
}

// CSSToBacking converts a point in CSS pixels to backing-store pixels using the
// per-axis ratio between the two sizes.
func CSSToBacking(p Point, cssW, cssH, backingW, backingH float64) Point {
	return Point{X: p.X * backingW / cssW, Y: p.Y * backingH / cssH}
}
