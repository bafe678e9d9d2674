package detection

import (
	"image"

	"github.com/ironsheep/cascade-tools/internal/imaging"
)

// Size is a width and height in pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Rect is an axis-aligned box in image coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) X2() int {
	return r.X + r.Width
}

func (r Rect) Y2() int {
	return r.Y + r.Height
}

func (r Rect) Area() int {
	return r.Width * r.Height
}

func (r Rect) Intersection(b Rect) Rect {
	x1 := max(r.X, b.X)
	y1 := max(r.Y, b.Y)
	x2 := min(r.X2(), b.X2())
	y2 := min(r.Y2(), b.Y2())
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  max(0, x2-x1),
		Height: max(0, y2-y1),
	}
}

// Overlap is the intersection area as a fraction of the smaller box.
// A box fully inside another has overlap 1.
func (r Rect) Overlap(b Rect) float64 {
	smaller := min(r.Area(), b.Area())
	if smaller <= 0 {
		return 0
	}
	return float64(r.Intersection(b).Area()) / float64(smaller)
}

// Contains reports whether b lies entirely inside r.
func (r Rect) Contains(b Rect) bool {
	return b.X >= r.X && b.Y >= r.Y && b.X2() <= r.X2() && b.Y2() <= r.Y2()
}

// Image converts to an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X2(), r.Y2())
}

// Boxes turns detections into overlay boxes labeled 1..n in result order.
func Boxes(dets []Detection) []imaging.Box {
	boxes := make([]imaging.Box, len(dets))
	for i, d := range dets {
		boxes[i] = imaging.Box{Rect: d.Image(), Label: i + 1}
	}
	return boxes
}
