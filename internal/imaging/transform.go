package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
)

// Transformer turns a raw frame into fixed-size grayscale training samples.
//
// The transform is: convert to intensity, crop to Crop, resize to
// Width x Height with bilinear interpolation, and optionally append the
// horizontal mirror of the result. Identical input always yields identical
// output bytes.
type Transformer struct {
	// Crop is the region of the frame kept for the sample, in frame coordinates.
	Crop image.Rectangle

	// Width and Height are the sample dimensions in pixels.
	Width  int
	Height int

	// Mirror adds a second, horizontally flipped sample per frame.
	Mirror bool
}

// NewTransformer checks the static parts of a transform configuration.
// Whether the crop fits a particular frame is checked by Validate.
func NewTransformer(crop image.Rectangle, width, height int, mirror bool) (*Transformer, error) {
	if crop.Min.X < 0 || crop.Min.Y < 0 {
		return nil, fmt.Errorf("invalid crop region: coordinates must be non-negative, got (%d,%d)", crop.Min.X, crop.Min.Y)
	}
	if crop.Empty() {
		return nil, fmt.Errorf("invalid crop region: x0 must be < x1, y0 must be < y1")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid sample size %dx%d: dimensions must be positive", width, height)
	}
	return &Transformer{
		Crop:   crop,
		Width:  width,
		Height: height,
		Mirror: mirror,
	}, nil
}

// Validate reports an *OutOfBoundsError if the crop does not fit inside a
// frame with the given bounds. Frame bounds are normalized to a (0,0) origin.
func (t *Transformer) Validate(frame image.Rectangle) error {
	frame = frame.Sub(frame.Min)
	if !t.Crop.In(frame) {
		return &OutOfBoundsError{Crop: t.Crop, Frame: frame}
	}
	return nil
}

// SamplesPerFrame is the number of samples Transform returns for each frame.
func (t *Transformer) SamplesPerFrame() int {
	if t.Mirror {
		return 2
	}
	return 1
}

// Transform produces the sample (and its mirror, if enabled) for one frame.
func (t *Transformer) Transform(frame image.Image) ([]*image.Gray, error) {
	if err := t.Validate(frame.Bounds()); err != nil {
		return nil, err
	}

	gray := ToGray(frame)
	cropped := gray.SubImage(t.Crop)
	sample := Resize(cropped, t.Width, t.Height)

	samples := []*image.Gray{sample}
	if t.Mirror {
		samples = append(samples, Mirror(sample))
	}
	return samples, nil
}

// ToGray converts an image to 8-bit intensity using BT.601 luma weights
// (0.299 R + 0.587 G + 0.114 B). The result always has a (0,0) origin.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		b := g.Bounds()
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}
	return grayPlane(imaging.Grayscale(img))
}

// Resize scales an intensity image to width x height with imaging.Linear.
func Resize(img image.Image, width, height int) *image.Gray {
	return grayPlane(imaging.Resize(img, width, height, imaging.Linear))
}

// Mirror flips a sample horizontally: out(x,y) == in(W-1-x,y).
// Mirroring twice returns the original pixels.
func Mirror(g *image.Gray) *image.Gray {
	return grayPlane(imaging.FlipH(g))
}

// grayPlane extracts the red channel of an NRGBA whose channels are equal,
// which is what imaging produces from grayscale input.
func grayPlane(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dst.Stride
			for x := 0; x < w; x++ {
				dst.Pix[di+x] = src.Pix[si+x*4]
			}
		}
	})
	return dst
}
