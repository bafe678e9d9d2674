package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/parallel"
)

// EqualizeHist spreads the intensity histogram of g over the full 0-255 range.
//
// The mapping is the usual cumulative-distribution one:
//
//	out = round((cdf(v) - cdfMin) * 255 / (total - cdfMin))
//
// An image with a single intensity is returned unchanged, so a uniform image
// stays uniform.
func EqualizeHist(g *image.Gray) *image.Gray {
	b := g.Bounds()
	total := b.Dx() * b.Dy()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	if total == 0 {
		return out
	}

	// The gray value lands in every color channel, so R carries the histogram.
	cdf := histogram.NewRGBAHistogram(g).R.Cumulative()

	cdfMin := 0
	for _, c := range cdf.Bins {
		if c > 0 {
			cdfMin = c
			break
		}
	}

	var lut [256]uint8
	if cdfMin == total {
		for i := range lut {
			lut[i] = uint8(i)
		}
	} else {
		scale := 255.0 / float64(total-cdfMin)
		for i := 0; i < 256 && i < len(cdf.Bins); i++ {
			v := math.Round(float64(cdf.Bins[i]-cdfMin) * scale)
			lut[i] = uint8(math.Max(0, math.Min(255, v)))
		}
	}

	parallel.Line(b.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			si := g.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * out.Stride
			for x := 0; x < b.Dx(); x++ {
				out.Pix[di+x] = lut[g.Pix[si+x]]
			}
		}
	})
	return out
}
