package detection

import "image"

// integral holds summed-area tables for an intensity image. Entry (x,y) is
// the sum over all pixels above and to the left of (x,y), so the tables
// are one larger than the image in each direction.
type integral struct {
	w, h   int
	stride int
	sum    []int64
	sqsum  []int64
}

func newIntegral(g *image.Gray) *integral {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	stride := w + 1
	ii := &integral{
		w:      w,
		h:      h,
		stride: stride,
		sum:    make([]int64, stride*(h+1)),
		sqsum:  make([]int64, stride*(h+1)),
	}

	for y := 0; y < h; y++ {
		row := g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):]
		var rowSum, rowSq int64
		above := y * stride
		cur := (y + 1) * stride
		for x := 0; x < w; x++ {
			v := int64(row[x])
			rowSum += v
			rowSq += v * v
			ii.sum[cur+x+1] = ii.sum[above+x+1] + rowSum
			ii.sqsum[cur+x+1] = ii.sqsum[above+x+1] + rowSq
		}
	}
	return ii
}

// rectSum is the pixel sum over the w x h box at (x,y).
func (ii *integral) rectSum(x, y, w, h int) int64 {
	return ii.box(ii.sum, x, y, w, h)
}

// rectSqSum is the sum of squared pixels over the w x h box at (x,y).
func (ii *integral) rectSqSum(x, y, w, h int) int64 {
	return ii.box(ii.sqsum, x, y, w, h)
}

func (ii *integral) box(t []int64, x, y, w, h int) int64 {
	a := y*ii.stride + x
	b := a + w
	c := (y+h)*ii.stride + x
	d := c + w
	return t[d] - t[b] - t[c] + t[a]
}
