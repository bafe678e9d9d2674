package detection

import "math"

// minContrast bounds 1/stddev from above. Flatter windows are rejected before
// stage 0, matching OpenCV's Haar evaluator.
const minContrast = 0.1

// windowNorm returns 1/stddev-scaled normalization for the window at (x,y),
// computed over the window shrunk by one pixel on each side. ok is false for
// a flat window: one whose standard deviation is 10 grey levels or less.
func (c *Cascade) windowNorm(ii *integral, x, y int) (inv float64, ok bool) {
	w, h := c.Width-2, c.Height-2
	area := float64(w * h)
	s := float64(ii.rectSum(x+1, y+1, w, h))
	sq := float64(ii.rectSqSum(x+1, y+1, w, h))
	nf := area*sq - s*s
	if nf <= 0 {
		return 0, false
	}
	inv = 1 / math.Sqrt(nf)
	if area*inv >= minContrast {
		return 0, false
	}
	return inv, true
}

func (c *Cascade) featureValue(ii *integral, f int, x, y int) float64 {
	var v float64
	for _, r := range c.features[f].rects {
		v += r.weight * float64(ii.rectSum(x+r.x, y+r.y, r.w, r.h))
	}
	return v
}

func (wc *weakClassifier) eval(c *Cascade, ii *integral, x, y int, inv float64) float64 {
	idx := 0
	for {
		n := &wc.nodes[idx]
		if c.featureValue(ii, n.feature, x, y)*inv < n.threshold {
			idx = n.left
		} else {
			idx = n.right
		}
		if idx <= 0 {
			return wc.leaves[-idx]
		}
	}
}

// evaluate runs the stages in order on the model-sized window at (x,y) and
// stops at the first stage that rejects. It returns how many stages passed
// and whether the window was accepted by all of them.
func (c *Cascade) evaluate(ii *integral, x, y int) (int, bool) {
	inv, ok := c.windowNorm(ii, x, y)
	if !ok {
		return 0, false
	}
	for i := range c.stages {
		st := &c.stages[i]
		var sum float64
		for j := range st.weak {
			sum += st.weak[j].eval(c, ii, x, y, inv)
		}
		if sum < st.threshold {
			return i, false
		}
	}
	return len(c.stages), true
}
