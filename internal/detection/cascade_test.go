package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCascadeEvaluate(t *testing.T) {
	c := loadEdgeCascade(t)
	ii := newIntegral(createSplitImage(64, 16, 32))

	tests := []struct {
		name       string
		x          int
		wantStages int
		wantOK     bool
	}{
		{"straddles edge bright left", 28, 1, true},
		{"edge near right side", 26, 1, true},
		{"all white", 0, 0, false},
		{"all black", 40, 0, false},
		{"inner window uniform", 25, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages, ok := c.evaluate(ii, tt.x, 4)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStages, stages)
		})
	}
}

func TestCascadeStopsAtFirstReject(t *testing.T) {
	c := loadEdgeCascade(t)
	ii := newIntegral(createSplitImage(64, 16, 32))

	pass := c.stages[0]
	reject := pass
	reject.threshold = 10

	c.stages = []stage{pass, pass, reject, pass}
	stages, ok := c.evaluate(ii, 28, 4)
	assert.False(t, ok)
	assert.Equal(t, 2, stages)

	c.stages = []stage{reject, pass}
	stages, ok = c.evaluate(ii, 28, 4)
	assert.False(t, ok)
	assert.Zero(t, stages)
}

func TestWindowNorm(t *testing.T) {
	c := loadEdgeCascade(t)
	ii := newIntegral(createSplitImage(64, 16, 32))

	// Inner 6x6 of the window at x=28 is half white.
	inv, ok := c.windowNorm(ii, 28, 0)
	assert.True(t, ok)
	assert.InDelta(t, 1.0/4590, inv, 1e-12)

	_, ok = c.windowNorm(ii, 0, 0)
	assert.False(t, ok)
}

// createStripedImage alternates columns of lo and hi, so any 6x6 block has a
// standard deviation of (hi-lo)/2.
func createStripedImage(w, h int, lo, hi uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := lo
			if x%2 == 1 {
				v = hi
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestWindowNorm_LowContrast(t *testing.T) {
	c := loadEdgeCascade(t)

	tests := []struct {
		name   string
		lo, hi uint8
		wantOK bool
	}{
		{"stddev 2", 100, 104, false},
		{"stddev 9", 100, 118, false},
		{"stddev 12", 100, 124, true},
		{"stddev 50", 50, 150, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ii := newIntegral(createStripedImage(16, 16, tt.lo, tt.hi))
			_, ok := c.windowNorm(ii, 2, 2)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestCascadeEvaluate_RejectsFlatWindow(t *testing.T) {
	c := loadEdgeCascade(t)
	ii := newIntegral(createStripedImage(16, 16, 100, 104))

	stages, ok := c.evaluate(ii, 0, 0)
	assert.False(t, ok)
	assert.Zero(t, stages)
}
