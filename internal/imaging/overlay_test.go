package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawBoxes(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255})
	boxes := []Box{{Rect: image.Rect(20, 20, 60, 60), Label: -1}}

	out := DrawBoxes(img, boxes, "#FF0000", 2)
	assert.Equal(t, img.Bounds(), out.Bounds())

	// Outline is drawn on the left edge, the interior stays black
	r, g, b, _ := out.At(20, 40).RGBA()
	assert.Greater(t, r>>8, uint32(100))
	assert.Less(t, g>>8, uint32(100))
	assert.Less(t, b>>8, uint32(100))

	r, _, _, _ = out.At(40, 40).RGBA()
	assert.Equal(t, uint32(0), r>>8)

	// Source image is untouched
	r, _, _, _ = img.At(20, 40).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestDrawBoxes_InvalidColorFallsBack(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{0, 0, 0, 255})
	out := DrawBoxes(img, []Box{{Rect: image.Rect(10, 10, 40, 40), Label: -1}}, "not-a-color", 0)

	_, g, _, _ := out.At(10, 25).RGBA()
	assert.Greater(t, g>>8, uint32(100), "expected default green outline")
}

func TestDrawBoxes_Label(t *testing.T) {
	img := createInMemoryImage(60, 60, color.RGBA{0, 0, 0, 255})
	out := DrawBoxes(img, []Box{{Rect: image.Rect(5, 5, 55, 55), Label: 7}}, "#00FF00", 1)

	// Label background is filled with the box color behind the glyph
	_, g, _, _ := out.At(6, 13).RGBA()
	assert.Greater(t, g>>8, uint32(100))
}

func TestParseBoxColor(t *testing.T) {
	assert.NoError(t, ParseBoxColor("#00ff00"))
	assert.Error(t, ParseBoxColor("green"))
	assert.Error(t, ParseBoxColor(""))
}
