package detection

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// edgeCascadeXML is an 8x8 single-stage model that accepts windows whose
// left half is brighter than their right half.
const edgeCascadeXML = `<?xml version="1.0"?>
<opencv_storage>
<cascade>
  <stageType>BOOST</stageType>
  <featureType>HAAR</featureType>
  <height>8</height>
  <width>8</width>
  <stageParams>
    <boostType>GAB</boostType>
    <maxDepth>1</maxDepth>
  </stageParams>
  <featureParams>
    <maxCatCount>0</maxCatCount>
    <mode>BASIC</mode>
  </featureParams>
  <stageNum>1</stageNum>
  <stages>
    <_>
      <maxWeakCount>1</maxWeakCount>
      <stageThreshold>0.</stageThreshold>
      <weakClassifiers>
        <_>
          <internalNodes>
            0 -1 0 1.0000000149011612e-01</internalNodes>
          <leafValues>
            -1. 1.</leafValues></_></weakClassifiers></_></stages>
  <features>
    <_>
      <rects>
        <_>
          0 0 8 8 -1.</_>
        <_>
          0 0 4 8 2.</_></rects></_></features></cascade>
</opencv_storage>
`

func loadEdgeCascade(t *testing.T) *Cascade {
	t.Helper()
	c, err := ParseCascade(strings.NewReader(edgeCascadeXML))
	require.NoError(t, err)
	return c
}

// createSplitImage creates a w x h image that is white left of splitX and
// black from splitX on.
func createSplitImage(w, h, splitX int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < splitX {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func createUniformImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
