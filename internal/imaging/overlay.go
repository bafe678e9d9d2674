package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultBoxColor is the outline color used when none is configured.
const DefaultBoxColor = "#00FF00"

// Box is a rectangle to outline, with an optional numeric label drawn at its
// top-left corner. Label values below zero are not drawn.
type Box struct {
	Rect  image.Rectangle
	Label int
}

// DrawBoxes returns a copy of img with each box outlined.
//
// Parameters:
//   - img: Source image. It is not modified.
//   - boxes: Rectangles in img's coordinate space.
//   - hexColor: Outline color as "#RRGGBB". Invalid values fall back to
//     DefaultBoxColor.
//   - lineWidth: Stroke width in pixels. Values <= 0 use 2.
func DrawBoxes(img image.Image, boxes []Box, hexColor string, lineWidth float64) *image.RGBA {
	c, err := colorful.Hex(hexColor)
	if err != nil {
		c, _ = colorful.Hex(DefaultBoxColor)
	}
	if lineWidth <= 0 {
		lineWidth = 2
	}

	dc := gg.NewContextForImage(img)
	dc.SetColor(c)
	dc.SetLineWidth(lineWidth)
	origin := img.Bounds().Min
	for _, b := range boxes {
		r := b.Rect.Sub(origin)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()
	}

	out, ok := dc.Image().(*image.RGBA)
	if !ok {
		out = image.NewRGBA(dc.Image().Bounds())
	}

	r8, g8, b8 := c.RGB255()
	fg := color.RGBA{0, 0, 0, 255}
	bg := color.RGBA{r8, g8, b8, 255}
	for _, b := range boxes {
		if b.Label < 0 {
			continue
		}
		r := b.Rect.Sub(origin)
		drawLabel(out, r.Min.X+2, r.Min.Y+2, strconv.Itoa(b.Label), fg, bg)
	}
	return out
}

// ParseBoxColor validates a "#RRGGBB" color string.
func ParseBoxColor(hex string) error {
	if _, err := colorful.Hex(hex); err != nil {
		return fmt.Errorf("invalid color %q: expected #RRGGBB", hex)
	}
	return nil
}

// drawLabel draws a label with a 3x5 pixel digit font at the given position
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if image.Pt(px, py).In(bounds) {
				img.Set(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					px, py := cx+col, y+row
					if image.Pt(px, py).In(bounds) {
						img.Set(px, py, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
