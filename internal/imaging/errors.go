package imaging

import (
	"fmt"
	"image"
)

// OutOfBoundsError reports a crop rectangle that does not fit inside a frame.
type OutOfBoundsError struct {
	Crop  image.Rectangle
	Frame image.Rectangle
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("crop region (%d,%d)-(%d,%d) outside frame bounds (%d,%d)-(%d,%d)",
		e.Crop.Min.X, e.Crop.Min.Y, e.Crop.Max.X, e.Crop.Max.Y,
		e.Frame.Min.X, e.Frame.Min.Y, e.Frame.Max.X, e.Frame.Max.Y)
}
