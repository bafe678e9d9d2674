package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/cascade-tools/internal/config"
	"github.com/ironsheep/cascade-tools/internal/detection"
)

// parseCrop reads "x0,y0,x1,y1".
func parseCrop(s string) (config.Crop, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return config.Crop{}, fmt.Errorf("invalid crop %q: expected x0,y0,x1,y1", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return config.Crop{}, fmt.Errorf("invalid crop %q: %q is not an integer", s, p)
		}
		v[i] = n
	}
	return config.Crop{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3]}, nil
}

// parseSize reads "WxH".
func parseSize(s string) (detection.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return detection.Size{}, fmt.Errorf("invalid size %q: expected WIDTHxHEIGHT", s)
	}
	wi, err1 := strconv.Atoi(strings.TrimSpace(w))
	hi, err2 := strconv.Atoi(strings.TrimSpace(h))
	if err1 != nil || err2 != nil || wi <= 0 || hi <= 0 {
		return detection.Size{}, fmt.Errorf("invalid size %q: expected positive WIDTHxHEIGHT", s)
	}
	return detection.Size{Width: wi, Height: hi}, nil
}
