package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/cascade-tools/internal/imaging"
)

// Params controls a detection run.
type Params struct {
	// ScaleFactor is the ratio between consecutive pyramid levels, in (1, 2).
	ScaleFactor float64 `json:"scale_factor" yaml:"scale_factor"`

	// MinNeighbors is how many raw windows must agree before a region is
	// reported. Zero disables grouping.
	MinNeighbors int `json:"min_neighbors" yaml:"min_neighbors"`

	// MinSize and MaxSize bound the detection window in image pixels.
	MinSize Size `json:"min_size" yaml:"min_size"`
	MaxSize Size `json:"max_size" yaml:"max_size"`

	// Equalize runs histogram equalization before scanning.
	Equalize bool `json:"equalize" yaml:"equalize"`

	// MergeThreshold is the fraction of the smaller window two candidates
	// must share to be grouped, in (0, 1].
	MergeThreshold float64 `json:"merge_threshold" yaml:"merge_threshold"`

	// Step is the window stride in pixels of the scaled image.
	Step int `json:"step" yaml:"step"`

	// Workers caps how many scales are scanned at once. Zero means NumCPU.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultParams are tuned for tooth photos with a 24px-class model.
func DefaultParams() Params {
	return Params{
		ScaleFactor:    1.01,
		MinNeighbors:   5,
		MinSize:        Size{Width: 10, Height: 10},
		MaxSize:        Size{Width: 450, Height: 450},
		Equalize:       true,
		MergeThreshold: 0.5,
		Step:           2,
		Workers:        runtime.NumCPU(),
	}
}

// Validate checks every field and names the first one that is out of range.
func (p Params) Validate() error {
	switch {
	case !(p.ScaleFactor > 1 && p.ScaleFactor < 2):
		return fmt.Errorf("scale_factor: expected a value in (1, 2), found %g", p.ScaleFactor)
	case p.MinNeighbors < 0:
		return fmt.Errorf("min_neighbors: expected >= 0, found %d", p.MinNeighbors)
	case p.MinSize.Width <= 0 || p.MinSize.Height <= 0:
		return fmt.Errorf("min_size: expected positive dimensions, found %dx%d", p.MinSize.Width, p.MinSize.Height)
	case p.MaxSize.Width <= 0 || p.MaxSize.Height <= 0:
		return fmt.Errorf("max_size: expected positive dimensions, found %dx%d", p.MaxSize.Width, p.MaxSize.Height)
	case p.MinSize.Width > p.MaxSize.Width || p.MinSize.Height > p.MaxSize.Height:
		return fmt.Errorf("min_size: expected <= max_size %dx%d, found %dx%d",
			p.MaxSize.Width, p.MaxSize.Height, p.MinSize.Width, p.MinSize.Height)
	case !(p.MergeThreshold > 0 && p.MergeThreshold <= 1):
		return fmt.Errorf("merge_threshold: expected a value in (0, 1], found %g", p.MergeThreshold)
	case p.Step < 1:
		return fmt.Errorf("step: expected >= 1, found %d", p.Step)
	case p.Workers < 0:
		return fmt.Errorf("workers: expected >= 0, found %d", p.Workers)
	}
	return nil
}

// InvalidImageError reports an input that cannot be scanned.
type InvalidImageError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InvalidImageError) Error() string {
	msg := "invalid image"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidImageError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one Detect call. An empty Detections list is a
// normal result.
type Result struct {
	Detections []Detection `json:"detections"`
	Count      int         `json:"count"`

	// Candidates is the number of raw windows accepted before grouping.
	Candidates int `json:"candidates"`

	// Scales is the number of pyramid levels scanned.
	Scales int `json:"scales"`

	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detector runs one cascade with fixed parameters. It holds no per-call
// state and may be shared between goroutines.
type Detector struct {
	cascade *Cascade
	params  Params
}

func NewDetector(c *Cascade, p Params) (*Detector, error) {
	if c == nil {
		return nil, fmt.Errorf("detector requires a cascade")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Workers == 0 {
		p.Workers = runtime.NumCPU()
	}
	return &Detector{cascade: c, params: p}, nil
}

func (d *Detector) Params() Params {
	return d.params
}

// pyramidLevel is one scale of the scan.
type pyramidLevel struct {
	factor float64
	window Size // window size in original image pixels
	scaled Size // image size at this level
}

// levels lists the pyramid for a w x h image. Level k scans the image shrunk
// by factor f^k with the model window, which is the same as scanning the
// original with a window grown by f^k.
func (d *Detector) levels(w, h int) []pyramidLevel {
	cw, ch := d.cascade.Width, d.cascade.Height
	p := d.params

	var out []pyramidLevel
	for f := 1.0; ; f *= p.ScaleFactor {
		win := Size{Width: round(float64(cw) * f), Height: round(float64(ch) * f)}
		scaled := Size{Width: round(float64(w) / f), Height: round(float64(h) / f)}
		if scaled.Width < cw || scaled.Height < ch {
			break
		}
		if win.Width > p.MaxSize.Width || win.Height > p.MaxSize.Height {
			break
		}
		if win.Width < p.MinSize.Width || win.Height < p.MinSize.Height {
			continue
		}
		out = append(out, pyramidLevel{factor: f, window: win, scaled: scaled})
	}
	return out
}

// Detect finds objects in img.
//
// Pyramid levels are scanned concurrently, at most Workers at a time; each
// writes its candidates to its own slot. ctx is checked once before each
// level, and a cancelled run returns ctx's error.
func (d *Detector) Detect(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &InvalidImageError{Reason: "image has no pixels"}
	}

	gray := imaging.ToGray(img)
	if d.params.Equalize {
		gray = imaging.EqualizeHist(gray)
	}
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()

	levels := d.levels(w, h)
	slots := make([][]Rect, len(levels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.params.Workers)
	for i, lv := range levels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scaled := gray
			if lv.scaled.Width != w || lv.scaled.Height != h {
				scaled = imaging.Resize(gray, lv.scaled.Width, lv.scaled.Height)
			}
			slots[i] = d.scan(newIntegral(scaled), lv)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// errgroup only reports task errors; a cancel after the last task started
	// still counts.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cands []Rect
	for _, s := range slots {
		cands = append(cands, s...)
	}

	dets := GroupCandidates(cands, d.params.MinNeighbors, d.params.MergeThreshold)
	if dets == nil {
		dets = []Detection{}
	}
	return &Result{
		Detections: dets,
		Count:      len(dets),
		Candidates: len(cands),
		Scales:     len(levels),
		Width:      w,
		Height:     h,
	}, nil
}

// scan slides the model window over one pyramid level and maps accepted
// windows back to original image coordinates.
func (d *Detector) scan(ii *integral, lv pyramidLevel) []Rect {
	cw, ch := d.cascade.Width, d.cascade.Height
	step := d.params.Step

	var out []Rect
	for y := 0; y+ch <= ii.h; y += step {
		for x := 0; x+cw <= ii.w; x += step {
			if _, ok := d.cascade.evaluate(ii, x, y); !ok {
				continue
			}
			out = append(out, Rect{
				X:      round(float64(x) * lv.factor),
				Y:      round(float64(y) * lv.factor),
				Width:  lv.window.Width,
				Height: lv.window.Height,
			})
		}
	}
	return out
}

// DetectFile decodes the image at path and runs Detect on it.
func (d *Detector) DetectFile(ctx context.Context, path string) (*Result, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &InvalidImageError{Path: path, Reason: "cannot decode", Err: err}
	}
	return d.Detect(ctx, img)
}

func round(v float64) int {
	return int(math.Round(v))
}
