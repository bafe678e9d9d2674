package detection

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// thresholdEps is subtracted from every stage threshold on load, matching
// how opencv_traincascade writes and reads them.
const thresholdEps = 1e-5

// ModelLoadError reports a cascade file that is missing or malformed.
type ModelLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ModelLoadError) Error() string {
	msg := "failed to load cascade"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// weightedRect is one rectangle of a Haar feature, in window coordinates.
type weightedRect struct {
	x, y, w, h int
	weight     float64
}

type feature struct {
	rects []weightedRect
}

// node is an internal tree node. A child index > 0 points at another node;
// a child index <= 0 points at leaf -index.
type node struct {
	left, right int
	feature     int
	threshold   float64
}

type weakClassifier struct {
	nodes  []node
	leaves []float64
}

type stage struct {
	threshold float64
	weak      []weakClassifier
}

// Cascade is a trained boosted cascade of Haar-feature tree classifiers, as
// written by opencv_traincascade.
type Cascade struct {
	// Width and Height are the model window in pixels.
	Width  int
	Height int

	stages   []stage
	features []feature
}

// NumStages is the number of boosting stages.
func (c *Cascade) NumStages() int {
	return len(c.stages)
}

// NumFeatures is the number of distinct Haar features the stages reference.
func (c *Cascade) NumFeatures() int {
	return len(c.features)
}

// Window is the model window size.
func (c *Cascade) Window() Size {
	return Size{Width: c.Width, Height: c.Height}
}

type xmlStorage struct {
	XMLName xml.Name    `xml:"opencv_storage"`
	Cascade *xmlCascade `xml:"cascade"`
}

type xmlCascade struct {
	StageType   string       `xml:"stageType"`
	FeatureType string       `xml:"featureType"`
	Width       int          `xml:"width"`
	Height      int          `xml:"height"`
	StageNum    int          `xml:"stageNum"`
	Stages      []xmlStage   `xml:"stages>_"`
	Features    []xmlFeature `xml:"features>_"`
}

type xmlStage struct {
	MaxWeakCount   int       `xml:"maxWeakCount"`
	StageThreshold string    `xml:"stageThreshold"`
	Weak           []xmlWeak `xml:"weakClassifiers>_"`
}

type xmlWeak struct {
	InternalNodes string `xml:"internalNodes"`
	LeafValues    string `xml:"leafValues"`
}

type xmlFeature struct {
	Rects  []string `xml:"rects>_"`
	Tilted string   `xml:"tilted"`
}

// LoadCascade reads a cascade XML file.
func LoadCascade(path string) (*Cascade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Reason: "cannot open file", Err: err}
	}
	defer f.Close()

	c, err := ParseCascade(f)
	if err != nil {
		if mle, ok := err.(*ModelLoadError); ok {
			mle.Path = path
		}
		return nil, err
	}
	return c, nil
}

// ParseCascade decodes cascade XML from r. Only BOOST stages over upright
// HAAR features are supported; anything else is a *ModelLoadError.
func ParseCascade(r io.Reader) (*Cascade, error) {
	var doc xmlStorage
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ModelLoadError{Reason: "invalid XML", Err: err}
	}
	x := doc.Cascade
	if x == nil {
		return nil, &ModelLoadError{Reason: "no <cascade> element (old-style haar cascades are not supported)"}
	}
	if st := strings.TrimSpace(x.StageType); st != "BOOST" {
		return nil, &ModelLoadError{Reason: fmt.Sprintf("stage type: expected BOOST, found %q", st)}
	}
	if ft := strings.TrimSpace(x.FeatureType); ft != "HAAR" {
		return nil, &ModelLoadError{Reason: fmt.Sprintf("feature type: expected HAAR, found %q", ft)}
	}
	if x.Width < 3 || x.Height < 3 {
		return nil, &ModelLoadError{Reason: fmt.Sprintf("window size: expected at least 3x3, found %dx%d", x.Width, x.Height)}
	}
	if len(x.Stages) == 0 {
		return nil, &ModelLoadError{Reason: "cascade has no stages"}
	}
	if x.StageNum != 0 && x.StageNum != len(x.Stages) {
		return nil, &ModelLoadError{Reason: fmt.Sprintf("stageNum is %d but %d stages are present", x.StageNum, len(x.Stages))}
	}

	c := &Cascade{
		Width:    x.Width,
		Height:   x.Height,
		features: make([]feature, len(x.Features)),
	}

	for i, xf := range x.Features {
		if t := strings.TrimSpace(xf.Tilted); t != "" && t != "0" {
			return nil, &ModelLoadError{Reason: fmt.Sprintf("feature %d is tilted; only upright features are supported", i)}
		}
		if len(xf.Rects) == 0 {
			return nil, &ModelLoadError{Reason: fmt.Sprintf("feature %d has no rectangles", i)}
		}
		for j, s := range xf.Rects {
			v, err := parseFloats(s)
			if err != nil || len(v) != 5 {
				return nil, &ModelLoadError{Reason: fmt.Sprintf("feature %d rect %d: expected \"x y w h weight\", found %q", i, j, strings.TrimSpace(s))}
			}
			wr := weightedRect{x: int(v[0]), y: int(v[1]), w: int(v[2]), h: int(v[3]), weight: v[4]}
			if wr.x < 0 || wr.y < 0 || wr.w <= 0 || wr.h <= 0 || wr.x+wr.w > c.Width || wr.y+wr.h > c.Height {
				return nil, &ModelLoadError{Reason: fmt.Sprintf("feature %d rect %d lies outside the %dx%d window", i, j, c.Width, c.Height)}
			}
			c.features[i].rects = append(c.features[i].rects, wr)
		}
	}

	c.stages = make([]stage, len(x.Stages))
	for si, xs := range x.Stages {
		thr, err := strconv.ParseFloat(strings.TrimSpace(xs.StageThreshold), 64)
		if err != nil {
			return nil, &ModelLoadError{Reason: fmt.Sprintf("stage %d threshold", si), Err: err}
		}
		if len(xs.Weak) == 0 {
			return nil, &ModelLoadError{Reason: fmt.Sprintf("stage %d has no weak classifiers", si)}
		}
		if xs.MaxWeakCount != 0 && xs.MaxWeakCount != len(xs.Weak) {
			return nil, &ModelLoadError{Reason: fmt.Sprintf("stage %d: maxWeakCount is %d but %d classifiers are present", si, xs.MaxWeakCount, len(xs.Weak))}
		}

		st := stage{threshold: thr - thresholdEps, weak: make([]weakClassifier, len(xs.Weak))}
		for wi, xw := range xs.Weak {
			wc, err := parseWeak(xw, len(c.features))
			if err != nil {
				return nil, &ModelLoadError{Reason: fmt.Sprintf("stage %d classifier %d: %v", si, wi, err)}
			}
			st.weak[wi] = wc
		}
		c.stages[si] = st
	}
	return c, nil
}

func parseWeak(xw xmlWeak, numFeatures int) (weakClassifier, error) {
	raw, err := parseFloats(xw.InternalNodes)
	if err != nil {
		return weakClassifier{}, fmt.Errorf("internalNodes: %w", err)
	}
	if len(raw) == 0 || len(raw)%4 != 0 {
		return weakClassifier{}, fmt.Errorf("internalNodes: expected groups of 4 values, found %d values", len(raw))
	}
	leaves, err := parseFloats(xw.LeafValues)
	if err != nil {
		return weakClassifier{}, fmt.Errorf("leafValues: %w", err)
	}

	wc := weakClassifier{
		nodes:  make([]node, len(raw)/4),
		leaves: leaves,
	}
	for i := range wc.nodes {
		n := node{
			left:      int(raw[i*4]),
			right:     int(raw[i*4+1]),
			feature:   int(raw[i*4+2]),
			threshold: raw[i*4+3],
		}
		if n.feature < 0 || n.feature >= numFeatures {
			return weakClassifier{}, fmt.Errorf("node %d references feature %d of %d", i, n.feature, numFeatures)
		}
		for _, child := range []int{n.left, n.right} {
			if child > 0 && child >= len(wc.nodes) {
				return weakClassifier{}, fmt.Errorf("node %d references node %d of %d", i, child, len(wc.nodes))
			}
			if child <= 0 && -child >= len(leaves) {
				return weakClassifier{}, fmt.Errorf("node %d references leaf %d of %d", i, -child, len(leaves))
			}
		}
		wc.nodes[i] = n
	}
	return wc, nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ModelCache keeps loaded cascades by path, safe for concurrent use.
type ModelCache struct {
	mu     sync.RWMutex
	models map[string]*Cascade
}

func NewModelCache() *ModelCache {
	return &ModelCache{
		models: make(map[string]*Cascade),
	}
}

// Load returns the cached cascade for path, loading it on first use.
func (c *ModelCache) Load(path string) (*Cascade, error) {
	c.mu.RLock()
	if m, ok := c.models[path]; ok {
		c.mu.RUnlock()
		return m, nil
	}
	c.mu.RUnlock()

	m, err := LoadCascade(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.models[path] = m
	c.mu.Unlock()
	return m, nil
}

// Clear drops every cached cascade.
func (c *ModelCache) Clear() {
	c.mu.Lock()
	c.models = make(map[string]*Cascade)
	c.mu.Unlock()
}
