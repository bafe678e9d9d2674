package detection

import (
	"math"
	"sort"

	flatbush "github.com/bmharper/flatbush-go"
)

// Detection is a grouped region reported by the detector.
type Detection struct {
	Rect

	// Neighbors is the number of raw candidate windows merged into this one.
	Neighbors int `json:"neighbors"`
}

func sortRects(r []Rect) {
	sort.Slice(r, func(i, j int) bool {
		a, b := r[i], r[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Width != b.Width {
			return a.Width < b.Width
		}
		return a.Height < b.Height
	})
}

// GroupCandidates merges overlapping raw windows into detections.
//
// Two candidates are linked when their intersection covers at least
// threshold of the smaller one, and linking is transitive. A cluster
// with fewer than minNeighbors members is dropped; the rest are averaged
// into one box each. A detection that sits entirely inside another one
// with at least as much support is then dropped too.
//
// minNeighbors == 0 returns every candidate unmerged. The output is sorted
// top to bottom, left to right, and does not depend on the input order.
func GroupCandidates(cands []Rect, minNeighbors int, threshold float64) []Detection {
	rects := append([]Rect(nil), cands...)
	sortRects(rects)

	if minNeighbors <= 0 {
		out := make([]Detection, len(rects))
		for i, r := range rects {
			out[i] = Detection{Rect: r, Neighbors: 1}
		}
		return out
	}
	if len(rects) == 0 {
		return nil
	}

	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(rects))
	for _, r := range rects {
		fb.Add(int32(r.X), int32(r.Y), int32(r.X2()), int32(r.Y2()))
	}
	fb.Finish()

	parent := make([]int, len(rects))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i, r := range rects {
		for _, j := range fb.Search(int32(r.X), int32(r.Y), int32(r.X2()), int32(r.Y2())) {
			if j <= i {
				continue
			}
			if r.Overlap(rects[j]) < threshold {
				continue
			}
			a, b := find(i), find(j)
			if a != b {
				// Keep the lower index as root so labels follow the sorted order.
				if b < a {
					a, b = b, a
				}
				parent[b] = a
			}
		}
	}

	type acc struct {
		x, y, w, h float64
		n          int
	}
	clusters := map[int]*acc{}
	var roots []int
	for i, r := range rects {
		root := find(i)
		c, ok := clusters[root]
		if !ok {
			c = &acc{}
			clusters[root] = c
			roots = append(roots, root)
		}
		c.x += float64(r.X)
		c.y += float64(r.Y)
		c.w += float64(r.Width)
		c.h += float64(r.Height)
		c.n++
	}
	sort.Ints(roots)

	var merged []Detection
	for _, root := range roots {
		c := clusters[root]
		if c.n < minNeighbors {
			continue
		}
		n := float64(c.n)
		merged = append(merged, Detection{
			Rect: Rect{
				X:      int(math.Round(c.x / n)),
				Y:      int(math.Round(c.y / n)),
				Width:  int(math.Round(c.w / n)),
				Height: int(math.Round(c.h / n)),
			},
			Neighbors: c.n,
		})
	}

	out := make([]Detection, 0, len(merged))
	for i, d := range merged {
		if enclosed(merged, i) {
			continue
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}

// enclosed reports whether ds[i] lies inside some other detection with at
// least as many neighbors. Of two identical boxes with equal support, the
// earlier one survives.
func enclosed(ds []Detection, i int) bool {
	d := ds[i]
	for j, o := range ds {
		if j == i || !o.Contains(d.Rect) || o.Neighbors < d.Neighbors {
			continue
		}
		if o.Rect == d.Rect && o.Neighbors == d.Neighbors && j > i {
			continue
		}
		return true
	}
	return false
}
