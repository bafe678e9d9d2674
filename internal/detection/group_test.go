package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupCandidatesMinNeighbors(t *testing.T) {
	pair := []Rect{
		{X: 10, Y: 10, Width: 20, Height: 20},
		{X: 12, Y: 11, Width: 20, Height: 20},
	}

	got := GroupCandidates(pair, 2, 0.5)
	require.Len(t, got, 1)
	assert.Equal(t, Detection{Rect: Rect{X: 11, Y: 11, Width: 20, Height: 20}, Neighbors: 2}, got[0])

	assert.Empty(t, GroupCandidates(pair, 3, 0.5))

	raw := GroupCandidates(pair, 0, 0.5)
	assert.Len(t, raw, 2)
}

func TestGroupCandidatesThreshold(t *testing.T) {
	// Intersection is 10x20, half of each box.
	pair := []Rect{
		{X: 0, Y: 0, Width: 20, Height: 20},
		{X: 10, Y: 0, Width: 20, Height: 20},
	}
	assert.Len(t, GroupCandidates(pair, 1, 0.5), 1)
	assert.Len(t, GroupCandidates(pair, 1, 0.6), 2)
}

func TestGroupCandidatesSeparateClusters(t *testing.T) {
	cands := []Rect{
		{X: 100, Y: 5, Width: 10, Height: 10},
		{X: 0, Y: 50, Width: 10, Height: 10},
		{X: 101, Y: 5, Width: 10, Height: 10},
		{X: 1, Y: 50, Width: 10, Height: 10},
		{X: 300, Y: 300, Width: 10, Height: 10},
	}
	got := GroupCandidates(cands, 2, 0.5)
	require.Len(t, got, 2)
	// Sorted top to bottom.
	assert.Equal(t, 5, got[0].Y)
	assert.Equal(t, 50, got[1].Y)
	assert.Equal(t, 2, got[0].Neighbors)
}

func TestGroupCandidatesOrderIndependent(t *testing.T) {
	cands := []Rect{
		{X: 3, Y: 4, Width: 30, Height: 30},
		{X: 5, Y: 2, Width: 28, Height: 28},
		{X: 60, Y: 60, Width: 12, Height: 12},
		{X: 4, Y: 4, Width: 31, Height: 31},
		{X: 61, Y: 62, Width: 12, Height: 12},
	}
	want := GroupCandidates(cands, 2, 0.5)

	reversed := make([]Rect, len(cands))
	for i, c := range cands {
		reversed[len(cands)-1-i] = c
	}
	assert.Equal(t, want, GroupCandidates(reversed, 2, 0.5))
	// The input is not reordered.
	assert.Equal(t, Rect{X: 3, Y: 4, Width: 30, Height: 30}, cands[0])
}

func TestGroupCandidatesEmpty(t *testing.T) {
	assert.Empty(t, GroupCandidates(nil, 3, 0.5))
	assert.Empty(t, GroupCandidates(nil, 0, 0.5))
}

func TestEnclosed(t *testing.T) {
	outer := Detection{Rect: Rect{X: 0, Y: 0, Width: 100, Height: 100}, Neighbors: 5}
	inner := Detection{Rect: Rect{X: 10, Y: 10, Width: 20, Height: 20}, Neighbors: 3}
	strong := Detection{Rect: Rect{X: 10, Y: 10, Width: 20, Height: 20}, Neighbors: 9}

	ds := []Detection{outer, inner}
	assert.False(t, enclosed(ds, 0))
	assert.True(t, enclosed(ds, 1))

	// Better supported inner boxes survive.
	ds = []Detection{outer, strong}
	assert.False(t, enclosed(ds, 1))

	// Of two identical boxes one survives.
	ds = []Detection{inner, inner}
	assert.False(t, enclosed(ds, 0))
	assert.True(t, enclosed(ds, 1))
}

func TestRectOverlap(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.Equal(t, 1.0, a.Overlap(Rect{X: 2, Y: 2, Width: 4, Height: 4}))
	assert.Equal(t, 0.0, a.Overlap(Rect{X: 10, Y: 0, Width: 10, Height: 10}))
	assert.InDelta(t, 0.25, a.Overlap(Rect{X: 5, Y: 5, Width: 10, Height: 10}), 1e-9)
	assert.Equal(t, 0.0, a.Overlap(Rect{}))
}
