package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Numberer hands out sample ids that continue an existing collection.
//
// It is built from a listing of the collection taken once at startup. The
// first id issued is max(existing ids)+1, or 1 for an empty collection, and
// each call to Next advances by one, so ids are never reused within a run or
// across runs.
//
// Precondition: a single writer per collection. Numberer does not lock the
// directory and does not notice files added by another process after the scan.
type Numberer struct {
	start    int
	next     int
	existing int
}

// NewNumberer builds a Numberer from filenames. Only names of the form
// "<positive int>.<ext>" count; anything else is ignored.
func NewNumberer(names []string, ext string) *Numberer {
	maxID := 0
	existing := 0
	for _, name := range names {
		id, ok := ParseID(name, ext)
		if !ok {
			continue
		}
		existing++
		if id > maxID {
			maxID = id
		}
	}
	return &Numberer{
		start:    maxID + 1,
		next:     maxID + 1,
		existing: existing,
	}
}

// ScanNumberer lists dir and builds a Numberer from it. A missing directory
// is an empty collection.
func ScanNumberer(dir, ext string) (*Numberer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewNumberer(nil, ext), nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return NewNumberer(names, ext), nil
}

// Next returns the next free id and advances.
func (n *Numberer) Next() int {
	id := n.next
	n.next++
	return id
}

// Start is the first id this Numberer issues.
func (n *Numberer) Start() int {
	return n.start
}

// Issued is the number of ids handed out so far.
func (n *Numberer) Issued() int {
	return n.next - n.start
}

// Existing is the number of valid sample files seen at scan time.
func (n *Numberer) Existing() int {
	return n.existing
}

// ParseID extracts the id from "<id>.<ext>". The extension comparison is
// case-insensitive and ext may be given with or without the leading dot.
// math.MaxInt is not a valid id, since no id could follow it.
func ParseID(name, ext string) (int, bool) {
	want := "." + strings.TrimPrefix(ext, ".")
	got := filepath.Ext(name)
	if !strings.EqualFold(got, want) {
		return 0, false
	}
	stem := strings.TrimSuffix(name, got)
	if stem == "" || strings.ContainsAny(stem, "+-") {
		return 0, false
	}
	id, err := strconv.Atoi(stem)
	if err != nil || id <= 0 || id == math.MaxInt {
		return 0, false
	}
	return id, true
}

// NewNumbererAt issues ids from start regardless of what is on disk. The
// writer still refuses to overwrite, so a collision fails the write.
func NewNumbererAt(start int) *Numberer {
	if start < 1 {
		start = 1
	}
	return &Numberer{start: start, next: start}
}
