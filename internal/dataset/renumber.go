package dataset

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cyclopcam/logs"
)

// RenumberResult summarizes a Renumber run.
type RenumberResult struct {
	// Lines holds "<prefix>/<n>.<ext>" for every file that ended up numbered.
	Lines []string `json:"lines"`

	// Renamed counts files whose name changed.
	Renamed int `json:"renamed"`

	// Skipped counts files left as they were because a rename failed.
	Skipped int `json:"skipped"`
}

// Renumber renames the samples in dir to 1..n, keeping their numeric order.
// Extensions are lowercased and ".jpeg" becomes ".jpg".
//
// Files move through a temporary name first, so a target name that is
// currently held by another sample never gets clobbered. A file that cannot
// be moved is logged and keeps its current name; the run carries on.
func Renumber(dir, prefix string, log logs.Log) (*RenumberResult, error) {
	names, err := ListSamples(dir)
	if err != nil {
		return nil, err
	}

	type move struct {
		orig  string
		tmp   string
		final string
	}

	res := &RenumberResult{}
	moves := make([]move, 0, len(names))
	for i, name := range names {
		final := strconv.Itoa(i+1) + normalizeExt(filepath.Ext(name))
		if final == name {
			moves = append(moves, move{orig: name, final: final})
			continue
		}
		tmp := fmt.Sprintf(".renumber-%d%s.tmp", i+1, filepath.Ext(name))
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, tmp)); err != nil {
			log.Warnf("Skipping %s: %v", name, err)
			res.Skipped++
			moves = append(moves, move{orig: name, final: name})
			continue
		}
		moves = append(moves, move{orig: name, tmp: tmp, final: final})
	}

	for _, m := range moves {
		if m.tmp == "" {
			res.Lines = append(res.Lines, path.Join(prefix, m.final))
			continue
		}
		err := errIfExists(filepath.Join(dir, m.final))
		if err == nil {
			err = os.Rename(filepath.Join(dir, m.tmp), filepath.Join(dir, m.final))
		}
		if err != nil {
			log.Warnf("Skipping %s: %v", m.orig, err)
			res.Skipped++
			// Put it back under its old name if we can.
			if err := os.Rename(filepath.Join(dir, m.tmp), filepath.Join(dir, m.orig)); err != nil {
				log.Errorf("Sample %s left at %s: %v", m.orig, m.tmp, err)
			} else {
				res.Lines = append(res.Lines, path.Join(prefix, m.orig))
			}
			continue
		}
		res.Renamed++
		res.Lines = append(res.Lines, path.Join(prefix, m.final))
	}

	log.Infof("Renumbered %d of %d samples in %s (%d skipped)", res.Renamed, len(names), dir, res.Skipped)
	return res, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext == ".jpeg" {
		return ".jpg"
	}
	return ext
}

// errIfExists guards against replacing a sample whose own rename was skipped.
func errIfExists(p string) error {
	if _, err := os.Lstat(p); err == nil {
		return fmt.Errorf("%s already exists", filepath.Base(p))
	}
	return nil
}
