package dataset

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	// Decoders for the formats DecodeConfig reads headers from
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// sampleExts are the file extensions picked up as samples, compared
// case-insensitively.
var sampleExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

var digitRun = regexp.MustCompile(`\d+`)

// Region is a labeled rectangle inside a sample, in pixels.
type Region struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Record is one manifest line: a sample path and the objects in it.
type Record struct {
	Path    string
	Regions []Region
}

// String formats the record as "path count x y w h [x y w h ...]".
func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Path)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(len(r.Regions)))
	for _, reg := range r.Regions {
		fmt.Fprintf(&b, " %d %d %d %d", reg.X, reg.Y, reg.Width, reg.Height)
	}
	return b.String()
}

// IsSampleFile reports whether name has one of the sample extensions.
func IsSampleFile(name string) bool {
	return sampleExts[strings.ToLower(filepath.Ext(name))]
}

// NumericKey is the sort key of a filename: the value of its first run of
// digits, or 0 when it has none.
func NumericKey(name string) int {
	m := digitRun.FindString(name)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// SortNumeric orders filenames by NumericKey, so "2.jpg" comes before
// "10.jpg". Equal keys fall back to the name itself.
func SortNumeric(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ki, kj := NumericKey(names[i]), NumericKey(names[j])
		if ki != kj {
			return ki < kj
		}
		return names[i] < names[j]
	})
}

// ListSamples returns the sample files in dir, numerically sorted.
func ListSamples(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && IsSampleFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	SortNumeric(names)
	return names, nil
}

// BuildManifest produces one full-extent record per sample in dir. Only
// files named "<id>.<ext>" are samples; other images in the directory, such
// as notes.jpg, are left out. Negative lists from ListSamples keep them.
//
// Parameters:
//   - dir: The collection directory.
//   - prefix: Written in front of each filename, e.g. "Good" gives
//     "Good/1.jpg". Empty means bare filenames.
//   - region: If non-nil, used for every record. Otherwise each sample's
//     size is read from its file header and the region covers all of it.
func BuildManifest(dir, prefix string, region *Region) ([]Record, error) {
	names, err := ListSamples(dir)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(names))
	for _, name := range names {
		if _, ok := ParseID(name, filepath.Ext(name)); !ok {
			continue
		}
		reg := Region{}
		if region != nil {
			reg = *region
		} else {
			w, h, err := sampleSize(filepath.Join(dir, name))
			if err != nil {
				return nil, err
			}
			reg = Region{X: 0, Y: 0, Width: w, Height: h}
		}
		records = append(records, Record{
			Path:    path.Join(prefix, name),
			Regions: []Region{reg},
		})
	}
	return records, nil
}

func sampleSize(p string) (int, int, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open sample: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read sample header %s: %w", p, err)
	}
	return cfg.Width, cfg.Height, nil
}

// WriteManifest replaces the file at target with one line per record.
func WriteManifest(target string, records []Record) error {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.String()
	}
	return WriteList(target, lines)
}

// WriteList atomically replaces target with the given newline-terminated
// lines. Content goes to a temp file next to target which is then renamed
// over it, so readers see either the old file or the complete new one.
func WriteList(target string, lines []string) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close manifest: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set manifest permissions: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}
