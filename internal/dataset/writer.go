package dataset

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultQuality is the JPEG quality used for samples.
const DefaultQuality = 95

// WriteError reports a sample that could not be persisted.
type WriteError struct {
	ID   int
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write sample %d to %s: %v", e.ID, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// SampleWriter persists one sample under an id and returns where it went.
type SampleWriter interface {
	Write(sample image.Image, id int) (string, error)
}

// DirWriter writes samples as <dir>/<id>.<ext>.
type DirWriter struct {
	dir     string
	ext     string
	format  imaging.Format
	quality int
}

// NewDirWriter creates dir if needed and checks that ext is an encodable
// image format. quality <= 0 selects DefaultQuality.
func NewDirWriter(dir, ext string, quality int) (*DirWriter, error) {
	ext = strings.TrimPrefix(ext, ".")
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("unsupported sample extension %q: %w", ext, err)
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirWriter{
		dir:     dir,
		ext:     ext,
		format:  format,
		quality: quality,
	}, nil
}

// Path is the file a sample with this id is written to.
func (w *DirWriter) Path(id int) string {
	return filepath.Join(w.dir, strconv.Itoa(id)+"."+w.ext)
}

// Write encodes sample to its id path. An existing file is never replaced:
// that would mean the numbering is out of step with the directory.
func (w *DirWriter) Write(sample image.Image, id int) (string, error) {
	path := w.Path(id)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", &WriteError{ID: id, Path: path, Err: err}
	}

	if err := imaging.Encode(f, sample, w.format, imaging.JPEGQuality(w.quality)); err != nil {
		f.Close()
		os.Remove(path)
		return "", &WriteError{ID: id, Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", &WriteError{ID: id, Path: path, Err: err}
	}
	return path, nil
}
