package video

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/ironsheep/cascade-tools/internal/imaging"
)

// Frame is one decoded picture. It is only valid until the next call to
// Source.Next.
type Frame struct {
	// Index is the 0-based position of the frame in the source.
	Index int

	// Image holds the decoded pixels.
	Image image.Image
}

// Source produces frames in decode order.
type Source interface {
	// Bounds is the native frame extent. All frames share it.
	Bounds() image.Rectangle

	// Next returns the next frame, or io.EOF when the source is exhausted.
	Next(ctx context.Context) (*Frame, error)

	// Close releases decoder resources.
	Close() error
}

// SourceUnavailableError reports a video or image that cannot be opened or decoded.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Open picks a source for path: still-image extensions are opened as a
// StillSource, everything else is handed to ffmpeg.
func Open(ctx context.Context, path string, opts FFmpegOptions) (Source, error) {
	if imaging.IsImageFile(path) {
		return NewStillSource(path)
	}
	return NewFFmpegSource(ctx, path, opts)
}

// StillSource treats a list of image files as consecutive frames.
type StillSource struct {
	paths  []string
	bounds image.Rectangle
	first  image.Image
	next   int
}

// NewStillSource decodes the first image to learn the frame extent.
func NewStillSource(paths ...string) (*StillSource, error) {
	if len(paths) == 0 {
		return nil, &SourceUnavailableError{Path: "", Err: fmt.Errorf("no image paths given")}
	}
	first, err := imaging.Open(paths[0])
	if err != nil {
		return nil, &SourceUnavailableError{Path: paths[0], Err: err}
	}
	return &StillSource{
		paths:  paths,
		bounds: first.Bounds(),
		first:  first,
	}, nil
}

func (s *StillSource) Bounds() image.Rectangle {
	return s.bounds
}

func (s *StillSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.paths) {
		return nil, io.EOF
	}

	idx := s.next
	s.next++

	if idx == 0 && s.first != nil {
		img := s.first
		s.first = nil
		return &Frame{Index: idx, Image: img}, nil
	}

	img, err := imaging.Open(s.paths[idx])
	if err != nil {
		return nil, &SourceUnavailableError{Path: s.paths[idx], Err: err}
	}
	return &Frame{Index: idx, Image: img}, nil
}

func (s *StillSource) Close() error {
	s.first = nil
	return nil
}

// MemorySource replays frames held in memory.
type MemorySource struct {
	frames []image.Image
	next   int
}

// NewMemorySource creates a source over the given frames. Bounds are taken
// from the first frame.
func NewMemorySource(frames ...image.Image) *MemorySource {
	return &MemorySource{frames: frames}
}

func (s *MemorySource) Bounds() image.Rectangle {
	if len(s.frames) == 0 {
		return image.Rectangle{}
	}
	return s.frames[0].Bounds()
}

func (s *MemorySource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := &Frame{Index: s.next, Image: s.frames[s.next]}
	s.next++
	return f, nil
}

func (s *MemorySource) Close() error {
	return nil
}
