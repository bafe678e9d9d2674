package video

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegOptions configures the ffmpeg and ffprobe executables.
type FFmpegOptions struct {
	// FFmpegPath defaults to "ffmpeg" on PATH.
	FFmpegPath string

	// FFprobePath defaults to "ffprobe" on PATH.
	FFprobePath string
}

// FFmpegSource streams RGB24 frames out of an ffmpeg subprocess.
type FFmpegSource struct {
	path   string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr *bytes.Buffer
	bounds image.Rectangle
	buf    []byte
	next   int
	done   bool
}

// NewFFmpegSource probes the video dimensions and starts the decoder.
// The subprocess is killed if ctx is cancelled.
func NewFFmpegSource(ctx context.Context, path string, opts FFmpegOptions) (*FFmpegSource, error) {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &SourceUnavailableError{Path: path, Err: err}
	}

	width, height, err := probeSize(ctx, opts.FFprobePath, path)
	if err != nil {
		return nil, &SourceUnavailableError{Path: path, Err: err}
	}

	cmd := exec.CommandContext(ctx, opts.FFmpegPath, decodeArgs(path)...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SourceUnavailableError{Path: path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &SourceUnavailableError{Path: path, Err: fmt.Errorf("failed to start ffmpeg: %w", err)}
	}

	return &FFmpegSource{
		path:   path,
		cmd:    cmd,
		stdout: stdout,
		reader: bufio.NewReaderSize(stdout, 1<<20),
		stderr: stderr,
		bounds: image.Rect(0, 0, width, height),
		buf:    make([]byte, width*height*3),
	}, nil
}

func (s *FFmpegSource) Bounds() image.Rectangle {
	return s.bounds
}

// Next reads one frame. A truncated trailing frame is treated as the end of
// the stream.
func (s *FFmpegSource) Next(ctx context.Context) (*Frame, error) {
	if s.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(s.reader, s.buf); err != nil {
		s.done = true
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if werr := s.wait(); werr != nil {
				return nil, &SourceUnavailableError{Path: s.path, Err: werr}
			}
			return nil, io.EOF
		}
		return nil, &SourceUnavailableError{Path: s.path, Err: err}
	}

	w, h := s.bounds.Dx(), s.bounds.Dy()
	img := image.NewRGBA(s.bounds)
	for i, j := 0, 0; i < w*h; i, j = i+1, j+3 {
		img.Pix[i*4+0] = s.buf[j+0]
		img.Pix[i*4+1] = s.buf[j+1]
		img.Pix[i*4+2] = s.buf[j+2]
		img.Pix[i*4+3] = 0xff
	}

	f := &Frame{Index: s.next, Image: img}
	s.next++
	return f, nil
}

// Close stops the decoder if it is still running.
func (s *FFmpegSource) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.stdout.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}

func (s *FFmpegSource) wait() error {
	if err := s.cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(s.stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %s", msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// decodeArgs streams every decoded frame once, in order, as packed RGB24.
// ffmpeg applies the rotation metadata itself, so frames come out in display
// orientation; probeSize reports the matching size. Passthrough keeps the
// muxer from duplicating or dropping frames of variable-rate recordings.
func decodeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-i", path,
		"-an",
		"-fps_mode", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	}
}

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
		Tags   struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideData []struct {
			Rotation float64 `json:"rotation"`
		} `json:"side_data_list"`
	} `json:"streams"`
}

// probeSize asks ffprobe for the display dimensions of the first video
// stream.
func probeSize(ctx context.Context, ffprobe, path string) (int, int, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:stream_tags=rotate:stream_side_data=rotation",
		"-of", "json",
		path)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) != 0 {
			return 0, 0, fmt.Errorf("ffprobe: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return 0, 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (int, int, error) {
	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return 0, 0, fmt.Errorf("no video stream found")
	}
	st := probe.Streams[0]
	w, h := st.Width, st.Height
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid video dimensions %dx%d", w, h)
	}

	// Width and height are the coded size. A quarter turn swaps them.
	var rotation float64
	if st.Tags.Rotate != "" {
		r, err := strconv.ParseFloat(st.Tags.Rotate, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid rotate tag %q", st.Tags.Rotate)
		}
		rotation = r
	}
	for _, sd := range st.SideData {
		if sd.Rotation != 0 {
			rotation = sd.Rotation
		}
	}
	if quarterTurn(rotation) {
		w, h = h, w
	}
	return w, h, nil
}

func quarterTurn(deg float64) bool {
	r := int(math.Round(deg)) % 180
	if r < 0 {
		r += 180
	}
	return r == 90
}
