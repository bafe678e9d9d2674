package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cyclopcam/logs"

	"github.com/ironsheep/cascade-tools/internal/imaging"
	"github.com/ironsheep/cascade-tools/internal/video"
)

// WritePolicy decides what extraction does when a sample cannot be produced.
type WritePolicy string

const (
	// PolicyAbort stops the run at the first failure.
	PolicyAbort WritePolicy = "abort"

	// PolicySkip logs the failure and moves on, until
	// Extractor.MaxConsecutiveFailures failures happen in a row.
	PolicySkip WritePolicy = "skip"
)

// DefaultMaxConsecutiveFailures is the skip policy's give-up point.
const DefaultMaxConsecutiveFailures = 3

// ParseWritePolicy accepts "abort" or "skip". The empty string means abort.
func ParseWritePolicy(s string) (WritePolicy, error) {
	switch WritePolicy(s) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", fmt.Errorf("unknown write policy %q: expected abort or skip", s)
}

// Stats describes what an extraction run did.
type Stats struct {
	Frames   int
	Written  int
	Failed   int
	FirstID  int
	LastID   int
	Stopped  bool
	Existing int
}

// Extractor pulls frames from a video, turns each into samples and writes
// them under consecutive ids.
type Extractor struct {
	Source      video.Source
	Transformer *imaging.Transformer
	Numberer    *Numberer
	Writer      SampleWriter
	Log         logs.Log

	Policy WritePolicy

	// MaxConsecutiveFailures applies to PolicySkip. Zero selects
	// DefaultMaxConsecutiveFailures.
	MaxConsecutiveFailures int

	// ProgressEvery logs a progress line every N frames. Zero disables it.
	ProgressEvery int
}

// Run extracts until the source is exhausted or ctx is cancelled.
//
// The crop is checked against the source's frame size before anything is
// decoded. Cancellation is only looked at between frames, and is not an
// error: the returned Stats has Stopped set and covers everything written
// up to that point.
func (e *Extractor) Run(ctx context.Context) (*Stats, error) {
	if err := e.Transformer.Validate(e.Source.Bounds()); err != nil {
		return nil, err
	}

	limit := e.MaxConsecutiveFailures
	if limit <= 0 {
		limit = DefaultMaxConsecutiveFailures
	}

	stats := &Stats{
		FirstID:  e.Numberer.Start(),
		LastID:   e.Numberer.Start() - 1,
		Existing: e.Numberer.Existing(),
	}
	consecutive := 0

	// fail applies the write policy. A non-nil return ends the run.
	fail := func(frame int, err error) error {
		stats.Failed++
		if e.Policy != PolicySkip {
			return err
		}
		consecutive++
		e.Log.Warnf("Frame %d: %v", frame, err)
		if consecutive >= limit {
			return fmt.Errorf("giving up after %d consecutive failures: %w", consecutive, err)
		}
		return nil
	}

	for {
		if ctx.Err() != nil {
			stats.Stopped = true
			break
		}

		frame, err := e.Source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				stats.Stopped = true
				break
			}
			return stats, err
		}
		stats.Frames++

		samples, err := e.Transformer.Transform(frame.Image)
		if err != nil {
			if ferr := fail(frame.Index, fmt.Errorf("failed to transform frame %d: %w", frame.Index, err)); ferr != nil {
				return stats, ferr
			}
			continue
		}

		for _, s := range samples {
			id := e.Numberer.Next()
			if _, err := e.Writer.Write(s, id); err != nil {
				if ferr := fail(frame.Index, err); ferr != nil {
					return stats, ferr
				}
				continue
			}
			consecutive = 0
			stats.Written++
			stats.LastID = id
		}

		if e.ProgressEvery > 0 && stats.Frames%e.ProgressEvery == 0 {
			e.Log.Infof("Processed %d frames, %d samples written", stats.Frames, stats.Written)
		}
	}

	if stats.Stopped {
		e.Log.Infof("Stopped after %d frames, %d samples written", stats.Frames, stats.Written)
	} else {
		e.Log.Infof("Finished %d frames, %d samples written (ids %d-%d)", stats.Frames, stats.Written, stats.FirstID, stats.LastID)
	}
	return stats, nil
}
