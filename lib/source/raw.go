package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fosdem/vrsink/lib/bufferpool"
	"github.com/fosdem/vrsink/lib/video"
)

var ErrSinkRefused = errors.New("sink refused frame")

// RawReader cuts a stream of tightly packed frames into pool frames and
// shows them on the sink.
type RawReader struct {
	Sink   FrameSink
	Pool   *bufferpool.Pool
	Logger *slog.Logger
	// Pace sleeps between frames to keep to the negotiated frame rate.
	Pace bool

	frames atomic.Uint64
}

// Frames is the number of frames read so far, skipped ones included.
func (r *RawReader) Frames() uint64 {
	return r.frames.Load()
}

// Read returns io.EOF when the stream ends on a frame boundary.
func (r *RawReader) Read(ctx context.Context, rd io.Reader) error {
	info := r.Pool.Info()
	size := int64(info.Size())
	duration := info.FrameDuration()
	next := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame := r.Pool.Acquire()
		if frame == nil {
			// skip exactly one frame so the stream stays aligned
			if _, err := io.CopyN(io.Discard, rd, size); err != nil {
				return err
			}
			r.Logger.Debug("no free frame, skipped one")
			r.frames.Add(1)
			continue
		}

		if _, err := io.ReadFull(rd, frame.Data); err != nil {
			frame.Unref()
			if err == io.ErrUnexpectedEOF {
				return fmt.Errorf("stream ended mid-frame")
			}
			return err
		}

		n := r.frames.Load()
		frame.ID = n
		frame.PTS = time.Duration(n) * duration
		frame.Duration = duration
		frame.Flags = 0
		if info.MultiviewMode == video.ModeFrameByFrame && n%2 == 0 {
			frame.Flags = video.FlagFirstInBundle
		}
		r.frames.Add(1)

		if r.Pace && duration > 0 {
			next = next.Add(duration)
			if wait := time.Until(next); wait > 0 {
				time.Sleep(wait)
			} else {
				next = time.Now()
			}
		}

		err := r.Sink.ShowFrame(frame)
		frame.Unref()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSinkRefused, err)
		}
	}
}
