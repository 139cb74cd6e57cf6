// Package viewconvert rearranges the views of stereoscopic video: it picks
// single views, packs them side by side, top and bottom or as alternating
// frames, or mixes them down to one anaglyph image.
package viewconvert

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fosdem/vrsink/lib/bufferpool"
	"github.com/fosdem/vrsink/lib/video"
)

// ErrNotReady means the converter needs more input before it has output.
var ErrNotReady = errors.New("view converter has no output yet")

var ErrNotConfigured = errors.New("view converter has no format")

// Converter is not safe for concurrent use.
type Converter interface {
	SetFormat(in, out video.Info, downmix video.DownmixMode) error
	// Submit queues one input bundle. The converter takes its own references;
	// secondary is only used for frame-by-frame input.
	Submit(primary, secondary *video.Frame, discont bool) error
	// Poll returns the next converted bundle: one frame, or two for
	// frame-by-frame output. The caller owns the returned references.
	Poll() ([]*video.Frame, error)
	Close()
}

type bundle struct {
	primary   *video.Frame
	secondary *video.Frame
	discont   bool
}

func (b bundle) release() {
	video.Release(b.primary, b.secondary)
}

// ViewConverter converts on the CPU into RGBA frames.
type ViewConverter struct {
	Name string
	// Latency is the number of bundles held back before output appears.
	Latency int

	mu      sync.Mutex
	in      video.Info
	out     video.Info
	downmix video.DownmixMode
	pool    *bufferpool.Pool

	pending []bundle
	ready   [][]*video.Frame
}

func New(name string, latency int) *ViewConverter {
	return &ViewConverter{Name: name, Latency: max(0, latency)}
}

func (c *ViewConverter) SetFormat(in, out video.Info, downmix video.DownmixMode) error {
	if err := in.Validate(); err != nil {
		return fmt.Errorf("invalid input format: %w", err)
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}
	if out.Format != video.FormatRGBA {
		return fmt.Errorf("can only convert to RGBA, not %s", out.Format)
	}
	if out.MultiviewMode == video.ModeNone {
		return fmt.Errorf("no output multiview mode set")
	}
	if _, ok := downmixMatrices[downmix]; !ok {
		return fmt.Errorf("unknown downmix mode %d", int(downmix))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.flushLocked()
	if c.pool == nil || c.pool.Info() != out {
		if c.pool != nil {
			c.pool.Close()
		}
		pool, err := bufferpool.New(c.Name, bufferpool.Config{
			Info:       out,
			MinBuffers: bufferpool.MinBuffers * out.MultiviewMode.Views(),
		})
		if err != nil {
			return fmt.Errorf("could not create output pool: %w", err)
		}
		c.pool = pool
	}
	c.in = in
	c.out = out
	c.downmix = downmix
	return nil
}

func (c *ViewConverter) Submit(primary, secondary *video.Frame, discont bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool == nil {
		return ErrNotConfigured
	}
	if primary == nil {
		return fmt.Errorf("no input frame")
	}
	if c.in.MultiviewMode == video.ModeFrameByFrame && secondary == nil {
		return fmt.Errorf("frame-by-frame input needs both views")
	}
	if err := c.checkInput(primary); err != nil {
		return err
	}
	if secondary != nil {
		if err := c.checkInput(secondary); err != nil {
			return err
		}
	}

	if discont {
		c.flushLocked()
	}

	b := bundle{primary: primary.Ref(), discont: discont}
	if c.in.MultiviewMode == video.ModeFrameByFrame {
		b.secondary = secondary.Ref()
	}
	c.pending = append(c.pending, b)

	for len(c.pending) > c.Latency {
		next := c.pending[0]
		c.pending = c.pending[1:]
		out, err := c.convert(next)
		next.release()
		if err != nil {
			return err
		}
		c.ready = append(c.ready, out)
	}
	return nil
}

func (c *ViewConverter) checkInput(f *video.Frame) error {
	if f.Info.Width != c.in.Width || f.Info.Height != c.in.Height || f.Info.Format != c.in.Format {
		return fmt.Errorf("input frame %s does not match configured %s", f.Info, c.in)
	}
	if len(f.Data) < c.in.Size() {
		return fmt.Errorf("input frame buffer too small: %d < %d", len(f.Data), c.in.Size())
	}
	return nil
}

func (c *ViewConverter) Poll() ([]*video.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool == nil {
		return nil, ErrNotConfigured
	}
	if len(c.ready) == 0 {
		return nil, ErrNotReady
	}
	out := c.ready[0]
	c.ready = c.ready[1:]
	return out, nil
}

// Flush drops queued input and unclaimed output.
func (c *ViewConverter) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

func (c *ViewConverter) flushLocked() {
	for _, b := range c.pending {
		b.release()
	}
	c.pending = nil
	for _, out := range c.ready {
		video.Release(out...)
	}
	c.ready = nil
}

func (c *ViewConverter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}

func (c *ViewConverter) acquire() (*video.Frame, error) {
	f := c.pool.Acquire()
	if f == nil {
		return nil, fmt.Errorf("output pool exhausted")
	}
	return f, nil
}
