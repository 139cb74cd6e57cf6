// Package bufferpool hands out frames of one negotiated size and takes them
// back once their last reference is dropped.
package bufferpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fosdem/vrsink/lib/metrics"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/prometheus/client_golang/prometheus"
)

var ErrClosed = errors.New("buffer pool is closed")

type Config struct {
	Info video.Info
	// MinBuffers are allocated up front.
	MinBuffers int
	// MaxBuffers caps the number of frames in circulation; 0 means no cap.
	MaxBuffers int
}

func (c *Config) Validate() error {
	if err := c.Info.Validate(); err != nil {
		return fmt.Errorf("invalid pool format: %w", err)
	}
	if c.MinBuffers < 1 {
		return fmt.Errorf("a pool needs at least one buffer")
	}
	if c.MaxBuffers != 0 && c.MaxBuffers < c.MinBuffers {
		return fmt.Errorf("max buffers (%d) is smaller than min buffers (%d)", c.MaxBuffers, c.MinBuffers)
	}
	return nil
}

// Pool drops requests instead of blocking when every frame is in use, the
// same way a latency-bound stream drops frames.
type Pool struct {
	Name string

	mu        sync.Mutex
	cfg       Config
	bin       []*video.Frame
	allocated int
	closed    bool
	lastID    uint64

	exhausted prometheus.Counter
}

func New(name string, cfg Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pool{
		Name:      name,
		cfg:       cfg,
		exhausted: metrics.NewPoolMetrics(name),
	}
	p.bin = make([]*video.Frame, 0, cfg.MinBuffers)
	for range cfg.MinBuffers {
		p.bin = append(p.bin, p.newFrame())
	}
	return p, nil
}

func (p *Pool) newFrame() *video.Frame {
	p.allocated++
	return video.NewIdleFrame(p.cfg.Info, make([]byte, p.cfg.Info.Size()), p.recycle)
}

// Acquire returns a frame with one reference, or nil if the pool is
// exhausted or closed.
func (p *Pool) Acquire() *video.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	var frame *video.Frame
	if n := len(p.bin); n > 0 {
		frame = p.bin[n-1]
		p.bin = p.bin[:n-1]
	} else if p.cfg.MaxBuffers == 0 || p.allocated < p.cfg.MaxBuffers {
		frame = p.newFrame()
	} else {
		p.exhausted.Inc()
		return nil
	}

	p.lastID++
	frame.ID = p.lastID
	frame.Revive()
	return frame
}

func (p *Pool) recycle(frame *video.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.allocated--
		return
	}
	if len(p.bin) >= p.allocated {
		panic("more frames returned than extracted??")
	}
	frame.Flags = 0
	frame.Texture = 0
	frame.PTS = 0
	frame.Duration = 0
	frame.View = video.ViewMono
	p.bin = append(p.bin, frame)
}

func (p *Pool) Info() video.Info {
	return p.cfg.Info
}

func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bin)
}

// InUse is the number of frames handed out and not yet returned.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated - len(p.bin)
}

// Close frees idle frames. Frames still in use are dropped when released.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.allocated -= len(p.bin)
	p.bin = nil
}
