// Package source defines how frame producers talk to the sink and the
// filter pipeline between them.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fosdem/vrsink/lib/bufferpool"
	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/google/uuid"
)

type Source interface {
	Start(ctx context.Context) error
	Stop()
}

// FrameSink is where sources deliver frames. ShowFrame does not take over
// the caller's reference.
type FrameSink interface {
	SetCaps(info video.Info) error
	ShowFrame(f *video.Frame) error
}

// Allocator is implemented by sinks that can hand out frame pools.
type Allocator interface {
	ProposeAllocation(info video.Info, needPool bool) (*bufferpool.Proposal, error)
}

// Filter works on CPU frames between a source and the sink. Process may
// work in place and return its argument, or return a new frame the caller
// then owns.
type Filter interface {
	Name() string
	SetCaps(info video.Info) (video.Info, error)
	Process(f *video.Frame) (*video.Frame, error)
}

var ErrAlreadyRunning = errors.New("source is already running")

// Pipeline runs frames through its filters before handing them to the sink.
type Pipeline struct {
	ID string

	sink    FrameSink
	filters []Filter
	logger  *slog.Logger

	mu sync.Mutex
}

func NewPipeline(sink FrameSink, filters ...Filter) *Pipeline {
	id := uuid.NewString()
	return &Pipeline{
		ID:      id,
		sink:    sink,
		filters: filters,
		logger:  log.New("pipeline").With(slog.String("stream", id)),
	}
}

func (p *Pipeline) SetCaps(info video.Info) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := info
	for _, f := range p.filters {
		var err error
		out, err = f.SetCaps(out)
		if err != nil {
			return fmt.Errorf("filter %s rejected %s: %w", f.Name(), info, err)
		}
	}
	if err := p.sink.SetCaps(out); err != nil {
		return err
	}
	p.logger.Info(fmt.Sprintf("streaming %s through %d filters", info, len(p.filters)))
	return nil
}

func (p *Pipeline) ShowFrame(f *video.Frame) error {
	cur := f
	for _, flt := range p.filters {
		next, err := flt.Process(cur)
		if err != nil {
			if cur != f {
				cur.Unref()
			}
			return fmt.Errorf("filter %s failed: %w", flt.Name(), err)
		}
		if cur != f && cur != next {
			cur.Unref()
		}
		cur = next
	}

	err := p.sink.ShowFrame(cur)
	if cur != f {
		cur.Unref()
	}
	return err
}

// ProposeAllocation asks the sink for a pool, unless a filter sits in
// between: filters may change the format, so sources then allocate
// their own frames.
func (p *Pipeline) ProposeAllocation(info video.Info, needPool bool) (*bufferpool.Proposal, error) {
	alloc, ok := p.sink.(Allocator)
	if !ok || len(p.filters) > 0 {
		return bufferpool.NewProposal("pipeline", info, needPool, false)
	}
	return alloc.ProposeAllocation(info, needPool)
}

// NewPool gets a frame pool for info from sink, or makes one.
func NewPool(name string, sink FrameSink, info video.Info) (*bufferpool.Pool, error) {
	if alloc, ok := sink.(Allocator); ok {
		p, err := alloc.ProposeAllocation(info, true)
		if err == nil && p.Pool != nil {
			return p.Pool, nil
		}
	}
	return bufferpool.New(name, bufferpool.Config{Info: info, MinBuffers: bufferpool.MinBuffers})
}

// Runner owns the goroutine of a running source.
type Runner struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Go starts fn. fn returning nil or context.Canceled counts as a clean stop.
func (r *Runner) Go(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		select {
		case <-r.done:
		default:
			return ErrAlreadyRunning
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.err = nil

	go func() {
		defer close(done)
		defer cancel()
		err := fn(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
	}()
	return nil
}

// Stop cancels the goroutine and waits for it.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the goroutine ends; nil before the first Go.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
