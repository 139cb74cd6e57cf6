// Package sink presents video frames in a GL window. Producers hand frames
// to ShowFrame from their own goroutine; the sink converts them to the
// requested multiview layout, uploads them and lets the GL thread draw the
// newest one, dropping whatever it could not show in time.
package sink

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fosdem/vrsink/lib/bufferpool"
	"github.com/fosdem/vrsink/lib/gpu"
	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/metrics"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/fosdem/vrsink/lib/viewconvert"
	"github.com/fosdem/vrsink/lib/window"
	"github.com/google/uuid"
)

type Options struct {
	Name     string
	Window   window.Window
	Context  gpu.Context
	Renderer Renderer
	// NewConverter is called when a stereo stream needs converting.
	// Defaults to a CPU ViewConverter.
	NewConverter func() viewconvert.Converter
	Properties   *Properties

	OnKey   func(window.KeyEvent)
	OnMouse func(window.MouseEvent)
}

type Sink struct {
	Name string
	ID   string

	win          window.Window
	ctx          gpu.Context
	renderer     Renderer
	newConverter func() viewconvert.Converter
	onKey        func(window.KeyEvent)
	onMouse      func(window.MouseEvent)

	logger  *slog.Logger
	metrics metrics.SinkMetrics

	mu    sync.Mutex
	state State
	props Properties
	fatal error

	ctxActive bool
	setupDone bool

	inInfo   video.Info
	haveCaps bool
	outInfo  video.Info
	outCaps  *video.Info

	// size the stream should be displayed at, after aspect correction
	sinkW, sinkH      int
	windowW, windowH  int
	displayRect       video.Rectangle
	outputModeChanged bool
	capsChange        bool
	updateViewport    bool

	stager stager
	slot   slot

	// converted output waiting for the GL thread, and whether an upload
	// task for it is already queued
	pending      *pendingUpload
	uploadQueued bool

	// convMu serialises calls into the converter. Lock order is mu, then
	// convMu; code holding convMu never takes mu.
	convMu    sync.Mutex
	converter viewconvert.Converter
	convGen   atomic.Uint64

	// bumped by Drain so in-flight work can tell it is stale
	epoch uint64

	clientDraw    DrawHook
	clientReshape ReshapeHook

	quit       atomic.Bool
	drawQueued atomic.Bool
	presented  atomic.Uint64
}

func New(opts Options) (*Sink, error) {
	if opts.Window == nil {
		return nil, fmt.Errorf("a sink needs a window")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("a sink needs a renderer")
	}
	name := opts.Name
	if name == "" {
		name = "vrsink"
	}
	props := DefaultProperties()
	if opts.Properties != nil {
		props = *opts.Properties
	}
	if err := props.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sink properties: %w", err)
	}

	s := &Sink{
		Name:         name,
		ID:           uuid.NewString(),
		win:          opts.Window,
		ctx:          opts.Context,
		renderer:     opts.Renderer,
		newConverter: opts.NewConverter,
		onKey:        opts.OnKey,
		onMouse:      opts.OnMouse,
		logger:       log.New(name),
		metrics:      metrics.NewSinkMetrics(name),
		props:        props,
		state:        Unconfigured,
	}
	if s.newConverter == nil {
		s.newConverter = func() viewconvert.Converter {
			return viewconvert.New(name+"-convert", 0)
		}
	}
	return s, nil
}

// ShowFrame stores f for display and asks the window to redraw. It does
// not take over the caller's reference.
func (s *Sink) ShowFrame(f *video.Frame) error {
	if err := s.Prepare(f); err != nil {
		return err
	}
	return s.Render()
}

// Prepare stages f, converts it if the output layout differs from the
// input, and queues the result for upload on the GL thread.
func (s *Sink) Prepare(f *video.Frame) error {
	s.mu.Lock()
	if s.fatal != nil {
		err := s.fatal
		s.mu.Unlock()
		return err
	}
	if s.sinkW < 1 || s.sinkH < 1 {
		s.mu.Unlock()
		return ErrNotNegotiated
	}
	if s.ctx == nil || !s.ctxActive {
		s.mu.Unlock()
		return ErrNoContext
	}

	s.metrics.FramesSubmitted.Inc()
	replaced := s.stager.Submit(f.Ref(), s.inInfo.MultiviewMode == video.ModeFrameByFrame)

	var (
		err     error
		dropped []*video.Frame
	)
	if s.outputModeChanged {
		err = s.updateOutputFormat()
	}
	if err == nil {
		dropped, err = s.prepareNext()
	}
	s.mu.Unlock()

	video.Release(replaced...)
	video.Release(dropped...)
	return err
}

// prepareNext runs the staged input through the converter and leaves the
// output as the pending upload for the GL thread. Only one upload is ever
// pending; an older one that the GL thread has not picked up yet is
// returned for the caller to release outside the lock. Called with mu
// held; drops it while converting.
func (s *Sink) prepareNext() ([]*video.Frame, error) {
	fbf := s.inInfo.MultiviewMode == video.ModeFrameByFrame
	primary, secondary, ok := s.stager.CurrentPair(fbf)
	if !ok {
		if s.stager.HasInput() {
			s.metrics.FramesDeferred.Inc()
		}
		return nil, nil
	}
	primary.Ref()
	if secondary != nil {
		secondary.Ref()
	}

	var conv viewconvert.Converter
	if s.converter != nil &&
		(s.inInfo.MultiviewMode != s.outInfo.MultiviewMode || s.inInfo.MultiviewFlags != s.outInfo.MultiviewFlags) {
		conv = s.converter
	}
	gen := s.convGen.Load()
	epoch := s.epoch

	s.mu.Unlock()
	outs, err := s.convert(conv, gen, primary, secondary)
	s.mu.Lock()

	if err != nil {
		s.metrics.ConversionErrors.Inc()
		s.logger.Error(fmt.Sprintf("conversion failed: %s", err))
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	if len(outs) == 0 {
		s.metrics.FramesDeferred.Inc()
		return nil, nil
	}

	var dropped []*video.Frame
	if s.pending != nil {
		dropped = s.pending.outs
		s.metrics.FramesDropped.Inc()
	}
	s.pending = &pendingUpload{outs: outs, epoch: epoch}
	if !s.uploadQueued {
		s.uploadQueued = true
		s.win.Marshal(s.uploadPending)
	}
	return dropped, nil
}

type pendingUpload struct {
	outs  []*video.Frame
	epoch uint64
}

// uploadPending runs on the GL thread and uploads whatever output is
// pending by then.
func (s *Sink) uploadPending() {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.uploadQueued = false
	s.mu.Unlock()
	if p != nil {
		s.uploadAndPublish(p.outs, p.epoch)
	}
}

// convert consumes the references on primary and secondary.
func (s *Sink) convert(conv viewconvert.Converter, gen uint64, primary, secondary *video.Frame) ([]*video.Frame, error) {
	if conv == nil {
		// shown as is; only the first view of a bundle is drawn
		video.Release(secondary)
		return []*video.Frame{primary}, nil
	}
	defer video.Release(primary, secondary)

	s.convMu.Lock()
	defer s.convMu.Unlock()

	if s.convGen.Load() != gen {
		// the converter was replaced or reconfigured meanwhile
		return nil, nil
	}
	if err := conv.Submit(primary, secondary, primary.Flags.Has(video.FlagDiscont)); err != nil {
		return nil, fmt.Errorf("could not submit frame: %w", err)
	}
	outs, err := conv.Poll()
	if errors.Is(err, viewconvert.ErrNotReady) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get converted frame: %w", err)
	}
	return outs, nil
}

// uploadAndPublish runs on the GL thread.
func (s *Sink) uploadAndPublish(outs []*video.Frame, epoch uint64) {
	s.mu.Lock()
	stale := epoch != s.epoch || s.state == TornDown
	s.mu.Unlock()
	if stale {
		video.Release(outs...)
		return
	}

	if err := s.renderer.Upload(outs...); err != nil {
		s.logger.Error(fmt.Sprintf("could not upload frame: %s", err))
		s.metrics.FramesDropped.Add(float64(len(outs)))
		video.Release(outs...)
		return
	}

	var fence gpu.Fence
	if s.ctx.HasFenceSync() {
		fence = s.ctx.NewFence()
	}

	var secondary *video.Frame
	if len(outs) > 1 {
		secondary = outs[1]
	}

	s.mu.Lock()
	if epoch != s.epoch || s.state == TornDown {
		s.mu.Unlock()
		slotEntry{primary: outs[0], secondary: secondary, fence: fence}.release()
		return
	}
	retired := s.slot.Publish(outs[0], secondary, fence)
	if s.state != Presenting {
		s.logger.Debug("presenting")
		s.state = Presenting
	}
	s.mu.Unlock()

	s.metrics.FramesPublished.Inc()
	if !retired.empty() {
		s.metrics.FramesDropped.Inc()
	}
	retired.release()
}

// Render makes sure the GL resources exist, applies pending output format
// changes and requests a redraw.
func (s *Sink) Render() error {
	s.mu.Lock()
	if s.fatal != nil {
		err := s.fatal
		s.mu.Unlock()
		return err
	}
	if s.state == Unconfigured || s.state == TornDown {
		s.mu.Unlock()
		return ErrNotNegotiated
	}
	needSetup := !s.setupDone
	w, h := s.sinkW, s.sinkH
	s.mu.Unlock()

	if s.quit.Load() {
		return ErrWindowClosed
	}

	if needSetup {
		if err := s.setup(w, h); err != nil {
			return err
		}
	}

	var dropped []*video.Frame
	s.mu.Lock()
	if s.outputModeChanged && s.stager.HasInput() {
		s.logger.Debug("recreating output after mode/size change")
		err := s.updateOutputFormat()
		if err == nil {
			dropped, err = s.prepareNext()
		}
		if err != nil {
			s.logger.Error(fmt.Sprintf("could not update output: %s", err))
		}
	}
	s.mu.Unlock()
	video.Release(dropped...)

	s.OnRedrawRequested()

	if s.quit.Load() || !s.win.IsRunning() {
		return ErrWindowClosed
	}
	return nil
}

func (s *Sink) setup(w, h int) error {
	var setupErr error
	if err := s.win.Send(func() { setupErr = s.renderer.Setup() }); err != nil {
		setupErr = err
	}
	if setupErr != nil {
		err := fmt.Errorf("%w: %w", ErrResourceSetup, setupErr)
		s.mu.Lock()
		s.fatal = err
		s.mu.Unlock()
		s.logger.Error(err.Error())
		return err
	}

	s.mu.Lock()
	s.setupDone = true
	s.mu.Unlock()

	s.win.SetPreferredSize(w, h)
	s.win.Show()
	// the window might already have the preferred size and never report it
	s.win.Marshal(func() {
		ww, wh := s.win.Size()
		s.OnResize(ww, wh)
	})
	return nil
}

func (s *Sink) SetClientDraw(hook DrawHook) {
	s.mu.Lock()
	s.clientDraw = hook
	s.mu.Unlock()
}

func (s *Sink) SetClientReshape(hook ReshapeHook) {
	s.mu.Lock()
	s.clientReshape = hook
	s.mu.Unlock()
}

func (s *Sink) Properties() Properties {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.props
}

// SetProperties applies p. Multiview changes take effect on the next
// rendered frame; aspect changes on the next draw.
func (s *Sink) SetProperties(p Properties) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.props
	s.props = p
	if p.multiviewChanged(&old) || p.ParN != old.ParN || p.ParD != old.ParD {
		s.outputModeChanged = true
	}
	if p.ForceAspectRatio != old.ForceAspectRatio || p.ParN != old.ParN || p.ParD != old.ParD {
		s.capsChange = true
	}
	active := s.ctxActive
	setup := s.setupDone
	s.mu.Unlock()

	if p.HandleEvents != old.HandleEvents {
		s.win.HandleEvents(p.HandleEvents)
	}
	if active {
		if p.WindowHandle != old.WindowHandle {
			s.win.SetSurfaceHandle(p.WindowHandle)
		}
		if !sameRect(p.RenderRect, old.RenderRect) {
			if err := s.applyRenderRect(p.RenderRect); err != nil {
				return err
			}
		}
	}
	if setup {
		s.OnRedrawRequested()
	}
	return nil
}

func sameRect(a, b *video.Rectangle) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Sink) applyRenderRect(r *video.Rectangle) error {
	if r == nil {
		return s.win.SetRenderRectangle(-1, -1, -1, -1)
	}
	return s.win.SetRenderRectangle(r.X, r.Y, r.W, r.H)
}

// ProposeAllocation answers a producer asking how to allocate frames.
func (s *Sink) ProposeAllocation(info video.Info, needPool bool) (*bufferpool.Proposal, error) {
	if err := s.ensureContext(); err != nil {
		return nil, err
	}
	p, err := bufferpool.NewProposal(s.Name+"-pool", info, needPool, s.ctx.HasFenceSync())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPoolRejected, err)
	}
	return p, nil
}

// QueryContext exposes the GPU context for interop with other GL users.
func (s *Sink) QueryContext() (gpu.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil || !s.ctxActive {
		return nil, ErrNoContext
	}
	return s.ctx, nil
}

// DisplayedFrame returns a reference to the frame on screen, or nil. The
// caller must Unref it.
func (s *Sink) DisplayedFrame() *video.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.slot.PeekDisplayed()
	if e.primary == nil {
		return nil
	}
	return e.primary.Ref()
}

type Status struct {
	Name        string          `json:"name"`
	ID          string          `json:"id"`
	State       string          `json:"state"`
	Input       *video.Info     `json:"input,omitempty"`
	Output      *video.Info     `json:"output,omitempty"`
	DisplayRect video.Rectangle `json:"display_rect"`
	WindowW     int             `json:"window_width"`
	WindowH     int             `json:"window_height"`
	Presented   uint64          `json:"presented"`
	Error       string          `json:"error,omitempty"`
}

func (s *Sink) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Name:        s.Name,
		ID:          s.ID,
		State:       s.state.String(),
		DisplayRect: s.displayRect,
		WindowW:     s.windowW,
		WindowH:     s.windowH,
		Presented:   s.presented.Load(),
	}
	if s.haveCaps {
		in := s.inInfo
		st.Input = &in
	}
	if s.outCaps != nil {
		out := *s.outCaps
		st.Output = &out
	}
	if s.fatal != nil {
		st.Error = s.fatal.Error()
	}
	return st
}

// Presented counts draw passes that showed a frame.
func (s *Sink) Presented() uint64 {
	return s.presented.Load()
}
